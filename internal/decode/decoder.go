// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

// Package decode turns the obfuscated provider response body into JSON.
//
// The upstream deliberately obfuscates its payloads: optionally
// brotli-compressed, then ROT13-ciphered, then packed into a non-standard
// 6-bit block encoding, sometimes gzip-compressed inside, and occasionally
// padded with garbage around the JSON document. Each stage here degrades
// gracefully instead of propagating failures into the checker: Decode returns
// nil for anything unrecoverable and never panics.
package decode

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/logging"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/metrics"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/transform"
)

// plainMarker is the first byte of an uncompressed payload: a full first
// block's length byte ('M') after ROT13 is 'Z', so a leading 'Z' means the
// body skipped transport compression and is already cipher text.
const plainMarker = 'Z'

// maxDecodedSize bounds decompression output against zip-bomb style payloads.
const maxDecodedSize = 16 << 20 // 16MB

// Decode runs the full pipeline and returns the extracted JSON document
// bytes, or nil when the body is unrecoverable. encodingHint is the declared
// transport encoding; it may be absent or inaccurate. Only brotli (or
// unspecified) transport is supported.
func Decode(body []byte, encodingHint string) []byte {
	if len(body) == 0 {
		return nil
	}
	if encodingHint != "" && encodingHint != "br" {
		metrics.DecodeFailures.WithLabelValues("encoding_hint").Inc()
		return nil
	}

	// Stage A: optional transport decompression. A leading plain marker
	// means the body is already cipher text; a brotli failure falls back to
	// treating the raw bytes as text.
	var text string
	if body[0] == plainMarker {
		text = string(body)
	} else {
		decompressed, err := io.ReadAll(io.LimitReader(brotli.NewReader(bytes.NewReader(body)), maxDecodedSize))
		if err != nil {
			logging.Debug().Err(err).Msg("Brotli decompression failed, falling back to raw bytes")
			text = string(body)
		} else {
			text = string(decompressed)
		}
	}

	// Stage B: cipher reversal.
	text = transform.Rot13(text)

	// Stage C: packed 6-bit block decode. An empty result is as fatal as a
	// malformed one.
	block, err := transform.BlockDecode([]byte(text))
	if err != nil || len(block) == 0 {
		metrics.DecodeFailures.WithLabelValues("block_decode").Inc()
		return nil
	}

	// Stage D: magic-byte sniff for an inner gzip layer. Unlike stage A,
	// a gunzip failure here is fatal: the magic bytes said gzip.
	if len(block) >= 2 && block[0] == 0x1f && block[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(block))
		if err != nil {
			metrics.DecodeFailures.WithLabelValues("gunzip").Inc()
			return nil
		}
		inner, err := io.ReadAll(io.LimitReader(zr, maxDecodedSize))
		closeErr := zr.Close()
		if err != nil || closeErr != nil {
			metrics.DecodeFailures.WithLabelValues("gunzip").Inc()
			return nil
		}
		block = inner
	}

	// Stage E: tolerant JSON extraction.
	doc := ExtractJSON(string(block))
	if doc == nil {
		metrics.DecodeFailures.WithLabelValues("json_extract").Inc()
		return nil
	}
	return doc
}
