// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package transform

import "errors"

// ErrInvalidLength is returned when a block's length byte decodes to a value
// greater than 45, which no conforming encoder produces.
var ErrInvalidLength = errors.New("transform: block length byte out of range")

// maxBlockLen is the payload capacity of one encoded block. A length byte
// decoding below this value marks the final block of the stream.
const maxBlockLen = 45

// BlockDecode decodes the upstream's line-oriented packed 6-bit scheme. It
// superficially resembles UUdecoding but uses its own framing:
//
//   - each block starts with a length byte L = (b-32)&63; L > 45 is malformed,
//     L < 45 marks the final block
//   - payload bytes follow in groups of four, each group unpacking to three
//     output bytes from adjacent 6-bit groups
//   - one separator byte follows each block
//
// Truncated input is tolerated, not an error: if fewer than four bytes remain
// mid-block the decoder stops consuming silently, and the result is truncated
// to the accumulated declared length, which may exceed the bytes actually
// written. Callers must treat a short result as valid partial data.
func BlockDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*3/4)
	n := 0 // accumulated declared length across blocks

	for r := 0; r < len(data); {
		l := int(data[r]-32) & 63
		r++
		if l > maxBlockLen {
			return nil, ErrInvalidLength
		}
		final := l < maxBlockLen
		n += l

		for l > 0 && r+4 <= len(data) {
			b0 := (data[r] - 32) & 63
			b1 := (data[r+1] - 32) & 63
			b2 := (data[r+2] - 32) & 63
			b3 := (data[r+3] - 32) & 63
			out = append(out,
				b0<<2|b1>>4,
				b1<<4|b2>>2,
				b2<<6|b3,
			)
			r += 4
			l -= 3
		}

		// Skip the separator byte after the block.
		r++

		if final {
			break
		}
	}

	// The declared length trims the up-to-two padding bytes of the last
	// group. On truncated input it exceeds len(out); the short buffer is
	// returned as-is.
	if n < len(out) {
		out = out[:n]
	}
	return out, nil
}
