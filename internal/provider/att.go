// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/config"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/decode"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/logging"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/models"
)

// maxResponseBody bounds how much of an upstream response is read.
const maxResponseBody = 16 << 20

// ATTAdapter checks fiber serviceability against the AT&T baseline fiber
// check endpoint. The endpoint returns a deliberately obfuscated body that
// goes through the full decode pipeline before classification.
type ATTAdapter struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
	limit   *RateLimit
}

// NewATTAdapter creates the AT&T adapter from configuration.
func NewATTAdapter(cfg config.ATTConfig) *ATTAdapter {
	var limit *RateLimit
	if cfg.RateLimit > 0 {
		limit = &RateLimit{Delay: cfg.RateLimit, MaxInFlight: 1}
	}
	return &ATTAdapter{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		cb:    newBreaker("att-upstream"),
		limit: limit,
	}
}

// ID implements Adapter.
func (a *ATTAdapter) ID() string { return "att" }

// Name implements Adapter.
func (a *ATTAdapter) Name() string { return "AT&T Fiber" }

// RateLimit implements Adapter.
func (a *ATTAdapter) RateLimit() *RateLimit { return a.limit }

// Stub implements Adapter.
func (a *ATTAdapter) Stub() bool { return false }

type attCheckRequest struct {
	Address string `json:"address"`
}

// Fetch posts the address to the upstream check endpoint and returns the raw
// body plus the declared transport encoding. Any transport failure returns
// nil; the caller records it as a per-item error.
func (a *ATTAdapter) Fetch(ctx context.Context, address string) *RawResponse {
	payload, err := json.Marshal(attCheckRequest{Address: address})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal check request")
		return nil
	}

	var contentEncoding string
	body, err := breakerDo(a.cb, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		// Ask for brotli explicitly so the transport hands the body back
		// untouched; the decode pipeline owns decompression.
		req.Header.Set("Accept-Encoding", "br")

		resp, err := a.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("upstream call: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
		}
		contentEncoding = resp.Header.Get("Content-Encoding")

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return data, nil
	})
	if err != nil {
		logging.Warn().Err(err).Str("provider", a.ID()).Msg("Fetch failed")
		return nil
	}
	return &RawResponse{Body: body, ContentEncoding: contentEncoding}
}

// Decode runs the obfuscated body through the decode pipeline and classifies
// the result. A pipeline failure returns the no-service default with an
// error; a recognized document that simply carries no signal is a genuine
// "none" with no error.
func (a *ATTAdapter) Decode(raw *RawResponse) (models.ServiceabilityResult, error) {
	if raw == nil || len(raw.Body) == 0 {
		return models.NoService(), fmt.Errorf("empty response")
	}
	doc := decode.Decode(raw.Body, raw.ContentEncoding)
	if doc == nil {
		return models.NoService(), fmt.Errorf("response decode failed")
	}
	return classifyATT(doc), nil
}
