// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/config"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/decode"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/logging"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/models"
)

// errTokenRejected marks an upstream 403 so the fetch path can rotate the
// token and retry exactly once.
var errTokenRejected = errors.New("token rejected")

// FrontierAdapter checks serviceability against the Frontier address-search
// API. Unlike AT&T the responses are plain JSON, but the API requires an
// OAuth bearer token with expiry tracking and rotation on 403.
type FrontierAdapter struct {
	baseURL string
	client  *http.Client
	creds   *CredentialManager
	cb      *gobreaker.CircuitBreaker[[]byte]
	limit   *RateLimit
}

// NewFrontierAdapter creates the Frontier adapter. tokens may be nil to skip
// token persistence.
func NewFrontierAdapter(cfg config.FrontierConfig, tokens TokenStore) *FrontierAdapter {
	var limit *RateLimit
	if cfg.RateLimit > 0 {
		limit = &RateLimit{Delay: cfg.RateLimit, MaxInFlight: 1}
	}

	client := &http.Client{Timeout: cfg.Timeout}
	a := &FrontierAdapter{
		baseURL: cfg.BaseURL,
		client:  client,
		cb:      newBreaker("frontier-upstream"),
		limit:   limit,
	}
	a.creds = NewCredentialManager("frontier", newFrontierRefresh(client, cfg), tokens)
	return a
}

// newFrontierRefresh builds the client-credentials token fetch.
func newFrontierRefresh(client *http.Client, cfg config.FrontierConfig) RefreshFunc {
	return func(ctx context.Context) (string, time.Time, error) {
		form := url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {cfg.ClientID},
			"client_secret": {cfg.ClientSecret},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.AuthURL, strings.NewReader(form.Encode()))
		if err != nil {
			return "", time.Time{}, fmt.Errorf("build auth request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := client.Do(req)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("auth call: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", time.Time{}, fmt.Errorf("auth status %d", resp.StatusCode)
		}

		var tokenResp struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int64  `json:"expires_in"`
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		if err != nil {
			return "", time.Time{}, fmt.Errorf("read auth body: %w", err)
		}
		if err := json.Unmarshal(data, &tokenResp); err != nil {
			return "", time.Time{}, fmt.Errorf("parse auth body: %w", err)
		}
		if tokenResp.AccessToken == "" {
			return "", time.Time{}, fmt.Errorf("auth response missing access_token")
		}
		return tokenResp.AccessToken, time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second), nil
	}
}

// ID implements Adapter.
func (a *FrontierAdapter) ID() string { return "frontier" }

// Name implements Adapter.
func (a *FrontierAdapter) Name() string { return "Frontier Fiber" }

// RateLimit implements Adapter.
func (a *FrontierAdapter) RateLimit() *RateLimit { return a.limit }

// Stub implements Adapter.
func (a *FrontierAdapter) Stub() bool { return false }

type frontierCheckRequest struct {
	Street string `json:"streetAddress"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zipCode,omitempty"`
}

// Fetch posts the parsed address with a bearer token. A 403 invalidates the
// cached token, waits the rotation cooldown, and retries exactly once with a
// fresh token before giving up.
func (a *FrontierAdapter) Fetch(ctx context.Context, address string) *RawResponse {
	parsed := ParseAddress(address)
	payload, err := json.Marshal(frontierCheckRequest{
		Street: parsed.Street,
		City:   parsed.City,
		State:  parsed.State,
		Zip:    parsed.Zip,
	})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal check request")
		return nil
	}

	token, err := a.creds.Token(ctx)
	if err != nil {
		logging.Warn().Err(err).Str("provider", a.ID()).Msg("Token acquisition failed")
		return nil
	}

	body, err := a.post(ctx, payload, token)
	if isTokenRejected(err) {
		token, err = a.creds.Rotate(ctx)
		if err != nil {
			logging.Warn().Err(err).Str("provider", a.ID()).Msg("Token rotation failed")
			return nil
		}
		body, err = a.post(ctx, payload, token)
	}
	if err != nil {
		logging.Warn().Err(err).Str("provider", a.ID()).Msg("Fetch failed")
		return nil
	}
	return &RawResponse{Body: body}
}

func isTokenRejected(err error) bool {
	return errors.Is(err, errTokenRejected)
}

func (a *FrontierAdapter) post(ctx context.Context, payload []byte, token string) ([]byte, error) {
	return breakerDo(a.cb, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := a.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("upstream call: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusForbidden {
			return nil, errTokenRejected
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	})
}

// Decode parses the flat JSON response and classifies it.
func (a *FrontierAdapter) Decode(raw *RawResponse) (models.ServiceabilityResult, error) {
	if raw == nil || len(raw.Body) == 0 {
		return models.NoService(), fmt.Errorf("empty response")
	}
	doc := decode.ExtractJSON(string(raw.Body))
	if doc == nil {
		return models.NoService(), fmt.Errorf("no JSON document in response")
	}
	return classifyFrontier(doc), nil
}
