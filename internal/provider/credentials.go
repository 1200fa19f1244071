// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/logging"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/metrics"
)

// refreshMargin triggers a refresh while the cached token is still valid,
// so in-flight requests never carry a token about to expire.
const refreshMargin = 60 * time.Second

// rotationCooldown is the fixed wait after an upstream 403 before retrying
// with a freshly fetched token.
const rotationCooldown = 10 * time.Second

// RefreshFunc fetches a new bearer token from the upstream auth endpoint.
type RefreshFunc func(ctx context.Context) (token string, expiresAt time.Time, err error)

// CredentialManager owns one provider's shared bearer token. The cached
// token is reused until within refreshMargin of expiry; concurrent callers
// needing a refresh collapse onto a single in-flight refresh rather than
// issuing parallel auth requests.
type CredentialManager struct {
	providerID string
	refresh    RefreshFunc
	store      TokenStore // optional persistence across restarts

	margin   time.Duration
	cooldown time.Duration
	now      func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewCredentialManager creates a manager for one provider. store may be nil,
// in which case tokens live only in process memory. A previously persisted
// token that is still valid is adopted so restarts don't re-authenticate.
func NewCredentialManager(providerID string, refresh RefreshFunc, store TokenStore) *CredentialManager {
	m := &CredentialManager{
		providerID: providerID,
		refresh:    refresh,
		store:      store,
		margin:     refreshMargin,
		cooldown:   rotationCooldown,
		now:        time.Now,
	}
	if store != nil {
		token, expiresAt, err := store.Load(providerID)
		if err != nil {
			logging.Warn().Err(err).Str("provider", providerID).Msg("Failed to load persisted token")
		} else if token != "" && m.now().Before(expiresAt.Add(-m.margin)) {
			m.token = token
			m.expiresAt = expiresAt
			logging.Debug().Str("provider", providerID).Time("expires_at", expiresAt).Msg("Adopted persisted token")
		}
	}
	return m
}

// Token returns a valid bearer token, refreshing it if the cached one is
// missing or within the refresh margin of expiry.
func (m *CredentialManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.token != "" && m.now().Before(m.expiresAt.Add(-m.margin)) {
		token := m.token
		m.mu.Unlock()
		return token, nil
	}
	m.mu.Unlock()

	return m.doRefresh(ctx, "expiry")
}

// Invalidate drops the cached token. The next Token call will refresh.
func (m *CredentialManager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Clear(m.providerID); err != nil {
			logging.Warn().Err(err).Str("provider", m.providerID).Msg("Failed to clear persisted token")
		}
	}
}

// Rotate handles an upstream authorization rejection: drop the cached token,
// wait the fixed cooldown, and fetch a fresh one. Callers retry the original
// request exactly once with the returned token.
func (m *CredentialManager) Rotate(ctx context.Context) (string, error) {
	m.Invalidate()

	logging.Warn().
		Str("provider", m.providerID).
		Dur("cooldown", m.cooldown).
		Msg("Token rejected upstream, rotating after cooldown")

	timer := time.NewTimer(m.cooldown)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}

	return m.doRefresh(ctx, "rotation")
}

// doRefresh performs a singleflighted token refresh. All concurrent callers
// share the result of one upstream auth call.
func (m *CredentialManager) doRefresh(ctx context.Context, reason string) (string, error) {
	v, err, _ := m.group.Do("refresh", func() (interface{}, error) {
		token, expiresAt, err := m.refresh(ctx)
		if err != nil {
			return nil, fmt.Errorf("refresh token for %s: %w", m.providerID, err)
		}

		m.mu.Lock()
		m.token = token
		m.expiresAt = expiresAt
		m.mu.Unlock()

		metrics.CredentialRefreshes.WithLabelValues(m.providerID, reason).Inc()
		logging.Info().
			Str("provider", m.providerID).
			Str("reason", reason).
			Time("expires_at", expiresAt).
			Msg("Refreshed provider token")

		if m.store != nil {
			if err := m.store.Save(m.providerID, token, expiresAt); err != nil {
				logging.Warn().Err(err).Str("provider", m.providerID).Msg("Failed to persist token")
			}
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
