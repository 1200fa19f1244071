// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

// Package provider implements the upstream serviceability integrations.
//
// Every upstream is wrapped in the Adapter contract: Fetch performs the
// network call and returns raw bytes (nil on any transport failure), Decode
// turns those bytes into a normalized ServiceabilityResult. The scheduler
// only ever sees this contract; everything provider-specific — auth flows,
// address parsing quirks, the response obfuscation — stays behind it.
package provider

import (
	"context"
	"time"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/models"
)

// RateLimit overrides the global pacing policy for one provider.
type RateLimit struct {
	// Delay is the minimum start-to-start spacing between upstream calls.
	Delay time.Duration
	// MaxInFlight caps concurrently outstanding calls.
	MaxInFlight int
}

// RawResponse carries an upstream response body plus the transport metadata
// the decode pipeline needs.
type RawResponse struct {
	Body []byte
	// ContentEncoding is the declared transport encoding. It may be absent
	// or inaccurate; the decoder treats it as a hint only.
	ContentEncoding string
}

// Adapter is the uniform per-provider contract.
//
// Fetch must never panic; any transport failure returns nil. Decode must
// never panic either: when the response cannot be understood it returns the
// safe no-service default together with an error describing why, so the
// caller can distinguish a synthetic default from a genuine "none".
type Adapter interface {
	// ID is the stable provider slug persisted in check records. Never
	// reassign a slug to a different provider.
	ID() string

	// Name is the human-readable provider name.
	Name() string

	// RateLimit returns the provider's pacing override, or nil to use the
	// global defaults.
	RateLimit() *RateLimit

	// Fetch performs the upstream serviceability call for one address.
	Fetch(ctx context.Context, address string) *RawResponse

	// Decode normalizes a raw response into a ServiceabilityResult.
	Decode(raw *RawResponse) (models.ServiceabilityResult, error)

	// Stub reports whether this adapter is a placeholder that cannot yet
	// perform real checks. Stubs stay resolvable through the registry but
	// are hidden from user-facing selection.
	Stub() bool
}
