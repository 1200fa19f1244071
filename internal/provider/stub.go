// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package provider

import (
	"context"
	"fmt"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/models"
)

// StubAdapter is a placeholder for providers whose upstream integration is
// not built yet. It keeps the id resolvable through the registry (so stored
// check records referencing it stay valid) while Active() hides it from
// user-facing selection.
type StubAdapter struct {
	id   string
	name string
}

// NewStubAdapter registers a not-yet-implemented provider slug.
func NewStubAdapter(id, name string) *StubAdapter {
	return &StubAdapter{id: id, name: name}
}

// ID implements Adapter.
func (s *StubAdapter) ID() string { return s.id }

// Name implements Adapter.
func (s *StubAdapter) Name() string { return s.name }

// RateLimit implements Adapter.
func (s *StubAdapter) RateLimit() *RateLimit { return nil }

// Stub implements Adapter.
func (s *StubAdapter) Stub() bool { return true }

// Fetch always fails; a stub cannot reach any upstream.
func (s *StubAdapter) Fetch(_ context.Context, _ string) *RawResponse {
	return nil
}

// Decode always returns the no-service default with an error.
func (s *StubAdapter) Decode(_ *RawResponse) (models.ServiceabilityResult, error) {
	return models.NoService(), fmt.Errorf("provider %s is not implemented", s.id)
}
