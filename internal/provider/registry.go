// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package provider

import (
	"errors"
	"fmt"
)

// ErrUnknownProvider is returned by Registry.Get for an unregistered id.
// Callers must fail the request; there is no default provider fallback.
var ErrUnknownProvider = errors.New("unknown provider")

// Registry resolves provider ids to adapters. It is built once at startup
// and immutable afterwards, so lookups need no locking.
type Registry struct {
	order    []string
	adapters map[string]Adapter
}

// NewRegistry builds a registry from the given adapters, preserving their
// order for listing. Duplicate ids are a programming error.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{
		order:    make([]string, 0, len(adapters)),
		adapters: make(map[string]Adapter, len(adapters)),
	}
	for _, a := range adapters {
		if _, dup := r.adapters[a.ID()]; dup {
			return nil, fmt.Errorf("duplicate provider id %q", a.ID())
		}
		r.order = append(r.order, a.ID())
		r.adapters[a.ID()] = a
	}
	return r, nil
}

// Get resolves an adapter by exact id match. Stub adapters resolve too, so
// wiring and tests can exercise the stub path.
func (r *Registry) Get(id string) (Adapter, error) {
	a, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
	return a, nil
}

// All returns every registered adapter in registration order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.adapters[id])
	}
	return out
}

// Active returns the adapters available for user-facing selection,
// filtering out stubs.
func (r *Registry) Active() []Adapter {
	out := make([]Adapter, 0, len(r.order))
	for _, id := range r.order {
		if a := r.adapters[id]; !a.Stub() {
			out = append(out, a)
		}
	}
	return out
}
