// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

// Package models defines the shared data structures: serviceability results,
// batch check jobs, and their lifecycle states.
package models

// ServiceabilityType is the canonical three-way outcome of a serviceability check.
type ServiceabilityType string

const (
	// TypeServiceable means the address can receive fiber service today.
	TypeServiceable ServiceabilityType = "serviceable"

	// TypePreorder means service is planned/pre-sale but not yet installable.
	TypePreorder ServiceabilityType = "preorder"

	// TypeNone means no fiber service is available or planned.
	TypeNone ServiceabilityType = "none"
)

// ServiceabilityResult is the normalized output of every provider classifier.
//
// Serviceable is true only when Type is TypeServiceable. The raw diagnostic
// fields preserve provider-specific status tags exactly as received; they are
// stored for audit and debugging and are never interpreted by the checker.
//
// A result is constructed once per decode and never mutated. When a decode
// fails entirely the checker records the zero-value default (not serviceable,
// TypeNone) together with an error string; the error string is what
// distinguishes the synthetic default from a genuine "none" outcome.
type ServiceabilityResult struct {
	Serviceable bool               `json:"serviceable"`
	Type        ServiceabilityType `json:"serviceability_type"`

	// Raw provider diagnostics, preserved verbatim where present.
	SalesType   string `json:"sales_type,omitempty"`
	Status      string `json:"status,omitempty"`
	CStatus     string `json:"cstatus,omitempty"`
	IsPreSale   string `json:"is_pre_sale,omitempty"`
	SalesStatus string `json:"sales_status,omitempty"`
	MatchType   string `json:"match_type,omitempty"`

	// APICreateDate / APIUpdateDate are upstream timestamps (ISO strings)
	// describing when the provider's own system created or last changed this
	// address's status. Distinct from when we checked; used downstream for
	// timeline reconstruction.
	APICreateDate string `json:"api_create_date,omitempty"`
	APIUpdateDate string `json:"api_update_date,omitempty"`
}

// NoService returns the safe default result used when classification finds no
// signal or when a decode fails entirely.
func NoService() ServiceabilityResult {
	return ServiceabilityResult{Serviceable: false, Type: TypeNone}
}

// WorkItem is one address to be checked within a batch job. Sourced
// externally, read-only, never mutated by the checker.
type WorkItem struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// CheckOutcome is the per-item record handed to the persistence sink: the
// classification (or the synthetic default) plus an optional error string.
// Error non-empty means the check could not determine serviceability this
// time; the item still consumes a checked-count slot.
type CheckOutcome struct {
	AddressID  string
	JobID      string
	ProviderID string
	Result     ServiceabilityResult
	Error      string
}
