// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package models

import "time"

// JobStatus is the lifecycle state of a batch check job.
//
// State machine: pending -> running -> {paused, cancelled, completed, failed}.
// paused may transition back to running (resume). cancelled, completed and
// failed are terminal.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobPaused    JobStatus = "paused"
	JobCancelled JobStatus = "cancelled"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobCancelled || s == JobCompleted || s == JobFailed
}

// CanTransitionTo reports whether moving from s to next is a legal lifecycle
// transition.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobPending:
		return next == JobRunning || next == JobCancelled || next == JobFailed
	case JobRunning:
		return next == JobPaused || next == JobCancelled || next == JobCompleted || next == JobFailed
	case JobPaused:
		return next == JobRunning || next == JobCancelled
	default:
		return false
	}
}

// RecheckMode selects which addresses of a selection a job visits.
type RecheckMode string

const (
	// RecheckAll visits every address in the selection.
	RecheckAll RecheckMode = "all"

	// RecheckUnchecked visits addresses never checked by the job's provider.
	RecheckUnchecked RecheckMode = "unchecked"

	// RecheckErrors visits addresses whose latest check by the provider
	// recorded an error.
	RecheckErrors RecheckMode = "errors"

	// Bucket modes re-visit addresses currently classified into one bucket.
	RecheckServiceable RecheckMode = "serviceable"
	RecheckPreorder    RecheckMode = "preorder"
	RecheckNone        RecheckMode = "none"
)

// Valid reports whether m is a recognized recheck mode.
func (m RecheckMode) Valid() bool {
	switch m {
	case RecheckAll, RecheckUnchecked, RecheckErrors, RecheckServiceable, RecheckPreorder, RecheckNone:
		return true
	}
	return false
}

// CheckJob is one batch run of checking a selection's addresses against one
// provider, with persisted progress and a pause/resume/cancel lifecycle.
//
// All counters are monotonically non-decreasing while the job is running and
// are incremented exactly once per attempted work item (never per retry).
// Invariants maintained by the store:
//
//	CheckedCount <= TotalAddresses
//	ServiceableCount + PreorderCount + NoServiceCount <= CheckedCount
//
// (errors consume a checked slot without incrementing any bucket).
type CheckJob struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	SelectionID string      `json:"selection_id"`
	ProviderID  string      `json:"provider_id"`
	RecheckMode RecheckMode `json:"recheck_mode"`
	Status      JobStatus   `json:"status"`

	TotalAddresses   int `json:"total_addresses"`
	CheckedCount     int `json:"checked_count"`
	ServiceableCount int `json:"serviceable_count"`
	PreorderCount    int `json:"preorder_count"`
	NoServiceCount   int `json:"no_service_count"`
	CurrentIndex     int `json:"current_index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrorCount derives the number of errored items from the counter invariant.
func (j *CheckJob) ErrorCount() int {
	return j.CheckedCount - j.ServiceableCount - j.PreorderCount - j.NoServiceCount
}
