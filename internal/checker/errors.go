// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package checker

import "errors"

var (
	// ErrJobNotFound is returned when a job id does not resolve.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobConflict is returned when a lifecycle request conflicts with the
	// job's current state, including starting a job for a selection that
	// already has one active.
	ErrJobConflict = errors.New("job conflict")

	// ErrNoWorkItems is returned when the selection and recheck mode match
	// no addresses. The job is never created.
	ErrNoWorkItems = errors.New("no work items match")

	// ErrInvalidRecheckMode is returned for an unrecognized recheck mode.
	ErrInvalidRecheckMode = errors.New("invalid recheck mode")
)
