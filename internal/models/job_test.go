// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package models

import "testing"

func TestJobStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to JobStatus
		want     bool
	}{
		{JobPending, JobRunning, true},
		{JobPending, JobPaused, false},
		{JobRunning, JobPaused, true},
		{JobRunning, JobCancelled, true},
		{JobRunning, JobCompleted, true},
		{JobRunning, JobFailed, true},
		{JobPaused, JobRunning, true},
		{JobPaused, JobCancelled, true},
		{JobPaused, JobCompleted, false},
		{JobCancelled, JobRunning, false},
		{JobCompleted, JobRunning, false},
		{JobFailed, JobRunning, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestJobStatusTerminal(t *testing.T) {
	for _, s := range []JobStatus{JobCancelled, JobCompleted, JobFailed} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []JobStatus{JobPending, JobRunning, JobPaused} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestRecheckModeValid(t *testing.T) {
	for _, m := range []RecheckMode{RecheckAll, RecheckUnchecked, RecheckErrors, RecheckServiceable, RecheckPreorder, RecheckNone} {
		if !m.Valid() {
			t.Errorf("%s should be valid", m)
		}
	}
	if RecheckMode("everything").Valid() {
		t.Error("unknown mode should be invalid")
	}
}

func TestErrorCount(t *testing.T) {
	j := &CheckJob{CheckedCount: 10, ServiceableCount: 4, PreorderCount: 2, NoServiceCount: 3}
	if got := j.ErrorCount(); got != 1 {
		t.Errorf("ErrorCount() = %d, want 1", got)
	}
}
