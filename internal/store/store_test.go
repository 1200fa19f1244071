// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/config"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB", Threads: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func seedAddresses(t *testing.T, s *Store, selectionID string, n int) []string {
	t.Helper()
	ctx := context.Background()
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = fmt.Sprintf("addr-%02d", i)
		addr := fmt.Sprintf("%d TEST RD TOWN KS 66000", i)
		if err := s.AddAddress(ctx, ids[i], selectionID, addr); err != nil {
			t.Fatal(err)
		}
	}
	return ids
}

func newJob(selectionID, providerID string, total int) *models.CheckJob {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.CheckJob{
		ID:             uuid.NewString(),
		Name:           "test job",
		SelectionID:    selectionID,
		ProviderID:     providerID,
		RecheckMode:    models.RecheckAll,
		Status:         models.JobRunning,
		TotalAddresses: total,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func record(t *testing.T, s *Store, jobID, addressID string, resType models.ServiceabilityType, errStr string) {
	t.Helper()
	outcome := &models.CheckOutcome{
		AddressID:  addressID,
		JobID:      jobID,
		ProviderID: "att",
		Result:     models.ServiceabilityResult{Serviceable: resType == models.TypeServiceable, Type: resType},
		Error:      errStr,
	}
	if err := s.RecordOutcome(context.Background(), outcome); err != nil {
		t.Fatal(err)
	}
}

func TestJobLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := newJob("sel-1", "att", 3)
	if err := s.CreateJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != job.ID || got.Status != models.JobRunning || got.TotalAddresses != 3 {
		t.Errorf("GetJob = %+v", got)
	}

	if missing, err := s.GetJob(ctx, "nope"); err != nil || missing != nil {
		t.Errorf("GetJob(nope) = %+v, %v, want nil, nil", missing, err)
	}

	if err := s.SetJobStatus(ctx, job.ID, models.JobPaused); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetJob(ctx, job.ID)
	if got.Status != models.JobPaused {
		t.Errorf("status = %s, want paused", got.Status)
	}

	if err := s.SetJobStatus(ctx, "nope", models.JobPaused); err == nil {
		t.Error("SetJobStatus on missing job should fail")
	}
}

func TestActiveJobForSelection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if active, err := s.ActiveJobForSelection(ctx, "sel-1"); err != nil || active != nil {
		t.Fatalf("empty store active = %+v, %v", active, err)
	}

	job := newJob("sel-1", "att", 1)
	if err := s.CreateJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	active, err := s.ActiveJobForSelection(ctx, "sel-1")
	if err != nil {
		t.Fatal(err)
	}
	if active == nil || active.ID != job.ID {
		t.Errorf("active = %+v, want job %s", active, job.ID)
	}

	// A paused job still owns its selection.
	if err := s.SetJobStatus(ctx, job.ID, models.JobPaused); err != nil {
		t.Fatal(err)
	}
	active, err = s.ActiveJobForSelection(ctx, "sel-1")
	if err != nil {
		t.Fatal(err)
	}
	if active == nil || active.ID != job.ID {
		t.Errorf("paused job not reported active: %+v", active)
	}

	// Terminal jobs release it.
	if err := s.SetJobStatus(ctx, job.ID, models.JobCancelled); err != nil {
		t.Fatal(err)
	}
	if active, _ := s.ActiveJobForSelection(ctx, "sel-1"); active != nil {
		t.Errorf("cancelled job reported active: %+v", active)
	}
}

func TestRecordOutcomeCountersAtomicity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedAddresses(t, s, "sel-1", 4)

	job := newJob("sel-1", "att", 4)
	if err := s.CreateJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	record(t, s, job.ID, ids[0], models.TypeServiceable, "")
	record(t, s, job.ID, ids[1], models.TypePreorder, "")
	record(t, s, job.ID, ids[2], models.TypeNone, "")
	record(t, s, job.ID, ids[3], models.TypeNone, "fetch failed")

	got, err := s.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CheckedCount != 4 || got.ServiceableCount != 1 || got.PreorderCount != 1 || got.NoServiceCount != 1 {
		t.Errorf("counters = checked %d, serviceable %d, preorder %d, none %d",
			got.CheckedCount, got.ServiceableCount, got.PreorderCount, got.NoServiceCount)
	}
	if got.ErrorCount() != 1 {
		t.Errorf("error count = %d, want 1", got.ErrorCount())
	}

	records, err := s.ListChecksForJob(ctx, job.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("records = %d, want 4", len(records))
	}
	errored := 0
	for _, r := range records {
		if r.Error != "" {
			errored++
		}
	}
	if errored != 1 {
		t.Errorf("errored records = %d, want 1", errored)
	}
}

func TestListWorkItemsModes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedAddresses(t, s, "sel-1", 5)

	job := newJob("sel-1", "att", 5)
	if err := s.CreateJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	// addr-00 serviceable, addr-01 preorder, addr-02 none, addr-03 error;
	// addr-04 never checked.
	record(t, s, job.ID, ids[0], models.TypeServiceable, "")
	record(t, s, job.ID, ids[1], models.TypePreorder, "")
	record(t, s, job.ID, ids[2], models.TypeNone, "")
	record(t, s, job.ID, ids[3], models.TypeNone, "boom")

	assertItems := func(mode models.RecheckMode, want ...string) {
		t.Helper()
		items, err := s.ListWorkItems(ctx, "sel-1", "att", mode)
		if err != nil {
			t.Fatalf("ListWorkItems(%s): %v", mode, err)
		}
		if len(items) != len(want) {
			t.Fatalf("ListWorkItems(%s) = %d items %v, want %v", mode, len(items), items, want)
		}
		for i, id := range want {
			if items[i].ID != id {
				t.Errorf("ListWorkItems(%s)[%d] = %s, want %s", mode, i, items[i].ID, id)
			}
		}
	}

	assertItems(models.RecheckAll, ids...)
	assertItems(models.RecheckUnchecked, ids[4])
	assertItems(models.RecheckErrors, ids[3])
	assertItems(models.RecheckServiceable, ids[0])
	assertItems(models.RecheckPreorder, ids[1])
	assertItems(models.RecheckNone, ids[2])

	// A different provider has checked nothing.
	assertItems2, err := s.ListWorkItems(ctx, "sel-1", "frontier", models.RecheckUnchecked)
	if err != nil {
		t.Fatal(err)
	}
	if len(assertItems2) != 5 {
		t.Errorf("unchecked for other provider = %d, want 5", len(assertItems2))
	}
}

func TestListWorkItemsLatestCheckWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedAddresses(t, s, "sel-1", 1)

	job := newJob("sel-1", "att", 1)
	if err := s.CreateJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	// First check errored, a later recheck succeeded: only the latest check
	// decides bucket membership.
	record(t, s, job.ID, ids[0], models.TypeNone, "transient failure")
	time.Sleep(5 * time.Millisecond) // distinct checked_at ordering
	record(t, s, job.ID, ids[0], models.TypeServiceable, "")

	items, err := s.ListWorkItems(ctx, "sel-1", "att", models.RecheckErrors)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("errors mode returned %v after successful recheck", items)
	}

	items, err = s.ListWorkItems(ctx, "sel-1", "att", models.RecheckServiceable)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Errorf("serviceable mode = %v, want the rechecked address", items)
	}
}

func TestListJobs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		job := newJob(fmt.Sprintf("sel-%d", i), "att", 1)
		job.CreatedAt = job.CreatedAt.Add(time.Duration(i) * time.Second)
		if err := s.CreateJob(ctx, job); err != nil {
			t.Fatal(err)
		}
	}

	jobs, err := s.ListJobs(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Fatalf("ListJobs = %d, want 2", len(jobs))
	}
	if jobs[0].SelectionID != "sel-2" {
		t.Errorf("newest job first: got %s", jobs[0].SelectionID)
	}
}
