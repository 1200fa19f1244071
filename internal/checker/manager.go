// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

// Package checker implements the rate-limited, resumable batch check
// scheduler: the Manager owns job lifecycle (start/pause/resume/cancel) and
// the Runner paces individual checks against one provider adapter.
package checker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/logging"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/metrics"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/models"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/provider"
)

// Store is the persistence boundary the scheduler depends on. Implementations
// must make RecordOutcome atomic: the check row and the job counter update
// commit together or not at all.
type Store interface {
	// ListWorkItems returns the addresses of a selection matching the
	// recheck mode, filtered at the data source (never by loading the whole
	// selection into memory).
	ListWorkItems(ctx context.Context, selectionID, providerID string, mode models.RecheckMode) ([]models.WorkItem, error)

	CreateJob(ctx context.Context, job *models.CheckJob) error
	GetJob(ctx context.Context, id string) (*models.CheckJob, error)
	SetJobStatus(ctx context.Context, id string, status models.JobStatus) error

	// ActiveJobForSelection returns a pending/running/paused job for the
	// selection, or nil when there is none.
	ActiveJobForSelection(ctx context.Context, selectionID string) (*models.CheckJob, error)

	RecordOutcome(ctx context.Context, outcome *models.CheckOutcome) error
}

// Manager is the process control surface for batch check jobs.
type Manager struct {
	store    Store
	registry *provider.Registry
	cfg      RunnerConfig

	// baseCtx parents all job runs so supervisor shutdown stops them.
	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu      sync.Mutex
	running map[string]struct{} // job ids with an active runner goroutine
	wg      sync.WaitGroup
}

// NewManager creates the job manager.
func NewManager(store Store, registry *provider.Registry, cfg RunnerConfig) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:      store,
		registry:   registry,
		cfg:        cfg.withDefaults(),
		baseCtx:    ctx,
		baseCancel: cancel,
		running:    make(map[string]struct{}),
	}
}

// Shutdown stops accepting work and waits for in-flight runners to drain.
func (m *Manager) Shutdown() {
	m.baseCancel()
	m.wg.Wait()
}

// Start creates and launches a new batch job for a selection. Setup failures
// (unknown provider, invalid mode, conflicting active job, empty work list)
// are hard errors raised before any job state is persisted.
func (m *Manager) Start(ctx context.Context, name, selectionID, providerID string, mode models.RecheckMode) (*models.CheckJob, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecheckMode, mode)
	}

	adapter, err := m.registry.Get(providerID)
	if err != nil {
		return nil, err
	}

	active, err := m.store.ActiveJobForSelection(ctx, selectionID)
	if err != nil {
		return nil, fmt.Errorf("check for active job: %w", err)
	}
	if active != nil {
		return nil, fmt.Errorf("%w: job %s is already %s for selection %s", ErrJobConflict, active.ID, active.Status, selectionID)
	}

	items, err := m.store.ListWorkItems(ctx, selectionID, providerID, mode)
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: selection %s, mode %s", ErrNoWorkItems, selectionID, mode)
	}

	now := time.Now().UTC()
	job := &models.CheckJob{
		ID:             uuid.NewString(),
		Name:           name,
		SelectionID:    selectionID,
		ProviderID:     providerID,
		RecheckMode:    mode,
		Status:         models.JobRunning,
		TotalAddresses: len(items),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := m.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	metrics.JobsStarted.WithLabelValues(providerID, string(mode)).Inc()
	logging.Info().
		Str("job_id", job.ID).
		Str("selection_id", selectionID).
		Str("provider", providerID).
		Str("mode", string(mode)).
		Int("total", len(items)).
		Msg("Batch job started")

	m.launch(job, adapter, items)
	return job, nil
}

// Pause requests that a running job stop after its in-flight items finish.
func (m *Manager) Pause(ctx context.Context, jobID string) error {
	return m.transition(ctx, jobID, models.JobPaused)
}

// Cancel terminates a pending, running or paused job. Already-started items
// still get their results recorded; cancellation only prevents new starts.
func (m *Manager) Cancel(ctx context.Context, jobID string) error {
	return m.transition(ctx, jobID, models.JobCancelled)
}

// Resume relaunches a paused job. The work list is re-derived from current
// store state rather than replayed from the original run, which makes resume
// idempotent against items completed in a previous segment.
//
// A pause takes up to one status-poll interval to reach the runner; until the
// previous segment has drained, resuming is rejected so a job never has two
// runners recording outcomes at once.
func (m *Manager) Resume(ctx context.Context, jobID string) error {
	job, err := m.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	if !job.Status.CanTransitionTo(models.JobRunning) {
		return fmt.Errorf("%w: cannot resume job in status %s", ErrJobConflict, job.Status)
	}
	if m.segmentActive(jobID) {
		return fmt.Errorf("%w: job %s is still draining its previous segment", ErrJobConflict, jobID)
	}

	adapter, err := m.registry.Get(job.ProviderID)
	if err != nil {
		return err
	}

	items, err := m.store.ListWorkItems(ctx, job.SelectionID, job.ProviderID, resumeMode(job.RecheckMode))
	if err != nil {
		return fmt.Errorf("list work items: %w", err)
	}

	if err := m.store.SetJobStatus(ctx, jobID, models.JobRunning); err != nil {
		return fmt.Errorf("set job status: %w", err)
	}

	if len(items) == 0 {
		// Everything was already visited before the pause.
		if err := m.store.SetJobStatus(ctx, jobID, models.JobCompleted); err != nil {
			return fmt.Errorf("set job status: %w", err)
		}
		return nil
	}

	logging.Info().
		Str("job_id", jobID).
		Int("remaining", len(items)).
		Msg("Batch job resumed")

	m.launch(job, adapter, items)
	return nil
}

// Status returns the job's current persisted state.
func (m *Manager) Status(ctx context.Context, jobID string) (*models.CheckJob, error) {
	return m.getJob(ctx, jobID)
}

// Providers lists the adapters available for user-facing selection.
func (m *Manager) Providers() []provider.Adapter {
	return m.registry.Active()
}

// resumeMode maps a job's recheck mode onto the mode used to re-derive the
// remaining work on resume. Modes that target a fixed bucket re-derive the
// same bucket; all/unchecked collapse to unchecked so items completed in an
// earlier segment are not revisited.
func resumeMode(mode models.RecheckMode) models.RecheckMode {
	switch mode {
	case models.RecheckAll, models.RecheckUnchecked:
		return models.RecheckUnchecked
	default:
		return mode
	}
}

// segmentActive reports whether a runner goroutine for the job is still
// alive. It covers the window between a persisted pause and the runner
// observing it on its next status poll.
func (m *Manager) segmentActive(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.running[jobID]
	return ok
}

func (m *Manager) getJob(ctx context.Context, jobID string) (*models.CheckJob, error) {
	job, err := m.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job == nil {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return job, nil
}

func (m *Manager) transition(ctx context.Context, jobID string, next models.JobStatus) error {
	job, err := m.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	if !job.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: cannot move job from %s to %s", ErrJobConflict, job.Status, next)
	}
	if err := m.store.SetJobStatus(ctx, jobID, next); err != nil {
		return fmt.Errorf("set job status: %w", err)
	}
	if next == models.JobCancelled {
		metrics.JobsFinished.WithLabelValues(job.ProviderID, string(next)).Inc()
	}
	logging.Info().Str("job_id", jobID).Str("status", string(next)).Msg("Job status changed")
	return nil
}

// launch spawns the runner goroutine for a job segment.
func (m *Manager) launch(job *models.CheckJob, adapter provider.Adapter, items []models.WorkItem) {
	m.mu.Lock()
	m.running[job.ID] = struct{}{}
	m.mu.Unlock()
	metrics.JobsActive.Inc()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			m.mu.Lock()
			delete(m.running, job.ID)
			m.mu.Unlock()
			metrics.JobsActive.Dec()
		}()
		m.runSegment(job, adapter, items)
	}()
}

func (m *Manager) runSegment(job *models.CheckJob, adapter provider.Adapter, items []models.WorkItem) {
	runner := NewRunner(adapter, m.cfg)

	statusFn := func(ctx context.Context) (models.JobStatus, error) {
		current, err := m.store.GetJob(ctx, job.ID)
		if err != nil {
			return "", err
		}
		if current == nil {
			return "", fmt.Errorf("%w: %s", ErrJobNotFound, job.ID)
		}
		return current.Status, nil
	}

	halted, err := runner.Run(m.baseCtx, job.ID, items, statusFn, m.store.RecordOutcome)

	final := models.JobCompleted
	switch {
	case err != nil:
		logging.Error().Err(err).Str("job_id", job.ID).Msg("Batch job failed")
		final = models.JobFailed
	case halted:
		// The external status (paused/cancelled) is already persisted;
		// leave it untouched. A halt caused by process shutdown has no
		// such status, so park the job as paused to keep it resumable
		// after restart.
		m.parkIfShutdown(job.ID)
		logging.Info().Str("job_id", job.ID).Msg("Batch job halted")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if setErr := m.store.SetJobStatus(ctx, job.ID, final); setErr != nil {
		logging.Error().Err(setErr).Str("job_id", job.ID).Msg("Failed to persist final job status")
		return
	}
	metrics.JobsFinished.WithLabelValues(job.ProviderID, string(final)).Inc()
	logging.Info().Str("job_id", job.ID).Str("status", string(final)).Msg("Batch job finished")
}

// parkIfShutdown persists a paused status for a job whose runner halted
// because the process is shutting down. Without it the job would stay
// running in the store forever and could neither be resumed nor restarted.
// Halts triggered by an operator pause or cancel already have their status
// persisted and are left alone.
func (m *Manager) parkIfShutdown(jobID string) {
	if m.baseCtx.Err() == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	current, err := m.store.GetJob(ctx, jobID)
	if err != nil || current == nil || current.Status != models.JobRunning {
		return
	}
	if err := m.store.SetJobStatus(ctx, jobID, models.JobPaused); err != nil {
		logging.Error().Err(err).Str("job_id", jobID).Msg("Failed to park job for shutdown")
		return
	}
	logging.Info().Str("job_id", jobID).Msg("Job parked as paused for shutdown")
}
