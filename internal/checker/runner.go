// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package checker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/logging"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/metrics"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/models"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/provider"
)

// RunnerConfig carries the global pacing defaults. A provider's RateLimit
// override takes precedence over DefaultDelay/DefaultMaxInFlight.
type RunnerConfig struct {
	// DefaultDelay is the minimum start-to-start spacing between checks.
	DefaultDelay time.Duration
	// DefaultMaxInFlight caps concurrently outstanding checks.
	DefaultMaxInFlight int
	// StatusPollInterval bounds how often the external job status is
	// re-read; between polls the cached value is trusted.
	StatusPollInterval time.Duration
	// ErrorTruncate caps recorded error message length.
	ErrorTruncate int
}

func (c RunnerConfig) withDefaults() RunnerConfig {
	if c.DefaultMaxInFlight < 1 {
		c.DefaultMaxInFlight = 1
	}
	if c.StatusPollInterval <= 0 {
		c.StatusPollInterval = time.Second
	}
	if c.ErrorTruncate <= 0 {
		c.ErrorTruncate = 1000
	}
	return c
}

// StatusFn reads the job's current externally mutable status.
type StatusFn func(ctx context.Context) (models.JobStatus, error)

// RecordFn persists one item outcome atomically with the counter update.
type RecordFn func(ctx context.Context, outcome *models.CheckOutcome) error

// Runner walks an ordered work-item list against one provider adapter with
// start-to-start pacing, bounded concurrency and cooperative pause/cancel.
//
// Items are started in list order but may complete out of order when the
// in-flight cap is above one; persisted records do not land in input order.
type Runner struct {
	adapter provider.Adapter
	cfg     RunnerConfig
}

// NewRunner creates a runner for one adapter.
func NewRunner(adapter provider.Adapter, cfg RunnerConfig) *Runner {
	return &Runner{adapter: adapter, cfg: cfg.withDefaults()}
}

// Run processes items until the list is exhausted or the polled status stops
// being "running". It returns halted=true when processing stopped early (the
// remaining items are left for a future resume) and an error only for
// infrastructure failures, never for per-item failures.
func (r *Runner) Run(ctx context.Context, jobID string, items []models.WorkItem, status StatusFn, record RecordFn) (halted bool, err error) {
	delay := r.cfg.DefaultDelay
	maxInFlight := r.cfg.DefaultMaxInFlight
	if rl := r.adapter.RateLimit(); rl != nil {
		if rl.Delay > 0 {
			delay = rl.Delay
		}
		if rl.MaxInFlight > 0 {
			maxInFlight = rl.MaxInFlight
		}
	}

	// Burst 1 gives pure start-to-start pacing: each Wait reserves the next
	// start slot exactly delay after the previous one, regardless of how
	// long the calls themselves take.
	limiter := rate.NewLimiter(rate.Every(delay), 1)
	if delay <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	slots := make(chan struct{}, maxInFlight)
	var wg sync.WaitGroup

	// Status is polled at most once per interval, not before every item.
	var (
		cachedStatus models.JobStatus = models.JobRunning
		lastPoll     time.Time
	)
	pollStatus := func() (models.JobStatus, error) {
		if !lastPoll.IsZero() && time.Since(lastPoll) < r.cfg.StatusPollInterval {
			return cachedStatus, nil
		}
		st, err := status(ctx)
		if err != nil {
			return "", err
		}
		cachedStatus = st
		lastPoll = time.Now()
		return st, nil
	}

	defer wg.Wait()

	for i := range items {
		// Wait for in-flight capacity before anything else, so a full
		// pipeline doesn't burn a pacing slot while blocked.
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			return true, nil
		}

		st, err := pollStatus()
		if err != nil {
			<-slots
			return true, fmt.Errorf("poll job status: %w", err)
		}
		if st != models.JobRunning {
			<-slots
			logging.Info().
				Str("job_id", jobID).
				Str("status", string(st)).
				Int("remaining", len(items)-i).
				Msg("Halting batch on external status")
			return true, nil
		}

		if err := limiter.Wait(ctx); err != nil {
			<-slots
			return true, nil
		}

		item := items[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-slots }()
			r.checkItem(ctx, jobID, item, record)
		}()
	}

	return false, nil
}

// checkItem runs one fetch+decode+record cycle. Every failure mode — nil
// fetch, decode error, panic — is absorbed here and converted into a
// persisted error outcome; a single item can never abort the batch.
func (r *Runner) checkItem(ctx context.Context, jobID string, item models.WorkItem, record RecordFn) {
	providerID := r.adapter.ID()
	metrics.ChecksInFlight.WithLabelValues(providerID).Inc()
	start := time.Now()
	defer func() {
		metrics.CheckDuration.WithLabelValues(providerID).Observe(time.Since(start).Seconds())
		metrics.ChecksInFlight.WithLabelValues(providerID).Dec()
	}()

	outcome := &models.CheckOutcome{
		AddressID:  item.ID,
		JobID:      jobID,
		ProviderID: providerID,
		Result:     models.NoService(),
	}

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				outcome.Error = r.truncate(fmt.Sprintf("panic: %v", rec))
				logging.Error().
					Str("job_id", jobID).
					Str("address_id", item.ID).
					Interface("panic", rec).
					Msg("Check panicked")
			}
		}()

		raw := r.adapter.Fetch(ctx, item.Address)
		if raw == nil {
			outcome.Error = "fetch failed"
			return
		}
		result, err := r.adapter.Decode(raw)
		if err != nil {
			outcome.Result = result
			outcome.Error = r.truncate(err.Error())
			return
		}
		outcome.Result = result
	}()

	label := string(outcome.Result.Type)
	if outcome.Error != "" {
		label = "error"
	}
	metrics.ChecksTotal.WithLabelValues(providerID, label).Inc()

	if err := record(ctx, outcome); err != nil {
		logging.Error().
			Err(err).
			Str("job_id", jobID).
			Str("address_id", item.ID).
			Msg("Failed to record check outcome")
	}
}

func (r *Runner) truncate(s string) string {
	if len(s) > r.cfg.ErrorTruncate {
		return s[:r.cfg.ErrorTruncate]
	}
	return s
}
