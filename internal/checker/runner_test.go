// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package checker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/models"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/provider"
)

// fakeAdapter lets each test script fetch/decode behavior.
type fakeAdapter struct {
	id     string
	limit  *provider.RateLimit
	fetch  func(ctx context.Context, address string) *provider.RawResponse
	decode func(raw *provider.RawResponse) (models.ServiceabilityResult, error)
}

func (f *fakeAdapter) ID() string { return f.id }
func (f *fakeAdapter) Name() string {
	return f.id
}
func (f *fakeAdapter) RateLimit() *provider.RateLimit { return f.limit }
func (f *fakeAdapter) Stub() bool                     { return false }

func (f *fakeAdapter) Fetch(ctx context.Context, address string) *provider.RawResponse {
	if f.fetch == nil {
		return &provider.RawResponse{Body: []byte("{}")}
	}
	return f.fetch(ctx, address)
}

func (f *fakeAdapter) Decode(raw *provider.RawResponse) (models.ServiceabilityResult, error) {
	if f.decode == nil {
		return models.ServiceabilityResult{Serviceable: true, Type: models.TypeServiceable}, nil
	}
	return f.decode(raw)
}

func workItems(n int) []models.WorkItem {
	items := make([]models.WorkItem, n)
	for i := range items {
		items[i] = models.WorkItem{ID: fmt.Sprintf("addr-%d", i), Address: fmt.Sprintf("%d TEST RD TOWN KS 66000", i)}
	}
	return items
}

func alwaysRunning(context.Context) (models.JobStatus, error) {
	return models.JobRunning, nil
}

func discardOutcomes(context.Context, *models.CheckOutcome) error {
	return nil
}

func TestRunnerStartToStartPacing(t *testing.T) {
	var (
		mu     sync.Mutex
		starts []time.Time
	)
	adapter := &fakeAdapter{
		id: "paced",
		fetch: func(context.Context, string) *provider.RawResponse {
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
			return &provider.RawResponse{Body: []byte("{}")}
		},
	}
	runner := NewRunner(adapter, RunnerConfig{
		DefaultDelay:       100 * time.Millisecond,
		DefaultMaxInFlight: 1,
		StatusPollInterval: time.Second,
	})

	begin := time.Now()
	halted, err := runner.Run(context.Background(), "job", workItems(5), alwaysRunning, discardOutcomes)
	if err != nil || halted {
		t.Fatalf("Run = halted %v, err %v", halted, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(starts) != 5 {
		t.Fatalf("fetch count = %d, want 5", len(starts))
	}
	// Start-to-start: the N-th start cannot happen before (N-1) pacing gaps
	// have elapsed from the run's beginning.
	const slack = 5 * time.Millisecond
	for i, ts := range starts {
		if earliest := time.Duration(i) * 100 * time.Millisecond; ts.Sub(begin) < earliest-slack {
			t.Errorf("start %d at +%v, want >= %v", i, ts.Sub(begin), earliest)
		}
	}
	if last := starts[4].Sub(begin); last < 400*time.Millisecond-slack {
		t.Errorf("5th start at +%v, want >= 400ms", last)
	}
}

func TestRunnerConcurrencyCap(t *testing.T) {
	var (
		inFlight atomic.Int64
		peak     atomic.Int64
	)
	release := make(chan struct{})
	adapter := &fakeAdapter{
		id: "capped",
		fetch: func(context.Context, string) *provider.RawResponse {
			cur := inFlight.Add(1)
			for {
				prev := peak.Load()
				if cur <= prev || peak.CompareAndSwap(prev, cur) {
					break
				}
			}
			<-release
			inFlight.Add(-1)
			return &provider.RawResponse{Body: []byte("{}")}
		},
	}
	runner := NewRunner(adapter, RunnerConfig{
		DefaultMaxInFlight: 2,
		StatusPollInterval: time.Second,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = runner.Run(context.Background(), "job", workItems(6), alwaysRunning, discardOutcomes)
	}()

	for i := 0; i < 6; i++ {
		time.Sleep(10 * time.Millisecond)
		release <- struct{}{}
	}
	<-done

	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrent fetches = %d, want <= 2", got)
	}
}

func TestRunnerHaltsWhenStatusLeavesRunning(t *testing.T) {
	var status atomic.Value
	status.Store(models.JobRunning)

	var fetches atomic.Int64
	adapter := &fakeAdapter{
		id: "cancellable",
		fetch: func(context.Context, string) *provider.RawResponse {
			if fetches.Add(1) == 3 {
				status.Store(models.JobCancelled)
			}
			return &provider.RawResponse{Body: []byte("{}")}
		},
	}

	var recorded atomic.Int64
	record := func(context.Context, *models.CheckOutcome) error {
		recorded.Add(1)
		return nil
	}

	runner := NewRunner(adapter, RunnerConfig{
		DefaultDelay:       5 * time.Millisecond,
		DefaultMaxInFlight: 1,
		StatusPollInterval: time.Millisecond,
	})
	halted, err := runner.Run(context.Background(), "job",
		workItems(50),
		func(context.Context) (models.JobStatus, error) {
			return status.Load().(models.JobStatus), nil
		},
		record,
	)
	if err != nil {
		t.Fatal(err)
	}
	if !halted {
		t.Error("Run should report halted after cancellation")
	}
	started := fetches.Load()
	if started >= 50 {
		t.Errorf("all %d items started despite cancellation", started)
	}
	// Items already started before the halt still get recorded.
	if recorded.Load() != started {
		t.Errorf("recorded %d outcomes for %d started items", recorded.Load(), started)
	}
}

func TestRunnerAbsorbsPanics(t *testing.T) {
	adapter := &fakeAdapter{
		id: "panicky",
		decode: func(*provider.RawResponse) (models.ServiceabilityResult, error) {
			panic("classifier exploded")
		},
	}

	var outcomes []*models.CheckOutcome
	var mu sync.Mutex
	record := func(_ context.Context, o *models.CheckOutcome) error {
		mu.Lock()
		outcomes = append(outcomes, o)
		mu.Unlock()
		return nil
	}

	runner := NewRunner(adapter, RunnerConfig{DefaultMaxInFlight: 1})
	halted, err := runner.Run(context.Background(), "job", workItems(2), alwaysRunning, record)
	if err != nil || halted {
		t.Fatalf("Run = halted %v, err %v", halted, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2 (panics must not drop items)", len(outcomes))
	}
	for _, o := range outcomes {
		if !strings.HasPrefix(o.Error, "panic:") {
			t.Errorf("outcome error = %q, want panic marker", o.Error)
		}
		if o.Result.Type != models.TypeNone {
			t.Errorf("panicked item result = %+v, want safe default", o.Result)
		}
	}
}

func TestRunnerTruncatesLongErrors(t *testing.T) {
	long := strings.Repeat("x", 5000)
	adapter := &fakeAdapter{
		id: "verbose",
		decode: func(*provider.RawResponse) (models.ServiceabilityResult, error) {
			return models.NoService(), fmt.Errorf("%s", long)
		},
	}

	var got *models.CheckOutcome
	record := func(_ context.Context, o *models.CheckOutcome) error {
		got = o
		return nil
	}

	runner := NewRunner(adapter, RunnerConfig{DefaultMaxInFlight: 1})
	if _, err := runner.Run(context.Background(), "job", workItems(1), alwaysRunning, record); err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("no outcome recorded")
	}
	if len(got.Error) != 1000 {
		t.Errorf("error length = %d, want truncated to 1000", len(got.Error))
	}
}

func TestRunnerUsesProviderRateLimitOverride(t *testing.T) {
	var starts atomic.Int64
	adapter := &fakeAdapter{
		id:    "overridden",
		limit: &provider.RateLimit{Delay: 50 * time.Millisecond, MaxInFlight: 1},
		fetch: func(context.Context, string) *provider.RawResponse {
			starts.Add(1)
			return &provider.RawResponse{Body: []byte("{}")}
		},
	}
	// Global default says no delay; the provider override must win.
	runner := NewRunner(adapter, RunnerConfig{DefaultMaxInFlight: 4})

	begin := time.Now()
	if _, err := runner.Run(context.Background(), "job", workItems(3), alwaysRunning, discardOutcomes); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(begin); elapsed < 100*time.Millisecond-5*time.Millisecond {
		t.Errorf("3 starts finished in %v, want >= 2 gaps of 50ms", elapsed)
	}
	if starts.Load() != 3 {
		t.Errorf("fetches = %d, want 3", starts.Load())
	}
}
