// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/checker"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/config"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/models"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/provider"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/store"
)

// fakeJobService is an in-memory JobService for handler tests.
type fakeJobService struct {
	mu       sync.Mutex
	jobs     map[string]*models.CheckJob
	startErr error
	registry []provider.Adapter
}

func newFakeJobService() *fakeJobService {
	return &fakeJobService{
		jobs: make(map[string]*models.CheckJob),
		registry: []provider.Adapter{
			provider.NewStubAdapter("att", "AT&T Fiber"),
		},
	}
}

func (f *fakeJobService) Start(_ context.Context, name, selectionID, providerID string, mode models.RecheckMode) (*models.CheckJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	job := &models.CheckJob{
		ID:             fmt.Sprintf("job-%d", len(f.jobs)+1),
		Name:           name,
		SelectionID:    selectionID,
		ProviderID:     providerID,
		RecheckMode:    mode,
		Status:         models.JobRunning,
		TotalAddresses: 3,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	f.jobs[job.ID] = job
	return job, nil
}

func (f *fakeJobService) Status(_ context.Context, jobID string) (*models.CheckJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", checker.ErrJobNotFound, jobID)
	}
	return job, nil
}

func (f *fakeJobService) setStatus(_ context.Context, jobID string, status models.JobStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return fmt.Errorf("%w: %s", checker.ErrJobNotFound, jobID)
	}
	if !job.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: cannot move %s to %s", checker.ErrJobConflict, job.Status, status)
	}
	job.Status = status
	return nil
}

func (f *fakeJobService) Pause(ctx context.Context, jobID string) error {
	return f.setStatus(ctx, jobID, models.JobPaused)
}

func (f *fakeJobService) Resume(ctx context.Context, jobID string) error {
	return f.setStatus(ctx, jobID, models.JobRunning)
}

func (f *fakeJobService) Cancel(ctx context.Context, jobID string) error {
	return f.setStatus(ctx, jobID, models.JobCancelled)
}

func (f *fakeJobService) Providers() []provider.Adapter {
	return f.registry
}

// fakeReader serves canned jobs and check records.
type fakeReader struct {
	jobs    []*models.CheckJob
	records []*store.CheckRecord
	err     error
}

func (f *fakeReader) ListJobs(context.Context, int) ([]*models.CheckJob, error) {
	return f.jobs, f.err
}

func (f *fakeReader) ListChecksForJob(context.Context, string, int) ([]*store.CheckRecord, error) {
	return f.records, f.err
}

func newTestServer(t *testing.T, svc JobService, reader CheckReader) *httptest.Server {
	t.Helper()
	cfg := &config.APIConfig{RateLimitReqs: 1000, RateLimitWindow: time.Minute, CORSOrigins: []string{"*"}}
	srv := httptest.NewServer(NewRouter(cfg, NewHandlers(svc, reader)))
	t.Cleanup(srv.Close)
	return srv
}

func decodeResponse(t *testing.T, resp *http.Response) APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var out APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, newFakeJobService(), &fakeReader{})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	out := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusOK || !out.Success {
		t.Errorf("health = %d, success %v", resp.StatusCode, out.Success)
	}
}

func TestStartJob(t *testing.T) {
	svc := newFakeJobService()
	srv := newTestServer(t, svc, &fakeReader{})

	body := `{"name":"first pass","selection_id":"sel-1","provider_id":"att","recheck_mode":"all"}`
	resp, err := http.Post(srv.URL+"/api/v1/jobs", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	out := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (error: %+v)", resp.StatusCode, out.Error)
	}
	data, ok := out.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T", out.Data)
	}
	if data["provider_id"] != "att" || data["status"] != "running" {
		t.Errorf("job data = %v", data)
	}
}

func TestStartJobValidation(t *testing.T) {
	srv := newTestServer(t, newFakeJobService(), &fakeReader{})

	cases := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{`},
		{"missing selection", `{"name":"x","provider_id":"att","recheck_mode":"all"}`},
		{"bad recheck mode", `{"name":"x","selection_id":"sel-1","provider_id":"att","recheck_mode":"sometimes"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/v1/jobs", "application/json", strings.NewReader(tc.body))
			if err != nil {
				t.Fatal(err)
			}
			out := decodeResponse(t, resp)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			if out.Success || out.Error == nil {
				t.Errorf("response = %+v, want error envelope", out)
			}
		})
	}
}

func TestStartJobConflict(t *testing.T) {
	svc := newFakeJobService()
	svc.startErr = fmt.Errorf("%w: selection busy", checker.ErrJobConflict)
	srv := newTestServer(t, svc, &fakeReader{})

	body := `{"name":"x","selection_id":"sel-1","provider_id":"att","recheck_mode":"all"}`
	resp, err := http.Post(srv.URL+"/api/v1/jobs", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	out := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusConflict || out.Error == nil || out.Error.Code != ErrCodeConflict {
		t.Errorf("status = %d, error = %+v", resp.StatusCode, out.Error)
	}
}

func TestJobTransitions(t *testing.T) {
	svc := newFakeJobService()
	srv := newTestServer(t, svc, &fakeReader{})

	job, err := svc.Start(context.Background(), "x", "sel-1", "att", models.RecheckAll)
	if err != nil {
		t.Fatal(err)
	}

	post := func(action string) (*http.Response, APIResponse) {
		resp, err := http.Post(srv.URL+"/api/v1/jobs/"+job.ID+"/"+action, "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		return resp, decodeResponse(t, resp)
	}

	resp, out := post("pause")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pause = %d (%+v)", resp.StatusCode, out.Error)
	}
	if data := out.Data.(map[string]interface{}); data["status"] != "paused" {
		t.Errorf("pause status = %v", data["status"])
	}

	resp, _ = post("resume")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resume = %d", resp.StatusCode)
	}

	resp, _ = post("cancel")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel = %d", resp.StatusCode)
	}

	// Cancelled is terminal: resuming now conflicts.
	resp, out = post("resume")
	if resp.StatusCode != http.StatusConflict || out.Error.Code != ErrCodeConflict {
		t.Errorf("resume after cancel = %d, error %+v", resp.StatusCode, out.Error)
	}
}

func TestGetJobNotFound(t *testing.T) {
	srv := newTestServer(t, newFakeJobService(), &fakeReader{})

	resp, err := http.Get(srv.URL + "/api/v1/jobs/nope")
	if err != nil {
		t.Fatal(err)
	}
	out := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusNotFound || out.Error == nil || out.Error.Code != ErrCodeNotFound {
		t.Errorf("status = %d, error = %+v", resp.StatusCode, out.Error)
	}
}

func TestListChecks(t *testing.T) {
	svc := newFakeJobService()
	reader := &fakeReader{
		records: []*store.CheckRecord{
			{ID: "c1", AddressID: "a1", ProviderID: "att",
				Result: models.ServiceabilityResult{Serviceable: true, Type: models.TypeServiceable}},
		},
	}
	srv := newTestServer(t, svc, reader)

	job, err := svc.Start(context.Background(), "x", "sel-1", "att", models.RecheckAll)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(srv.URL + "/api/v1/jobs/" + job.ID + "/checks")
	if err != nil {
		t.Fatal(err)
	}
	out := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d (%+v)", resp.StatusCode, out.Error)
	}
	items, ok := out.Data.([]interface{})
	if !ok || len(items) != 1 {
		t.Errorf("data = %v", out.Data)
	}

	// Unknown jobs 404 before the store is consulted.
	resp, err = http.Get(srv.URL + "/api/v1/jobs/nope/checks")
	if err != nil {
		t.Fatal(err)
	}
	if out := decodeResponse(t, resp); resp.StatusCode != http.StatusNotFound || out.Error == nil {
		t.Errorf("unknown job checks = %d", resp.StatusCode)
	}
}

func TestListProviders(t *testing.T) {
	srv := newTestServer(t, newFakeJobService(), &fakeReader{})

	resp, err := http.Get(srv.URL + "/api/v1/providers")
	if err != nil {
		t.Fatal(err)
	}
	out := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	items, ok := out.Data.([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("data = %v", out.Data)
	}
	first := items[0].(map[string]interface{})
	if first["id"] != "att" {
		t.Errorf("provider = %v", first)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	srv := newTestServer(t, newFakeJobService(), &fakeReader{})

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics = %d", resp.StatusCode)
	}
}
