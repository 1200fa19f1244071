// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/checker"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/logging"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/models"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/provider"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/store"
)

// JobService is the job control surface the handlers depend on,
// implemented by checker.Manager.
type JobService interface {
	Start(ctx context.Context, name, selectionID, providerID string, mode models.RecheckMode) (*models.CheckJob, error)
	Pause(ctx context.Context, jobID string) error
	Resume(ctx context.Context, jobID string) error
	Cancel(ctx context.Context, jobID string) error
	Status(ctx context.Context, jobID string) (*models.CheckJob, error)
	Providers() []provider.Adapter
}

// CheckReader reads persisted jobs and check records for the API.
type CheckReader interface {
	ListJobs(ctx context.Context, limit int) ([]*models.CheckJob, error)
	ListChecksForJob(ctx context.Context, jobID string, limit int) ([]*store.CheckRecord, error)
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	jobs   JobService
	reader CheckReader
}

// NewHandlers creates the API handlers.
func NewHandlers(jobs JobService, reader CheckReader) *Handlers {
	return &Handlers{jobs: jobs, reader: reader}
}

// Health reports process liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "ok"})
}

// ProviderInfo describes one provider adapter for client display.
type ProviderInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Providers lists the provider adapters available for checking.
func (h *Handlers) Providers(w http.ResponseWriter, r *http.Request) {
	adapters := h.jobs.Providers()
	infos := make([]ProviderInfo, 0, len(adapters))
	for _, a := range adapters {
		infos = append(infos, ProviderInfo{ID: a.ID(), Name: a.Name()})
	}
	NewResponseWriter(w, r).Success(infos)
}

// StartJob creates and launches a new batch check job.
func (h *Handlers) StartJob(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req StartJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON request body")
		return
	}
	if details := validateRequest(&req); details != nil {
		rw.ValidationError("invalid job request", details)
		return
	}

	job, err := h.jobs.Start(r.Context(), req.Name, req.SelectionID, req.ProviderID,
		models.RecheckMode(req.RecheckMode))
	if err != nil {
		h.writeJobError(rw, err)
		return
	}

	logging.Info().
		Str("job_id", job.ID).
		Str("provider", job.ProviderID).
		Int("addresses", job.TotalAddresses).
		Msg("Check job started")
	rw.Created(job)
}

// GetJob returns a job's current status and counters.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	job, err := h.jobs.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeJobError(rw, err)
		return
	}
	rw.Success(job)
}

// ListJobs returns recent jobs, newest first.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := ListJobsRequest{Limit: getIntParam(r, "limit", 100)}
	if details := validateRequest(&req); details != nil {
		rw.ValidationError("invalid limit", details)
		return
	}

	jobs, err := h.reader.ListJobs(r.Context(), req.Limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if jobs == nil {
		jobs = []*models.CheckJob{}
	}
	rw.Success(jobs)
}

// ListChecks returns a job's recorded check results.
func (h *Handlers) ListChecks(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	jobID := chi.URLParam(r, "id")

	if _, err := h.jobs.Status(r.Context(), jobID); err != nil {
		h.writeJobError(rw, err)
		return
	}

	req := ListChecksRequest{Limit: getIntParam(r, "limit", 1000)}
	if details := validateRequest(&req); details != nil {
		rw.ValidationError("invalid limit", details)
		return
	}

	records, err := h.reader.ListChecksForJob(r.Context(), jobID, req.Limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if records == nil {
		records = []*store.CheckRecord{}
	}
	rw.Success(records)
}

// PauseJob requests a cooperative pause of a running job.
func (h *Handlers) PauseJob(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.jobs.Pause)
}

// ResumeJob relaunches a paused job.
func (h *Handlers) ResumeJob(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.jobs.Resume)
}

// CancelJob terminates a job.
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.jobs.Cancel)
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, string) error) {
	rw := NewResponseWriter(w, r)
	jobID := chi.URLParam(r, "id")

	if err := op(r.Context(), jobID); err != nil {
		h.writeJobError(rw, err)
		return
	}

	job, err := h.jobs.Status(r.Context(), jobID)
	if err != nil {
		h.writeJobError(rw, err)
		return
	}
	rw.Success(job)
}

// writeJobError maps job service errors onto API error responses.
func (h *Handlers) writeJobError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, checker.ErrJobNotFound):
		rw.NotFound(err.Error())
	case errors.Is(err, checker.ErrJobConflict):
		rw.Conflict(err.Error())
	case errors.Is(err, checker.ErrNoWorkItems),
		errors.Is(err, checker.ErrInvalidRecheckMode),
		errors.Is(err, provider.ErrUnknownProvider):
		rw.BadRequest(err.Error())
	default:
		logging.Error().Err(err).Msg("Job operation failed")
		rw.InternalError("job operation failed")
	}
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
