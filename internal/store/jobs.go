// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/models"
)

const jobColumns = `id, name, selection_id, provider_id, recheck_mode, status,
	total_addresses, checked_count, serviceable_count, preorder_count,
	no_service_count, current_index, created_at, updated_at`

// CreateJob persists a new batch job.
func (s *Store) CreateJob(ctx context.Context, job *models.CheckJob) error {
	start := time.Now()
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO check_jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Name, job.SelectionID, job.ProviderID, string(job.RecheckMode),
		string(job.Status), job.TotalAddresses, job.CheckedCount, job.ServiceableCount,
		job.PreorderCount, job.NoServiceCount, job.CurrentIndex, job.CreatedAt, job.UpdatedAt)
	observe("insert", "check_jobs", start, err)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetJob returns a job by id, or nil when it does not exist.
func (s *Store) GetJob(ctx context.Context, id string) (*models.CheckJob, error) {
	start := time.Now()
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM check_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	observe("select", "check_jobs", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// SetJobStatus updates a job's lifecycle status.
func (s *Store) SetJobStatus(ctx context.Context, id string, status models.JobStatus) error {
	start := time.Now()
	res, err := s.conn.ExecContext(ctx,
		`UPDATE check_jobs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id)
	observe("update", "check_jobs", start, err)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no such job %s", id)
	}
	return nil
}

// ActiveJobForSelection returns a pending, running or paused job for the
// selection, or nil when there is none. At most one job may be active per
// selection; a paused job still owns its selection until resumed or
// cancelled.
func (s *Store) ActiveJobForSelection(ctx context.Context, selectionID string) (*models.CheckJob, error) {
	start := time.Now()
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM check_jobs
		WHERE selection_id = ? AND status IN ('pending', 'running', 'paused')
		ORDER BY created_at DESC LIMIT 1`, selectionID)
	job, err := scanJob(row)
	observe("select", "check_jobs", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active job: %w", err)
	}
	return job, nil
}

// ListJobs returns the most recent jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]*models.CheckJob, error) {
	if limit <= 0 {
		limit = 100
	}
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM check_jobs ORDER BY created_at DESC LIMIT ?`, limit)
	observe("select", "check_jobs", start, err)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.CheckJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*models.CheckJob, error) {
	var (
		job          models.CheckJob
		mode, status string
	)
	err := row.Scan(&job.ID, &job.Name, &job.SelectionID, &job.ProviderID, &mode,
		&status, &job.TotalAddresses, &job.CheckedCount, &job.ServiceableCount,
		&job.PreorderCount, &job.NoServiceCount, &job.CurrentIndex,
		&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}
	job.RecheckMode = models.RecheckMode(mode)
	job.Status = models.JobStatus(status)
	return &job, nil
}
