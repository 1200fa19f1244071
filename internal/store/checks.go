// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/models"
)

// RecordOutcome persists one check record and increments the owning job's
// aggregate counters in a single transaction: the row and the counters
// commit together or not at all.
//
// Counter updates are expressed as SQL-side increments, never read-modify-
// write in process memory, so concurrent item completions stay correct.
func (s *Store) RecordOutcome(ctx context.Context, outcome *models.CheckOutcome) error {
	start := time.Now()
	err := s.recordOutcome(ctx, outcome)
	observe("insert", "serviceability_checks", start, err)
	return err
}

func (s *Store) recordOutcome(ctx context.Context, outcome *models.CheckOutcome) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	r := outcome.Result
	_, err = tx.ExecContext(ctx,
		`INSERT INTO serviceability_checks (
			id, address_id, job_id, provider_id, serviceable, serviceability_type,
			sales_type, status, cstatus, is_pre_sale, sales_status, match_type,
			api_create_date, api_update_date, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), outcome.AddressID, outcome.JobID, outcome.ProviderID,
		r.Serviceable, string(r.Type), r.SalesType, r.Status, r.CStatus,
		r.IsPreSale, r.SalesStatus, r.MatchType, r.APICreateDate, r.APIUpdateDate,
		outcome.Error)
	if err != nil {
		return fmt.Errorf("insert check: %w", err)
	}

	// Errors consume a checked slot without incrementing any bucket.
	var serviceable, preorder, none int
	if outcome.Error == "" {
		switch r.Type {
		case models.TypeServiceable:
			serviceable = 1
		case models.TypePreorder:
			preorder = 1
		case models.TypeNone:
			none = 1
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE check_jobs SET
			checked_count = checked_count + 1,
			current_index = current_index + 1,
			serviceable_count = serviceable_count + ?,
			preorder_count = preorder_count + ?,
			no_service_count = no_service_count + ?,
			updated_at = ?
		WHERE id = ?`,
		serviceable, preorder, none, time.Now().UTC(), outcome.JobID)
	if err != nil {
		return fmt.Errorf("update job counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit outcome: %w", err)
	}
	return nil
}

// CheckRecord is a persisted check row as read back for the API.
type CheckRecord struct {
	ID         string                      `json:"id"`
	AddressID  string                      `json:"address_id"`
	JobID      string                      `json:"job_id"`
	ProviderID string                      `json:"provider_id"`
	Result     models.ServiceabilityResult `json:"result"`
	Error      string                      `json:"error,omitempty"`
	CheckedAt  time.Time                   `json:"checked_at"`
}

// ListChecksForJob returns a job's check records. Completion order is not
// input order; callers sort by checked_at, which this query already does.
func (s *Store) ListChecksForJob(ctx context.Context, jobID string, limit int) ([]*CheckRecord, error) {
	if limit <= 0 {
		limit = 1000
	}
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, address_id, job_id, provider_id, serviceable, serviceability_type,
			sales_type, status, cstatus, is_pre_sale, sales_status, match_type,
			api_create_date, api_update_date, error, checked_at
		FROM serviceability_checks
		WHERE job_id = ? ORDER BY checked_at LIMIT ?`, jobID, limit)
	observe("select", "serviceability_checks", start, err)
	if err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	defer rows.Close()

	var records []*CheckRecord
	for rows.Next() {
		var (
			rec     CheckRecord
			resType string
		)
		err := rows.Scan(&rec.ID, &rec.AddressID, &rec.JobID, &rec.ProviderID,
			&rec.Result.Serviceable, &resType, &rec.Result.SalesType,
			&rec.Result.Status, &rec.Result.CStatus, &rec.Result.IsPreSale,
			&rec.Result.SalesStatus, &rec.Result.MatchType,
			&rec.Result.APICreateDate, &rec.Result.APIUpdateDate,
			&rec.Error, &rec.CheckedAt)
		if err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		rec.Result.Type = models.ServiceabilityType(resType)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checks: %w", err)
	}
	return records, nil
}
