// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/models"
)

// AddAddress inserts one address into a selection.
func (s *Store) AddAddress(ctx context.Context, id, selectionID, address string) error {
	start := time.Now()
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO addresses (id, selection_id, address) VALUES (?, ?, ?)`,
		id, selectionID, address)
	observe("insert", "addresses", start, err)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

// latestCheckCTE ranks each address's checks by one provider, newest first.
// Work-item filtering always reasons about the latest check only.
const latestCheckCTE = `
	SELECT address_id, error, serviceability_type,
	       row_number() OVER (PARTITION BY address_id ORDER BY checked_at DESC) AS rn
	FROM serviceability_checks
	WHERE provider_id = ?`

// ListWorkItems returns the addresses of a selection matching a recheck
// mode, filtered in SQL so large selections never load wholesale into
// memory. Items come back ordered by id for a deterministic start order.
func (s *Store) ListWorkItems(ctx context.Context, selectionID, providerID string, mode models.RecheckMode) ([]models.WorkItem, error) {
	var (
		query string
		args  []interface{}
	)

	switch mode {
	case models.RecheckAll:
		query = `SELECT id, address FROM addresses WHERE selection_id = ? ORDER BY id`
		args = []interface{}{selectionID}

	case models.RecheckUnchecked:
		query = `SELECT a.id, a.address FROM addresses a
			WHERE a.selection_id = ?
			AND NOT EXISTS (
				SELECT 1 FROM serviceability_checks c
				WHERE c.address_id = a.id AND c.provider_id = ?
			)
			ORDER BY a.id`
		args = []interface{}{selectionID, providerID}

	case models.RecheckErrors:
		query = `WITH latest AS (` + latestCheckCTE + `)
			SELECT a.id, a.address FROM addresses a
			JOIN latest l ON l.address_id = a.id AND l.rn = 1
			WHERE a.selection_id = ? AND l.error <> ''
			ORDER BY a.id`
		args = []interface{}{providerID, selectionID}

	case models.RecheckServiceable, models.RecheckPreorder, models.RecheckNone:
		query = `WITH latest AS (` + latestCheckCTE + `)
			SELECT a.id, a.address FROM addresses a
			JOIN latest l ON l.address_id = a.id AND l.rn = 1
			WHERE a.selection_id = ? AND l.error = '' AND l.serviceability_type = ?
			ORDER BY a.id`
		args = []interface{}{providerID, selectionID, string(mode)}

	default:
		return nil, fmt.Errorf("unsupported recheck mode %q", mode)
	}

	start := time.Now()
	rows, err := s.conn.QueryContext(ctx, query, args...)
	observe("select", "addresses", start, err)
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	defer rows.Close()

	var items []models.WorkItem
	for rows.Next() {
		var item models.WorkItem
		if err := rows.Scan(&item.ID, &item.Address); err != nil {
			return nil, fmt.Errorf("scan work item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate work items: %w", err)
	}
	return items, nil
}

// CountAddresses returns the number of addresses in a selection.
func (s *Store) CountAddresses(ctx context.Context, selectionID string) (int, error) {
	start := time.Now()
	var n int
	err := s.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM addresses WHERE selection_id = ?`, selectionID).Scan(&n)
	observe("select", "addresses", start, err)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("count addresses: %w", err)
	}
	return n, nil
}
