// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package store

import (
	"context"
	"fmt"
)

// schemaStatements are applied in order at startup. All statements are
// idempotent so restarts are safe.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS addresses (
		id           VARCHAR PRIMARY KEY,
		selection_id VARCHAR NOT NULL,
		address      VARCHAR NOT NULL,
		created_at   TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,

	`CREATE TABLE IF NOT EXISTS check_jobs (
		id                VARCHAR PRIMARY KEY,
		name              VARCHAR NOT NULL,
		selection_id      VARCHAR NOT NULL,
		provider_id       VARCHAR NOT NULL,
		recheck_mode      VARCHAR NOT NULL,
		status            VARCHAR NOT NULL,
		total_addresses   INTEGER NOT NULL,
		checked_count     INTEGER NOT NULL DEFAULT 0,
		serviceable_count INTEGER NOT NULL DEFAULT 0,
		preorder_count    INTEGER NOT NULL DEFAULT 0,
		no_service_count  INTEGER NOT NULL DEFAULT 0,
		current_index     INTEGER NOT NULL DEFAULT 0,
		created_at        TIMESTAMP NOT NULL,
		updated_at        TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS serviceability_checks (
		id                  VARCHAR PRIMARY KEY,
		address_id          VARCHAR NOT NULL,
		job_id              VARCHAR NOT NULL,
		provider_id         VARCHAR NOT NULL,
		serviceable         BOOLEAN NOT NULL,
		serviceability_type VARCHAR NOT NULL,
		sales_type          VARCHAR,
		status              VARCHAR,
		cstatus             VARCHAR,
		is_pre_sale         VARCHAR,
		sales_status        VARCHAR,
		match_type          VARCHAR,
		api_create_date     VARCHAR,
		api_update_date     VARCHAR,
		error               VARCHAR NOT NULL DEFAULT '',
		checked_at          TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,

	`CREATE INDEX IF NOT EXISTS idx_addresses_selection ON addresses (selection_id)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_selection_status ON check_jobs (selection_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_checks_address_provider ON serviceability_checks (address_id, provider_id, checked_at)`,
	`CREATE INDEX IF NOT EXISTS idx_checks_job ON serviceability_checks (job_id)`,
}

func (s *Store) initialize(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
