package sql

import (
	"context"
	"fmt"
)

// schema holds the MySQL DDL for the pipeline tables. The unique index
// on reports.image_hash is what makes global image dedup authoritative.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS pending_submissions (
		session_id   VARCHAR(64)  NOT NULL,
		image_hash   CHAR(64)     NOT NULL,
		storage_ref  VARCHAR(512) NOT NULL,
		category     VARCHAR(32)  NOT NULL,
		submitted_by VARCHAR(128) NOT NULL DEFAULT '',
		created_at   BIGINT       NOT NULL,
		PRIMARY KEY (session_id),
		KEY idx_pending_created_at (created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS reports (
		id          VARCHAR(64)  NOT NULL,
		session_id  VARCHAR(64)  NOT NULL,
		storage_ref VARCHAR(512) NOT NULL,
		description TEXT,
		lat         DOUBLE       NOT NULL,
		lng         DOUBLE       NOT NULL,
		status      VARCHAR(32)  NOT NULL,
		category    VARCHAR(32)  NOT NULL,
		image_hash  CHAR(64)     NOT NULL,
		created_at  BIGINT       NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uniq_reports_image_hash (image_hash),
		KEY idx_reports_session (session_id)
	)`,
	`CREATE TABLE IF NOT EXISTS reward_ledger (
		id         VARCHAR(64)  NOT NULL,
		session_id VARCHAR(64)  NOT NULL,
		report_id  VARCHAR(64)  NOT NULL,
		points     INT          NOT NULL,
		reason     VARCHAR(128) NOT NULL,
		created_at BIGINT       NOT NULL,
		PRIMARY KEY (id),
		KEY idx_ledger_session (session_id),
		KEY idx_ledger_report (report_id)
	)`,
}

// Migrate creates the pipeline tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
