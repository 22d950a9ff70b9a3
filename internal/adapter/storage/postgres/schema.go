package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS aggregates (
		owner      TEXT        NOT NULL,
		key        TEXT        NOT NULL,
		content    JSONB       NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (owner, key)
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id            UUID        PRIMARY KEY,
		request_id    TEXT,
		action        TEXT        NOT NULL,
		resource_type TEXT        NOT NULL,
		resource_id   TEXT,
		details       JSONB,
		ip_address    TEXT,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs (created_at)`,
}

// EnsureSchema creates the relay's tables if they do not exist.
func EnsureSchema(ctx context.Context, pool Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
