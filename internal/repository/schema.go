package repository

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`
		CREATE TABLE IF NOT EXISTS whispers (
			id             BIGSERIAL PRIMARY KEY,
			text           TEXT NOT NULL,
			lat            DOUBLE PRECISION NOT NULL,
			lng            DOUBLE PRECISION NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			place          TEXT,
			label_attempts INTEGER NOT NULL DEFAULT 0,
			label_error    TEXT
		);
	`,
	`CREATE INDEX IF NOT EXISTS idx_whispers_created_at ON whispers (created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_whispers_lat_lng ON whispers (lat, lng);`,
	`
		CREATE TABLE IF NOT EXISTS push_subscriptions (
			endpoint   TEXT PRIMARY KEY,
			p256dh     TEXT NOT NULL,
			auth       TEXT NOT NULL,
			lat        DOUBLE PRECISION,
			lng        DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`,
}

// InitSchema creates the tables and indexes when they do not exist yet.
// All statements run in one transaction.
func (r *Repository) InitSchema(ctx context.Context) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}

	for i, stmt := range schemaStatements {
		if _, err = tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to execute schema statement #%d: %w", i+1, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}

	r.log.InfoContext(ctx, "Database schema is ready", "statements", len(schemaStatements))

	return nil
}
