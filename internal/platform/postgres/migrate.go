package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema statements applied in order at startup. All statements are
// idempotent. The partial unique index on points is the correctness
// mechanism for single-use grant idempotency: concurrent inserts for the
// same (user, source) pair can have at most one winner regardless of how
// many process instances are running.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		fid BIGINT NOT NULL UNIQUE,
		wallet_address TEXT,
		referrer_fid BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS points (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		fid BIGINT NOT NULL,
		source TEXT NOT NULL,
		amount BIGINT NOT NULL,
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS points_single_use_uniq
		ON points (user_id, source)
		WHERE source IN ('wallet_confirmation', 'follow', 'channel_join', 'app_add')`,
	`CREATE INDEX IF NOT EXISTS points_user_created_idx
		ON points (user_id, created_at DESC)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
