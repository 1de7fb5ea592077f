package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"todoshare/pkg/logger"
)

// schema is idempotent: every statement is create-if-missing or
// create-or-replace, so it runs at each startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id          TEXT PRIMARY KEY,
		email       TEXT NOT NULL UNIQUE,
		username    TEXT,
		full_name   TEXT,
		avatar_url  TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id           TEXT PRIMARY KEY,
		title        VARCHAR(255) NOT NULL CHECK (length(title) > 0),
		description  VARCHAR(1000),
		due_date     TIMESTAMPTZ,
		status       TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'in_progress', 'completed')),
		priority     TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
		owner_id     TEXT NOT NULL,
		shared_with  TEXT[] NOT NULL DEFAULT '{}',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS tasks_owner_created_idx ON tasks (owner_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS tasks_shared_with_idx ON tasks USING GIN (shared_with)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id           TEXT PRIMARY KEY,
		title        VARCHAR(255) NOT NULL CHECK (length(title) > 0),
		content      VARCHAR(10000) NOT NULL DEFAULT '',
		owner_id     TEXT NOT NULL,
		shared_with  TEXT[] NOT NULL DEFAULT '{}',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS notes_owner_updated_idx ON notes (owner_id, updated_at DESC)`,
	`CREATE INDEX IF NOT EXISTS notes_shared_with_idx ON notes USING GIN (shared_with)`,
	// Identity search for the share picker: case-insensitive substring on
	// email or username with LIKE metacharacters in the term escaped.
	`CREATE OR REPLACE FUNCTION search_users(search_term TEXT)
	RETURNS SETOF profiles
	LANGUAGE sql STABLE AS $$
		SELECT p.*
		FROM profiles p,
		     LATERAL (SELECT '%' || replace(replace(replace(search_term, '\', '\\'), '%', '\%'), '_', '\_') || '%' AS pattern) q
		WHERE p.email ILIKE q.pattern OR p.username ILIKE q.pattern
		ORDER BY p.email
		LIMIT 20
	$$`,
}

// MigrateOrCreateSchema creates the tables, indexes and the search function.
func MigrateOrCreateSchema(ctx context.Context) error {
	db := DB(ctx)
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return ApplySchema(ctx, db)
}

// ApplySchema runs the schema statements against db in one transaction.
func ApplySchema(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	logger.Info(ctx, "Schema ensured", "statements", len(schema))
	return nil
}
