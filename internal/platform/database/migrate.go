package database

import (
	"context"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              TEXT PRIMARY KEY,
		email           TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		role            TEXT NOT NULL CHECK (role IN ('user', 'manager')),
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS entries (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		amount      DOUBLE PRECISION NOT NULL CHECK (amount > 0),
		status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
		created_by  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_created_by ON entries (created_by)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_users_created_at ON users (created_at DESC)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              TEXT PRIMARY KEY,
		email           TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		role            TEXT NOT NULL CHECK (role IN ('user', 'manager')),
		created_at      DATETIME NOT NULL,
		updated_at      DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS entries (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		amount      REAL NOT NULL CHECK (amount > 0),
		status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
		created_by  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at  DATETIME NOT NULL,
		updated_at  DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_created_by ON entries (created_by)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_users_created_at ON users (created_at DESC)`,
}

// Migrate creates the tables when missing. Statements are idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	schema := postgresSchema
	if d.Dialect == SQLite {
		schema = sqliteSchema
	}
	for i, stmt := range schema {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}

// Truncate removes every row; used by the seed command.
func (d *DB) Truncate(ctx context.Context) error {
	for _, table := range []string{"entries", "users"} {
		if _, err := d.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}
