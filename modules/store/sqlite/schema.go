package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order; migrations[i] brings the schema to
// version i+1. Each one runs in its own transaction.
var migrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS accounts (
			account_id TEXT PRIMARY KEY,
			owner_id   TEXT NOT NULL,
			token      TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,

		`CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts(owner_id, account_id)`,

		`CREATE TABLE IF NOT EXISTS sub_profiles (
			account_id TEXT    NOT NULL REFERENCES accounts(account_id) ON DELETE CASCADE,
			profile_id TEXT    NOT NULL,
			position   INTEGER NOT NULL,
			PRIMARY KEY (account_id, profile_id)
		)`,

		`CREATE TABLE IF NOT EXISTS scheduled_items (
			account_id   TEXT    NOT NULL REFERENCES accounts(account_id) ON DELETE CASCADE,
			kind         TEXT    NOT NULL,
			scheduled_at TEXT    NOT NULL,
			done         INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (account_id, kind)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_scheduled_items_at ON scheduled_items(scheduled_at)`,
	},
}

// schemaVersion is the version the code expects.
var schemaVersion = len(migrations)

// migrate creates or updates the database schema to the latest version.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	if current > schemaVersion {
		return fmt.Errorf("sqlite: database schema version %d is newer than supported version %d", current, schemaVersion)
	}

	for v := current; v < schemaVersion; v++ {
		if err := applyMigration(ctx, db, v+1, migrations[v]); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, version int, stmts []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin migration %d: %w", version, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate to %d: %w\nstatement: %s", version, err, stmt)
		}
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}
	return tx.Commit()
}
