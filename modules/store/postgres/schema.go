package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// migrationLockID serialises migrations between concurrent processes.
const migrationLockID = 0x6461696c79

// migrations[i] brings the schema to version i+1.
var migrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS accounts (
			account_id TEXT PRIMARY KEY,
			owner_id   TEXT NOT NULL,
			token      TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts(owner_id, account_id)`,
		`CREATE TABLE IF NOT EXISTS sub_profiles (
			account_id TEXT    NOT NULL REFERENCES accounts(account_id) ON DELETE CASCADE,
			profile_id TEXT    NOT NULL,
			position   INTEGER NOT NULL,
			PRIMARY KEY (account_id, profile_id)
		)`,
		`CREATE TABLE IF NOT EXISTS scheduled_items (
			account_id   TEXT        NOT NULL REFERENCES accounts(account_id) ON DELETE CASCADE,
			kind         TEXT        NOT NULL,
			scheduled_at TIMESTAMPTZ NOT NULL,
			done         BOOLEAN     NOT NULL DEFAULT false,
			PRIMARY KEY (account_id, kind)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scheduled_items_at ON scheduled_items(scheduled_at)`,
	},
}

var schemaVersion = len(migrations)

// migrate applies pending migrations inside one transaction guarded by an
// advisory lock.
func migrate(ctx context.Context, db DBTX) error {
	return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
			return fmt.Errorf("postgres: migration lock: %w", err)
		}
		if _, err := tx.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
			return fmt.Errorf("postgres: create schema_version: %w", err)
		}

		var current int
		if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
			return fmt.Errorf("postgres: read schema version: %w", err)
		}
		if current > schemaVersion {
			return fmt.Errorf("postgres: database schema version %d is newer than supported version %d", current, schemaVersion)
		}

		for v := current; v < schemaVersion; v++ {
			for _, stmt := range migrations[v] {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("postgres: migrate to %d: %w", v+1, err)
				}
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, v+1); err != nil {
				return fmt.Errorf("postgres: record schema version: %w", err)
			}
		}
		return nil
	})
}
