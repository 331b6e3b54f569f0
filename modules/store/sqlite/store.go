package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/flemzord/dailyclaim/internal/checkin"
)

// timeLayout is fixed-width so that text comparison orders instants.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements checkin.Repository on SQLite.
type Store struct {
	db *sql.DB
}

var _ checkin.Repository = (*Store)(nil)

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}

// ListOwners implements checkin.AccountSource.
func (s *Store) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT owner_id FROM accounts ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list owners: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var owners []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan owner: %w", err)
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}

// ListAccounts implements checkin.AccountSource.
func (s *Store) ListAccounts(ctx context.Context, ownerID string) ([]checkin.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, owner_id, token
		FROM accounts
		WHERE owner_id = ?
		ORDER BY account_id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list accounts: %w", err)
	}

	var accounts []checkin.Account
	for rows.Next() {
		var a checkin.Account
		if err := rows.Scan(&a.AccountID, &a.OwnerID, &a.Token); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("sqlite: scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("sqlite: list accounts: %w", err)
	}
	// The single pooled connection is busy until rows is closed.
	_ = rows.Close()

	for i := range accounts {
		profiles, err := s.subProfiles(ctx, accounts[i].AccountID)
		if err != nil {
			return nil, err
		}
		accounts[i].SubProfiles = profiles
	}
	return accounts, nil
}

func (s *Store) subProfiles(ctx context.Context, accountID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT profile_id FROM sub_profiles
		WHERE account_id = ?
		ORDER BY position`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list sub-profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan sub-profile: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetAccount implements checkin.Repository.
func (s *Store) GetAccount(ctx context.Context, accountID string) (*checkin.Account, error) {
	var a checkin.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT account_id, owner_id, token FROM accounts WHERE account_id = ?`,
		accountID,
	).Scan(&a.AccountID, &a.OwnerID, &a.Token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get account: %w", err)
	}

	if a.SubProfiles, err = s.subProfiles(ctx, accountID); err != nil {
		return nil, err
	}
	return &a, nil
}

// UpsertAccount implements checkin.Repository. The sub-profile list is
// replaced as a whole.
func (s *Store) UpsertAccount(ctx context.Context, a checkin.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (account_id, owner_id, token, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			owner_id   = excluded.owner_id,
			token      = excluded.token,
			updated_at = excluded.updated_at`,
		a.AccountID, a.OwnerID, a.Token, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert account: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sub_profiles WHERE account_id = ?`, a.AccountID); err != nil {
		return fmt.Errorf("sqlite: clear sub-profiles: %w", err)
	}
	for i, id := range a.SubProfiles {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO sub_profiles (account_id, profile_id, position)
			VALUES (?, ?, ?)`,
			a.AccountID, id, i,
		); err != nil {
			return fmt.Errorf("sqlite: insert sub-profile: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// DeleteAccount implements checkin.Repository. Sub-profiles and markers go
// with the account.
func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE account_id = ?`, accountID); err != nil {
		return fmt.Errorf("sqlite: delete account: %w", err)
	}
	return nil
}

// GetMarker implements checkin.Repository.
func (s *Store) GetMarker(ctx context.Context, accountID string, kind checkin.TaskKind) (*checkin.Marker, error) {
	var (
		at   string
		done bool
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT scheduled_at, done FROM scheduled_items
		WHERE account_id = ? AND kind = ?`,
		accountID, string(kind),
	).Scan(&at, &done)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get marker: %w", err)
	}

	t, err := parseTime(at)
	if err != nil {
		return nil, err
	}
	return &checkin.Marker{
		AccountID:   accountID,
		Kind:        kind,
		ScheduledAt: t,
		Done:        done,
	}, nil
}

// UpsertMarker implements checkin.Repository.
func (s *Store) UpsertMarker(ctx context.Context, m checkin.Marker) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduled_items (account_id, kind, scheduled_at, done)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id, kind) DO UPDATE SET
			scheduled_at = excluded.scheduled_at,
			done         = excluded.done`,
		m.AccountID, string(m.Kind), formatTime(m.ScheduledAt), m.Done,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert marker: %w", err)
	}
	return nil
}

// PruneMarkers implements checkin.Repository.
func (s *Store) PruneMarkers(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_items WHERE scheduled_at < ?`, formatTime(before))
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune markers: %w", err)
	}
	return res.RowsAffected()
}
