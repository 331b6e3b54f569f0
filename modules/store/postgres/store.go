package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flemzord/dailyclaim/internal/checkin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool and pgx.Tx the store uses, so the
// same queries run inside or outside a transaction.
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements checkin.Repository on PostgreSQL.
type Store struct {
	db DBTX
}

var _ checkin.Repository = (*Store)(nil)

// NewStore wraps a pool or transaction.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// ListOwners implements checkin.AccountSource.
func (s *Store) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT owner_id FROM accounts ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list owners: %w", err)
	}
	owners, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: list owners: %w", err)
	}
	return owners, nil
}

// accountQuery aggregates sub-profiles in position order.
const accountQuery = `
	SELECT a.account_id, a.owner_id, a.token,
	       COALESCE(array_agg(p.profile_id ORDER BY p.position) FILTER (WHERE p.profile_id IS NOT NULL), '{}')
	FROM accounts a
	LEFT JOIN sub_profiles p ON p.account_id = a.account_id`

func scanAccount(row pgx.CollectableRow) (checkin.Account, error) {
	var a checkin.Account
	err := row.Scan(&a.AccountID, &a.OwnerID, &a.Token, &a.SubProfiles)
	return a, err
}

// ListAccounts implements checkin.AccountSource.
func (s *Store) ListAccounts(ctx context.Context, ownerID string) ([]checkin.Account, error) {
	rows, err := s.db.Query(ctx, accountQuery+`
		WHERE a.owner_id = $1
		GROUP BY a.account_id
		ORDER BY a.account_id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list accounts: %w", err)
	}
	accounts, err := pgx.CollectRows(rows, scanAccount)
	if err != nil {
		return nil, fmt.Errorf("postgres: list accounts: %w", err)
	}
	return accounts, nil
}

// GetAccount implements checkin.Repository.
func (s *Store) GetAccount(ctx context.Context, accountID string) (*checkin.Account, error) {
	rows, err := s.db.Query(ctx, accountQuery+`
		WHERE a.account_id = $1
		GROUP BY a.account_id`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: get account: %w", err)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanAccount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get account: %w", err)
	}
	return &a, nil
}

// UpsertAccount implements checkin.Repository. The sub-profile list is
// replaced as a whole.
func (s *Store) UpsertAccount(ctx context.Context, a checkin.Account) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO accounts (account_id, owner_id, token, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (account_id) DO UPDATE SET
				owner_id   = EXCLUDED.owner_id,
				token      = EXCLUDED.token,
				updated_at = now()`,
			a.AccountID, a.OwnerID, a.Token,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM sub_profiles WHERE account_id = $1`, a.AccountID); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i, id := range a.SubProfiles {
			batch.Queue(`
				INSERT INTO sub_profiles (account_id, profile_id, position)
				VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING`,
				a.AccountID, id, i,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("postgres: upsert account: %w", err)
	}
	return nil
}

// DeleteAccount implements checkin.Repository. Sub-profiles and markers go
// with the account.
func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM accounts WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("postgres: delete account: %w", err)
	}
	return nil
}

// GetMarker implements checkin.Repository.
func (s *Store) GetMarker(ctx context.Context, accountID string, kind checkin.TaskKind) (*checkin.Marker, error) {
	m := checkin.Marker{AccountID: accountID, Kind: kind}
	err := s.db.QueryRow(ctx, `
		SELECT scheduled_at, done FROM scheduled_items
		WHERE account_id = $1 AND kind = $2`,
		accountID, string(kind),
	).Scan(&m.ScheduledAt, &m.Done)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get marker: %w", err)
	}
	return &m, nil
}

// UpsertMarker implements checkin.Repository.
func (s *Store) UpsertMarker(ctx context.Context, m checkin.Marker) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO scheduled_items (account_id, kind, scheduled_at, done)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, kind) DO UPDATE SET
			scheduled_at = EXCLUDED.scheduled_at,
			done         = EXCLUDED.done`,
		m.AccountID, string(m.Kind), m.ScheduledAt, m.Done,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert marker: %w", err)
	}
	return nil
}

// PruneMarkers implements checkin.Repository.
func (s *Store) PruneMarkers(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM scheduled_items WHERE scheduled_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: prune markers: %w", err)
	}
	return tag.RowsAffected(), nil
}
