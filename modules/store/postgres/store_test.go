package postgres

import (
	"context"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/flemzord/dailyclaim/internal/checkin"
	"github.com/jackc/pgx/v5"
)

// testStore runs each test inside a transaction that is rolled back, so
// tests share one database without seeing each other's rows.
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DAILYCLAIM_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DAILYCLAIM_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, Config{DSN: dsn})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(pool.Close)

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return NewStore(tx)
}

func TestStore_Accounts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.UpsertAccount(ctx, checkin.Account{OwnerID: "o2", AccountID: "b", Token: "t", SubProfiles: []string{"p2", "p1"}}); err != nil {
		t.Fatalf("UpsertAccount: %v", err)
	}
	if err := s.UpsertAccount(ctx, checkin.Account{OwnerID: "o1", AccountID: "a"}); err != nil {
		t.Fatalf("UpsertAccount: %v", err)
	}

	owners, err := s.ListOwners(ctx)
	if err != nil {
		t.Fatalf("ListOwners: %v", err)
	}
	if !slices.Contains(owners, "o1") || !slices.Contains(owners, "o2") {
		t.Errorf("owners = %v", owners)
	}

	accounts, err := s.ListAccounts(ctx, "o2")
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != 1 || !slices.Equal(accounts[0].SubProfiles, []string{"p2", "p1"}) {
		t.Fatalf("accounts = %+v", accounts)
	}

	a, err := s.GetAccount(ctx, "a")
	if err != nil || a == nil {
		t.Fatalf("GetAccount = %v, %v", a, err)
	}
	if a.Registered() || len(a.SubProfiles) != 0 {
		t.Errorf("account a = %+v", a)
	}

	if a, err := s.GetAccount(ctx, "missing"); err != nil || a != nil {
		t.Errorf("GetAccount(missing) = %v, %v", a, err)
	}

	if err := s.DeleteAccount(ctx, "b"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if a, _ := s.GetAccount(ctx, "b"); a != nil {
		t.Error("b should be gone")
	}
}

func TestStore_Markers(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.UpsertAccount(ctx, checkin.Account{OwnerID: "o", AccountID: "m", Token: "t"}); err != nil {
		t.Fatal(err)
	}

	if m, err := s.GetMarker(ctx, "m", checkin.KindDailyCheckin); err != nil || m != nil {
		t.Fatalf("GetMarker(absent) = %v, %v", m, err)
	}

	at := checkin.RegionEurope.DayBeginning(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	if err := s.UpsertMarker(ctx, checkin.Marker{AccountID: "m", Kind: checkin.KindDailyCheckin, ScheduledAt: at, Done: true}); err != nil {
		t.Fatalf("UpsertMarker: %v", err)
	}
	got, err := s.GetMarker(ctx, "m", checkin.KindDailyCheckin)
	if err != nil || got == nil {
		t.Fatalf("GetMarker = %v, %v", got, err)
	}
	if !got.ScheduledAt.Equal(at) || !got.Done {
		t.Errorf("marker = %+v", got)
	}

	n, err := s.PruneMarkers(ctx, at.Add(time.Hour))
	if err != nil || n != 1 {
		t.Errorf("PruneMarkers = %d, %v; want 1", n, err)
	}
}

func TestStore_MigrateIsIdempotent(t *testing.T) {
	s := testStore(t)
	tx := s.db.(pgx.Tx)
	if err := migrate(context.Background(), tx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestConfig(t *testing.T) {
	t.Parallel()

	var c Config
	c.defaults()
	if c.MaxConns != 4 || c.ConnectTimeout != 10*time.Second {
		t.Errorf("defaults = %+v", c)
	}
	if err := c.validate(); err == nil {
		t.Error("validate should require a dsn")
	}
	c.DSN = "postgres://localhost/dailyclaim"
	if err := c.validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
	c.MaxConns = -1
	if err := c.validate(); err == nil {
		t.Error("validate should reject negative max_conns")
	}
}

func TestModule_StopWithoutPool(t *testing.T) {
	t.Parallel()
	m := &Module{}
	if err := m.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
