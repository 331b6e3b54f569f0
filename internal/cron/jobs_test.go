package cron

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

type fakePruner struct {
	before time.Time
	calls  int
	n      int64
	err    error
}

func (p *fakePruner) PruneMarkers(_ context.Context, before time.Time) (int64, error) {
	p.calls++
	p.before = before
	return p.n, p.err
}

func TestMarkerPruneJob_Defaults(t *testing.T) {
	t.Parallel()

	j := &MarkerPruneJob{}
	if j.Name() != "marker_prune" {
		t.Errorf("name = %q, want %q", j.Name(), "marker_prune")
	}
	if j.Schedule() != "0 4 * * *" {
		t.Errorf("schedule = %q, want %q", j.Schedule(), "0 4 * * *")
	}

	j.ScheduleExpr = "*/30 * * * *"
	if j.Schedule() != "*/30 * * * *" {
		t.Errorf("schedule = %q, want override", j.Schedule())
	}
}

func TestMarkerPruneJob_Run(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)
	store := &fakePruner{n: 3}
	j := &MarkerPruneJob{
		Store:     store,
		Retention: 72 * time.Hour,
		Logger:    slog.Default(),
		Now:       func() time.Time { return now },
	}

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("prune calls = %d, want 1", store.calls)
	}
	if want := now.Add(-72 * time.Hour); !store.before.Equal(want) {
		t.Errorf("cutoff = %v, want %v", store.before, want)
	}
}

func TestMarkerPruneJob_StoreError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	j := &MarkerPruneJob{Store: &fakePruner{err: boom}, Retention: time.Hour}

	if err := j.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}

func TestMarkerPruneJob_RequiresRetention(t *testing.T) {
	t.Parallel()

	store := &fakePruner{}
	j := &MarkerPruneJob{Store: store}
	if err := j.Run(context.Background()); err == nil {
		t.Fatal("expected error for zero retention")
	}
	if store.calls != 0 {
		t.Error("store must not be called without a retention")
	}
}
