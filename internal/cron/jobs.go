package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// MarkerPruner deletes idempotency markers scheduled before a cutoff.
type MarkerPruner interface {
	PruneMarkers(ctx context.Context, before time.Time) (int64, error)
}

// MarkerPruneJob removes markers older than Retention. A marker only
// matters for the period it was written in, so old rows are dead weight.
type MarkerPruneJob struct {
	Store        MarkerPruner
	Retention    time.Duration
	Logger       *slog.Logger
	ScheduleExpr string           // empty = default "0 4 * * *"
	Now          func() time.Time // nil = time.Now
}

// Compile-time interface check.
var _ Job = (*MarkerPruneJob)(nil)

// Name implements Job.
func (j *MarkerPruneJob) Name() string {
	return "marker_prune"
}

// Schedule implements Job.
func (j *MarkerPruneJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 4 * * *"
}

// Run deletes markers scheduled before now - Retention.
func (j *MarkerPruneJob) Run(ctx context.Context) error {
	if j.Retention <= 0 {
		return errors.New("cron: marker prune retention must be positive")
	}
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}

	cutoff := now().Add(-j.Retention)
	n, err := j.Store.PruneMarkers(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cron: pruning markers: %w", err)
	}
	if n > 0 && j.Logger != nil {
		j.Logger.Info("cron: pruned stale markers", "count", n, "before", cutoff)
	}
	return nil
}
