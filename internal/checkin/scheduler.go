package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Config holds scheduler configuration.
type Config struct {
	Interval time.Duration    // default 4h
	Region   Region           // default asia
	Logger   *slog.Logger     // default slog.Default()
	Now      func() time.Time // injectable for testing

	// Sleep waits out the initial alignment delay. Injectable for testing.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 4 * time.Hour
	}
	if c.Region == "" {
		c.Region = RegionAsia
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Sleep == nil {
		c.Sleep = sleepContext
	}
	return c
}

// TickSummary describes one completed sweep.
type TickSummary struct {
	RunID          string        `json:"run_id"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration_ns"`
	Owners         int           `json:"owners"`
	FailedOwners   int           `json:"failed_owners"`
	Claimed        int           `json:"claimed"`
	AlreadyClaimed int           `json:"already_claimed"`
	Handled        int           `json:"handled"`
	Revoked        int           `json:"revoked"`
	Exhausted      int           `json:"exhausted"`
	Unregistered   int           `json:"unregistered"`
	Messages       int           `json:"messages"`
	Error          string        `json:"error,omitempty"`
}

func (s *TickSummary) add(outcomes map[Outcome]int) {
	s.Claimed += outcomes[OutcomeClaimed]
	s.AlreadyClaimed += outcomes[OutcomeAlready]
	s.Handled += outcomes[OutcomeHandled]
	s.Revoked += outcomes[OutcomeRevoked]
	s.Exhausted += outcomes[OutcomeExhausted]
	s.Unregistered += outcomes[OutcomeUnregistered]
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	Started  bool         `json:"started"`
	Interval string       `json:"interval"`
	Region   Region       `json:"region"`
	NextTick time.Time    `json:"next_tick,omitzero"`
	LastTick *TickSummary `json:"last_tick,omitempty"`
}

// Scheduler sweeps all owners every Interval, aligned so that one sweep
// lands on each daily reset. Sweeps run on a single goroutine and never
// overlap.
type Scheduler struct {
	cfg      Config
	owners   AccountSource
	workflow *Workflow
	notifier Notifier
	metrics  *Metrics

	mu       sync.Mutex
	started  bool
	cancel   context.CancelFunc
	done     chan struct{}
	nextTick time.Time
	lastTick *TickSummary
}

// NewScheduler creates a Scheduler.
func NewScheduler(cfg Config, owners AccountSource, wf *Workflow, notifier Notifier, metrics *Metrics) (*Scheduler, error) {
	if owners == nil {
		return nil, errors.New("checkin: nil AccountSource")
	}
	if wf == nil {
		return nil, errors.New("checkin: nil Workflow")
	}
	if notifier == nil {
		return nil, errors.New("checkin: nil Notifier")
	}
	return &Scheduler{
		cfg:      cfg.withDefaults(),
		owners:   owners,
		workflow: wf,
		notifier: notifier,
		metrics:  metrics,
	}, nil
}

// Start launches the sweep loop. Only the first call has an effect; later
// calls return nil, including after Stop. A stopped Scheduler is not
// restarted: build a new one instead.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
	return nil
}

// Stop cancels the loop and waits for it to exit or for ctx to expire.
// Returns ErrNotStarted if the loop is not running.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.cancel()
	s.cancel = nil
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("checkin: waiting for sweep to finish: %w", ctx.Err())
	}
}

// Started reports whether the loop is running.
func (s *Scheduler) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Status returns a snapshot for the ops surface.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Started:  s.cancel != nil,
		Interval: s.cfg.Interval.String(),
		Region:   s.cfg.Region,
		NextTick: s.nextTick,
	}
	if s.lastTick != nil {
		last := *s.lastTick
		st.LastTick = &last
	}
	return st
}

func (s *Scheduler) setNextTick(t time.Time) {
	s.mu.Lock()
	s.nextTick = t
	s.mu.Unlock()
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	now := s.cfg.Now()
	delay := InitialDelay(now, s.cfg.Region.NextReset(now), s.cfg.Interval)
	s.setNextTick(now.Add(delay))
	s.cfg.Logger.Info("next daily check-in sweep scheduled", "in", delay)

	if err := s.cfg.Sleep(ctx, delay); err != nil {
		return
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.RunTick(ctx)
		s.setNextTick(s.cfg.Now().Add(s.cfg.Interval))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunTick performs one sweep over every owner. A failing owner is logged
// and skipped; it never stops the sweep.
func (s *Scheduler) RunTick(ctx context.Context) TickSummary {
	start := s.cfg.Now()
	sum := TickSummary{RunID: uuid.NewString(), StartedAt: start}
	log := s.cfg.Logger.With("run_id", sum.RunID)

	ctx, span := s.workflow.tracer().Start(ctx, "checkin.tick",
		trace.WithAttributes(attribute.String("run_id", sum.RunID)))
	defer span.End()

	log.Info("daily check-in sweep begins")

	owners, err := s.owners.ListOwners(ctx)
	if err != nil {
		log.Error("cannot list owners", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "list owners")
		sum.Error = err.Error()
	}

	for _, owner := range owners {
		if ctx.Err() != nil {
			log.Warn("sweep interrupted", "error", ctx.Err())
			break
		}
		sum.Owners++
		if err := s.runOwner(ctx, log, owner, &sum); err != nil {
			sum.FailedOwners++
			s.metrics.ownerFailed()
			log.Error("cannot check in for owner", "owner", owner, "error", err)
		}
	}

	sum.Duration = s.cfg.Now().Sub(start)
	s.metrics.tickDone(sum.Duration, start.Add(sum.Duration))
	log.Info("daily check-in sweep finished",
		"owners", sum.Owners,
		"claimed", sum.Claimed,
		"revoked", sum.Revoked,
		"exhausted", sum.Exhausted,
		"failed_owners", sum.FailedOwners,
		"duration", sum.Duration,
	)

	s.mu.Lock()
	last := sum
	s.lastTick = &last
	s.mu.Unlock()
	return sum
}

// runOwner resolves the destination, runs the workflow and delivers the
// batch. Every message is attempted even when an earlier one fails.
func (s *Scheduler) runOwner(ctx context.Context, log *slog.Logger, owner string, sum *TickSummary) error {
	chat, err := s.notifier.ResolveDestination(ctx, owner)
	if err != nil {
		return fmt.Errorf("resolving destination: %w", err)
	}

	report, err := s.workflow.RunOwner(ctx, owner)
	sum.add(report.Outcomes)
	if err != nil {
		return err
	}

	var errs []error
	for _, msg := range report.Batch.Messages(chat) {
		if err := s.notifier.Send(ctx, msg); err != nil {
			s.metrics.sendFailed()
			errs = append(errs, fmt.Errorf("sending notification: %w", err))
			continue
		}
		sum.Messages++
	}
	if len(errs) == 0 && !report.Batch.Empty() {
		log.Debug("owner notified", "owner", owner)
	}
	return errors.Join(errs...)
}
