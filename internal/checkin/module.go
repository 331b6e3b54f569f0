package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/flemzord/dailyclaim/internal/core"
	"github.com/flemzord/dailyclaim/internal/cron"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Module{})
}

// Compile-time interface guards.
var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Starter      = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
)

// Module is the checkin.daily module: it owns the scheduler and the marker
// pruning job. The store, rewards client and notifier are bound by the
// application after every module is loaded.
type Module struct {
	config  ModuleConfig
	logger  *slog.Logger
	region  Region
	metrics *Metrics

	repo     Repository
	client   RewardClient
	notifier Notifier

	mu        sync.Mutex
	scheduler *Scheduler
	cron      *cron.Scheduler
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "checkin.daily",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("checkin: decode config: %w", err)
	}
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	if region, err := ParseRegion(m.config.Region); err == nil {
		m.region = region
	}

	var reg prometheus.Registerer
	if svc, ok := ctx.GetService("metrics.registry"); ok {
		reg, _ = svc.(prometheus.Registerer)
	}
	m.metrics = NewMetrics(reg)

	ctx.RegisterService("checkin.status", m)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	return m.config.validate()
}

// ChannelID returns the channel module pinned in the config, if any.
func (m *Module) ChannelID() string {
	return m.config.Channel
}

// Bind supplies the collaborators. Must be called before Start or RunOnce.
func (m *Module) Bind(repo Repository, client RewardClient, notifier Notifier) {
	m.repo = repo
	m.client = client
	m.notifier = notifier
}

func (m *Module) build() (*Scheduler, error) {
	if m.repo == nil {
		return nil, errors.New("checkin: no store module loaded")
	}
	if m.client == nil {
		return nil, errors.New("checkin: no rewards module loaded")
	}
	if m.notifier == nil {
		return nil, errors.New("checkin: no channel module loaded")
	}

	wf := &Workflow{
		Repo:    m.repo,
		Client:  m.client,
		Retry:   m.config.policy(),
		Region:  m.region,
		Kind:    TaskKind(m.config.TaskKind),
		Logger:  m.logger,
		Metrics: m.metrics,
	}
	return NewScheduler(Config{
		Interval: m.config.Interval,
		Region:   m.region,
		Logger:   m.logger,
	}, m.repo, wf, m.notifier, m.metrics)
}

// Start implements core.Starter. Only the first call starts anything; the
// loop and the pruning job are never duplicated.
func (m *Module) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.scheduler != nil {
		return nil
	}

	sched, err := m.build()
	if err != nil {
		return err
	}

	var pruner *cron.Scheduler
	if !m.config.Prune.Disabled {
		pruner = cron.NewScheduler(m.logger, m.region.Location())
		if err := pruner.RegisterJob(&cron.MarkerPruneJob{
			Store:        m.repo,
			Retention:    m.config.Prune.Retention,
			Logger:       m.logger,
			ScheduleExpr: m.config.Prune.Schedule,
		}); err != nil {
			return err
		}
		if err := pruner.Start(); err != nil {
			return err
		}
	}

	m.logger.Info("daily check-in scheduler starting",
		"region", m.region,
		"interval", m.config.Interval,
		"task_kind", m.config.TaskKind,
	)
	if err := sched.Start(context.Background()); err != nil {
		if pruner != nil {
			_ = pruner.Stop(context.Background())
		}
		return err
	}
	m.scheduler = sched
	m.cron = pruner
	return nil
}

// Stop implements core.Stopper.
func (m *Module) Stop(ctx context.Context) error {
	m.mu.Lock()
	sched, pruner := m.scheduler, m.cron
	m.mu.Unlock()

	var errs []error
	if sched != nil {
		if err := sched.Stop(ctx); err != nil && !errors.Is(err, ErrNotStarted) {
			errs = append(errs, err)
		}
	}
	if pruner != nil {
		errs = append(errs, pruner.Stop(ctx))
	}
	return errors.Join(errs...)
}

// RunOnce performs a single sweep without starting the loop.
func (m *Module) RunOnce(ctx context.Context) (TickSummary, error) {
	sched, err := m.build()
	if err != nil {
		return TickSummary{}, err
	}
	return sched.RunTick(ctx), nil
}

// Started reports whether the sweep loop is running.
func (m *Module) Started() bool {
	m.mu.Lock()
	sched := m.scheduler
	m.mu.Unlock()
	return sched != nil && sched.Started()
}

// Status returns the scheduler snapshot. Zero before Start.
func (m *Module) Status() Status {
	m.mu.Lock()
	sched := m.scheduler
	m.mu.Unlock()
	if sched == nil {
		return Status{Interval: m.config.Interval.String(), Region: m.region}
	}
	return sched.Status()
}

// NextPrune returns the next run of the marker pruning job.
func (m *Module) NextPrune() (t time.Time) {
	m.mu.Lock()
	pruner := m.cron
	m.mu.Unlock()
	if pruner == nil {
		return t
	}
	return pruner.Next("marker_prune")
}
