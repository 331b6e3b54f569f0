// Package app provides the process bootstrap shared by every dailyclaim
// command: configuration, logging, metrics, tracing, module loading and
// the wiring of the check-in scheduler to its collaborators.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/flemzord/dailyclaim/internal/channel"
	"github.com/flemzord/dailyclaim/internal/checkin"
	"github.com/flemzord/dailyclaim/internal/config"
	"github.com/flemzord/dailyclaim/internal/core"
	"github.com/flemzord/dailyclaim/internal/security"
	"github.com/flemzord/dailyclaim/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// RunParams configures the application.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, config.Find searches the standard locations.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// DataDir overrides both the config file and the default data directory.
	DataDir string

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer

	// Namespaces restricts module loading to the given namespaces
	// (e.g. "store" for the accounts commands). Empty loads everything.
	Namespaces []string
}

// Runtime is a loaded, wired application that has not been started.
type Runtime struct {
	App         *core.App
	Logger      *slog.Logger
	Config      *config.Config
	ConfigPath  string
	Registry    *prometheus.Registry
	Credentials *security.CredentialStore

	// Repository is nil when no store module is loaded.
	Repository checkin.Repository

	// Checkin is nil when checkin.daily is not configured.
	Checkin *checkin.Module

	// Notifier routes notifications to the loaded channels.
	Notifier *channel.Dispatcher

	shutdownTelemetry telemetry.ShutdownFunc
}

// Bootstrap loads the configuration and every configured module, then wires
// the check-in module to the store, rewards client and channels.
func Bootstrap(ctx context.Context, params RunParams) (*Runtime, error) {
	cfgPath, err := config.Find(params.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	credStore := security.NewCredentialStore()
	redactor := security.NewRedactor()
	redactor.TrackCredentials(credStore)

	logger, err := newLogger(cfg.Log, params.LogOutput, redactor)
	if err != nil {
		return nil, err
	}

	registry := newRegistry(params)

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, params.Version)
	if err != nil {
		return nil, err
	}

	dataDir := params.DataDir
	if dataDir == "" {
		dataDir = cfg.DataDir
	}
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("app: creating data dir: %w", err)
	}

	appCtx := core.NewAppContext(logger, dataDir)
	appCtx = appCtx.WithModuleConfigs(cfg.Modules)
	appCtx.RegisterService("security.credentials", credStore)
	appCtx.RegisterService("metrics.registry", registry)
	appCtx.RegisterService("config.path", cfgPath)

	ids := filterNamespaces(config.Resolve(cfg), params.Namespaces)

	application := core.NewApp(appCtx)
	if err := application.LoadModules(ids); err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	rt := &Runtime{
		App:               application,
		Logger:            logger,
		Config:            cfg,
		ConfigPath:        cfgPath,
		Registry:          registry,
		Credentials:       credStore,
		shutdownTelemetry: shutdown,
	}
	if err := wire(rt, ids); err != nil {
		rt.Close(ctx)
		return nil, err
	}
	return rt, nil
}

// Close stops every module and flushes pending spans.
func (rt *Runtime) Close(ctx context.Context) {
	rt.App.Stop()
	if rt.shutdownTelemetry != nil {
		if err := rt.shutdownTelemetry(ctx); err != nil {
			rt.Logger.Warn("telemetry shutdown failed", "error", err)
		}
	}
}

// Run starts all modules and blocks until ctx is cancelled or a shutdown
// signal is received.
func Run(ctx context.Context, params RunParams) error {
	rt, err := Bootstrap(ctx, params)
	if err != nil {
		return err
	}
	if rt.Checkin == nil {
		rt.Close(ctx)
		return fmt.Errorf("app: module %s is not configured", config.CheckinModule)
	}

	if err := rt.App.Start(); err != nil {
		rt.Close(ctx)
		return err
	}
	rt.Logger.Info("dailyclaim started", "version", params.Version, "config", rt.ConfigPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			rt.Logger.Info("shutdown requested")
			rt.Close(context.Background())
			rt.Logger.Info("shutdown complete")
			return nil
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				rt.Logger.Info("SIGHUP ignored, restart the process to apply configuration changes")
				continue
			}
			rt.Logger.Info("shutdown signal received", "signal", sig.String())
			rt.Close(context.Background())
			rt.Logger.Info("shutdown complete")
			return nil
		}
	}
}

// RunOnce performs a single sweep over every owner and returns its summary.
// The background loop, the pruning job and the gateway are never started.
func RunOnce(ctx context.Context, params RunParams) (checkin.TickSummary, error) {
	params.Namespaces = []string{"store", "rewards", "channel", "checkin"}
	rt, err := Bootstrap(ctx, params)
	if err != nil {
		return checkin.TickSummary{}, err
	}
	defer rt.Close(context.Background())

	if rt.Checkin == nil {
		return checkin.TickSummary{}, fmt.Errorf("app: module %s is not configured", config.CheckinModule)
	}
	if err := startChannels(rt); err != nil {
		return checkin.TickSummary{}, err
	}
	return rt.Checkin.RunOnce(ctx)
}

// startChannels authenticates the channel modules, which RunOnce needs
// without starting the scheduler.
func startChannels(rt *Runtime) error {
	var errs []error
	for _, name := range rt.Notifier.Channels() {
		mod, ok := rt.App.Module(name)
		if !ok {
			continue
		}
		if s, ok := mod.(core.Starter); ok {
			if err := s.Start(); err != nil {
				errs = append(errs, fmt.Errorf("starting %s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

func newLogger(cfg config.LogConfig, out io.Writer, redactor *security.Redactor) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var inner slog.Handler
	if cfg.Format == "json" {
		inner = slog.NewJSONHandler(out, opts)
	} else {
		inner = slog.NewTextHandler(out, opts)
	}
	return slog.New(security.NewRedactingHandler(inner, redactor)), nil
}

func newRegistry(params RunParams) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	info := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "dailyclaim",
		Name:      "build_info",
		Help:      "Build information, always 1.",
	}, []string{"version", "commit"})
	info.WithLabelValues(orUnknown(params.Version), orUnknown(params.Commit)).Set(1)
	reg.MustRegister(info)
	return reg
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func filterNamespaces(ids, namespaces []string) []string {
	if len(namespaces) == 0 {
		return ids
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if slices.Contains(namespaces, core.ModuleID(id).Namespace()) {
			out = append(out, id)
		}
	}
	return out
}

// DefaultDataDir returns the default persistent data directory.
// Uses $XDG_DATA_HOME/dailyclaim if set, otherwise ~/.local/share/dailyclaim.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok && dir != "" {
		return filepath.Join(dir, "dailyclaim")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "dailyclaim")
}
