package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flemzord/dailyclaim/internal/core"
)

// CheckinModule is the module that requires a store, a rewards client
// and a notification channel to be configured alongside it.
const CheckinModule = "checkin.daily"

// Validate checks the structural validity of a Config.
// It verifies the version field, ensures modules are present, checks that
// all referenced module IDs exist in the registry, and that the check-in
// module has its collaborators configured.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if len(cfg.Modules) == 0 {
		errs = append(errs, errors.New("config: at least one module must be configured"))
	}

	for id := range cfg.Modules {
		if _, ok := core.GetModule(id); !ok {
			errs = append(errs, unknownModule(id))
		}
	}

	if _, ok := cfg.Modules[CheckinModule]; ok {
		errs = append(errs, validateComposition(cfg)...)
	}

	errs = append(errs, validateLog(cfg.Log)...)

	tel := cfg.Telemetry
	tel.Defaults()
	if err := tel.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}

	return errors.Join(errs...)
}

func countNamespace(cfg *Config, ns string) int {
	n := 0
	for id := range cfg.Modules {
		if core.ModuleID(id).Namespace() == ns {
			n++
		}
	}
	return n
}

func validateComposition(cfg *Config) []error {
	var errs []error
	switch n := countNamespace(cfg, "store"); {
	case n == 0:
		errs = append(errs, fmt.Errorf("config: %s requires a store.* module", CheckinModule))
	case n > 1:
		errs = append(errs, fmt.Errorf("config: %s requires exactly one store.* module, got %d", CheckinModule, n))
	}
	switch n := countNamespace(cfg, "rewards"); {
	case n == 0:
		errs = append(errs, fmt.Errorf("config: %s requires a rewards.* module", CheckinModule))
	case n > 1:
		errs = append(errs, fmt.Errorf("config: %s requires exactly one rewards.* module, got %d", CheckinModule, n))
	}
	if countNamespace(cfg, "channel") == 0 {
		errs = append(errs, fmt.Errorf("config: %s requires at least one channel.* module", CheckinModule))
	}
	return errs
}

func validateLog(l LogConfig) []error {
	var errs []error
	if _, err := l.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch l.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: log.format must be text or json, got %q", l.Format))
	}
	return errs
}

// SlogLevel parses Level. An empty level is info.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("config: log.level: %w", err)
	}
	return lvl, nil
}

// unknownModule names the compiled-in alternatives of the same namespace,
// or the known namespaces when there are none.
func unknownModule(id string) error {
	var ids []string
	for _, info := range core.GetModulesByNamespace(core.ModuleID(id).Namespace()) {
		ids = append(ids, string(info.ID))
	}
	if len(ids) > 0 {
		return fmt.Errorf("config: unknown module %q (available: %s)", id, strings.Join(ids, ", "))
	}
	return fmt.Errorf("config: unknown module %q (known namespaces: %s)", id, strings.Join(core.Namespaces(), ", "))
}
