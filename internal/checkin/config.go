package checkin

import (
	"errors"
	"fmt"
	"time"

	robfigcron "github.com/robfig/cron/v3"
)

// ModuleConfig holds the checkin.daily module configuration.
type ModuleConfig struct {
	Region   string        `yaml:"region"`
	Interval time.Duration `yaml:"interval"`
	TaskKind string        `yaml:"task_kind"`
	Retry    RetryConfig   `yaml:"retry"`
	Prune    PruneConfig   `yaml:"prune"`

	// Channel pins the notification channel module when several are loaded.
	Channel string `yaml:"channel"`
}

// RetryConfig configures the claim retry policy.
type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Floor      time.Duration `yaml:"floor"`
	Multiplier float64       `yaml:"multiplier"`
	Ceiling    time.Duration `yaml:"ceiling"`
}

// PruneConfig configures the stale marker cleanup job.
type PruneConfig struct {
	Schedule  string        `yaml:"schedule"`
	Retention time.Duration `yaml:"retention"`
	Disabled  bool          `yaml:"disabled"`
}

// defaults applies default values to unset fields.
func (c *ModuleConfig) defaults() {
	if c.Region == "" {
		c.Region = string(RegionAsia)
	}
	if c.Interval == 0 {
		c.Interval = 4 * time.Hour
	}
	if c.TaskKind == "" {
		c.TaskKind = string(KindDailyCheckin)
	}

	def := DefaultRetryPolicy()
	if c.Retry.Attempts == 0 {
		c.Retry.Attempts = def.Attempts
	}
	if c.Retry.Floor == 0 {
		c.Retry.Floor = def.Floor
	}
	if c.Retry.Multiplier == 0 {
		c.Retry.Multiplier = def.Multiplier
	}
	if c.Retry.Ceiling == 0 {
		c.Retry.Ceiling = def.Ceiling
	}

	if c.Prune.Schedule == "" {
		c.Prune.Schedule = "0 4 * * *"
	}
	if c.Prune.Retention == 0 {
		c.Prune.Retention = 30 * 24 * time.Hour
	}
}

// policy returns the retry policy described by the config.
func (c *ModuleConfig) policy() RetryPolicy {
	return RetryPolicy{
		Attempts:   c.Retry.Attempts,
		Floor:      c.Retry.Floor,
		Multiplier: c.Retry.Multiplier,
		Ceiling:    c.Retry.Ceiling,
	}
}

// validate checks field constraints after defaults have been applied.
func (c *ModuleConfig) validate() error {
	var errs []error

	if _, err := ParseRegion(c.Region); err != nil {
		errs = append(errs, err)
	}
	if c.Interval < time.Minute || c.Interval > 24*time.Hour {
		errs = append(errs, fmt.Errorf("checkin: interval must be 1m-24h, got %s", c.Interval))
	} else if (24*time.Hour)%c.Interval != 0 {
		errs = append(errs, fmt.Errorf("checkin: interval %s must divide 24h evenly to stay aligned with the reset", c.Interval))
	}
	if err := c.policy().validate(); err != nil {
		errs = append(errs, err)
	}
	if !c.Prune.Disabled {
		parser := robfigcron.NewParser(robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow)
		if _, err := parser.Parse(c.Prune.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("checkin: prune.schedule: %w", err))
		}
		if c.Prune.Retention < 24*time.Hour {
			errs = append(errs, fmt.Errorf("checkin: prune.retention must be at least 24h, got %s", c.Prune.Retention))
		}
	}
	return errors.Join(errs...)
}
