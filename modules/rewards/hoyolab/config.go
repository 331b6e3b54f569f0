package hoyolab

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Public endpoints of the overseas service.
const (
	defaultRewardURL = "https://sg-hk4e-api.hoyolab.com/event/sol"
	defaultRecordURL = "https://bbs-api-os.hoyolab.com/game_record/genshin/api"
	defaultActID     = "e202102251931481"
	defaultDSSalt    = "6s25p5ox5y14umn1p61aqyyvbvvl3lrt"
	defaultLang      = "en-us"
	appVersion       = "1.5.0"
)

// Config holds the rewards client configuration.
type Config struct {
	RewardURL string        `yaml:"reward_url"`
	RecordURL string        `yaml:"record_url"`
	ActID     string        `yaml:"act_id"`
	Lang      string        `yaml:"lang"`
	DSSalt    string        `yaml:"ds_salt"`
	Timeout   time.Duration `yaml:"timeout"`
	Breaker   BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the circuit breaker wrapped around every request.
type BreakerConfig struct {
	// MaxFailures consecutive failures open the breaker. Defaults to 5.
	MaxFailures uint32 `yaml:"max_failures"`
	// OpenTimeout is how long the breaker stays open. Defaults to 60s.
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

func (c *Config) defaults() {
	if c.RewardURL == "" {
		c.RewardURL = defaultRewardURL
	}
	if c.RecordURL == "" {
		c.RecordURL = defaultRecordURL
	}
	if c.ActID == "" {
		c.ActID = defaultActID
	}
	if c.Lang == "" {
		c.Lang = defaultLang
	}
	if c.DSSalt == "" {
		c.DSSalt = defaultDSSalt
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.Breaker.MaxFailures == 0 {
		c.Breaker.MaxFailures = 5
	}
	if c.Breaker.OpenTimeout <= 0 {
		c.Breaker.OpenTimeout = 60 * time.Second
	}
}

func (c *Config) validate() error {
	var errs []error
	for name, raw := range map[string]string{"reward_url": c.RewardURL, "record_url": c.RecordURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("hoyolab: %s must be an http(s) URL, got %q", name, raw))
		}
	}
	if c.Timeout > 2*time.Minute {
		errs = append(errs, fmt.Errorf("hoyolab: timeout must be at most 2m, got %s", c.Timeout))
	}
	if c.ActID == "" {
		errs = append(errs, errors.New("hoyolab: act_id is required"))
	}
	return errors.Join(errs...)
}
