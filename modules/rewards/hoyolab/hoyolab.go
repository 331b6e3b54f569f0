// Package hoyolab implements the rewards-service client module: daily
// sign-in, the monthly reward calendar and the real-time notes of each
// sub-profile, authenticated with the account's session cookie. Every
// request goes through a circuit breaker.
package hoyolab

import (
	"fmt"
	"log/slog"

	"github.com/flemzord/dailyclaim/internal/checkin"
	"github.com/flemzord/dailyclaim/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
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
)

// Module is the rewards.hoyolab module.
type Module struct {
	config Config
	logger *slog.Logger
	client *Client
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "rewards.hoyolab",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("hoyolab: decode config: %w", err)
	}
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	var opts []Option
	if svc, ok := ctx.GetService("metrics.registry"); ok {
		if reg, ok := svc.(prometheus.Registerer); ok {
			gauge := prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "dailyclaim",
				Subsystem: "rewards",
				Name:      "breaker_state",
				Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
			})
			if err := reg.Register(gauge); err != nil {
				return fmt.Errorf("hoyolab: register metrics: %w", err)
			}
			opts = append(opts, WithStateObserver(func(_, to gobreaker.State) {
				gauge.Set(float64(to))
			}))
		}
	}

	if svc, ok := ctx.GetService("security.credentials"); ok {
		if sink, ok := svc.(SecretSink); ok {
			opts = append(opts, WithSecretSink(sink))
		}
	}

	m.client = NewClient(m.config, m.logger, opts...)
	ctx.RegisterService("rewards.client", checkin.RewardClient(m.client))
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	return m.config.validate()
}

// RewardClient returns the shared client.
func (m *Module) RewardClient() checkin.RewardClient {
	return m.client
}
