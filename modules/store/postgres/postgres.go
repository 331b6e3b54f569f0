// Package postgres implements the server-side persistence module on
// PostgreSQL through a pgx connection pool. It satisfies the same
// repository contract as the embedded SQLite store.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flemzord/dailyclaim/internal/checkin"
	"github.com/flemzord/dailyclaim/internal/core"
	"github.com/flemzord/dailyclaim/internal/security"
	"github.com/jackc/pgx/v5/pgxpool"
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
	_ core.Stopper      = (*Module)(nil)
)

// Module is the store.postgres module.
type Module struct {
	config Config
	logger *slog.Logger
	pool   *pgxpool.Pool
	store  *Store
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "store.postgres",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("postgres: decode config: %w", err)
	}
	return nil
}

// Provision implements core.Provisioner. It connects and migrates.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger
	if err := m.config.validate(); err != nil {
		return err
	}

	if svc, ok := ctx.GetService("security.credentials"); ok {
		if creds, ok := svc.(*security.CredentialStore); ok {
			creds.Set("postgres.dsn", m.config.DSN)
		}
	}

	pool, err := Connect(context.Background(), m.config)
	if err != nil {
		return err
	}
	m.pool = pool
	m.store = NewStore(pool)

	ctx.RegisterService("store.repository", checkin.Repository(m.store))
	m.logger.Info("postgres store provisioned", "max_conns", m.config.MaxConns)
	return nil
}

// Connect opens a pool, checks connectivity and migrates the schema.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	return m.config.validate()
}

// Stop implements core.Stopper.
func (m *Module) Stop(context.Context) error {
	if m.pool == nil {
		return nil
	}
	m.logger.Info("postgres store stopping")
	m.pool.Close()
	m.pool = nil
	return nil
}

// Repository returns the store.
func (m *Module) Repository() checkin.Repository {
	return m.store
}
