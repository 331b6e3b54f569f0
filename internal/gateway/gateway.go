// Package gateway is the operator HTTP surface: liveness, scheduler status
// and Prometheus metrics.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/flemzord/dailyclaim/internal/core"
	"github.com/flemzord/dailyclaim/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Gateway{})
}

// Gateway is the HTTP gateway module. It is a leaf module, nothing imports it.
type Gateway struct {
	config    Config
	appCtx    *core.AppContext
	logger    *slog.Logger
	server    *http.Server
	metrics   *Metrics
	gatherer  prometheus.Gatherer
	limiter   *security.RateLimiter
	startedAt time.Time

	// Resolved lazily at Start() via service registry.
	source StatusSource
}

// ModuleInfo implements core.Module.
func (g *Gateway) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "gateway.http",
		New: func() core.Module { return &Gateway{} },
	}
}

// Configure implements core.Configurable.
func (g *Gateway) Configure(node *yaml.Node) error {
	if err := node.Decode(&g.config); err != nil {
		return err
	}
	g.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (g *Gateway) Provision(ctx *core.AppContext) error {
	g.config.defaults()
	g.appCtx = ctx
	g.logger = ctx.Logger
	g.limiter = security.NewRateLimiter(g.config.RateLimit)

	var reg prometheus.Registerer
	g.gatherer = prometheus.DefaultGatherer
	if svc, ok := ctx.GetService("metrics.registry"); ok {
		reg, _ = svc.(prometheus.Registerer)
		if gth, ok := svc.(prometheus.Gatherer); ok {
			g.gatherer = gth
		}
	}
	g.metrics = NewMetrics(reg)

	if svc, ok := ctx.GetService("security.credentials"); ok {
		if creds, ok := svc.(*security.CredentialStore); ok {
			if g.config.Auth.BearerToken != "" {
				creds.Set("gateway.bearer_token", g.config.Auth.BearerToken)
			}
			if g.config.Auth.BasicPass != "" {
				creds.Set("gateway.basic_pass", g.config.Auth.BasicPass)
			}
		}
	}
	return nil
}

// Validate implements core.Validator.
func (g *Gateway) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", g.config.Bind); err != nil {
		return errors.New("gateway: invalid bind address: " + g.config.Bind)
	}
	return nil
}

// Start implements core.Starter. It resolves the status source from the
// service registry and starts the HTTP server.
func (g *Gateway) Start() error {
	if g.appCtx != nil {
		if svc, ok := g.appCtx.GetService("checkin.status"); ok {
			if src, ok := svc.(StatusSource); ok {
				g.source = src
			}
		}
	}
	if g.source == nil {
		g.logger.Warn("gateway started without a check-in scheduler, /health will report degraded")
	}

	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop implements core.Stopper. Graceful shutdown with configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
