package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(g.metrics.instrument)
	r.Use(rateLimitMiddleware(g.limiter))

	// Public, no auth required.
	r.Get("/health", g.handleHealth())

	metrics := promhttp.HandlerFor(g.gatherer, promhttp.HandlerOpts{})
	if g.config.PublicMetrics {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	// Operator endpoints. Not mounted if no auth configured.
	if g.config.Auth.IsConfigured() {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(g.config.Auth, g.logger, g.limiter))
			r.Get("/status", g.handleStatus())
			if !g.config.PublicMetrics {
				r.Method(http.MethodGet, "/metrics", metrics)
			}
		})
	}

	return r
}
