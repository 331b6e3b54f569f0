package gateway

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/flemzord/dailyclaim/internal/security"
)

// authMiddleware returns a chi-compatible middleware that validates Bearer token
// or Basic auth credentials using constant-time comparison.
// If a RateLimiter is provided, callers are locked out once the auth_failure
// bucket is full, until the window slides.
func authMiddleware(cfg AuthConfig, logger *slog.Logger, rateLimiter *security.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rateLimiter != nil && rateLimiter.Exhausted(security.KindAuthFailure) {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}

			if authenticated(cfg, r) {
				next.ServeHTTP(w, r)
				return
			}

			if rateLimiter != nil {
				_ = rateLimiter.Allow(security.KindAuthFailure)
			}
			if logger != nil {
				logger.Warn("gateway auth failure",
					"remote_addr", r.RemoteAddr,
					"method", r.Method,
					"path", r.URL.Path,
				)
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
}

// authenticated tries the Bearer token first, then Basic auth.
func authenticated(cfg AuthConfig, r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return false
	}

	if cfg.BearerToken != "" {
		if after, ok := strings.CutPrefix(auth, "Bearer "); ok && constantTimeEqual(after, cfg.BearerToken) {
			return true
		}
	}

	if cfg.BasicUser != "" && cfg.BasicPass != "" {
		user, pass, ok := r.BasicAuth()
		if ok && constantTimeEqual(user, cfg.BasicUser) && constantTimeEqual(pass, cfg.BasicPass) {
			return true
		}
	}
	return false
}

// rateLimitMiddleware rejects requests once the request bucket is full.
func rateLimitMiddleware(rateLimiter *security.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := rateLimiter.Allow(security.KindRequest); err != nil {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// constantTimeEqual compares two strings in constant time.
func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
