package security

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a request exceeds the rate limit.
var ErrRateLimited = errors.New("rate limit exceeded")

// Rate limit kinds.
const (
	KindRequest     = "request"
	KindAuthFailure = "auth_failure"
)

// RateLimitConfig holds configurable rate limits for the gateway.
type RateLimitConfig struct {
	RequestsPerMin     int `yaml:"requests_per_min"`
	AuthFailuresPerMin int `yaml:"auth_failures_per_min"`
}

// rateLimitConfigDefaults returns a config with sensible defaults.
func rateLimitConfigDefaults() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMin:     120,
		AuthFailuresPerMin: 10,
	}
}

// RateLimiter implements sliding window rate limiting.
// Each bucket tracks timestamps of recent events within its window.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	window time.Duration
	limit  int
	events []time.Time
}

// NewRateLimiter creates a rate limiter with the given config.
// Zero-value fields in cfg are replaced with defaults.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	defaults := rateLimitConfigDefaults()
	if cfg.RequestsPerMin <= 0 {
		cfg.RequestsPerMin = defaults.RequestsPerMin
	}
	if cfg.AuthFailuresPerMin <= 0 {
		cfg.AuthFailuresPerMin = defaults.AuthFailuresPerMin
	}

	return &RateLimiter{
		now: time.Now,
		buckets: map[string]*bucket{
			KindRequest: {
				window: time.Minute,
				limit:  cfg.RequestsPerMin,
			},
			KindAuthFailure: {
				window: time.Minute,
				limit:  cfg.AuthFailuresPerMin,
			},
		},
	}
}

// Allow records an event of the given kind if the limit permits it.
// Returns nil if allowed, ErrRateLimited if the limit is exceeded.
// Unknown kinds are never limited.
func (rl *RateLimiter) Allow(kind string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[kind]
	if !ok {
		return nil
	}

	now := rl.now()
	b.evict(now)

	if len(b.events) >= b.limit {
		return ErrRateLimited
	}

	b.events = append(b.events, now)
	return nil
}

// Exhausted reports whether the bucket is full without recording an event.
// The gateway checks it before authenticating so that a caller who keeps
// failing is locked out for the window.
func (rl *RateLimiter) Exhausted(kind string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[kind]
	if !ok {
		return false
	}
	b.evict(rl.now())
	return len(b.events) >= b.limit
}

// evict removes events outside the sliding window.
func (b *bucket) evict(now time.Time) {
	cutoff := now.Add(-b.window)
	// Events are chronologically ordered.
	i := 0
	for i < len(b.events) && b.events[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		b.events = b.events[i:]
	}
}
