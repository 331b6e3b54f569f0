package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryPolicy runs a flaky operation with bounded exponential backoff.
//
// The wait after attempt n (1-based) is Multiplier * 2^(n-1) seconds,
// clamped to [Floor, Ceiling].
type RetryPolicy struct {
	Attempts   int
	Floor      time.Duration
	Multiplier float64
	Ceiling    time.Duration

	// Sleep waits for d or until ctx is done. Nil means a real timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry is called before each backoff wait. Optional.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryPolicy returns the policy used by the claim step:
// 5 attempts, 4s floor, multiplier 2, 10 minute ceiling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:   5,
		Floor:      4 * time.Second,
		Multiplier: 2,
		Ceiling:    600 * time.Second,
	}
}

// Delay returns the wait after the given attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.Multiplier * float64(time.Second)
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= float64(p.Ceiling) {
			break
		}
	}

	d := time.Duration(delay)
	if delay >= float64(p.Ceiling) || d < 0 {
		d = p.Ceiling
	}
	if d < p.Floor {
		d = p.Floor
	}
	return d
}

// Run invokes op until it returns nil or the attempt budget is spent.
// The returned error wraps both ErrRetriesExhausted and op's last error.
// A context cancelled while waiting aborts with the context error.
func (p RetryPolicy) Run(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, lastErr)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, lastErr)
}

func (p RetryPolicy) validate() error {
	if p.Attempts < 1 {
		return fmt.Errorf("checkin: retry.attempts must be >= 1, got %d", p.Attempts)
	}
	if p.Floor <= 0 {
		return fmt.Errorf("checkin: retry.floor must be positive, got %s", p.Floor)
	}
	if p.Multiplier <= 0 {
		return fmt.Errorf("checkin: retry.multiplier must be positive, got %g", p.Multiplier)
	}
	if p.Ceiling < p.Floor {
		return fmt.Errorf("checkin: retry.ceiling (%s) must be >= retry.floor (%s)", p.Ceiling, p.Floor)
	}
	return nil
}

// logRetry returns an OnRetry hook that logs each failed attempt.
func logRetry(logger *slog.Logger, account string) func(int, time.Duration, error) {
	return func(attempt int, delay time.Duration, err error) {
		logger.Warn("claim attempt failed, backing off",
			"account", account,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
