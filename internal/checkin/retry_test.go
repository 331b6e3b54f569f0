package checkin

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy_Delay(t *testing.T) {
	t.Parallel()

	p := DefaultRetryPolicy()
	want := []time.Duration{4 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 32 * time.Second}
	for i, w := range want {
		if got := p.Delay(i + 1); got != w {
			t.Errorf("Delay(%d) = %v, want %v", i+1, got, w)
		}
	}
	if got := p.Delay(40); got != 600*time.Second {
		t.Errorf("Delay(40) = %v, want ceiling", got)
	}
	if got := p.Delay(0); got != 4*time.Second {
		t.Errorf("Delay(0) = %v, want floor", got)
	}
}

func TestRetryPolicy_ExhaustsBudget(t *testing.T) {
	t.Parallel()

	sleeper := &noSleep{}
	p := DefaultRetryPolicy()
	p.Sleep = sleeper.sleep

	calls := 0
	err := p.Run(context.Background(), func(context.Context) error {
		calls++
		return errTransient
	})

	if calls != 5 {
		t.Fatalf("calls = %d, want 5", calls)
	}
	if !errors.Is(err, ErrRetriesExhausted) || !errors.Is(err, errTransient) {
		t.Fatalf("err = %v, want exhausted wrapping the last failure", err)
	}
	if len(sleeper.delays) != 4 {
		t.Fatalf("waits = %d, want 4", len(sleeper.delays))
	}
	for i, d := range sleeper.delays {
		if d < 4*time.Second || d > 600*time.Second {
			t.Errorf("delay[%d] = %v out of [4s, 600s]", i, d)
		}
		if i > 0 && d < sleeper.delays[i-1] {
			t.Errorf("delay[%d] = %v decreased from %v", i, d, sleeper.delays[i-1])
		}
	}
}

func TestRetryPolicy_StopsOnSuccess(t *testing.T) {
	t.Parallel()

	sleeper := &noSleep{}
	p := DefaultRetryPolicy()
	p.Sleep = sleeper.sleep

	calls := 0
	err := p.Run(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}

	var retried []int
	p.OnRetry = func(attempt int, _ time.Duration, _ error) { retried = append(retried, attempt) }
	calls = 0
	_ = p.Run(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return errTransient
		}
		return nil
	})
	if len(retried) != 1 || retried[0] != 1 {
		t.Errorf("OnRetry attempts = %v, want [1]", retried)
	}
}

func TestRetryPolicy_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	p := DefaultRetryPolicy()

	calls := 0
	err := p.Run(ctx, func(context.Context) error {
		calls++
		cancel()
		return errTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryPolicy_Validate(t *testing.T) {
	t.Parallel()

	if err := DefaultRetryPolicy().validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}

	bad := []RetryPolicy{
		{Attempts: 0, Floor: time.Second, Multiplier: 2, Ceiling: time.Minute},
		{Attempts: 3, Floor: 0, Multiplier: 2, Ceiling: time.Minute},
		{Attempts: 3, Floor: time.Second, Multiplier: 0, Ceiling: time.Minute},
		{Attempts: 3, Floor: time.Minute, Multiplier: 2, Ceiling: time.Second},
	}
	for i, p := range bad {
		if err := p.validate(); err == nil {
			t.Errorf("policy %d: expected validation error", i)
		}
	}
}
