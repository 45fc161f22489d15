package retry

import (
	"context"
	"errors"
	"time"
)

// Policy bounds a call to an external service.
type Policy struct {
	Attempts       int
	AttemptTimeout time.Duration
	BackoffBase    time.Duration
	BackoffMax     time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Attempts:       3,
		AttemptTimeout: 10 * time.Second,
		BackoffBase:    200 * time.Millisecond,
		BackoffMax:     2 * time.Second,
	}
}

// Permanent marks an error that must not be retried.
type Permanent struct{ Err error }

func (p Permanent) Error() string { return p.Err.Error() }
func (p Permanent) Unwrap() error { return p.Err }

// IsRetryable reports whether another attempt could help.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var p Permanent
	if errors.As(err, &p) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

// Backoff is exponential from BackoffBase, capped at BackoffMax.
func (p Policy) Backoff(attempt int) time.Duration {
	base := p.BackoffBase
	if base <= 0 {
		return 0
	}
	shift := attempt - 1
	if shift < 0 {
		shift = 0
	}
	if shift > 16 {
		shift = 16
	}
	d := base << shift
	if p.BackoffMax > 0 && d > p.BackoffMax {
		d = p.BackoffMax
	}
	return d
}

// Do runs fn until it succeeds, the attempts run out or ctx ends. On failure it
// returns fallback together with the last error, so callers can log and carry on.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error), fallback T) (T, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}

		v, err := call(ctx, p.AttemptTimeout, fn)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == attempts {
			break
		}

		t := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return fallback, lastErr
		case <-t.C:
		}
	}
	return fallback, lastErr
}

func call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}
