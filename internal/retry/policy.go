// Package retry provides an explicit bounded-retry policy that callers inject
// into blocking operations.
package retry

import (
	"context"
	"time"
)

// Default policy values.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
)

// BackoffFunc returns the delay to wait after the given failed attempt
// (1-based) before the next one.
type BackoffFunc func(attempt int) time.Duration

// Linear returns a backoff of base * attempt.
func Linear(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}

// Constant returns the same delay after every attempt.
func Constant(d time.Duration) BackoffFunc {
	return func(int) time.Duration {
		return d
	}
}

// Policy bounds how often an operation is attempted and how long to wait
// between attempts.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// Retryable reports whether err may be retried. Nil retries everything.
	Retryable func(err error) bool
}

// NewLinear returns a policy with linearly increasing delays.
func NewLinear(maxAttempts int, base time.Duration) Policy {
	return Policy{MaxAttempts: maxAttempts, Backoff: Linear(base)}
}

// NoDelay returns a policy that retries immediately. Intended for tests.
func NoDelay(maxAttempts int) Policy {
	return Policy{MaxAttempts: maxAttempts, Backoff: Constant(0)}
}

// Default returns the production policy: 3 attempts, 1s * attempt.
func Default() Policy {
	return NewLinear(DefaultMaxAttempts, DefaultBaseDelay)
}

// Do calls fn until it succeeds, returns a non-retryable error, or
// MaxAttempts is reached. fn receives the 1-based attempt number.
// The last error is returned on exhaustion; ctx cancellation between
// attempts returns ctx.Err().
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(attempt)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}

		// No sleep after the final attempt.
		if attempt < attempts {
			if serr := p.sleep(ctx, p.delay(attempt)); serr != nil {
				return serr
			}
		}
	}
	return err
}

func (p Policy) delay(attempt int) time.Duration {
	if p.Backoff == nil {
		return 0
	}
	return p.Backoff(attempt)
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
