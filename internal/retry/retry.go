// Package retry provides a small reusable retry policy: max attempts, a
// backoff function, and a retryable-error predicate, parameterized per
// operation.
package retry

import (
	"context"
	"time"
)

// Policy controls how an operation is retried.
type Policy struct {
	MaxAttempts int
	// Backoff returns the wait before the next attempt, given the 1-based
	// attempt number that just failed.
	Backoff func(attempt int) time.Duration
	// Retryable decides whether an error is worth another attempt.
	// A nil predicate retries every error.
	Retryable func(error) bool
	// Sleep is swappable for tests; nil means time.Sleep honoring ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do runs op under the policy. It returns nil on the first success, the
// last error once attempts are exhausted, and immediately on a
// non-retryable error or cancelled context.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = op(); err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		if p.Backoff != nil {
			if serr := sleep(ctx, p.Backoff(attempt)); serr != nil {
				return serr
			}
		}
	}
	return err
}

// DeliveryBackoff is the message-delivery wait: min(60, attempt*20) seconds.
func DeliveryBackoff(attempt int) time.Duration {
	secs := attempt * 20
	if secs > 60 {
		secs = 60
	}
	return time.Duration(secs) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
