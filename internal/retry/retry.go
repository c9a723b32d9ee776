// Package retry provides a small retry combinator with a pluggable policy.
package retry

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// BackoffFunc returns the delay to wait before the given attempt (0-based).
type BackoffFunc func(attempt int) time.Duration

// Policy describes how an operation should be retried.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc
}

// Fixed returns a policy with a constant delay between attempts.
func Fixed(maxAttempts int, delay time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Backoff:     func(int) time.Duration { return delay },
	}
}

// Exponential returns a policy with exponential backoff starting at base.
func Exponential(maxAttempts int, base time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(math.Pow(2, float64(attempt))) * base
		},
	}
}

// Do executes fn under the policy, waiting between attempts. It returns nil
// on the first success, the last error once attempts are exhausted, or the
// context error if the context is canceled while waiting.
func Do(ctx context.Context, policy Policy, op string, fn func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := fn(ctx); err == nil {
			return nil
		} else {
			lastErr = err
			if attempt < attempts-1 {
				waitTime := time.Duration(0)
				if policy.Backoff != nil {
					waitTime = policy.Backoff(attempt)
				}
				slog.Warn("operation failed, retrying",
					"op", op,
					"attempt", attempt+1,
					"wait_time", waitTime,
					"error", err)
				select {
				case <-time.After(waitTime):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return lastErr
}
