package retry

import (
	"context"
	"log/slog"
	"time"
)

// Policy controls how a single external call is retried.
// Delay doubles after every failed attempt: InitialDelay * 2^attempt.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration

	// IsRetryable decides whether an error is worth another attempt.
	// A nil func retries everything until MaxAttempts is exhausted.
	IsRetryable func(ctx context.Context, err error) bool
}

// Do runs fn under the policy. Non-retryable errors and exhaustion of
// attempts propagate immediately; the last error wins.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if p.IsRetryable != nil && !p.IsRetryable(ctx, err) {
			return zero, err
		}
		if attempt == attempts-1 {
			break
		}

		delay := p.InitialDelay << attempt
		slog.WarnContext(ctx, "retryable error, backing off",
			"attempt", attempt+1,
			"max_attempts", attempts,
			"delay_ms", delay.Milliseconds(),
			"error", err)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}
