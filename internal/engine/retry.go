package engine

import (
	"context"
	"log/slog"
	"time"
)

const (
	maxAttempts    = 3
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

// withRetry runs fn up to maxAttempts times, retrying only transient
// failures with capped exponential backoff. Non-transient errors and context
// cancellation return immediately.
func withRetry(ctx context.Context, op string, fn func() error) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil || !IsTransient(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		slog.Warn("transient failure, retrying", "op", op, "attempt", attempt, "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return err
}
