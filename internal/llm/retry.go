package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRetriesExhausted wraps the last failure after every attempt of a
// retried call has been spent.
var ErrRetriesExhausted = errors.New("retries exhausted")

// DelayFunc computes the pause before the next attempt; attempt is
// 1-based and counts the attempt that just failed.
type DelayFunc func(attempt int) time.Duration

// LinearBackoff returns step multiplied by the attempt number.
func LinearBackoff(step time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		return step * time.Duration(attempt)
	}
}

// Retry runs fn up to maxRetries+1 times. It is decoupled from any HTTP
// client: fn decides what is retryable by returning an error. Exhaustion
// returns ErrRetriesExhausted wrapping the last error; context
// cancellation during a backoff pause aborts early.
func Retry[T any](ctx context.Context, maxRetries int, delay DelayFunc, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if maxRetries < 0 {
		maxRetries = 0
	}

	attempts := maxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay(attempt)):
		}
	}
	return zero, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, lastErr)
}
