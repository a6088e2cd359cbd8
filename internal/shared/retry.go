package shared

import (
	"context"
	"fmt"
	"time"
)

// Retry runs fn up to attempts times with a fixed delay between attempts.
//
// fn reports whether its result should be retried. A non-nil error stops the
// loop immediately and is returned as-is; exhausting all attempts returns the
// last value wrapped with [ErrRetryExhausted]. The delay honors context
// cancellation, so an overall budget can be imposed with a context deadline.
func Retry[T any](ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) (T, bool, error)) (T, error) {
	var last T

	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return last, ctx.Err()
			case <-time.After(delay):
			}
		}

		value, retry, err := fn(ctx)
		if err != nil {
			return value, err
		}
		if !retry {
			return value, nil
		}
		last = value
	}

	return last, fmt.Errorf("%w after %d attempts", ErrRetryExhausted, attempts)
}
