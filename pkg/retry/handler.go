package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rohmanhakim/soundfetch/pkg/failure"
	"github.com/rohmanhakim/soundfetch/pkg/timeutil"
)

// Retry executes fn with retry logic.
// It will retry fn up to MaxAttempts times, applying exponential backoff
// with jitter between attempts. Only retryable errors trigger a retry.
// A canceled ctx stops the loop between attempts; fn is expected to honor
// ctx itself while it runs.
//
// Type parameter T represents the return type of the function being retried.
func Retry[T any](
	ctx context.Context,
	retryParam RetryParam,
	fn func(ctx context.Context) (T, failure.ClassifiedError),
) Result[T] {
	if retryParam.MaxAttempts < 1 {
		return Result[T]{
			err: &RetryError{
				Message:   "max attempt cannot be 0",
				Cause:     ErrZeroAttempt,
				Retryable: true,
			},
		}
	}

	rng := rand.New(rand.NewSource(retryParam.RandomSeed))

	var lastErr failure.ClassifiedError
	attempt := 0
	for attempt < retryParam.MaxAttempts {
		attempt++
		value, err := fn(ctx)
		if err == nil {
			return Result[T]{value: value, attempts: attempt}
		}
		lastErr = err

		if !failure.IsRetryable(err) {
			return Result[T]{err: err, attempts: attempt}
		}
		if attempt == retryParam.MaxAttempts {
			break
		}

		delay := retryParam.BaseDelay + timeutil.ExponentialBackoffDelay(
			attempt,
			retryParam.Jitter,
			rng,
			retryParam.BackoffParam,
		)
		if err := sleep(ctx, delay); err != nil {
			return Result[T]{
				err: &RetryError{
					Message:   fmt.Sprintf("stopped after %d attempts: %v", attempt, err),
					Cause:     ErrCanceled,
					Retryable: true,
					Last:      lastErr,
				},
				attempts: attempt,
			}
		}
	}

	return Result[T]{
		err: &RetryError{
			Message:   fmt.Sprintf("exhausted %d attempts. Last error: %v", retryParam.MaxAttempts, lastErr),
			Cause:     ErrExhaustedAttempts,
			Retryable: true,
			Last:      lastErr,
		},
		attempts: attempt,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
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
