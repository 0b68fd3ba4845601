package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rohmanhakim/soundfetch/pkg/failure"
	"github.com/rohmanhakim/soundfetch/pkg/retry"
	"github.com/rohmanhakim/soundfetch/pkg/timeutil"
)

// defaultBackoffParam returns a default backoff parameter for tests
func defaultBackoffParam() timeutil.BackoffParam {
	return timeutil.NewBackoffParam(
		1*time.Millisecond,
		2.0,
		10*time.Millisecond,
	)
}

func fastParams(maxAttempts int) retry.RetryParam {
	return retry.NewRetryParam(0, 0, 42, maxAttempts, defaultBackoffParam())
}

// mockError is a mock implementation of failure.ClassifiedError for testing
type mockError struct {
	msg       string
	retryable bool
}

func (m *mockError) Error() string {
	return m.msg
}

func (m *mockError) Severity() failure.Severity {
	if m.retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (m *mockError) IsRetryable() bool {
	return m.retryable
}

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	callCount := 0
	fn := func(ctx context.Context) (string, failure.ClassifiedError) {
		callCount++
		return "success", nil
	}

	result := retry.Retry(context.Background(), fastParams(3), fn)

	if result.IsFailure() {
		t.Fatalf("expected no error, got: %v", result.Err())
	}
	if result.Value() != "success" {
		t.Fatalf("expected 'success', got: %s", result.Value())
	}
	if result.Attempts() != 1 {
		t.Fatalf("expected 1 attempt, got: %d", result.Attempts())
	}
	if callCount != 1 {
		t.Fatalf("expected 1 call, got: %d", callCount)
	}
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	callCount := 0
	fn := func(ctx context.Context) (int, failure.ClassifiedError) {
		callCount++
		if callCount < 3 {
			return 0, &mockError{msg: "temporary", retryable: true}
		}
		return 7, nil
	}

	result := retry.Retry(context.Background(), fastParams(5), fn)

	if result.IsFailure() {
		t.Fatalf("expected success, got: %v", result.Err())
	}
	if result.Value() != 7 {
		t.Fatalf("expected 7, got: %d", result.Value())
	}
	if result.Attempts() != 3 {
		t.Fatalf("expected 3 attempts, got: %d", result.Attempts())
	}
}

func TestRetry_NonRetryableErrorReturnsImmediately(t *testing.T) {
	callCount := 0
	original := &mockError{msg: "permanent", retryable: false}
	fn := func(ctx context.Context) (string, failure.ClassifiedError) {
		callCount++
		return "", original
	}

	result := retry.Retry(context.Background(), fastParams(5), fn)

	if !result.IsFailure() {
		t.Fatal("expected failure")
	}
	if result.Err() != original {
		t.Fatalf("expected the original error, got: %v", result.Err())
	}
	if callCount != 1 {
		t.Fatalf("expected 1 call, got: %d", callCount)
	}
}

func TestRetry_ExhaustedAttempts(t *testing.T) {
	callCount := 0
	last := &mockError{msg: "still failing", retryable: true}
	fn := func(ctx context.Context) (string, failure.ClassifiedError) {
		callCount++
		return "", last
	}

	result := retry.Retry(context.Background(), fastParams(3), fn)

	if callCount != 3 {
		t.Fatalf("expected 3 calls, got: %d", callCount)
	}
	var retryErr *retry.RetryError
	if !errors.As(result.Err(), &retryErr) {
		t.Fatalf("expected RetryError, got: %T", result.Err())
	}
	if retryErr.Cause != retry.ErrExhaustedAttempts {
		t.Fatalf("expected exhausted cause, got: %s", retryErr.Cause)
	}
	if !errors.Is(result.Err(), last) {
		t.Fatal("expected last error to be reachable through Unwrap")
	}
	if result.Attempts() != 3 {
		t.Fatalf("expected 3 attempts, got: %d", result.Attempts())
	}
}

func TestRetry_MaxAttemptsLessThanOne(t *testing.T) {
	called := false
	fn := func(ctx context.Context) (string, failure.ClassifiedError) {
		called = true
		return "", nil
	}

	result := retry.Retry(context.Background(), fastParams(0), fn)

	if called {
		t.Fatal("fn must not be invoked when max attempts < 1")
	}
	var retryErr *retry.RetryError
	if !errors.As(result.Err(), &retryErr) || retryErr.Cause != retry.ErrZeroAttempt {
		t.Fatalf("expected zero attempt error, got: %v", result.Err())
	}
}

func TestRetry_CanceledContextStopsBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	params := retry.NewRetryParam(time.Hour, 0, 1, 5, defaultBackoffParam())

	callCount := 0
	fn := func(ctx context.Context) (string, failure.ClassifiedError) {
		callCount++
		cancel()
		return "", &mockError{msg: "temporary", retryable: true}
	}

	result := retry.Retry(ctx, params, fn)

	if callCount != 1 {
		t.Fatalf("expected 1 call, got: %d", callCount)
	}
	var retryErr *retry.RetryError
	if !errors.As(result.Err(), &retryErr) || retryErr.Cause != retry.ErrCanceled {
		t.Fatalf("expected canceled error, got: %v", result.Err())
	}
}

func TestRetry_GenericTypeSlice(t *testing.T) {
	fn := func(ctx context.Context) ([]byte, failure.ClassifiedError) {
		return []byte("abc"), nil
	}

	result := retry.Retry(context.Background(), fastParams(1), fn)

	if string(result.Value()) != "abc" {
		t.Fatalf("expected 'abc', got: %q", result.Value())
	}
}
