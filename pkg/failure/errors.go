package failure

import "errors"

type Severity int

// caller control flow: fatal failures are reported as-is, recoverable ones may be retried
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

type ClassifiedError interface {
	error
	Severity() Severity
}

// IsRetryable reports whether err (or anything it wraps) asks to be retried.
// Errors exposing IsRetryable() answer for themselves; other classified errors
// fall back to their severity. Unclassified errors are not retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	type retryable interface {
		IsRetryable() bool
	}

	var r retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}

	var c ClassifiedError
	if errors.As(err, &c) {
		return c.Severity() == SeverityRecoverable
	}

	return false
}
