package resolver

import (
	"fmt"

	"github.com/rohmanhakim/soundfetch/internal/metadata"
	"github.com/rohmanhakim/soundfetch/pkg/failure"
)

type ResolveErrorCause string

const (
	ErrCauseInvalidReference   ResolveErrorCause = "invalid reference"
	ErrCauseExtractionNotFound ResolveErrorCause = "extraction: audio not found"
	ErrCauseExtractionNetwork  ResolveErrorCause = "extraction: network failure"
)

type ResolveError struct {
	Message   string
	Retryable bool
	Cause     ResolveErrorCause
	// Err is the extractor failure behind an extraction cause.
	Err error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve error: %s, %s", e.Cause, e.Message)
}

func (e *ResolveError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *ResolveError) IsRetryable() bool {
	return e.Retryable
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

func mapResolveErrorToMetadataCause(err *ResolveError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseInvalidReference:
		return metadata.CauseInvalidInput
	case ErrCauseExtractionNotFound:
		return metadata.CauseNotFound
	case ErrCauseExtractionNetwork:
		return metadata.CauseNetworkFailure
	default:
		return metadata.CauseUnknown
	}
}
