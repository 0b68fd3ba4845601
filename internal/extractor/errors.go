package extractor

import (
	"fmt"

	"github.com/rohmanhakim/soundfetch/internal/metadata"
	"github.com/rohmanhakim/soundfetch/pkg/failure"
)

type ExtractionErrorCause string

const (
	// the page was read but no rule produced an audio reference
	ErrCauseNotFound ExtractionErrorCause = "audio not found"
	// the page could not be fetched or parsed
	ErrCauseNetworkFailure ExtractionErrorCause = "network failure"
)

type ExtractionError struct {
	Message   string
	Retryable bool
	Cause     ExtractionErrorCause
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error: %s, %s", e.Cause, e.Message)
}

func (e *ExtractionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *ExtractionError) IsRetryable() bool {
	return e.Retryable
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// mapExtractionErrorToMetadataCause maps extractor-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapExtractionErrorToMetadataCause(err *ExtractionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNotFound:
		return metadata.CauseNotFound
	case ErrCauseNetworkFailure:
		return metadata.CauseNetworkFailure
	default:
		return metadata.CauseUnknown
	}
}
