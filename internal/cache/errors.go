package cache

import (
	"fmt"

	"github.com/rohmanhakim/soundfetch/internal/metadata"
	"github.com/rohmanhakim/soundfetch/pkg/failure"
)

type DownloadErrorCause string

const (
	ErrCauseInvalidURL     DownloadErrorCause = "invalid url"
	ErrCauseNetworkFailure DownloadErrorCause = "network failure"
	ErrCauseHTTPStatus     DownloadErrorCause = "http status"
	ErrCauseEmptyBody      DownloadErrorCause = "empty body"
	ErrCauseTooLarge       DownloadErrorCause = "too large"
	ErrCauseCanceled       DownloadErrorCause = "canceled"
	ErrCauseAborted        DownloadErrorCause = "aborted"
)

type DownloadError struct {
	Message    string
	Retryable  bool
	Cause      DownloadErrorCause
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download error: %s, %s", e.Cause, e.Message)
}

func (e *DownloadError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *DownloadError) IsRetryable() bool {
	return e.Retryable
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

func mapDownloadErrorToMetadataCause(err *DownloadError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNetworkFailure, ErrCauseHTTPStatus:
		return metadata.CauseNetworkFailure
	case ErrCauseEmptyBody, ErrCauseTooLarge:
		return metadata.CauseContentInvalid
	case ErrCauseCanceled:
		return metadata.CauseCanceled
	case ErrCauseInvalidURL:
		return metadata.CauseInvalidInput
	default:
		return metadata.CauseUnknown
	}
}
