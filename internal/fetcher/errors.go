package fetcher

import (
	"fmt"

	"github.com/rohmanhakim/soundfetch/internal/metadata"
	"github.com/rohmanhakim/soundfetch/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseInvalidURL            FetchErrorCause = "invalid url"
	ErrCauseTimeout               FetchErrorCause = "timeout"
	ErrCauseCanceled              FetchErrorCause = "canceled"
	ErrCauseNetworkFailure        FetchErrorCause = "network issues"
	ErrCauseReadResponseBodyError FetchErrorCause = "failed to read response body"
	ErrCauseContentTypeInvalid    FetchErrorCause = "non-HTML content"
	ErrCauseRedirectLimitExceeded FetchErrorCause = "reached redirect limit"
	ErrCauseRequestPageForbidden  FetchErrorCause = "forbidden"
	ErrCauseRequestClientError    FetchErrorCause = "4xx"
	ErrCauseRequestTooMany        FetchErrorCause = "too many requests"
	ErrCauseRequest5xx            FetchErrorCause = "5xx"
	ErrCauseEmptyBody             FetchErrorCause = "empty body"
	ErrCauseBodyTooLarge          FetchErrorCause = "body too large"
)

type FetchError struct {
	Message    string
	Retryable  bool
	Cause      FetchErrorCause
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher error: %s, %s", e.Cause, e.Message)
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}

// overloaded reports whether the remote asked us to slow down.
func (e *FetchError) overloaded() bool {
	return e.Cause == ErrCauseRequestTooMany || e.Cause == ErrCauseRequest5xx
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout, ErrCauseNetworkFailure, ErrCauseReadResponseBodyError,
		ErrCauseRequest5xx, ErrCauseRedirectLimitExceeded:
		return metadata.CauseNetworkFailure
	case ErrCauseRequestTooMany, ErrCauseRequestPageForbidden:
		return metadata.CausePolicyDisallow
	case ErrCauseContentTypeInvalid, ErrCauseEmptyBody, ErrCauseBodyTooLarge:
		return metadata.CauseContentInvalid
	case ErrCauseInvalidURL:
		return metadata.CauseInvalidInput
	case ErrCauseCanceled:
		return metadata.CauseCanceled
	case ErrCauseRequestClientError:
		return metadata.CauseNotFound
	default:
		return metadata.CauseUnknown
	}
}
