package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rohmanhakim/soundfetch/internal/cache"
	"github.com/rohmanhakim/soundfetch/internal/metadata"
	"github.com/rohmanhakim/soundfetch/internal/resolver"
	"github.com/rohmanhakim/soundfetch/pkg/failure"
)

type errorResponse struct {
	Error     string `json:"error"`
	Cause     string `json:"cause"`
	Retryable bool   `json:"retryable"`
	RequestID string `json:"requestId,omitempty"`
}

// statusFor maps a classified error onto the HTTP status and cause reported to clients.
func statusFor(err failure.ClassifiedError) (int, string, metadata.ErrorCause) {
	var resolveErr *resolver.ResolveError
	if errors.As(err, &resolveErr) {
		switch resolveErr.Cause {
		case resolver.ErrCauseInvalidReference:
			return http.StatusBadRequest, string(resolveErr.Cause), metadata.CauseInvalidInput
		case resolver.ErrCauseExtractionNotFound:
			return http.StatusUnprocessableEntity, string(resolveErr.Cause), metadata.CauseNotFound
		default:
			return http.StatusBadGateway, string(resolveErr.Cause), metadata.CauseNetworkFailure
		}
	}

	var downloadErr *cache.DownloadError
	if errors.As(err, &downloadErr) {
		switch downloadErr.Cause {
		case cache.ErrCauseCanceled:
			return http.StatusGatewayTimeout, string(downloadErr.Cause), metadata.CauseCanceled
		case cache.ErrCauseInvalidURL:
			return http.StatusBadRequest, string(downloadErr.Cause), metadata.CauseInvalidInput
		default:
			return http.StatusBadGateway, string(downloadErr.Cause), metadata.CauseNetworkFailure
		}
	}

	return http.StatusInternalServerError, "unknown", metadata.CauseUnknown
}

func (s *Server) writeError(c echo.Context, action string, err failure.ClassifiedError) error {
	status, cause, metaCause := statusFor(err)
	id := requestID(c)

	s.metadataSink.RecordError(
		time.Now(),
		"server",
		action,
		metaCause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrRequestID, id),
			metadata.NewAttr(metadata.AttrReference, c.QueryParam("ref")),
		},
	)

	return c.JSON(status, errorResponse{
		Error:     err.Error(),
		Cause:     cause,
		Retryable: failure.IsRetryable(err),
		RequestID: id,
	})
}
