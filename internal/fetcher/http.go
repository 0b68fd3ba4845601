package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rohmanhakim/soundfetch/internal/metadata"
	"github.com/rohmanhakim/soundfetch/pkg/failure"
	"github.com/rohmanhakim/soundfetch/pkg/limiter"
	"github.com/rohmanhakim/soundfetch/pkg/retry"
)

/*
Responsibilities

- Perform HTTP GET requests for sharing pages and audio files
- Present a browser-like identity and never go through a proxy
- Bound response sizes
- Classify responses into retryable and terminal failures

Fetch Semantics

- Pages must be HTML (or carry no content type at all)
- Audio bodies must be non-empty and within the size limit
- Overloaded hosts (429, 5xx) are backed off through the host limiter
- Every fetch is reported to the metadata sink

The fetcher never parses content; it only returns bytes and metadata.
*/

const (
	DefaultMaxPageSize  int64 = 2 << 20
	DefaultMaxAudioSize int64 = 10 << 20
)

type HttpFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	userAgent    string
	retryParam   retry.RetryParam
	hostLimiter  *limiter.HostLimiter
	maxPageSize  int64
	maxAudioSize int64
}

type Option func(*HttpFetcher)

// WithHostLimiter paces every request through l.
func WithHostLimiter(l *limiter.HostLimiter) Option {
	return func(h *HttpFetcher) {
		h.hostLimiter = l
	}
}

func WithMaxPageSize(n int64) Option {
	return func(h *HttpFetcher) {
		if n > 0 {
			h.maxPageSize = n
		}
	}
}

func WithMaxAudioSize(n int64) Option {
	return func(h *HttpFetcher) {
		if n > 0 {
			h.maxAudioSize = n
		}
	}
}

func NewHttpFetcher(
	metadataSink metadata.MetadataSink,
	httpClient *http.Client,
	userAgent string,
	retryParam retry.RetryParam,
	opts ...Option,
) *HttpFetcher {
	if httpClient == nil {
		httpClient = NewDirectClient(0)
	}
	h := &HttpFetcher{
		metadataSink: metadataSink,
		httpClient:   httpClient,
		userAgent:    userAgent,
		retryParam:   retryParam,
		maxPageSize:  DefaultMaxPageSize,
		maxAudioSize: DefaultMaxAudioSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewDirectClient returns an HTTP client that never uses a proxy.
// A zero timeout leaves the deadline to the request context.
func NewDirectClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

func (h *HttpFetcher) FetchPage(ctx context.Context, pageUrl url.URL) (FetchResult, failure.ClassifiedError) {
	return h.fetch(ctx, "HttpFetcher.FetchPage", pageUrl, metadata.FetchKindPage)
}

func (h *HttpFetcher) FetchAudio(ctx context.Context, audioUrl url.URL) (FetchResult, failure.ClassifiedError) {
	return h.fetch(ctx, "HttpFetcher.FetchAudio", audioUrl, metadata.FetchKindAudio)
}

func (h *HttpFetcher) fetch(
	ctx context.Context,
	callerMethod string,
	fetchUrl url.URL,
	kind metadata.FetchKind,
) (FetchResult, failure.ClassifiedError) {
	startTime := time.Now()

	outcome := retry.Retry(ctx, h.retryParam, func(ctx context.Context) (FetchResult, failure.ClassifiedError) {
		return h.performFetch(ctx, fetchUrl, kind)
	})

	duration := time.Since(startTime)
	retryCount := outcome.Attempts() - 1
	if retryCount < 0 {
		retryCount = 0
	}

	if outcome.IsFailure() {
		fetchErr := asFetchError(outcome.Err())
		h.metadataSink.RecordFetch(fetchUrl.String(), fetchErr.StatusCode, duration, "", retryCount, kind)
		h.recordFetchError(callerMethod, fetchUrl, fetchErr, outcome.Attempts())
		return FetchResult{}, fetchErr
	}

	result := outcome.Value()
	result.meta.attempts = outcome.Attempts()
	h.metadataSink.RecordFetch(fetchUrl.String(), result.Code(), duration, result.ContentType(), retryCount, kind)
	return result, nil
}

// asFetchError unwraps retry outcomes so callers always see a *FetchError.
// Cancellation during backoff wins over the last attempt's failure.
func asFetchError(err failure.ClassifiedError) *FetchError {
	var fetchErr *FetchError
	var retryErr *retry.RetryError
	if errors.As(err, &retryErr) && retryErr.Cause == retry.ErrCanceled {
		canceled := &FetchError{
			Message:   retryErr.Message,
			Retryable: false,
			Cause:     ErrCauseCanceled,
		}
		if errors.As(retryErr.Last, &fetchErr) {
			canceled.StatusCode = fetchErr.StatusCode
		}
		return canceled
	}

	if errors.As(err, &fetchErr) {
		return fetchErr
	}

	return &FetchError{
		Message:   err.Error(),
		Retryable: failure.IsRetryable(err),
		Cause:     ErrCauseNetworkFailure,
	}
}

func (h *HttpFetcher) recordFetchError(callerMethod string, fetchUrl url.URL, err *FetchError, attempts int) {
	h.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		callerMethod,
		mapFetchErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
			metadata.NewAttr(metadata.AttrHTTPStatus, fmt.Sprintf("%d", err.StatusCode)),
			metadata.NewAttr("attempts", fmt.Sprintf("%d", attempts)),
		},
	)
}

func (h *HttpFetcher) performFetch(ctx context.Context, fetchUrl url.URL, kind metadata.FetchKind) (FetchResult, failure.ClassifiedError) {
	if fetchUrl.Scheme != "http" && fetchUrl.Scheme != "https" {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("unsupported scheme %q", fetchUrl.Scheme),
			Retryable: false,
			Cause:     ErrCauseInvalidURL,
		}
	}

	host := fetchUrl.Hostname()
	if h.hostLimiter != nil {
		if err := h.hostLimiter.Wait(ctx, host); err != nil {
			return FetchResult{}, &FetchError{
				Message:   fmt.Sprintf("waiting for %s: %v", host, err),
				Retryable: false,
				Cause:     ErrCauseCanceled,
			}
		}
	}

	result, fetchErr := h.doRequest(ctx, fetchUrl, kind)

	if h.hostLimiter != nil {
		switch {
		case fetchErr == nil:
			h.hostLimiter.ResetBackoff(host)
		case fetchErr.overloaded():
			h.hostLimiter.Backoff(host)
		}
	}

	if fetchErr != nil {
		return FetchResult{}, fetchErr
	}
	return result, nil
}

func (h *HttpFetcher) doRequest(ctx context.Context, fetchUrl url.URL, kind metadata.FetchKind) (FetchResult, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchUrl.String(), nil)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseInvalidURL,
		}
	}

	for key, value := range requestHeaders(h.userAgent, kind) {
		req.Header.Set(key, value)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return FetchResult{}, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if fetchErr := classifyStatus(resp.StatusCode); fetchErr != nil {
		return FetchResult{}, fetchErr
	}

	contentType := resp.Header.Get("Content-Type")
	maxSize := h.maxAudioSize
	if kind == metadata.FetchKindPage {
		maxSize = h.maxPageSize
		if contentType != "" && !isHTMLContent(contentType) {
			return FetchResult{}, &FetchError{
				Message:    fmt.Sprintf("non-HTML content type: %s", contentType),
				Retryable:  false,
				Cause:      ErrCauseContentTypeInvalid,
				StatusCode: resp.StatusCode,
			}
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		if ctx.Err() != nil {
			return FetchResult{}, &FetchError{
				Message:   fmt.Sprintf("read aborted: %v", ctx.Err()),
				Retryable: false,
				Cause:     ErrCauseCanceled,
			}
		}
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("failed to read response body: %v", err),
			Retryable:  true,
			Cause:      ErrCauseReadResponseBodyError,
			StatusCode: resp.StatusCode,
		}
	}

	if int64(len(body)) > maxSize {
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("body exceeds %d bytes", maxSize),
			Retryable:  false,
			Cause:      ErrCauseBodyTooLarge,
			StatusCode: resp.StatusCode,
		}
	}

	if len(body) == 0 {
		return FetchResult{}, &FetchError{
			Message:    "response body is empty",
			Retryable:  false,
			Cause:      ErrCauseEmptyBody,
			StatusCode: resp.StatusCode,
		}
	}

	responseHeaders := make(map[string]string)
	for key, values := range resp.Header {
		if len(values) > 0 {
			responseHeaders[key] = values[0]
		}
	}

	return FetchResult{
		url:  fetchUrl,
		body: body,
		meta: ResponseMeta{
			statusCode:          resp.StatusCode,
			transferredSizeByte: uint64(len(body)),
			responseHeaders:     responseHeaders,
		},
	}, nil
}

func classifyTransportError(ctx context.Context, err error) *FetchError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &FetchError{
			Message:   fmt.Sprintf("request aborted: %v", ctxErr),
			Retryable: false,
			Cause:     ErrCauseCanceled,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{
			Message:   fmt.Sprintf("request timed out: %v", err),
			Retryable: true,
			Cause:     ErrCauseTimeout,
		}
	}

	// Network/transport errors are retryable
	return &FetchError{
		Message:   fmt.Sprintf("request failed: %v", err),
		Retryable: true,
		Cause:     ErrCauseNetworkFailure,
	}
}

func classifyStatus(statusCode int) *FetchError {
	switch {
	case statusCode >= 500:
		return &FetchError{
			Message:    fmt.Sprintf("server error: %d", statusCode),
			Retryable:  true,
			Cause:      ErrCauseRequest5xx,
			StatusCode: statusCode,
		}

	case statusCode == http.StatusTooManyRequests:
		return &FetchError{
			Message:    "rate limited (429)",
			Retryable:  true,
			Cause:      ErrCauseRequestTooMany,
			StatusCode: statusCode,
		}

	case statusCode == http.StatusForbidden || statusCode == http.StatusUnauthorized:
		return &FetchError{
			Message:    fmt.Sprintf("access forbidden (%d)", statusCode),
			Retryable:  false,
			Cause:      ErrCauseRequestPageForbidden,
			StatusCode: statusCode,
		}

	case statusCode >= 400:
		return &FetchError{
			Message:    fmt.Sprintf("client error: %d", statusCode),
			Retryable:  false,
			Cause:      ErrCauseRequestClientError,
			StatusCode: statusCode,
		}

	case statusCode >= 300:
		// http.Client follows redirects; reaching here means the chain was cut short
		return &FetchError{
			Message:    fmt.Sprintf("redirect error: %d", statusCode),
			Retryable:  false,
			Cause:      ErrCauseRedirectLimitExceeded,
			StatusCode: statusCode,
		}

	case statusCode < 200 || statusCode == http.StatusNoContent:
		return &FetchError{
			Message:    fmt.Sprintf("unexpected status: %d", statusCode),
			Retryable:  false,
			Cause:      ErrCauseEmptyBody,
			StatusCode: statusCode,
		}
	}
	return nil
}

func isHTMLContent(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml")
}

func requestHeaders(userAgent string, kind metadata.FetchKind) map[string]string {
	accept := "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	if kind == metadata.FetchKindAudio {
		accept = "audio/*,*/*;q=0.8"
	}
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          accept,
		"Accept-Language": "en-US,en;q=0.5",
		"DNT":             "1",
	}
}
