package metadata

import "time"

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		contentType string,
		retryCount int,
		kind FetchKind,
	)

	RecordCacheEvent(event CacheEvent)
	RecordResolve(event ResolveEvent)
}

// NoopSink implements MetadataSink but does nothing.
// Callers (or tests) decide whether to inject a Recorder or a NoopSink,
// keeping metadata orthogonal to behavior.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
	kind FetchKind,
) {
}

func (n *NoopSink) RecordCacheEvent(event CacheEvent) {}

func (n *NoopSink) RecordResolve(event ResolveEvent) {}
