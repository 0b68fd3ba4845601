package metadata

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/rohmanhakim/soundfetch/internal/metrics"
)

/*
Recorder captures structured pipeline events.
It must not:
- perform I/O decisions
- affect control flow
Events are written to the logger and, when configured, to Prometheus
collectors and the latency tracker. Nothing reads them back to make decisions.
*/
type Recorder struct {
	logger  *log.Logger
	metrics *metrics.CacheMetrics
	latency *metrics.LatencyTracker
}

type RecorderOption func(*Recorder)

func WithMetrics(m *metrics.CacheMetrics) RecorderOption {
	return func(r *Recorder) {
		r.metrics = m
	}
}

func WithLatency(lt *metrics.LatencyTracker) RecorderOption {
	return func(r *Recorder) {
		r.latency = lt
	}
}

func NewRecorder(logger *log.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
	kv := []interface{}{
		"package", packageName,
		"action", action,
		"cause", cause.String(),
		"observed_at", observedAt.Format(time.RFC3339Nano),
	}
	r.logger.Warn(details, append(kv, attrsToKeyvals(attrs)...)...)
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
	kind FetchKind,
) {
	r.logger.Debug("fetch",
		"kind", string(kind),
		"url", fetchUrl,
		"status", httpStatus,
		"duration", duration,
		"content_type", contentType,
		"retries", retryCount,
	)

	if r.latency != nil {
		op := metrics.OpPageFetch
		if kind == FetchKindAudio {
			op = metrics.OpAudioFetch
		}
		r.latency.Record(op, duration)
	}
	if r.metrics != nil && kind == FetchKindAudio {
		r.metrics.ObserveDownloadDuration(duration.Seconds())
	}
}

func (r *Recorder) RecordCacheEvent(event CacheEvent) {
	r.logger.Debug("cache",
		"event", string(event.Kind),
		"url", event.Key,
		"entry_bytes", event.EntryBytes,
		"total_bytes", event.TotalBytes,
		"entries", event.Entries,
	)

	if r.metrics == nil {
		return
	}
	switch event.Kind {
	case CacheHit:
		r.metrics.IncrementCacheHits()
	case CacheMiss:
		r.metrics.IncrementCacheMisses()
	case CacheJoin:
		r.metrics.IncrementCacheJoins()
	case CacheStore:
		r.metrics.IncrementDownloads()
	case CacheDownloadFailed:
		r.metrics.IncrementDownloadErrors()
	case CacheEvict, CacheClear:
		r.metrics.AddEvictions(event.Removed)
	}
	r.metrics.SetCacheSize(event.TotalBytes, event.Entries)
}

func (r *Recorder) RecordResolve(event ResolveEvent) {
	outcome := "ok"
	if event.Failed {
		outcome = event.Cause.String()
	}

	r.logger.Info("resolve",
		"reference", event.Reference,
		"kind", event.Kind,
		"resolved", event.ResolvedURL,
		"outcome", outcome,
		"duration", event.Duration,
	)

	if r.latency != nil {
		r.latency.Record(metrics.OpResolve, event.Duration)
	}
	if r.metrics != nil {
		r.metrics.IncrementResolutions(event.Kind, outcome)
	}
}

func attrsToKeyvals(attrs []Attribute) []interface{} {
	kv := make([]interface{}, 0, len(attrs)*2)
	for _, a := range attrs {
		kv = append(kv, string(a.Key), a.Value)
	}
	return kv
}
