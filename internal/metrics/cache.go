// Package metrics provides Prometheus collectors and latency sketches for the fetch pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics contains all Prometheus metrics related to resolving and caching audio.
type CacheMetrics struct {
	CacheSize        prometheus.Gauge
	CacheEntries     prometheus.Gauge
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	CacheJoins       prometheus.Counter
	Evictions        prometheus.Counter
	AudioDownloads   prometheus.Counter
	DownloadErrors   prometheus.Counter
	DownloadDuration prometheus.Histogram
	Resolutions      *prometheus.CounterVec
	registry         *prometheus.Registry
}

// NewCacheMetrics creates a new instance of CacheMetrics.
// It requires a Prometheus registry to register the metrics.
// It returns an error if metric registration fails.
func NewCacheMetrics(registry *prometheus.Registry) (*CacheMetrics, error) {
	m := &CacheMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register cache metrics: %w", err)
	}
	return m, nil
}

func (m *CacheMetrics) initMetrics() {
	m.CacheSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "soundfetch_cache_size_bytes",
		Help: "Sum of encoded payload lengths currently cached.",
	})

	m.CacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "soundfetch_cache_entries",
		Help: "Number of cached payloads.",
	})

	m.CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "soundfetch_cache_hits_total",
		Help: "Total number of fetches served from the cache.",
	})

	m.CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "soundfetch_cache_misses_total",
		Help: "Total number of fetches that started a download.",
	})

	m.CacheJoins = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "soundfetch_cache_joins_total",
		Help: "Total number of fetches that waited on an in-flight download.",
	})

	m.Evictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "soundfetch_cache_evictions_total",
		Help: "Total number of payloads removed by evict or clear.",
	})

	m.AudioDownloads = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "soundfetch_downloads_total",
		Help: "Total number of completed audio downloads.",
	})

	m.DownloadErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "soundfetch_download_errors_total",
		Help: "Total number of failed audio downloads.",
	})

	m.DownloadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "soundfetch_download_duration_seconds",
		Help:    "Duration of audio downloads in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	m.Resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "soundfetch_resolutions_total",
		Help: "Total number of reference resolutions by reference kind and outcome.",
	}, []string{"kind", "outcome"})
}

// SetCacheSize updates the cached byte total and entry count.
func (m *CacheMetrics) SetCacheSize(sizeBytes int64, entries int) {
	m.CacheSize.Set(float64(sizeBytes))
	m.CacheEntries.Set(float64(entries))
}

func (m *CacheMetrics) IncrementCacheHits() {
	m.CacheHits.Inc()
}

func (m *CacheMetrics) IncrementCacheMisses() {
	m.CacheMisses.Inc()
}

func (m *CacheMetrics) IncrementCacheJoins() {
	m.CacheJoins.Inc()
}

func (m *CacheMetrics) AddEvictions(n int) {
	m.Evictions.Add(float64(n))
}

func (m *CacheMetrics) IncrementDownloads() {
	m.AudioDownloads.Inc()
}

func (m *CacheMetrics) IncrementDownloadErrors() {
	m.DownloadErrors.Inc()
}

// ObserveDownloadDuration records the duration of an audio download in seconds.
func (m *CacheMetrics) ObserveDownloadDuration(durationSeconds float64) {
	m.DownloadDuration.Observe(durationSeconds)
}

// IncrementResolutions counts one resolution of the given kind and outcome.
func (m *CacheMetrics) IncrementResolutions(kind, outcome string) {
	m.Resolutions.WithLabelValues(kind, outcome).Inc()
}

// Collect implements the prometheus.Collector interface.
func (m *CacheMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.CacheSize
	ch <- m.CacheEntries
	ch <- m.CacheHits
	ch <- m.CacheMisses
	ch <- m.CacheJoins
	ch <- m.Evictions
	ch <- m.AudioDownloads
	ch <- m.DownloadErrors
	ch <- m.DownloadDuration
	m.Resolutions.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *CacheMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.CacheSize.Desc()
	ch <- m.CacheEntries.Desc()
	ch <- m.CacheHits.Desc()
	ch <- m.CacheMisses.Desc()
	ch <- m.CacheJoins.Desc()
	ch <- m.Evictions.Desc()
	ch <- m.AudioDownloads.Desc()
	ch <- m.DownloadErrors.Desc()
	ch <- m.DownloadDuration.Desc()
	m.Resolutions.Describe(ch)
}
