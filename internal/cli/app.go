package cmd

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rohmanhakim/soundfetch/internal/cache"
	"github.com/rohmanhakim/soundfetch/internal/config"
	"github.com/rohmanhakim/soundfetch/internal/extractor"
	"github.com/rohmanhakim/soundfetch/internal/fetcher"
	"github.com/rohmanhakim/soundfetch/internal/metadata"
	"github.com/rohmanhakim/soundfetch/internal/metrics"
	"github.com/rohmanhakim/soundfetch/internal/resolver"
	"github.com/rohmanhakim/soundfetch/pkg/limiter"
	"github.com/rohmanhakim/soundfetch/pkg/retry"
	"github.com/rohmanhakim/soundfetch/pkg/timeutil"
)

// app is the wired pipeline shared by every command.
type app struct {
	cfg      config.Config
	registry *prometheus.Registry
	latency  *metrics.LatencyTracker
	recorder *metadata.Recorder
	resolver *resolver.Resolver
	cache    *cache.FetchCache
}

func newApp(cfg config.Config, logOut io.Writer) (*app, error) {
	level, err := log.ParseLevel(cfg.LogLevel())
	if err != nil {
		return nil, err
	}
	logger := log.NewWithOptions(logOut, log.Options{
		Level:           level,
		Formatter:       log.LogfmtFormatter,
		ReportTimestamp: true,
		Prefix:          "soundfetch",
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	cacheMetrics, err := metrics.NewCacheMetrics(registry)
	if err != nil {
		return nil, err
	}
	latency := metrics.NewLatencyTracker(0.01)
	recorder := metadata.NewRecorder(logger, metadata.WithMetrics(cacheMetrics), metadata.WithLatency(latency))

	backoffParam := timeutil.NewBackoffParam(
		cfg.BackoffInitialDuration(),
		cfg.BackoffMultiplier(),
		cfg.BackoffMaxDuration(),
	)
	retryParam := retry.NewRetryParam(
		cfg.BaseDelay(),
		cfg.Jitter(),
		cfg.RandomSeed(),
		cfg.MaxAttempt(),
		backoffParam,
	)

	hostLimiter := limiter.NewHostLimiter(cfg.PageRate(), cfg.PageBurst())
	hostLimiter.SetBackoffParam(backoffParam)
	hostLimiter.SetJitter(cfg.Jitter())
	hostLimiter.SetRandomSeed(cfg.RandomSeed())

	client := httpClient
	if client == nil {
		client = fetcher.NewDirectClient(cfg.Timeout())
	}
	httpFetcher := fetcher.NewHttpFetcher(
		recorder,
		client,
		cfg.UserAgent(),
		retryParam,
		fetcher.WithHostLimiter(hostLimiter),
		fetcher.WithMaxAudioSize(cfg.MaxAudioSize()),
	)

	pageExtractor := extractor.NewPageExtractor(recorder, httpFetcher, cfg.SiteRoot())

	return &app{
		cfg:      cfg,
		registry: registry,
		latency:  latency,
		recorder: recorder,
		resolver: resolver.NewResolver(recorder, pageExtractor, cfg.SharingDomain(), resolver.WithMemo(cfg.ResolveMemoTTL())),
		cache:    cache.NewFetchCache(recorder, httpFetcher, cfg.HashAlgo()),
	}, nil
}

// setup builds config and app for a command invocation.
func setup(logOut io.Writer) (*app, error) {
	cfg, err := InitConfigWithError()
	if err != nil {
		return nil, err
	}
	return newApp(cfg, logOut)
}
