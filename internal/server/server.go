package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rohmanhakim/soundfetch/internal/cache"
	"github.com/rohmanhakim/soundfetch/internal/metadata"
	"github.com/rohmanhakim/soundfetch/pkg/failure"
)

/*
Responsibilities
- Expose resolve, fetch and cache administration over HTTP
- Tag every request with an X-Request-ID
- Translate classified errors into HTTP statuses
- Serve the prometheus registry on /metrics

The server owns no state of its own; resolver and cache are shared with
whatever else the process runs.
*/

type Resolver interface {
	Resolve(ctx context.Context, reference string) (string, failure.ClassifiedError)
}

type PayloadCache interface {
	Fetch(ctx context.Context, resolvedURL string) (cache.Payload, failure.ClassifiedError)
	Contains(resolvedURL string) bool
	Evict(resolvedURL string)
	Clear()
	Stats() cache.Stats
}

type Server struct {
	Echo *echo.Echo

	metadataSink   metadata.MetadataSink
	resolver       Resolver
	cache          PayloadCache
	gatherer       prometheus.Gatherer
	requestTimeout time.Duration
}

type Option func(*Server)

// WithGatherer serves the given registry on /metrics. Without it the route is not mounted.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithRequestTimeout bounds resolve and fetch handlers. Zero means no bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.requestTimeout = d
	}
}

func New(
	metadataSink metadata.MetadataSink,
	resolver Resolver,
	payloadCache PayloadCache,
	opts ...Option,
) *Server {
	s := &Server{
		Echo:         echo.New(),
		metadataSink: metadataSink,
		resolver:     resolver,
		cache:        payloadCache,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.configureMiddleware()
	s.initRoutes()
	return s
}

func (s *Server) configureMiddleware() {
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return uuid.New().String()
		},
	}))
}

func (s *Server) initRoutes() {
	v1 := s.Echo.Group("/v1")
	v1.GET("/resolve", s.handleResolve)
	v1.GET("/fetch", s.handleFetch)
	v1.GET("/cache", s.handleCacheStats)
	v1.HEAD("/cache", s.handleCacheContains)
	v1.DELETE("/cache", s.handleCacheEvict)
	v1.DELETE("/cache/all", s.handleCacheClear)

	if s.gatherer != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

// Start blocks serving on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	err := s.Echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
