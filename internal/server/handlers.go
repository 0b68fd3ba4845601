package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type resolveResponse struct {
	URL string `json:"url"`
}

type fetchResponse struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Data        string `json:"data"`
	SizeBytes   int64  `json:"sizeBytes"`
	Digest      string `json:"digest"`
}

type cacheStatsResponse struct {
	Entries   int   `json:"entries"`
	InFlight  int   `json:"inFlight"`
	SizeBytes int64 `json:"sizeBytes"`
	SizeKB    int64 `json:"sizeKB"`
}

func (s *Server) requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	ctx := c.Request().Context()
	if s.requestTimeout > 0 {
		return context.WithTimeout(ctx, s.requestTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Server) handleResolve(c echo.Context) error {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	resolved, err := s.resolver.Resolve(ctx, c.QueryParam("ref"))
	if err != nil {
		return s.writeError(c, "Server.handleResolve", err)
	}
	return c.JSON(http.StatusOK, resolveResponse{URL: resolved})
}

func (s *Server) handleFetch(c echo.Context) error {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	resolved, err := s.resolver.Resolve(ctx, c.QueryParam("ref"))
	if err != nil {
		return s.writeError(c, "Server.handleFetch", err)
	}
	payload, err := s.cache.Fetch(ctx, resolved)
	if err != nil {
		return s.writeError(c, "Server.handleFetch", err)
	}
	return c.JSON(http.StatusOK, fetchResponse{
		URL:         resolved,
		ContentType: payload.ContentType,
		Data:        payload.Data,
		SizeBytes:   payload.Len(),
		Digest:      payload.Digest,
	})
}

func (s *Server) handleCacheStats(c echo.Context) error {
	stats := s.cache.Stats()
	return c.JSON(http.StatusOK, cacheStatsResponse{
		Entries:   stats.Entries,
		InFlight:  stats.InFlight,
		SizeBytes: stats.SizeBytes,
		SizeKB:    stats.SizeKB(),
	})
}

func (s *Server) handleCacheContains(c echo.Context) error {
	target, ok := cacheTarget(c)
	if !ok {
		return c.NoContent(http.StatusBadRequest)
	}
	if s.cache.Contains(target) {
		return c.NoContent(http.StatusOK)
	}
	return c.NoContent(http.StatusNotFound)
}

func (s *Server) handleCacheEvict(c echo.Context) error {
	target, ok := cacheTarget(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:     "url query parameter is required",
			Cause:     "invalid input",
			RequestID: requestID(c),
		})
	}
	s.cache.Evict(target)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleCacheClear(c echo.Context) error {
	s.cache.Clear()
	return c.NoContent(http.StatusNoContent)
}

func cacheTarget(c echo.Context) (string, bool) {
	target := strings.TrimSpace(c.QueryParam("url"))
	return target, target != ""
}
