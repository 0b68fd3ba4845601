package cache_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/rohmanhakim/soundfetch/internal/cache"
	"github.com/rohmanhakim/soundfetch/internal/fetcher"
	"github.com/rohmanhakim/soundfetch/pkg/hashutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefetch_Report(t *testing.T) {
	cached := "https://www.myinstants.com/media/sounds/cached.mp3"
	fresh := "https://www.myinstants.com/media/sounds/fresh.mp3"
	broken := "https://www.myinstants.com/media/sounds/broken.mp3"

	downloader := newStubDownloader(false)
	downloader.fail(broken, &fetcher.FetchError{
		Message:    "status 500",
		Retryable:  true,
		Cause:      fetcher.ErrCauseRequest5xx,
		StatusCode: http.StatusInternalServerError,
	})
	c := cache.NewFetchCache(newSpySink(), downloader, hashutil.HashAlgoSHA256)

	_, err := c.Fetch(context.Background(), cached)
	require.NoError(t, err)

	report := c.Prefetch(context.Background(), []string{cached, fresh, broken, fresh}, 2)

	assert.Equal(t, 1, report.Fetched)
	assert.Equal(t, 1, report.AlreadyCached)
	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed, broken)

	assert.True(t, c.Contains(fresh))
	assert.False(t, c.Contains(broken))
	assert.Equal(t, 1, downloader.callCount(fresh))
	assert.Equal(t, 1, downloader.callCount(cached))
}

func TestPrefetch_DefaultConcurrency(t *testing.T) {
	downloader := newStubDownloader(false)
	c := cache.NewFetchCache(newSpySink(), downloader, hashutil.HashAlgoSHA256)

	urls := []string{
		"https://cdn.example.com/a.mp3",
		"https://cdn.example.com/b.mp3",
		"https://cdn.example.com/c.mp3",
		"https://cdn.example.com/d.mp3",
		"https://cdn.example.com/e.mp3",
	}
	report := c.Prefetch(context.Background(), urls, 0)

	assert.Equal(t, len(urls), report.Fetched)
	assert.Empty(t, report.Failed)
	assert.Equal(t, len(urls), c.Stats().Entries)
}
