package extractor_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/rohmanhakim/soundfetch/internal/extractor"
	"github.com/rohmanhakim/soundfetch/internal/fetcher"
	"github.com/rohmanhakim/soundfetch/internal/metadata"
	"github.com/rohmanhakim/soundfetch/pkg/failure"
	"github.com/rohmanhakim/soundfetch/pkg/retry"
	"github.com/rohmanhakim/soundfetch/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var siteRoot = url.URL{Scheme: "https", Host: "www.myinstants.com"}

// mockMetadataSink is a test spy that captures recorded errors
type mockMetadataSink struct {
	metadata.NoopSink
	causes []metadata.ErrorCause
}

func (m *mockMetadataSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	m.causes = append(m.causes, cause)
}

type stubPageFetcher struct {
	body []byte
	err  failure.ClassifiedError
}

func (s *stubPageFetcher) FetchPage(ctx context.Context, pageUrl url.URL) (fetcher.FetchResult, failure.ClassifiedError) {
	if s.err != nil {
		return fetcher.FetchResult{}, s.err
	}
	return fetcher.NewFetchResultForTest(pageUrl, s.body, http.StatusOK, map[string]string{"Content-Type": "text/html"}), nil
}

func mustParseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func TestFindAudio_StrategyPriority(t *testing.T) {
	const page = "https://site.example/sounds/x"

	tests := []struct {
		name         string
		markup       string
		wantURL      string
		wantStrategy string
	}{
		{
			name: "preload variable beats audio element",
			markup: `<html><body>
				<audio src="/media/other.mp3"></audio>
				<script>var preloadAudioUrl = '/media/sounds/abc.mp3';</script>
			</body></html>`,
			wantURL:      "https://site.example/media/sounds/abc.mp3",
			wantStrategy: extractor.StrategyPreloadVariable,
		},
		{
			name:         "preload variable with double quotes and spacing",
			markup:       `<script>preloadAudioUrl   =   "https://cdn.example/p.mp3"</script>`,
			wantURL:      "https://cdn.example/p.mp3",
			wantStrategy: extractor.StrategyPreloadVariable,
		},
		{
			name: "audio element beats source",
			markup:       `<audio src="a.mp3"><source type="audio/ogg" src="b.ogg"></audio>`,
			wantURL:      "https://site.example/sounds/a.mp3",
			wantStrategy: extractor.StrategyAudioElement,
		},
		{
			name: "source with audio type",
			markup: `<video><source type="video/mp4" src="v.mp4"></video>
				<audio><source type="audio/ogg" src="//cdn.example/z.ogg"></audio>`,
			wantURL:      "https://cdn.example/z.ogg",
			wantStrategy: extractor.StrategyAudioSource,
		},
		{
			name: "sound link preferred over earlier mp3 link",
			markup: `<a href="/downloads/promo.mp3">promo</a>
				<a href="/media/sounds/bruh.mp3">bruh</a>`,
			wantURL:      "https://site.example/media/sounds/bruh.mp3",
			wantStrategy: extractor.StrategySoundLink,
		},
		{
			name:         "any mp3 link as last resort",
			markup:       `<a href="/page">x</a><a href="clips/last.MP3">y</a>`,
			wantURL:      "https://site.example/sounds/clips/last.MP3",
			wantStrategy: extractor.StrategyMp3Link,
		},
		{
			name:         "site-relative media path joins site root",
			markup:       `<audio src="media/sounds/rel.mp3"></audio>`,
			wantURL:      "https://www.myinstants.com/media/sounds/rel.mp3",
			wantStrategy: extractor.StrategyAudioElement,
		},
		{
			name:         "empty audio src skipped",
			markup:       `<audio src=""></audio><audio src="second.mp3"></audio>`,
			wantURL:      "https://site.example/sounds/second.mp3",
			wantStrategy: extractor.StrategyAudioElement,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, found, err := extractor.FindAudio(page, []byte(tt.markup), siteRoot)

			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, tt.wantURL, match.URL)
			assert.Equal(t, tt.wantStrategy, match.Strategy)
		})
	}
}

func TestFindAudio_RelativeReferences(t *testing.T) {
	const page = "https://site.example/sounds/x"

	tests := []struct {
		ref  string
		want string
	}{
		{"other.mp3", "https://site.example/sounds/other.mp3"},
		{"/media/y.mp3", "https://site.example/media/y.mp3"},
		{"//cdn.example/z.mp3", "https://cdn.example/z.mp3"},
		{"https://cdn.example/abs.mp3", "https://cdn.example/abs.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			markup := `<audio src="` + tt.ref + `"></audio>`
			match, found, err := extractor.FindAudio(page, []byte(markup), siteRoot)

			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, tt.want, match.URL)
		})
	}
}

func TestFindAudio_NothingFound(t *testing.T) {
	for _, markup := range []string{
		"",
		"<html><body><p>no sound here</p><a href='/page.html'>x</a></body></html>",
		`<video><source type="video/mp4" src="v.mp4"></video>`,
	} {
		_, found, err := extractor.FindAudio("https://site.example/x", []byte(markup), siteRoot)
		require.NoError(t, err)
		assert.False(t, found, "markup %q", markup)
	}
}

func TestPageExtractor_Extract_Success(t *testing.T) {
	sink := &mockMetadataSink{}
	pf := &stubPageFetcher{body: []byte(`<script>preloadAudioUrl = '/media/sounds/vine-boom.mp3';</script>`)}
	ext := extractor.NewPageExtractor(sink, pf, siteRoot)

	got, err := ext.Extract(context.Background(), mustParseURL(t, "https://www.myinstants.com/en/instant/vine-boom-123/"))

	require.NoError(t, err)
	assert.Equal(t, "https://www.myinstants.com/media/sounds/vine-boom.mp3", got)
	assert.Empty(t, sink.causes)
}

func TestPageExtractor_Extract_NotFound(t *testing.T) {
	sink := &mockMetadataSink{}
	pf := &stubPageFetcher{body: []byte(`<html><body>nothing</body></html>`)}
	ext := extractor.NewPageExtractor(sink, pf, siteRoot)

	_, err := ext.Extract(context.Background(), mustParseURL(t, "https://www.myinstants.com/en/instant/x/"))

	var extErr *extractor.ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, extractor.ErrCauseNotFound, extErr.Cause)
	assert.False(t, extErr.IsRetryable())
	assert.Equal(t, failure.SeverityFatal, extErr.Severity())
	assert.Equal(t, []metadata.ErrorCause{metadata.CauseNotFound}, sink.causes)
}

func TestPageExtractor_Extract_FetchFailureIsNetworkError(t *testing.T) {
	sink := &mockMetadataSink{}
	fetchErr := &fetcher.FetchError{Message: "boom", Retryable: true, Cause: fetcher.ErrCauseRequest5xx, StatusCode: 502}
	ext := extractor.NewPageExtractor(sink, &stubPageFetcher{err: fetchErr}, siteRoot)

	_, err := ext.Extract(context.Background(), mustParseURL(t, "https://www.myinstants.com/en/instant/x/"))

	var extErr *extractor.ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, extractor.ErrCauseNetworkFailure, extErr.Cause)
	assert.True(t, extErr.IsRetryable())
	assert.ErrorIs(t, err, fetchErr)
	assert.Equal(t, []metadata.ErrorCause{metadata.CauseNetworkFailure}, sink.causes)
}

func TestPageExtractor_Extract_NonHTMLIsNotFound(t *testing.T) {
	fetchErr := &fetcher.FetchError{Message: "json", Cause: fetcher.ErrCauseContentTypeInvalid}
	ext := extractor.NewPageExtractor(&metadata.NoopSink{}, &stubPageFetcher{err: fetchErr}, siteRoot)

	_, err := ext.Extract(context.Background(), mustParseURL(t, "https://www.myinstants.com/api"))

	var extErr *extractor.ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, extractor.ErrCauseNotFound, extErr.Cause)
}

func TestPageExtractor_WithHttpFetcher(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, "https://www.myinstants.com/en/instant/bruh-42/",
		func(req *http.Request) (*http.Response, error) {
			assert.Contains(t, req.Header.Get("User-Agent"), "Mozilla/5.0")
			resp := httpmock.NewStringResponse(http.StatusOK,
				`<html><body><button onclick="play('/media/sounds/bruh.mp3')"></button>
				<a href="/media/sounds/bruh.mp3" download>Download MP3</a></body></html>`)
			resp.Header.Set("Content-Type", "text/html; charset=utf-8")
			return resp, nil
		})

	pf := fetcher.NewHttpFetcher(
		&metadata.NoopSink{},
		&http.Client{Transport: transport},
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		retry.NewRetryParam(0, 0, 1, 1, timeutil.NewBackoffParam(time.Millisecond, 1, time.Millisecond)),
	)
	ext := extractor.NewPageExtractor(&metadata.NoopSink{}, pf, siteRoot)

	got, err := ext.Extract(context.Background(), mustParseURL(t, "https://www.myinstants.com/en/instant/bruh-42/"))

	require.NoError(t, err)
	assert.Equal(t, "https://www.myinstants.com/media/sounds/bruh.mp3", got)
}
