package fetcher

import (
	"context"
	"net/url"

	"github.com/rohmanhakim/soundfetch/pkg/failure"
)

// PageFetcher retrieves the markup of a sharing page.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageUrl url.URL) (FetchResult, failure.ClassifiedError)
}

// AudioFetcher retrieves raw audio bytes.
type AudioFetcher interface {
	FetchAudio(ctx context.Context, audioUrl url.URL) (FetchResult, failure.ClassifiedError)
}
