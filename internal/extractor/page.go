package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/soundfetch/internal/fetcher"
	"github.com/rohmanhakim/soundfetch/internal/metadata"
	"github.com/rohmanhakim/soundfetch/pkg/failure"
	"github.com/rohmanhakim/soundfetch/pkg/urlutil"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Fetch a sharing page through the page fetcher
- Find the media reference embedded in the markup
- Turn that reference into an absolute URL

Extraction Strategy
- Priority order:
	- preloadAudioUrl variable in an inline script
	- <audio src>
	- <source type="audio/..." src>
	- first link ending in .mp3 under media/sounds/
	- first link ending in .mp3 anywhere
- Reference normalization:
	- values with a scheme are kept
	- "//host/x" gets https:
	- "/x" joins the page scheme and host
	- "media/..." joins the site root
	- anything else joins the page directory
*/

type PageExtractor struct {
	metadataSink metadata.MetadataSink
	pageFetcher  fetcher.PageFetcher
	siteRoot     url.URL
}

func NewPageExtractor(
	metadataSink metadata.MetadataSink,
	pageFetcher fetcher.PageFetcher,
	siteRoot url.URL,
) *PageExtractor {
	return &PageExtractor{
		metadataSink: metadataSink,
		pageFetcher:  pageFetcher,
		siteRoot:     siteRoot,
	}
}

// Extract fetches pageUrl and returns the absolute URL of the audio it references.
func (p *PageExtractor) Extract(ctx context.Context, pageUrl url.URL) (string, failure.ClassifiedError) {
	match, err := p.extract(ctx, pageUrl)
	if err != nil {
		p.metadataSink.RecordError(
			time.Now(),
			"extractor",
			"PageExtractor.Extract",
			mapExtractionErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrPageURL, pageUrl.String()),
			},
		)
		return "", err
	}
	return match.URL, nil
}

func (p *PageExtractor) extract(ctx context.Context, pageUrl url.URL) (Match, *ExtractionError) {
	result, fetchErr := p.pageFetcher.FetchPage(ctx, pageUrl)
	if fetchErr != nil {
		var fe *fetcher.FetchError
		if errors.As(fetchErr, &fe) && fe.Cause == fetcher.ErrCauseContentTypeInvalid {
			return Match{}, &ExtractionError{
				Message:   "page is not HTML",
				Retryable: false,
				Cause:     ErrCauseNotFound,
				Err:       fetchErr,
			}
		}
		return Match{}, &ExtractionError{
			Message:   fmt.Sprintf("failed to fetch page: %v", fetchErr),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
			Err:       fetchErr,
		}
	}

	match, found, parseErr := FindAudio(pageUrl.String(), result.Body(), p.siteRoot)
	if parseErr != nil {
		return Match{}, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse page: %v", parseErr),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
			Err:       parseErr,
		}
	}
	if !found {
		return Match{}, &ExtractionError{
			Message:   "no audio reference in page",
			Retryable: false,
			Cause:     ErrCauseNotFound,
		}
	}
	return match, nil
}

// FindAudio runs the strategy chain over markup. pageURL is the address the
// markup was served from and anchors relative references.
func FindAudio(pageURL string, markup []byte, siteRoot url.URL) (Match, bool, error) {
	node, err := html.Parse(bytes.NewReader(markup))
	if err != nil {
		return Match{}, false, err
	}
	doc := goquery.NewDocumentFromNode(node)

	for _, s := range strategies {
		if ref, ok := s.find(markup, doc); ok {
			return Match{
				URL:      makeAbsolute(ref, pageURL, siteRoot),
				Strategy: s.name,
			}, true, nil
		}
	}
	return Match{}, false, nil
}

func makeAbsolute(ref string, pageURL string, siteRoot url.URL) string {
	if !urlutil.HasScheme(ref) && strings.HasPrefix(ref, "media/") {
		return strings.TrimSuffix(siteRoot.String(), "/") + "/" + ref
	}
	return urlutil.MakeAbsolute(ref, pageURL, siteRoot)
}
