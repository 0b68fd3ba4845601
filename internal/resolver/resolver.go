package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rohmanhakim/soundfetch/internal/extractor"
	"github.com/rohmanhakim/soundfetch/internal/metadata"
	"github.com/rohmanhakim/soundfetch/internal/normalize"
	"github.com/rohmanhakim/soundfetch/pkg/failure"
	"github.com/rohmanhakim/soundfetch/pkg/urlutil"
)

// PageExtractor finds the audio URL behind a sharing page.
type PageExtractor interface {
	Extract(ctx context.Context, pageUrl url.URL) (string, failure.ClassifiedError)
}

// Resolver turns a caller reference into a direct audio URL.
// Direct audio references are returned unchanged; sharing-page links go
// through the page extractor; everything else is rejected.
type Resolver struct {
	metadataSink  metadata.MetadataSink
	extractor     PageExtractor
	sharingDomain string
	memo          *gocache.Cache
}

type Option func(*Resolver)

// WithMemo remembers successful page extractions for ttl.
// Failures are never remembered.
func WithMemo(ttl time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.memo = gocache.New(ttl, 2*ttl)
		}
	}
}

func NewResolver(
	metadataSink metadata.MetadataSink,
	extractor PageExtractor,
	sharingDomain string,
	opts ...Option,
) *Resolver {
	r := &Resolver{
		metadataSink:  metadataSink,
		extractor:     extractor,
		sharingDomain: sharingDomain,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the direct audio URL for reference.
func (r *Resolver) Resolve(ctx context.Context, reference string) (string, failure.ClassifiedError) {
	start := time.Now()
	ref := strings.TrimSpace(reference)
	kind := normalize.Classify(ref, r.sharingDomain)

	resolved, err := r.resolve(ctx, ref, kind)

	event := metadata.ResolveEvent{
		Reference:   reference,
		Kind:        kind.String(),
		ResolvedURL: resolved,
		Duration:    time.Since(start),
	}
	if err != nil {
		event.Failed = true
		event.Cause = mapResolveErrorToMetadataCause(err)
		r.metadataSink.RecordResolve(event)
		return "", err
	}
	r.metadataSink.RecordResolve(event)
	return resolved, nil
}

func (r *Resolver) resolve(ctx context.Context, ref string, kind normalize.ReferenceKind) (string, *ResolveError) {
	switch kind {
	case normalize.KindBlank:
		return "", &ResolveError{
			Message: "reference is empty",
			Cause:   ErrCauseInvalidReference,
		}
	case normalize.KindDirectAudio:
		return ref, nil
	case normalize.KindSharingPage:
		return r.resolvePage(ctx, ref)
	default:
		return "", &ResolveError{
			Message: fmt.Sprintf("%q is neither direct audio nor a %s link", ref, r.sharingDomain),
			Cause:   ErrCauseInvalidReference,
		}
	}
}

func (r *Resolver) resolvePage(ctx context.Context, ref string) (string, *ResolveError) {
	pageUrl, err := parsePageURL(ref)
	if err != nil {
		return "", &ResolveError{
			Message: fmt.Sprintf("cannot parse page link: %v", err),
			Cause:   ErrCauseInvalidReference,
			Err:     err,
		}
	}

	memoKey := ""
	if r.memo != nil {
		canonical := urlutil.Canonicalize(pageUrl)
		memoKey = canonical.String()
		if cached, ok := r.memo.Get(memoKey); ok {
			return cached.(string), nil
		}
	}

	audioUrl, extErr := r.extractor.Extract(ctx, pageUrl)
	if extErr != nil {
		return "", fromExtractionError(extErr)
	}

	if r.memo != nil {
		r.memo.SetDefault(memoKey, audioUrl)
	}
	return audioUrl, nil
}

// parsePageURL accepts sharing links with or without a scheme.
func parsePageURL(ref string) (url.URL, error) {
	if !strings.Contains(ref, "://") {
		ref = "https://" + strings.TrimPrefix(ref, "//")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return url.URL{}, err
	}
	if u.Host == "" {
		return url.URL{}, fmt.Errorf("missing host in %q", ref)
	}
	return *u, nil
}

func fromExtractionError(err failure.ClassifiedError) *ResolveError {
	var extErr *extractor.ExtractionError
	if errors.As(err, &extErr) && extErr.Cause == extractor.ErrCauseNotFound {
		return &ResolveError{
			Message:   extErr.Message,
			Retryable: false,
			Cause:     ErrCauseExtractionNotFound,
			Err:       err,
		}
	}
	return &ResolveError{
		Message:   err.Error(),
		Retryable: true,
		Cause:     ErrCauseExtractionNetwork,
		Err:       err,
	}
}
