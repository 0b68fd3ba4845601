package cache

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rohmanhakim/soundfetch/internal/fetcher"
	"github.com/rohmanhakim/soundfetch/internal/metadata"
	"github.com/rohmanhakim/soundfetch/internal/mime"
	"github.com/rohmanhakim/soundfetch/pkg/failure"
	"github.com/rohmanhakim/soundfetch/pkg/hashutil"
)

/*
Responsibilities
- Download each resolved audio URL at most once while it is cached
- Let concurrent callers for the same URL share one download
- Encode the audio as a self-contained data URI payload
- Track the total encoded size of cached entries

Concurrency
- entries, inflight and sizeBytes are guarded by mu
- mu is never held across network I/O
- the goroutine that installs a marker owns the download; everybody else waits on done

A marker removed by Clear while its download runs is stale: the owner still
answers the callers already waiting on it but does not publish an entry.
*/

const dataAudioPrefix = "data:audio/"

type FetchCache struct {
	mu        sync.Mutex
	entries   map[string]Payload
	inflight  map[string]*call
	sizeBytes int64

	metadataSink metadata.MetadataSink
	downloader   fetcher.AudioFetcher
	hashAlgo     hashutil.HashAlgo
}

func NewFetchCache(
	metadataSink metadata.MetadataSink,
	downloader fetcher.AudioFetcher,
	hashAlgo hashutil.HashAlgo,
) *FetchCache {
	if hashAlgo == "" {
		hashAlgo = hashutil.HashAlgoSHA256
	}
	return &FetchCache{
		entries:      make(map[string]Payload),
		inflight:     make(map[string]*call),
		metadataSink: metadataSink,
		downloader:   downloader,
		hashAlgo:     hashAlgo,
	}
}

// Fetch returns the payload for resolvedURL, downloading it only when it is
// neither cached nor already being downloaded.
// Cancelling ctx of a waiting caller only affects that caller; cancelling the
// owner's ctx aborts the download for every waiter.
func (c *FetchCache) Fetch(ctx context.Context, resolvedURL string) (Payload, failure.ClassifiedError) {
	key := resolvedURL

	if strings.HasPrefix(key, dataAudioPrefix) {
		payload, err := c.inlinePayload(key)
		if err != nil {
			return Payload{}, err
		}
		return payload, nil
	}

	c.mu.Lock()
	if payload, ok := c.entries[key]; ok {
		event := c.eventLocked(metadata.CacheHit, key, payload.Len())
		c.mu.Unlock()
		c.metadataSink.RecordCacheEvent(event)
		return payload, nil
	}
	if pending, ok := c.inflight[key]; ok {
		event := c.eventLocked(metadata.CacheJoin, key, 0)
		c.mu.Unlock()
		c.metadataSink.RecordCacheEvent(event)
		return c.wait(ctx, pending)
	}
	owned := &call{done: make(chan struct{})}
	c.inflight[key] = owned
	event := c.eventLocked(metadata.CacheMiss, key, 0)
	c.mu.Unlock()
	c.metadataSink.RecordCacheEvent(event)

	c.run(ctx, key, owned)
	if owned.err != nil {
		return Payload{}, owned.err
	}
	return owned.payload, nil
}

func (c *FetchCache) wait(ctx context.Context, pending *call) (Payload, failure.ClassifiedError) {
	select {
	case <-pending.done:
		if pending.err != nil {
			return Payload{}, pending.err
		}
		return pending.payload, nil
	case <-ctx.Done():
		return Payload{}, &DownloadError{
			Message:   fmt.Sprintf("stopped waiting: %v", ctx.Err()),
			Retryable: true,
			Cause:     ErrCauseCanceled,
			Err:       ctx.Err(),
		}
	}
}

// run performs the owner's download and always settles the marker, even if
// the download panics.
func (c *FetchCache) run(ctx context.Context, key string, owned *call) {
	settled := false
	defer func() {
		if !settled {
			owned.err = &DownloadError{
				Message:   "download aborted unexpectedly",
				Retryable: true,
				Cause:     ErrCauseAborted,
			}
		}
		c.finish(key, owned)
	}()

	owned.payload, owned.err = c.download(ctx, key)
	settled = true
}

func (c *FetchCache) finish(key string, owned *call) {
	c.mu.Lock()
	published := false
	if c.inflight[key] == owned {
		delete(c.inflight, key)
		if owned.err == nil {
			if previous, ok := c.entries[key]; ok {
				c.sizeBytes -= previous.Len()
			}
			c.entries[key] = owned.payload
			c.sizeBytes += owned.payload.Len()
			published = true
		}
	}
	var event metadata.CacheEvent
	if owned.err != nil {
		event = c.eventLocked(metadata.CacheDownloadFailed, key, 0)
	} else if published {
		event = c.eventLocked(metadata.CacheStore, key, owned.payload.Len())
	}
	c.mu.Unlock()

	close(owned.done)

	if event.Kind != "" {
		c.metadataSink.RecordCacheEvent(event)
	}
	if owned.err != nil {
		c.metadataSink.RecordError(
			time.Now(),
			"cache",
			"FetchCache.Fetch",
			mapDownloadErrorToMetadataCause(owned.err),
			owned.err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, key),
			},
		)
	}
}

func (c *FetchCache) download(ctx context.Context, key string) (Payload, *DownloadError) {
	target, err := url.Parse(key)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return Payload{}, &DownloadError{
			Message:   fmt.Sprintf("not an absolute url: %q", key),
			Retryable: false,
			Cause:     ErrCauseInvalidURL,
			Err:       err,
		}
	}

	result, fetchErr := c.downloader.FetchAudio(ctx, *target)
	if fetchErr != nil {
		return Payload{}, fromFetchError(fetchErr)
	}

	body := result.Body()
	if len(body) == 0 {
		return Payload{}, &DownloadError{
			Message:   fmt.Sprintf("no audio bytes from %s", key),
			Retryable: true,
			Cause:     ErrCauseEmptyBody,
		}
	}
	return c.encode(key, mime.Classify(key), body), nil
}

func (c *FetchCache) encode(key, contentType string, body []byte) Payload {
	digest, _ := hashutil.HashBytes(body, c.hashAlgo)
	return Payload{
		URL:         key,
		ContentType: contentType,
		Data:        "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body),
		Digest:      digest,
		SourceBytes: len(body),
	}
}

// inlinePayload accepts a data:audio/...;base64, URL as its own payload. It is
// not stored since there is nothing to download.
func (c *FetchCache) inlinePayload(key string) (Payload, *DownloadError) {
	header, encoded, ok := strings.Cut(strings.TrimPrefix(key, "data:"), ",")
	contentType, isBase64 := strings.CutSuffix(header, ";base64")
	if !ok || !isBase64 {
		return Payload{}, &DownloadError{
			Message:   "inline audio must be base64 encoded",
			Retryable: false,
			Cause:     ErrCauseInvalidURL,
		}
	}
	body, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Payload{}, &DownloadError{
			Message:   fmt.Sprintf("malformed inline audio: %v", err),
			Retryable: false,
			Cause:     ErrCauseInvalidURL,
			Err:       err,
		}
	}
	if len(body) == 0 {
		return Payload{}, &DownloadError{
			Message:   "inline audio is empty",
			Retryable: false,
			Cause:     ErrCauseEmptyBody,
		}
	}
	payload := c.encode(key, contentType, body)
	payload.Data = key
	return payload, nil
}

func fromFetchError(err failure.ClassifiedError) *DownloadError {
	var fetchErr *fetcher.FetchError
	if !errors.As(err, &fetchErr) {
		return &DownloadError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
			Err:       err,
		}
	}

	cause := ErrCauseNetworkFailure
	switch fetchErr.Cause {
	case fetcher.ErrCauseCanceled:
		cause = ErrCauseCanceled
	case fetcher.ErrCauseEmptyBody:
		cause = ErrCauseEmptyBody
	case fetcher.ErrCauseBodyTooLarge:
		cause = ErrCauseTooLarge
	case fetcher.ErrCauseRequestClientError, fetcher.ErrCauseRequestPageForbidden,
		fetcher.ErrCauseRequestTooMany, fetcher.ErrCauseRequest5xx,
		fetcher.ErrCauseRedirectLimitExceeded:
		cause = ErrCauseHTTPStatus
	}
	return &DownloadError{
		Message:    fetchErr.Message,
		Retryable:  true,
		Cause:      cause,
		StatusCode: fetchErr.StatusCode,
		Err:        fetchErr,
	}
}

// Contains reports whether a payload for resolvedURL is cached.
func (c *FetchCache) Contains(resolvedURL string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[resolvedURL]
	return ok
}

// SizeBytes is the sum of the encoded lengths of all cached payloads.
func (c *FetchCache) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sizeBytes
}

// Evict drops the cached payload for resolvedURL, if any. In-flight downloads are untouched.
func (c *FetchCache) Evict(resolvedURL string) {
	c.mu.Lock()
	payload, ok := c.entries[resolvedURL]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.entries, resolvedURL)
	c.sizeBytes -= payload.Len()
	event := c.eventLocked(metadata.CacheEvict, resolvedURL, payload.Len())
	event.Removed = 1
	c.mu.Unlock()

	c.metadataSink.RecordCacheEvent(event)
}

// Clear drops every entry and every in-flight marker.
func (c *FetchCache) Clear() {
	c.mu.Lock()
	removed := len(c.entries)
	c.entries = make(map[string]Payload)
	c.inflight = make(map[string]*call)
	c.sizeBytes = 0
	event := c.eventLocked(metadata.CacheClear, "", 0)
	event.Removed = removed
	c.mu.Unlock()

	c.metadataSink.RecordCacheEvent(event)
}

func (c *FetchCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:   len(c.entries),
		InFlight:  len(c.inflight),
		SizeBytes: c.sizeBytes,
	}
}

// eventLocked builds an event carrying the current totals. Caller holds mu.
func (c *FetchCache) eventLocked(kind metadata.CacheEventKind, key string, entryBytes int64) metadata.CacheEvent {
	return metadata.CacheEvent{
		Kind:       kind,
		Key:        key,
		EntryBytes: entryBytes,
		TotalBytes: c.sizeBytes,
		Entries:    len(c.entries),
	}
}
