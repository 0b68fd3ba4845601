package metadata

import "time"

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause MUST NOT be used for retry or abort decisions.
	 - Packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown
  - The failure does not map cleanly to any known category.

# CauseNetworkFailure
  - Transport failure or remote unavailability (timeouts, DNS, resets, 5xx).

# CausePolicyDisallow
  - The remote refused us (403, 401, 429).

# CauseContentInvalid
  - Content arrived but is unusable (non-HTML page, empty or oversized audio).

# CauseNotFound
  - The page was readable but contained no audio reference.

# CauseInvalidInput
  - The caller supplied a reference that cannot be resolved.

# CauseCanceled
  - The caller gave up (context canceled or deadline exceeded).
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CausePolicyDisallow
	CauseContentInvalid
	CauseNotFound
	CauseInvalidInput
	CauseCanceled
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CausePolicyDisallow:
		return "policy_disallow"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseNotFound:
		return "not_found"
	case CauseInvalidInput:
		return "invalid_input"
	case CauseCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

type FetchKind string

const (
	FetchKindPage  FetchKind = "page"
	FetchKindAudio FetchKind = "audio"
)

type CacheEventKind string

const (
	CacheHit            CacheEventKind = "hit"
	CacheMiss           CacheEventKind = "miss"
	CacheJoin           CacheEventKind = "join"
	CacheStore          CacheEventKind = "store"
	CacheDownloadFailed CacheEventKind = "download_failed"
	CacheEvict          CacheEventKind = "evict"
	CacheClear          CacheEventKind = "clear"
)

// CacheEvent describes one cache transition together with the cache totals after it.
type CacheEvent struct {
	Kind       CacheEventKind
	Key        string
	EntryBytes int64
	// Removed is the number of entries dropped by evict or clear.
	Removed    int
	TotalBytes int64
	Entries    int
}

// ResolveEvent describes one reference resolution.
type ResolveEvent struct {
	Reference   string
	Kind        string
	ResolvedURL string
	Duration    time.Duration
	Failed      bool
	Cause       ErrorCause
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrReference  AttributeKey = "reference"
	AttrStrategy   AttributeKey = "strategy"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrPageURL    AttributeKey = "page_url"
	AttrRequestID  AttributeKey = "request_id"
)
