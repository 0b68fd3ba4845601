package cache

// Payload is an encoded audio clip ready to hand to any transport.
type Payload struct {
	URL         string
	ContentType string
	// Data is a data URI: data:<ContentType>;base64,<encoded bytes>
	Data string
	// Digest is the hex hash of the raw audio bytes.
	Digest      string
	SourceBytes int
}

// Len is the encoded length counted toward the cache size.
func (p Payload) Len() int64 {
	return int64(len(p.Data))
}

type Stats struct {
	Entries   int   `json:"entries"`
	InFlight  int   `json:"inFlight"`
	SizeBytes int64 `json:"sizeBytes"`
}

// SizeKB is SizeBytes in whole kilobytes.
func (s Stats) SizeKB() int64 {
	return s.SizeBytes / 1024
}

// PrefetchReport summarises a Prefetch run.
type PrefetchReport struct {
	Fetched       int
	AlreadyCached int
	Failed        map[string]error
}

// call is the in-flight marker for one key. done is closed once payload/err are final.
type call struct {
	done    chan struct{}
	payload Payload
	err     *DownloadError
}
