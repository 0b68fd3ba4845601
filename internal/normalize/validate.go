package normalize

import (
	"net/url"
	"slices"
	"strings"

	"github.com/rohmanhakim/soundfetch/internal/mime"
)

/*
Responsibilities
- Decide whether a reference can be fetched as audio without further work
- Recognise links to the sound-sharing site that need page extraction
- Never touch the network, never fail

All functions are pure.
*/

// IsBlank reports whether ref is empty after trimming whitespace.
func IsBlank(ref string) bool {
	return strings.TrimSpace(ref) == ""
}

// IsDirectAudio reports whether rawURL already points at audio content:
// a supported extension, a "media/sounds/" path, an inline "data:audio/" URI,
// or a supported extension followed by a query string.
func IsDirectAudio(rawURL string) bool {
	if slices.Contains(directAudioExtensions, mime.Extension(rawURL)) {
		return true
	}

	lower := strings.ToLower(rawURL)
	if strings.Contains(lower, mediaSoundsMarker) {
		return true
	}
	if strings.HasPrefix(lower, dataAudioPrefix) {
		return true
	}
	for _, ext := range directAudioExtensions {
		if strings.Contains(lower, ext+"?") {
			return true
		}
	}
	return false
}

// IsSharingPage reports whether rawURL belongs to domain or one of its subdomains.
// Input that does not parse into a host is matched on its leading segment,
// which is where a schemeless link carries the host.
func IsSharingPage(rawURL string, domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false
	}

	trimmed := strings.TrimSpace(rawURL)
	u, err := url.Parse(trimmed)
	if err != nil || u.Hostname() == "" {
		return hostMatches(leadingSegment(trimmed), domain)
	}
	return hostMatches(u.Hostname(), domain)
}

func hostMatches(host, domain string) bool {
	host = strings.ToLower(host)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// leadingSegment returns the would-be host of a schemeless link:
// everything before the first path, query or fragment delimiter, without a port.
func leadingSegment(raw string) string {
	raw = strings.TrimPrefix(raw, "//")
	if i := strings.IndexAny(raw, "/?#"); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.LastIndex(raw, "@"); i >= 0 {
		raw = raw[i+1:]
	}
	host, _, _ := strings.Cut(raw, ":")
	return host
}

// Classify resolves the kind of ref. Direct audio wins over the sharing domain.
func Classify(ref string, sharingDomain string) ReferenceKind {
	switch {
	case IsBlank(ref):
		return KindBlank
	case IsDirectAudio(ref):
		return KindDirectAudio
	case IsSharingPage(ref, sharingDomain):
		return KindSharingPage
	default:
		return KindUnsupported
	}
}
