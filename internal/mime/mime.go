// Package mime maps audio URLs to the content type used when encoding a payload.
package mime

import (
	"net/url"
	"path"
	"strings"
)

// DefaultContentType is used for any extension without a specific mapping.
const DefaultContentType = "audio/mpeg"

var contentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".aac":  "audio/aac",
	".webm": "audio/webm",
}

// Classify returns the audio content type for rawURL based on its file extension.
// Matching is case-insensitive; unknown or missing extensions yield DefaultContentType.
func Classify(rawURL string) string {
	if ct, ok := contentTypes[Extension(rawURL)]; ok {
		return ct
	}
	return DefaultContentType
}

// Extension returns the lowercased extension (with leading dot) of the URL path.
// Query and fragment are ignored; input that does not parse as a URL is used as is.
func Extension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Opaque == "" {
		p = u.Path
	}
	return strings.ToLower(path.Ext(p))
}
