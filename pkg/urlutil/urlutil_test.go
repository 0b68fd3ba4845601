package urlutil

import (
	"net/url"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "trailing slash removed",
			input:    "https://www.myinstants.com/en/instant/vine-boom/",
			expected: "https://www.myinstants.com/en/instant/vine-boom",
		},
		{
			name:     "query and fragment removed",
			input:    "https://www.myinstants.com/en/instant/vine-boom/?utm_source=share#play",
			expected: "https://www.myinstants.com/en/instant/vine-boom",
		},
		{
			name:     "scheme and host lowercased, default port dropped",
			input:    "HTTPS://WWW.MyInstants.com:443/en/instant/bruh/",
			expected: "https://www.myinstants.com/en/instant/bruh",
		},
		{
			name:     "non-default port kept",
			input:    "http://localhost:8080/page/",
			expected: "http://localhost:8080/page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputURL, err := url.Parse(tt.input)
			if err != nil {
				t.Fatalf("failed to parse URL %q: %v", tt.input, err)
			}

			result := Canonicalize(*inputURL)
			if result.String() != tt.expected {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.input, result.String(), tt.expected)
			}
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	for _, urlStr := range []string{
		"https://www.myinstants.com/en/instant/x/",
		"HTTPS://EXAMPLE.COM:443/A/?#",
	} {
		inputURL, _ := url.Parse(urlStr)
		first := Canonicalize(*inputURL)
		second := Canonicalize(first)
		if first.String() != second.String() {
			t.Errorf("Canonicalize is not idempotent: first=%q, second=%q", first.String(), second.String())
		}
	}
}

func TestHasScheme(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://cdn.example/a.mp3", true},
		{"HTTP://cdn.example/a.mp3", true},
		{"data:audio/mpeg;base64,AAAA", true},
		{"//cdn.example/a.mp3", false},
		{"/media/sounds/a.mp3", false},
		{"media/sounds/a.mp3", false},
		{"other.mp3", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := HasScheme(tt.input); got != tt.want {
				t.Errorf("HasScheme(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMakeAbsolute(t *testing.T) {
	fallback := url.URL{Scheme: "https", Host: "www.myinstants.com"}

	tests := []struct {
		name string
		ref  string
		base string
		want string
	}{
		{
			name: "absolute kept",
			ref:  "https://cdn.example/a.mp3",
			base: "https://site.example/sounds/x",
			want: "https://cdn.example/a.mp3",
		},
		{
			name: "protocol relative",
			ref:  "//cdn.example/z.mp3",
			base: "https://site.example/sounds/x",
			want: "https://cdn.example/z.mp3",
		},
		{
			name: "root relative",
			ref:  "/media/y.mp3",
			base: "https://site.example/sounds/x",
			want: "https://site.example/media/y.mp3",
		},
		{
			name: "root relative keeps page scheme",
			ref:  "/media/y.mp3",
			base: "http://site.example:8080/sounds/x",
			want: "http://site.example:8080/media/y.mp3",
		},
		{
			name: "directory relative",
			ref:  "other.mp3",
			base: "https://site.example/sounds/x",
			want: "https://site.example/sounds/other.mp3",
		},
		{
			name: "directory relative ignores query slashes",
			ref:  "other.mp3",
			base: "https://site.example/sounds/x?next=/a/b",
			want: "https://site.example/sounds/other.mp3",
		},
		{
			name: "directory relative on host root",
			ref:  "other.mp3",
			base: "https://site.example",
			want: "https://site.example/other.mp3",
		},
		{
			name: "unparsable base falls back for root relative",
			ref:  "/media/y.mp3",
			base: "not a url",
			want: "https://www.myinstants.com/media/y.mp3",
		},
		{
			name: "unparsable base falls back for directory relative",
			ref:  "y.mp3",
			base: "::::",
			want: "https://www.myinstants.com/y.mp3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MakeAbsolute(tt.ref, tt.base, fallback)
			if got != tt.want {
				t.Errorf("MakeAbsolute(%q, %q) = %q, want %q", tt.ref, tt.base, got, tt.want)
			}
		})
	}
}

func TestStripTrailingSlash(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/path/", "/path"},
		{"/path///", "/path"},
		{"/", "/"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := stripTrailingSlash(tt.input); got != tt.expected {
				t.Errorf("stripTrailingSlash(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
