// Package build carries version information stamped in with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/rohmanhakim/soundfetch/internal/build.Version=1.2.0"
package build

import "fmt"

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion returns the version string with commit hash appended.
// Format: "Version+Commit" (e.g., "1.0.0+abc123")
func FullVersion() string {
	return Version + "+" + Commit
}

// Summary is the one-line report printed by --version.
func Summary() string {
	return fmt.Sprintf("soundfetch %s (built %s)", FullVersion(), BuildTime)
}
