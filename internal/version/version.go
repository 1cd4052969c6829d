// Package version exposes build metadata injected at link time via
// -ldflags, e.g.
//
//	go build -ldflags "-X chatgate/internal/version.Version=v1.2.0 \
//	  -X chatgate/internal/version.Commit=$(git rev-parse --short HEAD) \
//	  -X chatgate/internal/version.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version of this build.
	Version = "dev"
	// Commit is the git commit the build was produced from.
	Commit = "unknown"
	// Date is the build timestamp in ISO8601.
	Date = "unknown"
)

// Info returns a single-line human-readable version string.
func Info() string {
	return fmt.Sprintf("chatgate %s (commit %s, built %s, %s %s/%s)",
		Version, Commit, Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
