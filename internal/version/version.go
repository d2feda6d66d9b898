// Package version reports the drag-warp build, stamped with
// -ldflags "-X drag-warp/internal/version.Version=...".
package version

import "fmt"

var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the build information for -version output and logs.
func String() string {
	return fmt.Sprintf("drag-warp %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
