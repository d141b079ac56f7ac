// Package version holds build metadata injected with -ldflags -X.
package version

import "fmt"

var (
	// Version is the semantic version or git describe result.
	Version = "dev"
	// GitCommit is the short git commit hash for this build.
	GitCommit = "unknown"
	// BuildDate is the RFC3339 timestamp when the binary was built.
	BuildDate = "unknown"
)

// String returns the bare version, as printed by werkit --version.
func String() string {
	return Version
}

// Long returns the version with commit and build date.
func Long() string {
	return fmt.Sprintf("werkit %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
