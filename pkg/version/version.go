package version

import "fmt"

// Build metadata. These are vars (not consts) so they can be overridden
// at build time via:
//
//	go build -ldflags "-X github.com/rentscan/tagview/pkg/version.Version=v1.2.3"
var (
	Version = "v0.3.0"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the full version line shown by the version command.
func String() string {
	return fmt.Sprintf("tagview %s (commit %s, built %s)", Version, Commit, Date)
}
