// Package version carries build-time version information.
package version

import "fmt"

var (
	// Version is set during the build via ldflags.
	Version = "dev"
	// GitCommit is the git commit SHA that was built.
	GitCommit = "unknown"
)

// Info is the printable version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
}

// Get returns the current version information.
func Get() Info {
	return Info{Version: Version, GitCommit: GitCommit}
}

func (i Info) String() string {
	return fmt.Sprintf("Version: %s, GitCommit: %s", i.Version, i.GitCommit)
}
