// Package version reports the memochat build.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Name is the product name printed by the CLI.
const Name = "Memochat"

// Overridden with -ldflags "-X github.com/memohai/memochat/internal/version.Version=..." at build time.
var (
	Version    = "dev"
	CommitHash = ""
	BuildTime  = ""
)

var vcsOnce sync.Once

// Info is the structured build description.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
}

// Get fills missing commit data from the embedded VCS settings.
func Get() Info {
	vcsOnce.Do(readVCS)
	return Info{
		Version:   Version,
		Commit:    shortHash(CommitHash),
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// GetInfo returns "version (commit)" or just the version when no commit is known.
func GetInfo() string {
	info := Get()
	if info.Commit == "" {
		return info.Version
	}
	return fmt.Sprintf("%s (%s)", info.Version, info.Commit)
}

func readVCS() {
	if CommitHash != "" {
		return
	}
	build, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			CommitHash = setting.Value
		case "vcs.time":
			if BuildTime == "" {
				BuildTime = setting.Value
			}
		}
	}
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
