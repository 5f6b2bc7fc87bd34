// Package version exposes build metadata for the refyne-linkedin binary.
//
// Values are injected at build time:
//
//	go build -ldflags "-X github.com/jmylchreest/refyne-linkedin/internal/version.Version=0.3.0 \
//	  -X github.com/jmylchreest/refyne-linkedin/internal/version.Commit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	Dirty     = "false"
	BuildDate = "unknown"
)

// Info is the JSON shape printed by `refyne-linkedin version --json`.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Dirty     bool   `json:"dirty"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the current version information.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Dirty:     Dirty == "true",
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns the short version, suffixed with -dirty for unclean trees.
func String() string {
	if Dirty == "true" {
		return Version + "-dirty"
	}
	return Version
}

// UserAgentTag is appended to outbound API requests (solver, model
// providers) so usage can be traced back to a build.
func UserAgentTag() string {
	return "refyne-linkedin/" + String()
}

// Full returns a multi-line description for `version` output.
func Full() string {
	info := Get()
	var sb strings.Builder
	fmt.Fprintf(&sb, "refyne-linkedin %s\n", String())
	fmt.Fprintf(&sb, "  Commit:     %s\n", info.Commit)
	fmt.Fprintf(&sb, "  Built:      %s\n", info.BuildDate)
	fmt.Fprintf(&sb, "  Go version: %s\n", info.GoVersion)
	fmt.Fprintf(&sb, "  OS/Arch:    %s", info.Platform)
	return sb.String()
}
