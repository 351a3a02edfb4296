// Package version reports build metadata for nesemu
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set at build time with -ldflags "-X nesemu/internal/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo is the metadata printed by -version
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Modified  bool   `json:"modified"`
}

// GetBuildInfo merges the ldflags values with the VCS stamp the go tool
// embeds
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}

// GetVersion returns a short version string
func GetVersion() string {
	info := GetBuildInfo()
	if Version == "dev" && info.GitCommit != "unknown" {
		v := "dev-" + shortCommit(info.GitCommit)
		if info.Modified {
			v += "-dirty"
		}
		return v
	}
	return Version
}

// GetDetailedVersion returns a one line description of the build
func GetDetailedVersion() string {
	info := GetBuildInfo()
	var s strings.Builder
	fmt.Fprintf(&s, "nesemu %s", GetVersion())
	if info.GitCommit != "unknown" {
		fmt.Fprintf(&s, " (commit %s)", shortCommit(info.GitCommit))
	}
	if info.BuildTime != "unknown" {
		fmt.Fprintf(&s, " built %s", info.BuildTime)
	}
	fmt.Fprintf(&s, " with %s for %s", info.GoVersion, info.Platform)
	return s.String()
}

// PrintBuildInfo writes the build metadata to w
func PrintBuildInfo(w io.Writer) {
	info := GetBuildInfo()
	fmt.Fprintf(w, "nesemu - cycle-accurate NES emulator\n")
	fmt.Fprintf(w, "Version:    %s\n", GetVersion())
	fmt.Fprintf(w, "Git Commit: %s\n", info.GitCommit)
	fmt.Fprintf(w, "Build Time: %s\n", info.BuildTime)
	fmt.Fprintf(w, "Go Version: %s\n", info.GoVersion)
	fmt.Fprintf(w, "Platform:   %s\n", info.Platform)
}
