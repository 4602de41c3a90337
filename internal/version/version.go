package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Build-time variables injected via ldflags:
//
//	go build -ldflags "-X agentdeck/internal/version.Version=v0.3.0 -X agentdeck/internal/version.GitCommit=$(git rev-parse HEAD)"
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitTag    = ""
	BuildDate = "unknown"
	GitDirty  = ""

	// GoVersion is the Go version used to build
	GoVersion = runtime.Version()
)

// Info returns the short version string: the git tag when present,
// otherwise Version, with a -dirty suffix for dirty trees.
func Info() string {
	v := Version
	if GitTag != "" && GitTag != "unknown" {
		v = GitTag
	}
	if GitDirty == "true" && !strings.HasSuffix(v, "-dirty") {
		v += "-dirty"
	}
	return v
}

// ShortCommit returns the first seven characters of GitCommit, or "" when unknown.
func ShortCommit() string {
	if GitCommit == "" || GitCommit == "unknown" {
		return ""
	}
	if len(GitCommit) > 7 {
		return GitCommit[:7]
	}
	return GitCommit
}

// Full returns Info plus the short commit when it is not already part of it
func Full() string {
	info := Info()
	if short := ShortCommit(); short != "" && !strings.Contains(info, short) {
		info += fmt.Sprintf(" (%s)", short)
	}
	return info
}

// BuildInfo returns detailed build information
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	GitTag    string `json:"git_tag"`
	GitDirty  bool   `json:"git_dirty"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// GetBuildInfo returns structured build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Info(),
		GitCommit: GitCommit,
		GitTag:    GitTag,
		GitDirty:  GitDirty == "true",
		BuildDate: BuildDate,
		GoVersion: GoVersion,
	}
}

// UserAgent identifies the client in WebSocket handshakes
func UserAgent() string {
	return fmt.Sprintf("agentdeck/%s", Info())
}
