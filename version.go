package metaspector

import "runtime"

// Version is the semantic version of metaspector.
const Version = "0.1.0"

// VersionInfo contains detailed version information.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"` // set via ldflags at build time
	BuildTime string `json:"build_time"` // set via ldflags at build time
	GoVersion string `json:"go_version"`
}

// GetVersionInfo returns detailed version information.
//
// GitCommit, BuildTime and GoVersion are populated at build time:
//
//	go build -ldflags="-X github.com/simonhull/metaspector.gitCommit=$(git rev-parse HEAD) \
//	  -X github.com/simonhull/metaspector.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	  ./cmd/metaspector
func GetVersionInfo() VersionInfo {
	goVer := goVersion
	if goVer == "unknown" {
		goVer = runtime.Version()
	}
	return VersionInfo{
		Version:   Version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
		GoVersion: goVer,
	}
}

// Variables populated at build time via -ldflags.
var (
	gitCommit = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)
