// Package versions provides build version information for the syncpoint
// server.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build information, overridable at link time via -ldflags.
var (
	// Version is the current version of the server, set at build time
	Version = "dev"
	// Commit is the git commit the binary was built from
	Commit = "unknown"
	// BuildDate is the timestamp of the build
	BuildDate = "unknown"
)

// VersionInfo contains the version information of the running binary.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the version information, filling in what the
// linker did not set from the binary's embedded build info.
func GetVersionInfo() VersionInfo {
	commit := Commit
	buildDate := BuildDate

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if commit == "unknown" {
					commit = setting.Value
				}
			case "vcs.time":
				if buildDate == "unknown" {
					buildDate = setting.Value
				}
			}
		}
	}

	return VersionInfo{
		Version:   Version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
