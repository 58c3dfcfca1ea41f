// Package misc provides build identity helpers shared by all commands.
package misc

import "runtime/debug"

// Set at build time via ldflags, see Taskfile.
var (
	appName = "ngsc"
	version = "0.0.0-dev"
	gitHash = ""
)

// GetAppName returns short program name used for logs, reports and temp files.
func GetAppName() string {
	return appName
}

// GetVersion returns program version.
func GetVersion() string {
	return version
}

// GetGitHash returns VCS revision recorded at build time. When not set via
// ldflags it falls back to build info embedded by the Go toolchain.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
