// Package misc holds build information and program identity helpers.
package misc

import "runtime/debug"

const appName = "ugm"

var (
	// set by the linker during release builds
	version = "development"
	gitHash = ""
)

// GetAppName returns short program name used in logs, reports and help output.
func GetAppName() string {
	return appName
}

// GetVersion returns program version as set during build.
func GetVersion() string {
	return version
}

// GetGitHash returns VCS revision this binary was built from.
func GetGitHash() string {
	if len(gitHash) > 0 {
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
