// Package appinfo provides application information utilities
package appinfo

import (
	"os"
	"runtime/debug"
)

const unknownVersion = "0.0.0-unknown"

// readBuildInfo is swapped in tests
var readBuildInfo = debug.ReadBuildInfo

// Version resolves the running version. It checks, in order:
// 1. linked, the value set with -ldflags, unless it is empty or "dev"
// 2. VERSION / APP_VERSION environment variables
// 3. module version or VCS revision from the build info
func Version(linked string) string {
	if linked != "" && linked != "dev" {
		return linked
	}

	if version := os.Getenv("VERSION"); version != "" {
		return version
	}
	if version := os.Getenv("APP_VERSION"); version != "" {
		return version
	}

	if info, ok := readBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				return shortRevision(setting.Value)
			}
		}
	}

	if linked != "" {
		return linked
	}
	return unknownVersion
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
