// Package version reports the build identity of the codemod binary.
package version

import (
	"runtime/debug"
	"sync"
)

const unknown = "unknown"

// Build identity. Release builds set these with -ldflags "-X".
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

var initOnce sync.Once

// InitBinaryVersion fills Commit and Date from the module build info when
// they were not set at link time.
func InitBinaryVersion() {
	initOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}

		if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			Version = info.Main.Version
		}

		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if Commit == unknown {
					Commit = setting.Value
				}
			case "vcs.time":
				if Date == unknown {
					Date = setting.Value
				}
			}
		}
	})
}

// String formats the build identity for humans.
func String() string {
	return Version + " (commit: " + Commit + ", built: " + Date + ")"
}
