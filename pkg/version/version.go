// Package version holds the build version reported by the CLI and the API.
package version

import (
	"runtime"
	"runtime/debug"
)

// Version is overridden at build time with
// -ldflags "-X sailtimer/pkg/version.Version=v1.2.3".
var Version = "v0.3.0"

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
}

// Get returns Version plus the VCS stamp the toolchain embedded, if any.
func Get() Info {
	info := Info{Version: Version, GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = shortRevision(s.Value)
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String is "v0.3.0", "v0.3.0 (abc1234)" or "v0.3.0 (abc1234, dirty)".
func (i Info) String() string {
	if i.Revision == "" {
		return i.Version
	}
	if i.Modified {
		return i.Version + " (" + i.Revision + ", dirty)"
	}
	return i.Version + " (" + i.Revision + ")"
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
