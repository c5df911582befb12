// Package version provides information about the build of the binaries.
package version

import (
	"runtime"
	"runtime/debug"
)

// BuildInfo holds version information about the build.
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

// Info returns the build information. version, commit and date are set with
// -ldflags "-X 'wlmerge/internal/core/version.version=v1.2.0' ...". When they
// are not, the VCS stamp embedded by the go tool is used
func Info() BuildInfo {
	bi := BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
		Go:      runtime.Version(),
	}
	if bi.Commit != "none" {
		return bi
	}
	if info, ok := readBuildInfo(); ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				bi.Commit = s.Value
			case "vcs.time":
				if bi.Date == "unknown" {
					bi.Date = s.Value
				}
			}
		}
	}
	return bi
}

// SetService names the running binary, called once from main
func SetService(name string) {
	if name != "" {
		service = name
	}
}

var readBuildInfo = debug.ReadBuildInfo

var (
	service = "wlmerge"
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
