// Package version provides build metadata and version information.
//
// Values set with -ldflags -X win; otherwise they are filled from the module
// and VCS data the Go toolchain embeds in the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Name identifies the binary in version output and the User-Agent header.
const Name = "postcodemcp"

const (
	defaultVersion = "0.1.0"
	unknown        = "unknown"
)

var (
	// BuildVersion is the semantic version of the build
	BuildVersion = defaultVersion

	// BuildCommit is the git commit hash of the build
	BuildCommit = unknown

	// BuildDate is the date and time of the build
	BuildDate = unknown

	// GoVersion is the version of Go used to build
	GoVersion = runtime.Version()
)

func init() {
	applyBuildInfo(debug.ReadBuildInfo())
}

// applyBuildInfo fills the fields still at their defaults from info.
func applyBuildInfo(info *debug.BuildInfo, ok bool) {
	if !ok || info == nil {
		return
	}
	if v := info.Main.Version; BuildVersion == defaultVersion && v != "" && v != "(devel)" {
		BuildVersion = strings.TrimPrefix(v, "v")
	}

	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if BuildCommit == unknown && s.Value != "" {
				BuildCommit = s.Value
			}
		case "vcs.time":
			if BuildDate == unknown && s.Value != "" {
				BuildDate = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if dirty && BuildCommit != unknown && !strings.HasSuffix(BuildCommit, "-dirty") {
		BuildCommit += "-dirty"
	}
	if info.GoVersion != "" {
		GoVersion = info.GoVersion
	}
}

// String returns a formatted version string
func String() string {
	return fmt.Sprintf("%s version %s (%s) built on %s with %s",
		Name, BuildVersion, BuildCommit, BuildDate, GoVersion)
}

// UserAgent returns the User-Agent sent to the address API when none is
// configured.
func UserAgent() string {
	return "postcode-mcp/" + BuildVersion
}

// Info returns a map of version information
func Info() map[string]string {
	return map[string]string{
		"name":       Name,
		"version":    BuildVersion,
		"commit":     BuildCommit,
		"build_date": BuildDate,
		"go_version": GoVersion,
	}
}
