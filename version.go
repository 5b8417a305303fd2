package smashsend

import (
	"runtime/debug"
	"strings"
)

const modulePath = "github.com/smashsend/smashsend-go"

// Version is the library version. It is injected at build time via ldflags;
// otherwise it is read from the module build info.
var Version = ""

// GetVersion returns the library version, or "unknown" when it cannot be
// determined. It never fails.
func GetVersion() string {
	if Version != "" {
		return Version
	}
	return versionFromBuildInfo(debug.ReadBuildInfo)
}

func versionFromBuildInfo(read func() (*debug.BuildInfo, bool)) (version string) {
	defer func() {
		if recover() != nil {
			version = "unknown"
		}
	}()

	info, ok := read()
	if !ok || info == nil {
		return "unknown"
	}

	if info.Main.Path == modulePath {
		return normalizeVersion(info.Main.Version)
	}
	for _, dep := range info.Deps {
		if dep.Path != modulePath {
			continue
		}
		if dep.Replace != nil && dep.Replace.Version != "" {
			return normalizeVersion(dep.Replace.Version)
		}
		return normalizeVersion(dep.Version)
	}
	return "unknown"
}

func normalizeVersion(v string) string {
	if v == "" || v == "(devel)" {
		return "unknown"
	}
	return strings.TrimPrefix(v, "v")
}

// UserAgent returns the User-Agent header value sent with every request.
func UserAgent() string {
	return "smashsend-go/" + GetVersion()
}
