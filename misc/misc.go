// Package misc holds program identity.
package misc

import (
	"runtime/debug"
	"sync"
)

const appName = "okvars"

// Set with -ldflags "-X okvars/misc.version=... -X okvars/misc.gitHash=..." by release builds.
var (
	version = ""
	gitHash = ""
)

var buildInfo = sync.OnceValue(func() (res struct{ version, hash string }) {
	res.version, res.hash = version, gitHash
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if res.version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		res.version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && res.hash == "" {
			res.hash = s.Value
			if len(res.hash) > 12 {
				res.hash = res.hash[:12]
			}
		}
	}
	return
})

func GetAppName() string {
	return appName
}

// GetVersion returns program version, "dev" for local builds.
func GetVersion() string {
	if v := buildInfo().version; v != "" {
		return v
	}
	return "dev"
}

// GetGitHash returns abbreviated revision program was built from, if known.
func GetGitHash() string {
	if h := buildInfo().hash; h != "" {
		return h
	}
	return "unknown"
}
