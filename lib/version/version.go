// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the release version. Builds may override it with
// -ldflags "-X github.com/stealthim/stealthim-go/lib/version.Version=...".
var Version = "0.1.0-dev"

// Build describes the running binary.
type Build struct {
	Version  string
	Commit   string
	Modified bool
	Time     string
}

// Current reads VCS stamps from the binary's embedded build info.
// Fields the toolchain did not record are "unknown".
func Current() Build {
	build := Build{Version: Version, Commit: "unknown", Time: "unknown"}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return build
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			build.Commit = setting.Value
			if len(build.Commit) > 12 {
				build.Commit = build.Commit[:12]
			}
		case "vcs.time":
			build.Time = setting.Value
		case "vcs.modified":
			build.Modified = setting.Value == "true"
		}
	}
	return build
}

// Info returns "0.1.0-dev (abc123def456, 2026-...)" for --version.
func Info() string {
	build := Current()
	dirty := ""
	if build.Modified {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", build.Version, build.Commit, dirty, build.Time)
}

// Full adds the Go version and platform to Info.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent is the User-Agent header value sent by the SDK.
func UserAgent() string {
	return "stealthim-go/" + Version
}
