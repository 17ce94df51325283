package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time. When left at "none"
	// the VCS revision recorded by the Go toolchain is used instead.
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// shortCommitLength is how much of a VCS revision is shown.
const shortCommitLength = 7

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version line for the named program.
func Full(program string) string {
	return fmt.Sprintf("%s version: %s, commit: %s, built at: %s, %s",
		program, Version, commit(), BuildTime, runtime.Version())
}

// commit returns the injected commit or the toolchain-recorded revision.
func commit() string {
	if Commit != "none" {
		return Commit
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Commit
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && setting.Value != "" {
			return setting.Value[:min(len(setting.Value), shortCommitLength)]
		}
	}

	return Commit
}
