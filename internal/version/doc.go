// Package version exposes build metadata for the fall-alarm binaries.
//
// Version, Commit and BuildTime are injected with -ldflags; Commit falls back
// to the VCS revision the Go toolchain records.
package version
