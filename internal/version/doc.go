// Package version exposes build metadata for the plantalert binary.
//
// Version, Commit and BuildTime are injected through ldflags at release
// time and fall back to placeholder values for local builds. Short and
// Full render them for CLI output and logs.
package version
