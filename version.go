// Package bwsannotator provides version information for the bws-annotator module.
//
// The version follows semantic versioning and is logged by the command at startup so
// that every output file can be traced back to the build that produced it.
package bwsannotator

// Version represents the current semantic version of bws-annotator.
const Version = "0.3.0"

// VersionInfo encapsulates version metadata for bws-annotator.
type VersionInfo struct {
	// Version contains the semantic version string
	Version string

	// Name contains the canonical tool name
	Name string
}

// GetVersion returns structured version information.
//
// Usage:
//
//	info := GetVersion()
//	slog.Info("starting", "name", info.Name, "version", info.Version)
func GetVersion() VersionInfo {
	return VersionInfo{
		Version: Version,
		Name:    "bws-annotator",
	}
}
