// Package platform normalizes compiler flags, filesystem paths, and process
// environments so instrumented runs produce identical trace content on every
// supported operating system.
package platform

import "runtime"

// OSFamily identifies the family of operating systems the current host
// belongs to. Behavior that differs by OS branches on this enum exactly once,
// so adding a platform means adding a case, not another string comparison.
type OSFamily int

const (
	FamilyLinux OSFamily = iota
	FamilyDarwin
	FamilyWindows
)

// String returns the family name.
func (f OSFamily) String() string {
	return []string{"linux", "darwin", "windows"}[f]
}

// DetectFamily maps the running OS onto its family. Unixes other than
// macOS (BSDs, illumos) behave like Linux for everything this package cares
// about: ELF executables with LD_LIBRARY_PATH lookup.
func DetectFamily() OSFamily {
	switch runtime.GOOS {
	case "windows":
		return FamilyWindows
	case "darwin":
		return FamilyDarwin
	default:
		return FamilyLinux
	}
}

// libraryPathVar returns the environment variable the dynamic loader of this
// family consults for extra shared-object search directories.
func (f OSFamily) libraryPathVar() string {
	switch f {
	case FamilyLinux:
		return "LD_LIBRARY_PATH"
	case FamilyDarwin:
		return "DYLD_LIBRARY_PATH"
	case FamilyWindows:
		return "PATH"
	default:
		panic("platform: unknown OS family")
	}
}

// listSeparator returns the path-list separator the family's loader expects.
func (f OSFamily) listSeparator() string {
	if f == FamilyWindows {
		return ";"
	}
	return ":"
}

// ExeSuffix returns the executable filename suffix for the family.
func (f OSFamily) ExeSuffix() string {
	if f == FamilyWindows {
		return ".exe"
	}
	return ""
}
