package platform

import "strings"

// pinnedEnv forces a deterministic locale and timezone on the traced
// process. Number formatting, sort order, and time output otherwise vary by
// host configuration and leak into stdout comparisons.
var pinnedEnv = map[string]string{
	"LC_ALL": "C",
	"LANG":   "C",
	"TZ":     "UTC",
}

// BuildEnv derives the execution environment for an instrumented process
// from a base environment (typically a filtered copy of the parent's).
// It pins locale and timezone and prepends libraryPaths to the dynamic
// loader search variable of the given OS family, preserving any existing
// value behind the injected entries.
func BuildEnv(family OSFamily, baseEnv []string, libraryPaths []string) []string {
	drop := make(map[string]bool, len(pinnedEnv)+1)
	for k := range pinnedEnv {
		drop[k] = true
	}
	libVar := family.libraryPathVar()
	drop[libVar] = true

	existingLib := ""
	env := make([]string, 0, len(baseEnv)+len(pinnedEnv)+1)
	for _, kv := range baseEnv {
		key, _, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if key == libVar {
			_, existingLib, _ = strings.Cut(kv, "=")
		}
		if drop[key] {
			continue
		}
		env = append(env, kv)
	}

	for _, k := range []string{"LC_ALL", "LANG", "TZ"} {
		env = append(env, k+"="+pinnedEnv[k])
	}

	sep := family.listSeparator()
	parts := make([]string, 0, len(libraryPaths)+1)
	parts = append(parts, libraryPaths...)
	if existingLib != "" {
		parts = append(parts, existingLib)
	}
	if len(parts) > 0 {
		env = append(env, libVar+"="+strings.Join(parts, sep))
	}
	return env
}
