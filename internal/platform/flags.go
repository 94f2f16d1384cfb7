package platform

import "strings"

// requiredFlags are prepended to every compile. Debug info, no optimization,
// retained frame pointers, and function entry/exit hooks are what the trace
// runtime needs to attribute events to source lines.
var requiredFlags = []string{
	"-g",
	"-O0",
	"-fno-omit-frame-pointer",
	"-finstrument-functions",
}

// NormalizeFlags builds the final compiler flag list from user-supplied
// flags. Required instrumentation flags come first, then the user flags in
// their original order with conflicting ones removed. No other deduplication
// happens: flags like -I take a positional argument and reordering or
// collapsing them would change meaning.
func NormalizeFlags(userFlags []string) []string {
	final := make([]string, 0, len(requiredFlags)+len(userFlags))
	final = append(final, requiredFlags...)
	for _, f := range userFlags {
		if conflictsWithInstrumentation(f) {
			continue
		}
		final = append(final, f)
	}
	return final
}

// conflictsWithInstrumentation reports whether a user flag would undo one of
// the required flags: any optimization level above zero, or explicit frame
// pointer omission. A redundant -g or -O0 is harmless and kept as-is.
func conflictsWithInstrumentation(flag string) bool {
	if flag == "-fomit-frame-pointer" {
		return true
	}
	if strings.HasPrefix(flag, "-O") && flag != "-O0" {
		return true
	}
	return false
}
