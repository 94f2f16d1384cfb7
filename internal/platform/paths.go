package platform

import (
	"path/filepath"
	"strings"
)

// NormalizePath returns an absolute, forward-slash-separated form of path.
// Trace records carry file paths verbatim, so the same program traced on
// Windows and Linux must report the same separator style.
func NormalizePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(abs), nil
}

// SlashPath converts separators without resolving the path. Used for paths
// that are already anchored (session artifacts) where an Abs call could
// surprise by prepending the working directory of the daemon.
func SlashPath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
