package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/codestep/codestep/internal/history"
	"github.com/codestep/codestep/internal/session"
)

// openSessions returns the configured session store.
func openSessions() (*session.Store, error) {
	if cfg.SessionDir != "" {
		return session.NewStore(cfg.SessionDir), nil
	}
	return session.DefaultStore()
}

// openHistory opens the configured history store and applies the schema.
// Returns nil (no store, no error) when history is disabled.
func openHistory() (*history.DB, error) {
	if cfg.History.Disabled {
		return nil, nil
	}
	d, err := history.Open(cfg.History.Driver, cfg.History.DSN)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	if err := d.Migrate(); err != nil {
		d.Close()
		return nil, fmt.Errorf("migrate history store: %w", err)
	}
	return d, nil
}

// inferLanguage picks a language from a source filename extension.
func inferLanguage(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c":
		return "c", nil
	case ".cpp", ".cc", ".cxx", ".c++":
		return "cpp", nil
	default:
		return "", fmt.Errorf("cannot infer language from %q; pass --lang", filepath.Base(path))
	}
}

// splitFlags turns a space-separated flag string into a slice.
func splitFlags(s string) []string {
	return strings.Fields(s)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
