// Package session manages per-run artifact directories. Each compile/run
// request gets its own directory holding the source file, the built
// executable, the trace artifact, the debug log, and the final result JSON.
// The core only ever hands these paths to collaborators; lifecycle cleanup
// beyond Remove is a caller concern.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// Session is one run's artifact directory and the well-known paths inside it.
type Session struct {
	ID  string
	Dir string

	SourcePath     string
	ExecutablePath string
	TracePath      string
	DebugLogPath   string
	ResultPath     string
}

// Store creates and looks up sessions under a base directory.
type Store struct {
	baseDir string
}

// NewStore creates a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// DefaultStore returns a Store at ~/.codestep/sessions, creating the
// directory if needed.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".codestep", "sessions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &Store{baseDir: dir}, nil
}

// BaseDir returns the store's root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Create makes a fresh session directory named by a new UUID. sourceExt is
// the source filename extension including the dot (".c", ".cpp"); exeSuffix
// is the platform executable suffix ("" or ".exe").
func (s *Store) Create(sourceExt, exeSuffix string) (*Session, error) {
	id := uuid.NewString()
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir session dir: %w", err)
	}
	return &Session{
		ID:             id,
		Dir:            dir,
		SourcePath:     filepath.Join(dir, "main"+sourceExt),
		ExecutablePath: filepath.Join(dir, "program"+exeSuffix),
		TracePath:      filepath.Join(dir, "trace.json"),
		DebugLogPath:   filepath.Join(dir, "debug.log"),
		ResultPath:     filepath.Join(dir, "result.json"),
	}, nil
}

// WriteSource writes the request's source text into the session.
func (sess *Session) WriteSource(text string) error {
	if err := WriteAtomic(sess.SourcePath, []byte(text)); err != nil {
		return fmt.Errorf("write source: %w", err)
	}
	return nil
}

// SaveResult writes the final result JSON into the session.
func (sess *Session) SaveResult(v interface{}) error {
	return WriteJSON(sess.ResultPath, v)
}

// List returns the IDs of all sessions in the store, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", s.baseDir, err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(entry.Name()); err != nil {
			continue // skip directories this store did not create
		}
		ids = append(ids, entry.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// Remove deletes all data for a session.
func (s *Store) Remove(id string) error {
	dir := filepath.Join(s.baseDir, id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("session %s not found", id)
	}
	return os.RemoveAll(dir)
}
