// Package logging wires the process-wide slog stack: a text handler on
// stderr for interactive use, the systemd journal when running as a service,
// and an optional log file, fanned out so every record reaches all sinks.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

var level = new(slog.LevelVar)

// Options selects the sinks and verbosity of the stack.
type Options struct {
	// Level is one of debug, info, warn, error.
	Level string

	// File, when non-empty, receives a copy of all records.
	File string
}

// Setup builds the logger, installs it as slog's default, and returns it.
// The returned closer flushes and closes the log file, if any.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	if err := SetLevel(opts.Level); err != nil {
		return nil, nil, err
	}

	var handlers []slog.Handler
	var closer io.Closer

	// Under systemd the journal already captures stderr; writing to both
	// would double every record.
	if !isSystemdService() {
		handlers = append(handlers, slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	if journalHandler, err := slogjournal.NewHandler(&slogjournal.Options{
		ReplaceGroup: toJournalKey,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			a.Key = toJournalKey(a.Key)
			return a
		},
	}); err == nil {
		handlers = append(handlers, journalHandler)
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
		closer = f
	}

	logger := slog.New(slogmulti.Fanout(handlers...))
	slog.SetDefault(logger)
	return logger, closer, nil
}

// SetLevel changes the stack's verbosity at runtime.
func SetLevel(name string) error {
	switch name {
	case "", "info":
		level.Set(slog.LevelInfo)
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		return fmt.Errorf("unrecognized log level %q", name)
	}
	return nil
}

// RunLogger derives a logger that additionally appends debug records to a
// per-run debug-log file, so one run's spawn and termination details can be
// inspected without raising the global level. The caller closes the file.
func RunLogger(base *slog.Logger, debugLogPath string) (*slog.Logger, io.Closer, error) {
	f, err := os.OpenFile(debugLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open debug log: %w", err)
	}
	fileHandler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(slogmulti.Fanout(base.Handler(), fileHandler)), f, nil
}

// isSystemdService reports whether the process runs inside a systemd
// .service cgroup.
func isSystemdService() bool {
	cgroupPath, err := getCgroupPath()
	if err != nil {
		return false
	}
	return strings.HasSuffix(path.Dir(cgroupPath), ".service")
}

func getCgroupPath() (string, error) {
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return "", err
	}
	parts := strings.SplitN(strings.TrimSpace(string(content)), ":", 3)
	if len(parts) >= 3 {
		return parts[2], nil
	}
	return "", nil
}

func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}
