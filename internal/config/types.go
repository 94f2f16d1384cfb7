// Package config loads the codestep configuration from YAML, fills in
// defaults, and validates the result before any request runs.
package config

import (
	"github.com/codestep/codestep/internal/sandbox"
)

// Config is the top-level configuration structure parsed from codestep YAML.
type Config struct {
	// ToolchainDir is the root of the instrumentation toolchain layout
	// (bin/, lib/, headers/). Empty means compilers are found on PATH and
	// no layout flags are added.
	ToolchainDir string `yaml:"toolchain_dir"`

	// SessionDir is where per-run artifact directories are created.
	// Defaults to ~/.codestep/sessions.
	SessionDir string `yaml:"session_dir"`

	Limits  Limits  `yaml:"limits"`
	History History `yaml:"history"`
	Log     Log     `yaml:"log"`
}

// Limits are the default resource limits applied to every execution unless a
// request overrides them.
type Limits struct {
	// TimeMs bounds wall-clock execution time in milliseconds.
	TimeMs int `yaml:"time_ms"`

	// MaxOutputBytes bounds combined stdout and stderr size.
	MaxOutputBytes int64 `yaml:"max_output_bytes"`

	// MemoryBytes and CPUSeconds are optional hard ceilings, applied only
	// on platforms with an enforcement facility. Zero disables them.
	MemoryBytes int64 `yaml:"memory_bytes"`
	CPUSeconds  int64 `yaml:"cpu_seconds"`

	// CompileTimeMs bounds one compiler invocation.
	CompileTimeMs int `yaml:"compile_time_ms"`
}

// History configures the run history store.
type History struct {
	// Driver selects the backing database: "sqlite" (default) or
	// "postgres".
	Driver string `yaml:"driver"`

	// DSN is the connection string. For sqlite it is a file path,
	// defaulting to ~/.codestep/history.db. For postgres it is a
	// postgres:// URL.
	DSN string `yaml:"dsn"`

	// Disabled turns run recording off entirely.
	Disabled bool `yaml:"disabled"`
}

// Log configures the logging stack.
type Log struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`

	// File, when set, receives a copy of all log records in addition to
	// stderr and the journal.
	File string `yaml:"file"`
}

// DefaultCompileTimeMs bounds a compiler invocation; instrumented builds of
// small programs finish well inside it.
const DefaultCompileTimeMs = 30000

// applyDefaults fills the zero-valued fields callers may omit.
func applyDefaults(cfg *Config) {
	if cfg.Limits.TimeMs == 0 {
		cfg.Limits.TimeMs = sandbox.DefaultTimeMs
	}
	if cfg.Limits.MaxOutputBytes == 0 {
		cfg.Limits.MaxOutputBytes = sandbox.DefaultMaxOutputBytes
	}
	if cfg.Limits.CompileTimeMs == 0 {
		cfg.Limits.CompileTimeMs = DefaultCompileTimeMs
	}
	if cfg.History.Driver == "" {
		cfg.History.Driver = "sqlite"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
