package pipeline

import (
	"github.com/codestep/codestep/internal/steps"
)

// Request is one compile-and-visualize request. Zero-valued limit fields
// fall back to the configured defaults.
type Request struct {
	Language string   `json:"language"`
	Source   string   `json:"source"`
	Flags    []string `json:"flags,omitempty"`

	TimeMs         int   `json:"timeMs,omitempty"`
	MaxOutputBytes int64 `json:"maxOutputBytes,omitempty"`
	MemoryBytes    int64 `json:"memoryBytes,omitempty"`
	CPUSeconds     int64 `json:"cpuSeconds,omitempty"`

	// Deterministic switches step timestamps to the counter clock, making
	// repeated runs of the same trace byte-identical.
	Deterministic bool `json:"deterministic,omitempty"`
}

// Run statuses.
const (
	StatusCompleted    = "completed"     // executed and converted, possibly with warnings
	StatusCompileError = "compile_error" // compiler rejected the source
	StatusFailed       = "failed"        // executed but produced no usable trace
)

// Timings breaks the request duration down by phase, in milliseconds.
type Timings struct {
	CompileMs int `json:"compileMs"`
	ExecuteMs int `json:"executeMs"`
	ConvertMs int `json:"convertMs"`
	TotalMs   int `json:"totalMs"`
}

// RunResult is the full outcome surface handed to the rendering layer.
type RunResult struct {
	RunID    string `json:"runId"`
	Status   string `json:"status"`
	Language string `json:"language"`

	Steps    []steps.Step `json:"steps,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`

	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr"`
	ExitCode  int    `json:"exitCode"`
	Signal    string `json:"signal,omitempty"`
	TimedOut  bool   `json:"timedOut"`
	Truncated bool   `json:"truncated"`

	CompileDiagnostics string `json:"compileDiagnostics,omitempty"`

	Timings Timings `json:"timings"`
}
