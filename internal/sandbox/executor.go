// Package sandbox runs instrumented executables under wall-clock and
// output-size limits. The soft limits (timer plus byte-capped sinks) are
// always enforced; OS-level hard ceilings are layered on top where the
// platform provides them.
package sandbox

import (
	"context"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrExecutionTimeout and ErrOutputTruncated exist for callers that
	// want limit breaches as errors. Execute itself reports them as Result
	// fields, because a killed run still carries a usable trace prefix.
	ErrExecutionTimeout = goerr.New("execution exceeded wall clock limit")
	ErrOutputTruncated  = goerr.New("execution exceeded output limit")
)

const (
	DefaultTimeMs         = 2000
	DefaultMaxOutputBytes = 1 << 20
)

// Spec describes one sandboxed run.
type Spec struct {
	Path string
	Args []string
	Dir  string
	Env  []string

	TimeMs         int
	MaxOutputBytes int64

	// Optional hard ceilings, applied by the platform's Enforcer when it
	// has one. Zero means no ceiling.
	MemoryBytes int64
	CPUSeconds  int64
}

// Result is the outcome of a sandboxed run. Stdout and Stderr together hold
// at most the configured byte budget.
type Result struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exit_code"`
	Signal     string `json:"signal,omitempty"`
	TimedOut   bool   `json:"timed_out"`
	Truncated  bool   `json:"truncated"`
	DurationMs int    `json:"duration_ms"`
}

// LimitErr converts a limit breach into its sentinel error, for callers that
// treat breaches as failures instead of degraded results.
func (r *Result) LimitErr() error {
	switch {
	case r.TimedOut:
		return goerr.Wrap(ErrExecutionTimeout, "run killed", goerr.V("duration_ms", r.DurationMs))
	case r.Truncated:
		return goerr.Wrap(ErrOutputTruncated, "run killed", goerr.V("duration_ms", r.DurationMs))
	}
	return nil
}

// Executor spawns instrumented processes. It is stateless across runs.
type Executor struct {
	enforcer Enforcer
	log      *slog.Logger
}

// NewExecutor creates an executor with the platform's hard-limit enforcer.
func NewExecutor() *Executor {
	return &Executor{enforcer: newEnforcer(), log: slog.Default()}
}

// SetLogger overrides the logger (per-run debug logs).
func (x *Executor) SetLogger(l *slog.Logger) {
	x.log = l
}

// Execute runs the executable until it exits or breaches a limit. The first
// breach force-kills the whole process group; termination is idempotent.
// Execute returns an error only when the process could not be started or
// waited on, never for limit breaches.
func (x *Executor) Execute(ctx context.Context, spec Spec) (*Result, error) {
	timeMs := spec.TimeMs
	if timeMs <= 0 {
		timeMs = DefaultTimeMs
	}
	maxBytes := spec.MaxOutputBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxOutputBytes
	}

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	setSysProcAttr(cmd)

	var killOnce sync.Once
	kill := func(reason string) {
		killOnce.Do(func() {
			x.log.Debug("terminating instrumented process", "reason", reason, "path", spec.Path)
			killTree(cmd)
		})
	}

	budget := newOutputBudget(maxBytes, func() { kill("output limit") })
	stdout := budget.sink()
	stderr := budget.sink()
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	x.log.Debug("spawning instrumented process",
		"path", spec.Path, "dir", spec.Dir,
		"time_ms", timeMs, "max_output_bytes", maxBytes,
		"enforcer", x.enforcer.Name())

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, goerr.Wrap(err, "start instrumented process", goerr.V("path", spec.Path))
	}

	if err := x.enforcer.Apply(cmd.Process.Pid, spec); err != nil {
		// Hard ceilings are a best-effort tightening; the soft limits below
		// still bound the run.
		x.log.Debug("hard limit enforcement failed", "error", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeMs)*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timedOut := false
	var waitErr error
	select {
	case waitErr = <-done:
	case <-runCtx.Done():
		if runCtx.Err() == context.DeadlineExceeded {
			timedOut = true
			kill("wall clock limit")
		} else {
			kill("cancelled")
		}
		waitErr = <-done
	}
	duration := time.Since(start)

	if waitErr != nil {
		if _, ok := waitErr.(*exec.ExitError); !ok {
			return nil, goerr.Wrap(waitErr, "wait for instrumented process", goerr.V("path", spec.Path))
		}
	}

	res := &Result{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		TimedOut:   timedOut,
		Truncated:  budget.exceeded(),
		DurationMs: int(duration.Milliseconds()),
	}
	res.ExitCode, res.Signal = exitStatus(cmd.ProcessState)

	x.log.Debug("instrumented process finished",
		"exit_code", res.ExitCode, "signal", res.Signal,
		"timed_out", res.TimedOut, "truncated", res.Truncated,
		"duration_ms", res.DurationMs)
	return res, nil
}
