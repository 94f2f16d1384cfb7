// Package pipeline runs one request end to end: session setup, compile,
// sandboxed execution, trace parsing, and step conversion. Each request is
// an independent sequential pipeline; nothing is shared across requests.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/codestep/codestep/internal/config"
	"github.com/codestep/codestep/internal/history"
	"github.com/codestep/codestep/internal/logging"
	"github.com/codestep/codestep/internal/platform"
	"github.com/codestep/codestep/internal/sandbox"
	"github.com/codestep/codestep/internal/session"
	"github.com/codestep/codestep/internal/steps"
	"github.com/codestep/codestep/internal/toolchain"
	"github.com/codestep/codestep/internal/trace"
)

// traceOutputEnv is the variable the instrumentation runtime reads to find
// its artifact path.
const traceOutputEnv = "TRACE_OUTPUT"

// ErrInvalidRequest covers requests the pipeline refuses before doing any
// work: unknown language, empty source.
var ErrInvalidRequest = goerr.New("invalid request")

// Compiler is the compile boundary, satisfied by toolchain.Compiler.
type Compiler interface {
	Compile(ctx context.Context, req toolchain.CompileRequest) (*toolchain.CompileResult, error)
}

// Executor is the execution boundary, satisfied by sandbox.Executor.
type Executor interface {
	Execute(ctx context.Context, spec sandbox.Spec) (*sandbox.Result, error)
}

// TraceFileParser is the parse boundary, satisfied by trace.ParseFile.
type TraceFileParser func(path string) (*trace.Result, error)

// Recorder is the history boundary, satisfied by history.DB.
type Recorder interface {
	RecordRun(r *history.Run) error
}

// Pipeline wires the collaborators for compile/execute/parse/convert
// requests. It holds no per-request state; concurrent Run calls are
// independent.
type Pipeline struct {
	cfg      *config.Config
	sessions *session.Store
	layout   *toolchain.Layout
	compiler Compiler
	executor Executor
	parse    TraceFileParser
	recorder Recorder
	log      *slog.Logger
}

// Option adjusts a Pipeline.
type Option func(*Pipeline)

// WithCompiler replaces the compiler (tests).
func WithCompiler(c Compiler) Option {
	return func(p *Pipeline) { p.compiler = c }
}

// WithExecutor replaces the executor (tests).
func WithExecutor(x Executor) Option {
	return func(p *Pipeline) { p.executor = x }
}

// WithTraceParser replaces the trace parser (tests).
func WithTraceParser(fn TraceFileParser) Option {
	return func(p *Pipeline) { p.parse = fn }
}

// WithRecorder sets the history recorder. Recording is best-effort; a nil
// recorder disables it.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// New creates a Pipeline from the configuration.
func New(cfg *config.Config, sessions *session.Store, opts ...Option) *Pipeline {
	layout := toolchain.NewLayout(cfg.ToolchainDir)
	p := &Pipeline{
		cfg:      cfg,
		sessions: sessions,
		layout:   layout,
		compiler: toolchain.NewCompiler(&toolchain.ExecRunner{}, layout),
		executor: sandbox.NewExecutor(),
		parse:    trace.ParseFile,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ValidateToolchain probes the toolchain layout. Callers that serve many
// requests run it once at startup instead of per request.
func (p *Pipeline) ValidateToolchain(ctx context.Context) error {
	return toolchain.Validate(ctx, &toolchain.ExecRunner{}, p.layout)
}

// Run processes one request. Compile errors and trace-content anomalies are
// reported inside the RunResult; an error return means the request itself
// could not be carried out (invalid request, unusable session directory,
// unreadable trace after an otherwise clean run).
func (p *Pipeline) Run(ctx context.Context, req Request) (*RunResult, error) {
	start := time.Now()

	if req.Source == "" {
		return nil, goerr.Wrap(ErrInvalidRequest, "empty source")
	}
	lang, err := toolchain.ParseLanguage(req.Language)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidRequest, "parse language", goerr.V("language", req.Language))
	}

	family := platform.DetectFamily()
	sess, err := p.sessions.Create(lang.SourceExt(), family.ExeSuffix())
	if err != nil {
		return nil, goerr.Wrap(err, "create session")
	}
	if err := sess.WriteSource(req.Source); err != nil {
		return nil, goerr.Wrap(err, "write source", goerr.V("session", sess.ID))
	}

	runLog, closer, err := logging.RunLogger(p.log, sess.DebugLogPath)
	if err != nil {
		// A missing debug log never blocks the run.
		runLog = p.log
	} else {
		defer closer.Close()
	}
	runLog = runLog.With("run_id", sess.ID)
	runLog.Info("request started", "language", lang.String())

	res := &RunResult{RunID: sess.ID, Language: lang.String()}

	// Compile.
	// The compiler sees the forward-slash source path so the file fields
	// baked into trace records are separator-stable across host OSes.
	compileRes, err := p.compiler.Compile(ctx, toolchain.CompileRequest{
		Language:   lang,
		SourcePath: platform.SlashPath(sess.SourcePath),
		OutputPath: sess.ExecutablePath,
		UserFlags:  req.Flags,
		TimeMs:     p.cfg.Limits.CompileTimeMs,
	})
	if compileRes != nil {
		res.CompileDiagnostics = compileRes.Diagnostics
		res.Timings.CompileMs = compileRes.DurationMs
	}
	if err != nil {
		if errors.Is(err, toolchain.ErrCompileFailed) {
			res.Status = StatusCompileError
			res.Timings.TotalMs = int(time.Since(start).Milliseconds())
			p.finish(sess, req, res, runLog)
			return res, nil
		}
		return nil, err
	}

	// Execute under limits, with the normalized deterministic environment
	// and the trace artifact path injected.
	var libraryPaths []string
	if dir := p.layout.LibDir(); dir != "" {
		libraryPaths = append(libraryPaths, dir)
	}
	env := platform.BuildEnv(family, os.Environ(), libraryPaths)
	env = append(env, traceOutputEnv+"="+sess.TracePath)

	spec := sandbox.Spec{
		Path:           sess.ExecutablePath,
		Dir:            sess.Dir,
		Env:            env,
		TimeMs:         p.valueOr(req.TimeMs, p.cfg.Limits.TimeMs),
		MaxOutputBytes: p.valueOr64(req.MaxOutputBytes, p.cfg.Limits.MaxOutputBytes),
		MemoryBytes:    p.valueOr64(req.MemoryBytes, p.cfg.Limits.MemoryBytes),
		CPUSeconds:     p.valueOr64(req.CPUSeconds, p.cfg.Limits.CPUSeconds),
	}
	runLog.Debug("executing", "path", spec.Path, "env_entries", len(spec.Env),
		"time_ms", spec.TimeMs, "max_output_bytes", spec.MaxOutputBytes)
	execRes, err := p.executor.Execute(ctx, spec)
	if err != nil {
		return nil, goerr.Wrap(err, "execute", goerr.V("session", sess.ID))
	}
	runLog.Debug("execution finished",
		"exit_code", execRes.ExitCode, "signal", execRes.Signal,
		"timed_out", execRes.TimedOut, "truncated", execRes.Truncated,
		"duration_ms", execRes.DurationMs)
	res.Stdout = execRes.Stdout
	res.Stderr = execRes.Stderr
	res.ExitCode = execRes.ExitCode
	res.Signal = execRes.Signal
	res.TimedOut = execRes.TimedOut
	res.Truncated = execRes.Truncated
	res.Timings.ExecuteMs = execRes.DurationMs

	// Parse whatever trace exists. A run that died early still usually
	// leaves a usable prefix; only a clean run with no artifact at all is
	// a hard failure.
	parsed, err := p.parse(sess.TracePath)
	if err != nil {
		if execRes.ExitCode != 0 || execRes.Signal != "" || execRes.TimedOut || execRes.Truncated {
			runLog.Warn("no usable trace after abnormal exit", "error", err)
			res.Status = StatusFailed
			res.Warnings = append(res.Warnings, "no usable trace artifact: "+err.Error())
			res.Timings.TotalMs = int(time.Since(start).Milliseconds())
			p.finish(sess, req, res, runLog)
			return res, nil
		}
		return nil, err
	}
	for _, w := range parsed.Warnings {
		res.Warnings = append(res.Warnings, "parser: "+w.String())
	}

	// Convert.
	convertStart := time.Now()
	engine := steps.NewEngine(platform.NewClock(req.Deterministic))
	engine.SetLogger(runLog)
	converted := engine.Convert(parsed.Events)
	res.Steps = converted.Steps
	for _, w := range converted.Warnings {
		res.Warnings = append(res.Warnings, "engine: "+w.String())
	}
	res.Timings.ConvertMs = int(time.Since(convertStart).Milliseconds())

	res.Status = StatusCompleted
	res.Timings.TotalMs = int(time.Since(start).Milliseconds())
	runLog.Info("request finished",
		"status", res.Status, "steps", len(res.Steps),
		"warnings", len(res.Warnings), "total_ms", res.Timings.TotalMs)

	p.finish(sess, req, res, runLog)
	return res, nil
}

// finish persists the result JSON into the session and records the run in
// the history store. Both are best-effort.
func (p *Pipeline) finish(sess *session.Session, req Request, res *RunResult, runLog *slog.Logger) {
	if err := sess.SaveResult(res); err != nil {
		runLog.Warn("saving result failed", "error", err)
	}
	if p.recorder == nil {
		return
	}
	exitCode := res.ExitCode
	run := &history.Run{
		ID:           res.RunID,
		Language:     res.Language,
		Status:       res.Status,
		ExitCode:     &exitCode,
		Signal:       res.Signal,
		TimedOut:     res.TimedOut,
		Truncated:    res.Truncated,
		Flags:        strings.Join(req.Flags, " "),
		StepCount:    len(res.Steps),
		WarningCount: len(res.Warnings),
		CompileMs:    res.Timings.CompileMs,
		ExecuteMs:    res.Timings.ExecuteMs,
		TotalMs:      res.Timings.TotalMs,
	}
	if res.Status == StatusCompileError {
		run.ExitCode = nil
	}
	if err := p.recorder.RecordRun(run); err != nil {
		runLog.Warn("recording run failed", "error", err)
	}
}

func (p *Pipeline) valueOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func (p *Pipeline) valueOr64(v, fallback int64) int64 {
	if v > 0 {
		return v
	}
	return fallback
}
