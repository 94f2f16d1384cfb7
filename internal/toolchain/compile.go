package toolchain

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/codestep/codestep/internal/platform"
)

const defaultCompileTimeMs = 30000

// CompileRequest describes one compiler invocation. SourcePath is the
// session's source file, already written; OutputPath is where the executable
// goes.
type CompileRequest struct {
	Language   Language
	SourcePath string
	OutputPath string
	UserFlags  []string
	TimeMs     int
}

// CompileResult is a successful or failed compile. Diagnostics holds the
// compiler's combined stderr/stdout text: warnings on success, errors on
// failure.
type CompileResult struct {
	ExecutablePath string
	Diagnostics    string
	DurationMs     int
}

// Compiler invokes the toolchain's compiler drivers.
type Compiler struct {
	runner CommandRunner
	layout *Layout
	log    *slog.Logger
}

// NewCompiler creates a Compiler over the given layout.
func NewCompiler(runner CommandRunner, layout *Layout) *Compiler {
	return &Compiler{runner: runner, layout: layout, log: slog.Default()}
}

// SetLogger overrides the logger.
func (c *Compiler) SetLogger(l *slog.Logger) {
	c.log = l
}

// Compile builds an instrumented executable from the request's source file.
// The argv always leads with the instrumentation-mandatory flags, then the
// user's surviving flags, then the layout's include/lib flags. A non-zero
// compiler exit returns ErrCompileFailed together with a result carrying the
// diagnostic text; warnings alone never fail a compile.
func (c *Compiler) Compile(ctx context.Context, req CompileRequest) (*CompileResult, error) {
	timeMs := req.TimeMs
	if timeMs <= 0 {
		timeMs = defaultCompileTimeMs
	}
	compileCtx, cancel := context.WithTimeout(ctx, time.Duration(timeMs)*time.Millisecond)
	defer cancel()

	args := platform.NormalizeFlags(req.UserFlags)
	args = append(args, c.layout.LayoutFlags()...)
	args = append(args, "-o", req.OutputPath, req.SourcePath)

	driver := c.layout.Driver(req.Language)
	c.log.Debug("invoking compiler", "driver", driver, "args", args)

	start := time.Now()
	stdout, stderr, exitCode, err := c.runner.Run(compileCtx, "", driver, args...)
	durationMs := int(time.Since(start).Milliseconds())

	diagnostics := stderr
	if stdout != "" {
		if diagnostics != "" {
			diagnostics += "\n"
		}
		diagnostics += stdout
	}
	res := &CompileResult{Diagnostics: diagnostics, DurationMs: durationMs}

	if err != nil {
		if compileCtx.Err() == context.DeadlineExceeded {
			return res, goerr.Wrap(ErrCompileFailed, "compiler timed out",
				goerr.V("driver", driver), goerr.V("time_ms", timeMs))
		}
		return res, goerr.Wrap(ErrToolchainMissing, "compiler could not be invoked",
			goerr.V("driver", driver), goerr.V("cause", err.Error()))
	}
	if exitCode != 0 {
		c.log.Debug("compilation failed", "driver", driver, "exit_code", exitCode)
		return res, goerr.Wrap(ErrCompileFailed, "compiler exited non-zero",
			goerr.V("driver", driver), goerr.V("exit_code", exitCode))
	}

	res.ExecutablePath = req.OutputPath
	c.log.Debug("compilation succeeded", "executable", req.OutputPath, "duration_ms", durationMs)
	return res, nil
}
