package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codestep/codestep/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run <source-file>",
	Short: "Compile, execute, and convert a program into a step sequence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read source file: %w", err)
		}

		lang, _ := cmd.Flags().GetString("lang")
		if lang == "" {
			if lang, err = inferLanguage(args[0]); err != nil {
				return err
			}
		}
		flagStr, _ := cmd.Flags().GetString("flags")
		timeMs, _ := cmd.Flags().GetInt("time-ms")
		maxOutput, _ := cmd.Flags().GetInt64("max-output-bytes")
		memory, _ := cmd.Flags().GetInt64("memory-bytes")
		cpuSeconds, _ := cmd.Flags().GetInt64("cpu-seconds")
		deterministic, _ := cmd.Flags().GetBool("deterministic")
		skipValidate, _ := cmd.Flags().GetBool("skip-validate")
		format, _ := cmd.Flags().GetString("format")

		sessions, err := openSessions()
		if err != nil {
			return err
		}
		hist, err := openHistory()
		if err != nil {
			return err
		}
		var opts []pipeline.Option
		if hist != nil {
			defer hist.Close()
			opts = append(opts, pipeline.WithRecorder(hist))
		}
		p := pipeline.New(cfg, sessions, opts...)

		if !skipValidate {
			if err := p.ValidateToolchain(cmd.Context()); err != nil {
				return err
			}
		}

		res, err := p.Run(cmd.Context(), pipeline.Request{
			Language:       lang,
			Source:         string(source),
			Flags:          splitFlags(flagStr),
			TimeMs:         timeMs,
			MaxOutputBytes: maxOutput,
			MemoryBytes:    memory,
			CPUSeconds:     cpuSeconds,
			Deterministic:  deterministic,
		})
		if err != nil {
			return err
		}

		if format == "json" {
			return printJSON(cmd.OutOrStdout(), res)
		}
		printRunResult(cmd, res)
		return nil
	},
}

func printRunResult(cmd *cobra.Command, res *pipeline.RunResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %s\n", res.RunID, res.Status)

	switch res.Status {
	case pipeline.StatusCompileError:
		fmt.Fprintln(out, strings.TrimRight(res.CompileDiagnostics, "\n"))
		return
	case pipeline.StatusFailed:
		if res.Signal != "" {
			fmt.Fprintf(out, "terminated by %s\n", res.Signal)
		} else {
			fmt.Fprintf(out, "exit code %d\n", res.ExitCode)
		}
	}

	fmt.Fprintf(out, "steps: %d", len(res.Steps))
	if res.TimedOut {
		fmt.Fprint(out, "  (timed out)")
	}
	if res.Truncated {
		fmt.Fprint(out, "  (output truncated)")
	}
	fmt.Fprintln(out)

	if len(res.Warnings) > 0 {
		fmt.Fprintf(out, "warnings: %d\n", len(res.Warnings))
		for _, w := range res.Warnings {
			fmt.Fprintf(out, "  %s\n", w)
		}
	}
	if res.Stdout != "" {
		fmt.Fprintf(out, "--- stdout ---\n%s", res.Stdout)
		if !strings.HasSuffix(res.Stdout, "\n") {
			fmt.Fprintln(out)
		}
	}
	if res.Stderr != "" {
		fmt.Fprintf(out, "--- stderr ---\n%s", res.Stderr)
		if !strings.HasSuffix(res.Stderr, "\n") {
			fmt.Fprintln(out)
		}
	}
	fmt.Fprintf(out, "compile %dms, execute %dms, total %dms\n",
		res.Timings.CompileMs, res.Timings.ExecuteMs, res.Timings.TotalMs)
}

func init() {
	runCmd.Flags().String("lang", "", "source language: c or cpp (default: inferred from extension)")
	runCmd.Flags().String("flags", "", "extra compiler flags, space separated")
	runCmd.Flags().Int("time-ms", 0, "execution wall-clock limit in ms (default: config)")
	runCmd.Flags().Int64("max-output-bytes", 0, "combined stdout/stderr cap in bytes (default: config)")
	runCmd.Flags().Int64("memory-bytes", 0, "address-space hard ceiling, best-effort (default: config)")
	runCmd.Flags().Int64("cpu-seconds", 0, "CPU-time hard ceiling, best-effort (default: config)")
	runCmd.Flags().Bool("deterministic", false, "derive step timestamps from the emission counter")
	runCmd.Flags().Bool("skip-validate", false, "skip the toolchain validation probe")
	runCmd.Flags().String("format", "text", "output format: text or json")
}
