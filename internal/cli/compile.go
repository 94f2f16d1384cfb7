package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codestep/codestep/internal/platform"
	"github.com/codestep/codestep/internal/toolchain"
)

var compileCmd = &cobra.Command{
	Use:   "compile <source-file>",
	Short: "Compile a program with instrumentation, without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read source file: %w", err)
		}

		langName, _ := cmd.Flags().GetString("lang")
		if langName == "" {
			if langName, err = inferLanguage(args[0]); err != nil {
				return err
			}
		}
		lang, err := toolchain.ParseLanguage(langName)
		if err != nil {
			return err
		}
		flagStr, _ := cmd.Flags().GetString("flags")

		sessions, err := openSessions()
		if err != nil {
			return err
		}
		sess, err := sessions.Create(lang.SourceExt(), platform.DetectFamily().ExeSuffix())
		if err != nil {
			return err
		}
		if err := sess.WriteSource(string(source)); err != nil {
			return err
		}

		layout := toolchain.NewLayout(cfg.ToolchainDir)
		comp := toolchain.NewCompiler(&toolchain.ExecRunner{}, layout)
		res, err := comp.Compile(cmd.Context(), toolchain.CompileRequest{
			Language:   lang,
			SourcePath: sess.SourcePath,
			OutputPath: sess.ExecutablePath,
			UserFlags:  splitFlags(flagStr),
			TimeMs:     cfg.Limits.CompileTimeMs,
		})

		out := cmd.OutOrStdout()
		if res != nil && res.Diagnostics != "" {
			fmt.Fprintln(out, strings.TrimRight(res.Diagnostics, "\n"))
		}
		if err != nil {
			if errors.Is(err, toolchain.ErrCompileFailed) {
				return fmt.Errorf("compilation failed")
			}
			return err
		}
		fmt.Fprintf(out, "%s\n", res.ExecutablePath)
		return nil
	},
}

func init() {
	compileCmd.Flags().String("lang", "", "source language: c or cpp (default: inferred from extension)")
	compileCmd.Flags().String("flags", "", "extra compiler flags, space separated")
}
