// Package cli wires the codestep commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codestep/codestep/internal/config"
	"github.com/codestep/codestep/internal/logging"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var (
	cfgPath  string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "codestep",
	Short: "codestep — compile, trace, and step through small C/C++ programs",
	Long: `codestep compiles a C or C++ program with compiler-inserted instrumentation,
runs it under resource limits, and converts the emitted execution trace into
an ordered step sequence for visualization.

Configuration is read from ./codestep.yaml or ~/.codestep/config.yaml; run
artifacts live under ~/.codestep/sessions and run history in
~/.codestep/history.db.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgPath != "" {
			cfg, err = config.Load(cfgPath)
		} else {
			cfg, err = config.LoadDefault()
		}
		if err != nil {
			return err
		}
		if errs := config.Validate(cfg); len(errs) > 0 {
			return fmt.Errorf("invalid config: %v", errs[0])
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		_, _, err = logging.Setup(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
		return err
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(stepsCmd)
	rootCmd.AddCommand(toolchainCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}
