package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codestep/codestep/internal/toolchain"
)

var toolchainCmd = &cobra.Command{
	Use:   "toolchain",
	Short: "Toolchain inspection",
}

var toolchainValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the toolchain layout is complete and usable",
	RunE: func(cmd *cobra.Command, args []string) error {
		layout := toolchain.NewLayout(cfg.ToolchainDir)
		if err := toolchain.Validate(cmd.Context(), &toolchain.ExecRunner{}, layout); err != nil {
			return err
		}
		root := layout.Root
		if root == "" {
			root = "(PATH)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "toolchain ok: %s\n", root)
		return nil
	},
}

func init() {
	toolchainCmd.AddCommand(toolchainValidateCmd)
}
