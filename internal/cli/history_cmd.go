package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		d, err := openHistory()
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("history is disabled in the config")
		}
		defer d.Close()

		runs, err := d.ListRuns(limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLANG\tSTATUS\tSTEPS\tWARN\tTOTAL\tCREATED")
		for _, r := range runs {
			id := r.ID
			if len(id) > 8 {
				id = id[:8]
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%dms\t%s\n",
				id, r.Language, r.Status, r.StepCount, r.WarningCount, r.TotalMs, r.CreatedAt)
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one recorded run (a unique ID prefix works)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openHistory()
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("history is disabled in the config")
		}
		defer d.Close()

		r, err := d.GetRun(args[0])
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("run %q not found", args[0])
		}
		return printJSON(cmd.OutOrStdout(), r)
	},
}

var historyResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate the history store (destructive!)",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openHistory()
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("history is disabled in the config")
		}
		defer d.Close()
		if err := d.Reset(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "history store reset")
		return nil
	},
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyResetCmd)
}
