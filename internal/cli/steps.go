package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codestep/codestep/internal/platform"
	"github.com/codestep/codestep/internal/steps"
	"github.com/codestep/codestep/internal/trace"
)

var stepsCmd = &cobra.Command{
	Use:   "steps <trace.json>",
	Short: "Convert an existing trace artifact into a step sequence",
	Long: `steps parses a trace artifact produced by an earlier run and converts it
into the step sequence, without compiling or executing anything. Useful for
re-inspecting old sessions and for debugging the conversion itself.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deterministic, _ := cmd.Flags().GetBool("deterministic")
		format, _ := cmd.Flags().GetString("format")

		parsed, err := trace.ParseFile(args[0])
		if err != nil {
			return err
		}

		engine := steps.NewEngine(platform.NewClock(deterministic))
		converted := engine.Convert(parsed.Events)

		if format == "json" {
			return printJSON(cmd.OutOrStdout(), converted)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "events: %d (skipped %d)", len(parsed.Events), parsed.Skipped)
		if parsed.Truncated {
			fmt.Fprint(out, "  [truncated artifact]")
		}
		fmt.Fprintln(out)
		for _, w := range parsed.Warnings {
			fmt.Fprintf(out, "parser warning: %s\n", w)
		}
		for _, w := range converted.Warnings {
			fmt.Fprintf(out, "engine warning: %s\n", w)
		}
		for _, s := range converted.Steps {
			line := fmt.Sprintf("%4d  %s", s.StepIndex, s.EventType)
			if s.LoopID != 0 {
				line += fmt.Sprintf("  loop=%d", s.LoopID)
			}
			if s.Iteration != nil {
				line += fmt.Sprintf("  iteration=%d", *s.Iteration)
			}
			if len(s.Events) > 0 {
				line += fmt.Sprintf("  events=%d", len(s.Events))
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	stepsCmd.Flags().Bool("deterministic", true, "derive step timestamps from the emission counter")
	stepsCmd.Flags().String("format", "text", "output format: text or json")
}
