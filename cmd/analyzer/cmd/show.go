package cmd

import (
	"io"

	"log-analyzer/internal/report"

	"github.com/spf13/cobra"
)

// RunShowCommand renders a previously exported JSON report to w.
func RunShowCommand(path string, w io.Writer) error {
	snapshot, err := report.LoadJSON(path)
	if err != nil {
		return err
	}
	return report.NewTextRenderer(w).Render(snapshot, path)
}

// setupShowCmd configures the show command.
func setupShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [report.json]",
		Short: "Render a report previously exported with --json-output",
		Long: `Print the terminal report for a JSON file written by "analyze --json-output".

Examples:
  log-analyzer show report.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunShowCommand(args[0], cmd.OutOrStdout())
		},
	}
}
