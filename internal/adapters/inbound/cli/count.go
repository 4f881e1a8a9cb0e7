package cli

import (
	"encoding/json"
	"fmt"

	"github.com/axeflow/axeflow/internal/adapters/outbound/report"
	"github.com/spf13/cobra"
)

func newCountCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "count [summary.csv]",
		Short: "Count URLs with outstanding issues",
		Long:  "Count the rows of a site summary CSV whose Violations column is not blank. Defaults to serve.issues_csv.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(opts)
			if err != nil {
				return err
			}
			summary := p.cfg.Serve.IssuesCSV
			if len(args) > 0 {
				summary = args[0]
			}

			count, err := report.CountIssuesFile(p.resolve(summary))
			if err != nil {
				return fmt.Errorf("counting issues: %w", err)
			}

			if jsonOutput {
				data, err := json.Marshal(map[string]int{"count": count})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
