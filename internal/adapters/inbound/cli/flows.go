package cli

import (
	"encoding/json"
	"fmt"

	"github.com/axeflow/axeflow/internal/adapters/outbound/flows"
	"github.com/axeflow/axeflow/internal/adapters/outbound/tui"
	"github.com/spf13/cobra"
)

func newFlowsCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "flows",
		Short: "List and validate flow definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(opts)
			if err != nil {
				return err
			}
			all, err := flows.New().LoadDir(p.resolve(p.cfg.FlowsDir))
			if err != nil {
				return fmt.Errorf("loading flows: %w", err)
			}

			if jsonOutput {
				data, err := json.MarshalIndent(all, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling flows: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderFlows(all))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
