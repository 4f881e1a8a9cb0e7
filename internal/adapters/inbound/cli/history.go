package cli

import (
	"encoding/json"
	"fmt"

	"github.com/axeflow/axeflow/internal/adapters/outbound/history"
	"github.com/axeflow/axeflow/internal/adapters/outbound/tui"
	"github.com/axeflow/axeflow/internal/domain"
	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		jsonOutput bool
		page       string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(opts)
			if err != nil {
				return err
			}
			entries, err := history.New().Load(p.path)
			if err != nil {
				return fmt.Errorf("loading history: %w", err)
			}
			if page != "" {
				entries = history.ForPage(entries, page)
			}
			entries = history.Last(entries, limit)

			if jsonOutput {
				if entries == nil {
					entries = []domain.RunEntry{}
				}
				data, err := json.MarshalIndent(entries, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling history: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderHistory(entries))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&page, "page", "", "Only show runs of this page")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show (0 for all)")
	return cmd
}
