package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/axeflow/axeflow/internal/adapters/outbound/flows"
	"github.com/axeflow/axeflow/internal/adapters/outbound/metrics"
	"github.com/axeflow/axeflow/internal/adapters/outbound/report"
	"github.com/axeflow/axeflow/internal/adapters/outbound/tui"
	"github.com/axeflow/axeflow/internal/application"
	"github.com/axeflow/axeflow/internal/domain"
	"github.com/spf13/cobra"
)

func newSitesCmd(opts *rootOptions) *cobra.Command {
	var (
		jsonOutput  bool
		metricsFile string
		refreshAxe  bool
		details     bool
	)

	cmd := &cobra.Command{
		Use:   "sites <site>",
		Short: "Scan a configured URL list",
		Long: "Scan every URL of a site listed under sites: in .axeflow.yaml. Writes a dated " +
			"HTML report and, when summary_csv is set, the per-URL summary used by the count endpoint.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(opts)
			if err != nil {
				return err
			}
			logger := opts.log()

			site, ok := p.cfg.Sites[args[0]]
			if !ok {
				return fmt.Errorf("unknown site %q (configured: %s)", args[0], siteNames(p.cfg.Sites))
			}
			urls, err := flows.LoadURLs(p.resolve(site.URLFile))
			if err != nil {
				return err
			}
			if len(urls) == 0 {
				return fmt.Errorf("no urls in %s", site.URLFile)
			}
			site.SummaryCSV = p.resolve(site.SummaryCSV)

			writer, err := report.NewHTMLWriter(p.resolve(p.cfg.ReportsDir), p.resolve(p.cfg.Template))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			br, scanner, err := openBrowser(ctx, p, refreshAxe, opts)
			if err != nil {
				return err
			}
			defer br.Close()

			svc := application.NewSiteService(br, scanner, writer, report.NewSummaryCSV(), logger.Named("sites"))
			outcome, scanErr := svc.ScanSite(ctx, site, urls)

			m := metrics.New()
			m.ObserveOutcome(outcome)
			if metricsFile != "" {
				if err := m.WriteTextfile(metricsFile); err != nil {
					logger.Warn("writing metrics textfile", "path", metricsFile, "error", err)
				}
			}

			if jsonOutput {
				data, err := json.MarshalIndent(outcome, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling outcome: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else {
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderRunSummary([]*domain.RunOutcome{outcome}))
				if details {
					printDetails(cmd, svc.Results(), []*domain.RunOutcome{outcome})
				}
			}
			return scanErr
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the outcome as JSON")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	cmd.Flags().BoolVar(&refreshAxe, "refresh-axe", false, "Download axe-core again instead of using the cache")
	cmd.Flags().BoolVar(&details, "details", false, "Print every violation per URL after the summary")

	return cmd
}

func siteNames(sites map[string]domain.SiteConfig) string {
	if len(sites) == 0 {
		return "none"
	}
	names := make([]string, 0, len(sites))
	for name := range sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
