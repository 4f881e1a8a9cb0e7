package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/axeflow/axeflow/internal/adapters/outbound/axesource"
	"github.com/axeflow/axeflow/internal/adapters/outbound/browser"
	"github.com/axeflow/axeflow/internal/adapters/outbound/flows"
	"github.com/axeflow/axeflow/internal/adapters/outbound/gitinfo"
	"github.com/axeflow/axeflow/internal/adapters/outbound/history"
	"github.com/axeflow/axeflow/internal/adapters/outbound/metrics"
	"github.com/axeflow/axeflow/internal/adapters/outbound/report"
	"github.com/axeflow/axeflow/internal/adapters/outbound/tui"
	"github.com/axeflow/axeflow/internal/application"
	"github.com/axeflow/axeflow/internal/domain"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		jsonOutput   bool
		concurrency  int
		format       string
		metricsFile  string
		failOnIssues bool
		refreshAxe   bool
		details      bool
	)

	cmd := &cobra.Command{
		Use:   "run [page...]",
		Short: "Run flows and write accessibility reports",
		Long: "Run every flow in the flows directory, or only the named pages. Each step is " +
			"followed by an axe-core scan; one report is written per page with violations.",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(opts)
			if err != nil {
				return err
			}
			logger := opts.log()

			if format != "" {
				p.cfg.Format = domain.ReportFormat(format)
				if err := p.cfg.Validate(); err != nil {
					return err
				}
			}
			if concurrency > 0 {
				p.cfg.Concurrency = concurrency
			}

			all, err := flows.New().LoadDir(p.resolve(p.cfg.FlowsDir))
			if err != nil {
				return fmt.Errorf("loading flows: %w", err)
			}
			selected, err := flows.Select(all, args)
			if err != nil {
				return err
			}
			if len(selected) == 0 {
				return fmt.Errorf("no flows found in %s", p.resolve(p.cfg.FlowsDir))
			}

			writer, err := report.New(p.cfg.Format, p.resolve(p.cfg.ReportsDir), p.resolve(p.cfg.Template))
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

			m := metrics.New()
			svc := application.NewRunService(br, scanner, writer, history.New(), gitinfo.New(), m, logger.Named("run"))
			outcomes, runErr := svc.RunFlows(ctx, p.path, selected, p.cfg.Concurrency)
			for _, o := range outcomes {
				m.ObserveOutcome(o)
			}

			if metricsFile != "" {
				if err := m.WriteTextfile(metricsFile); err != nil {
					logger.Warn("writing metrics textfile", "path", metricsFile, "error", err)
				}
			}

			if jsonOutput {
				data, err := json.MarshalIndent(outcomes, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling outcomes: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else {
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderRunSummary(outcomes))
				if details {
					printDetails(cmd, svc.Results(), outcomes)
				}
			}

			if runErr != nil {
				return runErr
			}
			if failOnIssues {
				return issuesError(outcomes)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output outcomes as JSON")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Flows to run at once (overrides config)")
	cmd.Flags().StringVar(&format, "format", "", "Report format: csv or html (overrides config)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	cmd.Flags().BoolVar(&failOnIssues, "fail-on-issues", false, "Exit non-zero when any page has violations")
	cmd.Flags().BoolVar(&refreshAxe, "refresh-axe", false, "Download axe-core again instead of using the cache")
	cmd.Flags().BoolVar(&details, "details", false, "Print every violation per step after the summary")

	return cmd
}

// printDetails renders the recorded steps of each page, including partial runs.
func printDetails(cmd *cobra.Command, results *domain.TestRunContext, outcomes []*domain.RunOutcome) {
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		if run, ok := results.Get(o.Page); ok {
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderPageRun(run))
		}
	}
}

// openBrowser loads axe-core and launches the browser. The caller closes the browser.
func openBrowser(ctx context.Context, p *project, refresh bool, opts *rootOptions) (*browser.Browser, *browser.AxeScanner, error) {
	logger := opts.log()

	src := axesource.New(p.path, p.cfg.Axe, logger.Named("axe"))
	if refresh {
		if err := src.Refresh(); err != nil {
			return nil, nil, fmt.Errorf("clearing axe-core cache: %w", err)
		}
	}
	script, err := src.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading axe-core: %w", err)
	}

	br, err := browser.Launch(ctx, p.cfg.Browser, p.cfg.Settle, logger.Named("browser"))
	if err != nil {
		return nil, nil, fmt.Errorf("launching browser: %w", err)
	}
	return br, browser.NewAxeScanner(script, p.cfg.Axe.Tags, p.cfg.Browser.ActionTimeout), nil
}

var errIssuesFound = errors.New("accessibility issues found")

func issuesError(outcomes []*domain.RunOutcome) error {
	total := 0
	for _, o := range outcomes {
		if o != nil {
			total += o.Violations
		}
	}
	if total > 0 {
		return fmt.Errorf("%w: %d violation(s)", errIssuesFound, total)
	}
	return nil
}
