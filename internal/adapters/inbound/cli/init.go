package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/axeflow/axeflow/internal/adapters/outbound/config"
	"github.com/axeflow/axeflow/internal/domain"
	"github.com/spf13/cobra"
)

const exampleFlowName = "example.yaml"

func newInitCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Generate a .axeflow.yaml configuration file",
		Long:  "Create a .axeflow.yaml with sensible defaults and an example flow to start from.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.projectPath
			if len(args) > 0 {
				path = args[0]
			}

			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			dest := filepath.Join(absPath, config.FileName)

			if !force {
				if _, err := os.Stat(dest); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", config.FileName)
				}
			}

			f := domain.ReportFormat(format)
			if f != domain.FormatCSV && f != domain.FormatHTML {
				return fmt.Errorf("unknown format %q (valid: csv, html)", format)
			}

			if err := os.WriteFile(dest, []byte(generateConfig(f)), 0644); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", config.FileName)

			flowPath := filepath.Join(absPath, domain.DefaultFlowsDir, exampleFlowName)
			if _, err := os.Stat(flowPath); os.IsNotExist(err) {
				if err := os.MkdirAll(filepath.Dir(flowPath), 0755); err != nil {
					return fmt.Errorf("creating flows dir: %w", err)
				}
				if err := os.WriteFile(flowPath, []byte(exampleFlow), 0644); err != nil {
					return fmt.Errorf("writing example flow: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", filepath.Join(domain.DefaultFlowsDir, exampleFlowName))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Report format (csv, html)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing .axeflow.yaml")

	return cmd
}

func generateConfig(f domain.ReportFormat) string {
	cfg := domain.DefaultConfig()

	return fmt.Sprintf(`# axeflow configuration

reports_dir: %s
flows_dir: %s
format: %s
concurrency: %d

settle:
  mode: %s
  timeout: %s

browser:
  user_agent: %q
  viewport_width: %d
  viewport_height: %d

axe:
  url: %s
  # tags: [wcag2a, wcag2aa]

serve:
  addr: %q
  issues_csv: %s

# sites:
#   council:
#     url_file: urls.txt
#     summary_csv: %s
`,
		cfg.ReportsDir, cfg.FlowsDir, f, cfg.Concurrency,
		cfg.Settle.Mode, cfg.Settle.Timeout,
		cfg.Browser.UserAgent, cfg.Browser.ViewportW, cfg.Browser.ViewportH,
		cfg.Axe.URL,
		cfg.Serve.Addr, cfg.Serve.IssuesCSV,
		cfg.Serve.IssuesCSV,
	)
}

const exampleFlow = `page: example
description: Landing page and search
steps:
  - name: landing
    actions:
      - action: goto
        value: https://example.org/
  - name: search
    actions:
      - action: fill
        target: {role: searchbox}
        value: rates
        optional: true
      - action: press
        target: {role: searchbox}
        value: Enter
        optional: true
`
