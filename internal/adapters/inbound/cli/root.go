package cli

import (
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// rootOptions carries the persistent flags shared by every subcommand.
type rootOptions struct {
	projectPath string
	logLevel    string
	logger      hclog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "axeflow",
		Short: "Accessibility testing for multi-step forms",
		Long: "axeflow walks declarative flows through real pages in a headless browser, " +
			"runs axe-core after every step and writes one report per page.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger = hclog.New(&hclog.LoggerOptions{
				Name:   "axeflow",
				Level:  hclog.LevelFromString(opts.logLevel),
				Output: cmd.ErrOrStderr(),
			})
		},
	}

	cmd.PersistentFlags().StringVar(&opts.projectPath, "path", ".", "Project path containing .axeflow.yaml")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newInitCmd(opts))
	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newSitesCmd(opts))
	cmd.AddCommand(newCountCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newFlowsCmd(opts))
	cmd.AddCommand(newMCPCmd(opts))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}
