package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/axeflow/axeflow/internal/adapters/inbound/web"
	"github.com/axeflow/axeflow/internal/adapters/outbound/metrics"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the issue count API and report summary page",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(opts)
			if err != nil {
				return err
			}
			if addr != "" {
				p.cfg.Serve.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := web.NewServer(p.path, p.cfg, metrics.New(), opts.log().Named("web"))
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides serve.addr)")
	return cmd
}
