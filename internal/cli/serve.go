package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the emissions HTTP API",
		Long: `Starts the HTTP API:

  GET /healthz          liveness probe
  GET /emissions        every emission record (cached)
  GET /products         per-product batch totals
  GET /products/:id     one product's batch totals

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			srv := server.New(server.Options{
				Addr:      cfg.Server.Addr,
				Emissions: a.emissions,
				Summaries: a.aggregator,
				Logger:    logger,
			})
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
