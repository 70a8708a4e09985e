package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/anthon-sd/ab-test-toolkit/internal/analytics"
	"github.com/anthon-sd/ab-test-toolkit/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the abkit HTTP server.

The server provides:
  - POST /api/sample-size, /api/runtime, /api/significance, /api/volatility
  - GET /health
  - GET /metrics (Prometheus)

Example:
  abkit serve --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics, err := analytics.NewMetrics(reg)
			if err != nil {
				return fmt.Errorf("failed to register metrics: %w", err)
			}

			srv := server.New(a.cfg, server.Deps{
				Logger:   a.log,
				Observer: analytics.Multi(a.observer, metrics),
				Gatherer: reg,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "abkit running on http://localhost:%d\n", a.cfg.Server.Port)
			fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on (default from config or ABKIT_PORT)")
	return cmd
}
