package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/strata/internal/server"
	"github.com/matzehuels/strata/pkg/config"
)

// serveCommand creates the serve command, which runs the HTTP API until
// interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP",
		Long: `Serve the layout API over HTTP.

Routes:
  POST /v1/layout     lay out a graph document synchronously
  POST /v1/jobs       queue a graph document for layout
  GET  /v1/jobs/{id}  poll a queued layout
  GET  /healthz       liveness probe

Settings come from the [server] section of the configuration file and from
STRATA_SERVER_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config()
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("workers") {
				cfg.Server.Workers = workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent layouts (default from config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg *config.Config) error {
	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := server.New(runner, cfg.Server, cfg.Layout.Label(), c.Logger)

	printInfo("Serving on %s", StyleHighlight.Render(cfg.Server.Addr))
	return srv.ListenAndServe(ctx)
}
