package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/lineup-planner/internal/app"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the planner HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			env, err := opts.load(ctx)
			if err != nil {
				return err
			}
			if listen != "" {
				env.cfg.Listen = listen
			}

			return app.NewServer(env.catalog, env.export).ListenAndServe(ctx, env.cfg.Listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (overrides the config)")
	return cmd
}
