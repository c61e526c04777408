package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/aixiera/phosphene-web/cmd/phosphene/internal/utils"
	"github.com/aixiera/phosphene-web/internal/stubserver"

	"github.com/spf13/cobra"
)

func newStubBackendCmd(opts *rootOptions) *cobra.Command {
	var addr string
	var origins []string

	cmd := &cobra.Command{
		Use:   "stub-backend",
		Short: "Run a local stand-in for the simulation backend",
		Long: `Serve /health, /simulate, and /metrics with mock percepts.

The stub follows the backend's HTTP contract so the simulator can be used and
tested offline. Its output is a pixelated rendering, not a simulation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := "info"
			if cfg, err := opts.resolve(cmd); err == nil {
				level = cfg.LogLevel
			}
			if err := utils.InitConsoleLogger(level, opts.verbose); err != nil {
				return err
			}
			defer utils.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srvOpts := []stubserver.Option{stubserver.WithLogger(utils.Logger())}
			if len(origins) > 0 {
				srvOpts = append(srvOpts, stubserver.WithOrigins(origins...))
			}
			return stubserver.New(srvOpts...).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", stubserver.DefaultAddr, "Address to listen on")
	cmd.Flags().StringSliceVar(&origins, "allow-origin", nil, "Browser origins allowed by CORS (default: the web frontend origins)")

	return cmd
}
