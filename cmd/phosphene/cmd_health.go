package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aixiera/phosphene-web/cmd/phosphene/internal/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// healthTimeout applies when no request timeout is configured
const healthTimeout = 5 * time.Second

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			if err := utils.InitConsoleLogger(cfg.LogLevel, opts.verbose); err != nil {
				return err
			}
			defer utils.Sync()

			timeout := cfg.Timeout
			if timeout == 0 {
				timeout = healthTimeout
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client := cfg.NewClient()
			health, err := client.Simulator.Health(ctx)
			if err != nil {
				utils.Logger().Debug("Health check failed", zap.Error(err))
				return fmt.Errorf("backend at %s is unreachable: %w", client.GetBaseURL(), err)
			}
			if !health.OK {
				return fmt.Errorf("backend at %s reported not ok", client.GetBaseURL())
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ok %s\n", client.GetBaseURL())
			return nil
		},
	}
}
