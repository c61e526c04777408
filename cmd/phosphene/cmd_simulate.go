package main

import (
	"errors"
	"fmt"
	"path/filepath"

	phosphene "github.com/aixiera/phosphene-web"
	"github.com/aixiera/phosphene-web/cmd/phosphene/internal/utils"
	"github.com/aixiera/phosphene-web/internal/report"
	"github.com/aixiera/phosphene-web/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	var outDir, htmlPath string

	cmd := &cobra.Command{
		Use:   "simulate <image>",
		Short: "Generate all three simulations for an image and save them",
		Long: `Upload an image once and write AlphaAMS.png, ArgusII.png, and PRIMA.png.

The files go to --out, or the configured download directory. With --html an
additional self-contained report page is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			if err := utils.InitConsoleLogger(cfg.LogLevel, opts.verbose); err != nil {
				return err
			}
			defer utils.Sync()

			if outDir == "" {
				outDir = cfg.DownloadDir
			}

			upload, err := models.LoadUpload(args[0])
			if err != nil {
				return err
			}

			client := cfg.NewClient()
			utils.Logger().Info("Generating simulations",
				zap.String("file", upload.Filename),
				zap.String("api_url", client.GetBaseURL()))

			percepts, err := client.Simulator.Simulate(cmd.Context(), upload)
			if err != nil {
				utils.Logger().Error("Simulation failed", zap.Error(err))
				return errors.New(phosphene.UserMessage(err))
			}

			results := models.NewResultSet()
			if err := results.Populate(percepts); err != nil {
				utils.Logger().Error("Incomplete simulation results", zap.Error(err))
				return errors.New(phosphene.GenericFailureMessage)
			}

			paths, err := utils.SaveAll(cmd.Context(), utils.DirSaver{Dir: outDir}, results)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, path := range paths {
				fmt.Fprintln(out, path)
			}

			if htmlPath != "" {
				if err := report.WriteFile(htmlPath, report.FromResults(filepath.Base(args[0]), results)); err != nil {
					return err
				}
				fmt.Fprintln(out, htmlPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to write results to (default: download directory)")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Also write an HTML report to this path")

	return cmd
}
