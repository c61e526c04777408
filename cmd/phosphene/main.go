package main

import (
	"fmt"
	"os"
	"time"

	"github.com/aixiera/phosphene-web/cmd/phosphene/internal/config"
	"github.com/aixiera/phosphene-web/cmd/phosphene/internal/ui/components"
	"github.com/aixiera/phosphene-web/cmd/phosphene/internal/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// rootOptions holds the global flags. Flags override the environment and the settings file
type rootOptions struct {
	apiURL      string
	downloadDir string
	timeout     time.Duration
	verbose     bool
}

// resolve loads the configuration and applies any flags the user set
func (o *rootOptions) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = o.apiURL
	}
	if flags.Changed("download-dir") {
		cfg.DownloadDir = o.downloadDir
	}
	if flags.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "phosphene [image]",
		Short: "Phosphene Vision Simulator",
		Long: `Preview how a photo is perceived through the AlphaAMS, ArgusII, and PRIMA retinal implants.

Run without a subcommand to open the interactive simulator, optionally with an image preselected.
The simulations are produced by a remote backend; see 'phosphene stub-backend' for a local one.`,
		Version:       components.VersionString(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}

			// The view owns the terminal, so logs go to the debug file
			if err := utils.InitLogger(cfg.LogLevel); err != nil {
				return err
			}
			defer utils.Sync()

			var initialFile string
			if len(args) == 1 {
				initialFile = args[0]
			}

			p := tea.NewProgram(newModel(cfg, initialFile), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("could not run program: %w", err)
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api-url", "", "Backend base URL (or set PHOSPHENE_API_URL)")
	flags.StringVar(&opts.downloadDir, "download-dir", "", "Directory downloads are written to (or set PHOSPHENE_DOWNLOAD_DIR)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Request timeout, 0 for none (or set PHOSPHENE_TIMEOUT)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newSimulateCmd(opts))
	rootCmd.AddCommand(newHealthCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newStubBackendCmd(opts))

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
