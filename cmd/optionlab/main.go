package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rzzdr/option-scenario-engine/config"
	"github.com/rzzdr/option-scenario-engine/internal/app"
	"github.com/rzzdr/option-scenario-engine/internal/render"
	"github.com/rzzdr/option-scenario-engine/pkg/utils/logger"
)

// session is what every subcommand runs against
type session struct {
	*app.Components
	renderer *render.TableRenderer
}

func newRootCmd() *cobra.Command {
	s := &session{renderer: render.NewTableRenderer()}
	var configPath string

	root := &cobra.Command{
		Use:           "optionlab",
		Short:         "Price options, build PnL scenario grids and bootstrap forward vols",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			// the CLI writes results to stdout, keep logs quiet unless asked
			level := cfg.App.LogLevel
			if !cmd.Flags().Changed("verbose") {
				level = "warn"
			}
			logger.Init(level, cfg.App.Environment)

			s.Components, err = app.New(cfg)
			return err
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", config.GetConfigPath(), "Path to configuration file")
	root.PersistentFlags().Bool("verbose", false, "Log at the configured level instead of warn")

	root.AddCommand(
		newPriceCmd(s),
		newGreeksCmd(s),
		newScenarioCmd(s),
		newForwardVolCmd(s),
		newRateCmd(s),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
