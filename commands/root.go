// Package commands is the command-line surface: it loads configuration,
// wires the pipeline and hands results to the presenter.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"fipe-garimpo/config"
	"fipe-garimpo/utils"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:          "fipe-garimpo",
	Short:        "fipe-garimpo finds used-car listings priced below their FIPE reference value.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "json5 file overlaid on the environment configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads .env and the environment, overlays --config and
// validates the result.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if configPath != "" {
		var err error
		cfg, err = config.LoadFile(cfg, configPath)
		if err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger() *utils.Logger {
	level := utils.LevelInfo
	if verbose {
		level = utils.LevelDebug
	}
	return utils.NewLoggerTo(os.Stderr, os.Stderr, level)
}
