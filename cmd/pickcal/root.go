package main

import (
	"github.com/spf13/cobra"

	"pickcal/internal/config"
	appLog "pickcal/internal/log"
)

// rootFlags holds values shared by every subcommand.
type rootFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:           "pickcal",
		Short:         "Month grids and date selection for calendar pickers",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "/etc/pickcal/config.yaml", "Path to config file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (overrides config if set)")

	cmd.AddCommand(newGridCmd(&flags))
	cmd.AddCommand(newReplayCmd(&flags))
	cmd.AddCommand(newServeCmd(&flags))
	return cmd
}

// loadConfig loads the config file and applies the log level. A config that
// could not be written on first run is still usable.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		if cfg == nil {
			return nil, err
		}
		appLog.Error("config not persisted; continuing with defaults", err, "config_path", flags.configPath)
		cfg.Normalize()
	}

	level := cfg.LogLevel
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(level))
	return cfg, nil
}
