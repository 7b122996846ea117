package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voicesticker/voicesticker-bot/internal/bot"
	"github.com/voicesticker/voicesticker-bot/internal/config"
)

func newStartCmd(verbose bool, version string, buildTime string) *cobra.Command {
	return &cobra.Command{
		Use:          "start [config.toml]",
		Short:        "Start the sticker bot",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile := "./config.toml"
			if len(args) > 0 {
				configFile = args[0]
			}
			return run(verbose, configFile, version, buildTime)
		},
	}
}

func run(verbose bool, configFile string, version string, buildTime string) error {
	// Bootstrap logger for the config loading phase; the real one is
	// built from config inside StartBot.
	tempLogger, _ := zap.NewProduction()
	defer tempLogger.Sync()

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		tempLogger.Error("Config file does not exist", zap.String("path", configFile))
		return err
	}
	tempLogger.Info("Loading config", zap.String("path", configFile))

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		tempLogger.Error("Failed to load config", zap.Error(err))
		return err
	}

	if err := config.ValidateConfig(cfg); err != nil {
		tempLogger.Error("Config validation failed", zap.Error(err))
		return err
	}

	if verbose {
		config.PrintConfig(cfg)
	}

	return bot.StartBot(cfg, version, buildTime)
}
