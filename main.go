package main

import (
	"os"

	"voicecmd/config"
	"voicecmd/engine"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string

	// logger writes operational messages to stderr; command output goes to stdout
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "voicecmd",
	})
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "voicecmd",
	Short:         "Match spoken phrases to commands and run them",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to database file (overrides config)")
}

func loadConfig() (config.Config, error) {
	loaded, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	cfg := loaded.Config
	if dbPath != "" {
		cfg.Database = dbPath
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	logger.SetLevel(level)

	for _, w := range loaded.Warnings {
		if loaded.Exists {
			logger.Warn(w.Message)
		} else {
			logger.Debug(w.Message)
		}
	}
	return cfg, nil
}

func openEngine() (*engine.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return engine.Open(cfg, logger)
}
