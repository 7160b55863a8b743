package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bodul/strands/internal/config"
	"github.com/bodul/strands/internal/logx"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var mainCommand = &cobra.Command{
	Use:          "strands",
	Short:        "Strands puzzle solver front-end",
	SilenceUsage: true,
}

func init() {
	mainCommand.PersistentFlags().StringVarP(&configPath, "config", "c", "", "set configuration file path (HCL)")
	mainCommand.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	mainCommand.PersistentFlags().StringVar(&logFormat, "log-format", "", "override log format (console, json)")
}

func main() {
	if err := mainCommand.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger for a command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	return cfg, logx.New(cfg.Log.Level, cfg.Log.Format, os.Stderr), nil
}
