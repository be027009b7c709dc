package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/ladder/config"
	"github.com/rustyeddy/ladder/logger"
)

var rootCmd = &cobra.Command{
	Use:   "ladder",
	Short: "Laddered take-profit backtester and parameter optimizer",
	Long: `Ladder backtests a long-only Heikin-Ashi trend strategy over historical
bars with ATR based position sizing and a laddered take-profit, and
grid-searches its parameters.

It provides tools for:
  - Backtesting against CSV or Parquet bar files
  - Parallel grid search ranked by a chosen metric
  - Trade journals in SQLite, CSV, JSON and Org
  - Telegram notifications of closed trades and finished runs

Complete documentation is available at https://github.com/rustyeddy/ladder`,
	SilenceUsage: true,
}

var (
	cfgFile  string
	envFile  string
	logLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON, defaults when empty)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with overrides and secrets")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadConfig reads the config file, applies the environment and validates.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		if cfg, err = config.LoadFromFile(cfgFile); err != nil {
			return cfg, err
		}
	}
	cfg, err := cfg.ApplyEnv(envFile)
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logger.New(cfg.Log.Level, cfg.Log.Encoding)
}
