package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/ladder/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files for backtests and optimizations.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  ladder config init -o ladder.yaml
  ladder config validate -f ladder.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings.
The format follows the extension: .json writes JSON, anything else YAML.

Example:
  ladder config init -o ladder.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded.

Example:
  ladder config validate -f ladder.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "ladder.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  ladder backtest -c %s -d bars.csv\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("✓ Configuration valid: %s\n", configValidatePath)
	fmt.Printf("  Market: %s %s ($%.2f)\n", cfg.Symbol, cfg.Timeframe, cfg.InitialEquity)
	fmt.Printf("  Strategy: %s (Risk: %.2f%%, Stop: %.1f ATR)\n", strategyName(cfg), cfg.Risk.RiskPerTrade, cfg.Risk.StopMultiplier)
	for i, tp := range cfg.Risk.TakeProfitLevels {
		fmt.Printf("  TP%d: %.2f ATR closes %.0f%%\n", i+1, tp.Multiplier, tp.Fraction*100)
	}
	fmt.Printf("  Journal: %s\n", cfg.Journal.Type)
	if len(cfg.Optimizer.Grid) > 0 {
		fmt.Printf("  Grid: %d parameters\n", len(cfg.Optimizer.Grid))
	}
	return nil
}

func strategyName(cfg config.Config) string {
	if cfg.Strategy.Name == "" {
		return "ha-trend"
	}
	return cfg.Strategy.Name
}
