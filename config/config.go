// Package config holds the immutable run configuration. A Config is a plain
// value: components receive a copy and never share mutable settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rustyeddy/ladder/errs"
	"gopkg.in/yaml.v3"
)

// Config represents the complete backtest and optimization configuration
type Config struct {
	Symbol              string  `json:"symbol" yaml:"symbol"`
	Timeframe           string  `json:"timeframe" yaml:"timeframe"`
	InitialEquity       float64 `json:"initial_equity" yaml:"initial_equity" validate:"gt=0"`
	AnnualizationFactor float64 `json:"annualization_factor,omitempty" yaml:"annualization_factor,omitempty" validate:"gte=0"`

	Strategy  StrategyConfig  `json:"strategy" yaml:"strategy"`
	Risk      RiskConfig      `json:"risk" yaml:"risk"`
	Optimizer OptimizerConfig `json:"optimizer" yaml:"optimizer"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Notify    NotifyConfig    `json:"notify" yaml:"notify"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

// StrategyConfig contains indicator lengths and signal thresholds
type StrategyConfig struct {
	Name             string  `json:"name" yaml:"name" validate:"omitempty,oneof=ha-trend heikin-ashi-trend noop none"`
	SMALength        int     `json:"sma_length" yaml:"sma_length" validate:"gt=0"`
	VolumeSMALength  int     `json:"volume_sma_length" yaml:"volume_sma_length" validate:"gt=0"`
	VolumeMultiplier float64 `json:"volume_multiplier" yaml:"volume_multiplier" validate:"gte=0"`
	ADXLength        int     `json:"adx_length" yaml:"adx_length" validate:"gt=0"`
	ADXThreshold     float64 `json:"adx_threshold" yaml:"adx_threshold" validate:"gte=0,lte=100"`
	ATRLength        int     `json:"atr_length" yaml:"atr_length" validate:"gt=0"`
	RSILength        int     `json:"rsi_length" yaml:"rsi_length" validate:"gt=0"`
	RSIEntryMin      float64 `json:"rsi_entry_min" yaml:"rsi_entry_min" validate:"gte=0,lte=100"`
	RSIEntryMax      float64 `json:"rsi_entry_max" yaml:"rsi_entry_max" validate:"gte=0,lte=100"`
	RSIExit          float64 `json:"rsi_exit" yaml:"rsi_exit" validate:"gte=0,lte=100"`
}

// TakeProfitLevel closes Fraction of the original position at
// entry + ATR × Multiplier.
type TakeProfitLevel struct {
	Multiplier float64 `json:"multiplier" yaml:"multiplier" validate:"gt=0"`
	Fraction   float64 `json:"fraction" yaml:"fraction" validate:"gt=0,lte=1"`
}

// RiskConfig contains position sizing parameters
type RiskConfig struct {
	RiskPerTrade     float64           `json:"risk_per_trade" yaml:"risk_per_trade" validate:"gt=0,lte=100"` // percent of equity
	StopMultiplier   float64           `json:"stop_multiplier" yaml:"stop_multiplier" validate:"gt=0"`
	TakeProfitLevels []TakeProfitLevel `json:"take_profit_levels" yaml:"take_profit_levels" validate:"dive"`
}

// OptimizerConfig contains grid search parameters
type OptimizerConfig struct {
	Workers   int                  `json:"workers" yaml:"workers" validate:"gte=0"` // 0 = one per CPU
	Objective string               `json:"objective" yaml:"objective"`
	TopN      int                  `json:"top_n" yaml:"top_n" validate:"gte=0"`
	Grid      map[string][]float64 `json:"grid,omitempty" yaml:"grid,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type             string `json:"type" yaml:"type" validate:"omitempty,oneof=csv sqlite none"`
	TradesFile       string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile       string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath           string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	OptimizationFile string `json:"optimization_file,omitempty" yaml:"optimization_file,omitempty"`
	ResultFile       string `json:"result_file,omitempty" yaml:"result_file,omitempty"`
}

// NotifyConfig contains Telegram settings. The token is only read from the
// environment.
type NotifyConfig struct {
	TelegramToken string  `json:"-" yaml:"-"`
	ChatID        string  `json:"chat_id,omitempty" yaml:"chat_id,omitempty"`
	RatePerSecond float64 `json:"rate_per_second,omitempty" yaml:"rate_per_second,omitempty" validate:"gte=0"`
	BaseURL       string  `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
}

// Enabled reports whether notifications can be delivered.
func (n NotifyConfig) Enabled() bool {
	return n.TelegramToken != "" && n.ChatID != ""
}

// LogConfig contains logger settings
type LogConfig struct {
	Level    string `json:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Encoding string `json:"encoding" yaml:"encoding" validate:"omitempty,oneof=json console"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns a configuration with sensible defaults
func Default() Config {
	return Config{
		Symbol:        "BTC/USDT",
		Timeframe:     "1h",
		InitialEquity: 10000,
		Strategy: StrategyConfig{
			Name:             "ha-trend",
			SMALength:        50,
			VolumeSMALength:  20,
			VolumeMultiplier: 1.0,
			ADXLength:        14,
			ADXThreshold:     25,
			ATRLength:        14,
			RSILength:        14,
			RSIEntryMin:      50,
			RSIEntryMax:      70,
			RSIExit:          80,
		},
		Risk: RiskConfig{
			RiskPerTrade:   1,
			StopMultiplier: 2,
			TakeProfitLevels: []TakeProfitLevel{
				{Multiplier: 1.5, Fraction: 0.3},
				{Multiplier: 3.0, Fraction: 0.3},
				{Multiplier: 5.0, Fraction: 0.4},
			},
		},
		Optimizer: OptimizerConfig{
			Objective: "sharpe_ratio",
			TopN:      10,
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
		Notify: NotifyConfig{
			RatePerSecond: 1,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.Risk.TakeProfitLevels = slices.Clone(c.Risk.TakeProfitLevels)
	if c.Optimizer.Grid != nil {
		out.Optimizer.Grid = make(map[string][]float64, len(c.Optimizer.Grid))
		for k, v := range c.Optimizer.Grid {
			out.Optimizer.Grid[k] = slices.Clone(v)
		}
	}
	return out
}

// LoadFromFile loads configuration from a file, trying YAML first and
// falling back to JSON. Fields missing from the file keep their defaults;
// lists in the file replace the default lists.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, &cfg); jerr != nil {
			return Config{}, fmt.Errorf("%w: parse config (tried YAML and JSON): %v", errs.ErrConfiguration, jerr)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file, YAML for .yaml/.yml and JSON
// otherwise.
func (c Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks field ranges and cross-field rules. Every failure wraps
// errs.ErrConfiguration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrConfiguration, err)
	}

	s := c.Strategy
	if s.RSIEntryMin > s.RSIEntryMax {
		return fmt.Errorf("%w: strategy.rsi_entry_min %.2f above rsi_entry_max %.2f",
			errs.ErrConfiguration, s.RSIEntryMin, s.RSIEntryMax)
	}

	sum := 0.0
	for _, l := range c.Risk.TakeProfitLevels {
		sum += l.Fraction
	}
	if sum > 1+1e-9 {
		return fmt.Errorf("%w: risk.take_profit_levels fractions sum to %.4f, more than 1",
			errs.ErrConfiguration, sum)
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("%w: journal trades_file and equity_file required for CSV type", errs.ErrConfiguration)
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("%w: journal db_path required for SQLite type", errs.ErrConfiguration)
		}
	}
	return nil
}
