package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/ladder/backtest"
	"github.com/rustyeddy/ladder/config"
	"github.com/rustyeddy/ladder/journal"
	"github.com/rustyeddy/ladder/market"
	"github.com/rustyeddy/ladder/notify"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run one backtest with the configured parameters",
	Long: `Backtest runs the strategy once over a bar file and journals the result.

Bars are read from CSV (time,open,high,low,close,volume) or Parquet,
chosen by file extension. Trades and equity go to the journal named in the
config, the summary and metrics to stdout.

Example:
  ladder backtest -c ladder.yaml -d data/btcusdt-1h.csv --org run.org`,
	RunE: runBacktest,
}

var (
	btDataPath string
	btSymbol   string
	btTimefr   string
	btOrgPath  string
	btJSONPath string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btDataPath, "data", "d", "", "path to bar file, .csv or .parquet (required)")
	backtestCmd.Flags().StringVarP(&btSymbol, "symbol", "s", "", "override config symbol")
	backtestCmd.Flags().StringVarP(&btTimefr, "timeframe", "t", "", "override config timeframe")
	backtestCmd.Flags().StringVar(&btOrgPath, "org", "", "write an Org-mode report to this path")
	backtestCmd.Flags().StringVar(&btJSONPath, "json", "", "write the result as JSON (overrides journal.result_file)")

	backtestCmd.MarkFlagRequired("data")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if btSymbol != "" {
		cfg.Symbol = btSymbol
	}
	if btTimefr != "" {
		cfg.Timeframe = btTimefr
	}
	if btJSONPath != "" {
		cfg.Journal.ResultFile = btJSONPath
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	bs, err := market.Load(btDataPath, cfg.Symbol, cfg.Timeframe)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}

	tg := notify.New(cfg.Notify, log)
	defer closeNotifier(tg, log)

	eng, err := backtest.NewEngine(cfg,
		backtest.WithLogger(log),
		backtest.WithSink(tg),
	)
	if err != nil {
		return err
	}

	fmt.Printf("Running backtest: %s %s (%d bars)\n", bs.Symbol, bs.Timeframe, bs.Len())
	fmt.Printf("  Data: %s\n", btDataPath)
	fmt.Printf("  Journal: %s\n\n", cfg.Journal.Type)

	res, err := eng.Run(cmd.Context(), bs)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	if err := journalResult(cfg, res); err != nil {
		return err
	}
	if btOrgPath != "" {
		trades := make([]journal.TradeRecord, 0, len(res.Trades))
		for _, t := range res.Trades {
			trades = append(trades, journal.NewTradeRecord(res.RunID, res.Symbol, t))
		}
		if err := journal.WriteRunOrg(btOrgPath, journal.NewRunRecord(res), trades); err != nil {
			return fmt.Errorf("write org: %w", err)
		}
	}

	printResult(res)
	return nil
}

// openJournal returns nil when journaling is off.
func openJournal(cfg config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	}
	return nil, nil
}

func journalResult(cfg config.Config, res *backtest.Result) error {
	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if j != nil {
		if err := journal.Record(j, res); err != nil {
			j.Close()
			return err
		}
		if err := j.Close(); err != nil {
			return err
		}
	}

	if cfg.Journal.ResultFile != "" {
		fh, err := os.Create(cfg.Journal.ResultFile)
		if err != nil {
			return err
		}
		if err := journal.WriteResultJSON(fh, res); err != nil {
			fh.Close()
			return err
		}
		return fh.Close()
	}
	return nil
}

func closeNotifier(tg *notify.Telegram, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := tg.Close(ctx); err != nil {
		log.Warn("notifications not delivered", zap.Error(err))
	}
}

func printResult(res *backtest.Result) {
	m := res.Metrics
	fmt.Printf("Backtest Complete! run %s\n", res.RunID)
	fmt.Printf("  Period: %s .. %s\n", res.Start.Format(time.RFC3339), res.End.Format(time.RFC3339))
	fmt.Printf("  Trades: %d (ignored signals: %d)\n", len(res.Trades), res.Ignored)
	fmt.Printf("  Final Equity: $%.2f\n", m[backtest.MetricFinalEquity])
	fmt.Printf("  Total P/L: $%.2f (%.2f%%)\n", m[backtest.MetricTotalPnL], m[backtest.MetricTotalReturn]*100)
	fmt.Printf("  Win Rate: %.2f%%\n", m[backtest.MetricWinRate]*100)
	fmt.Printf("  Profit Factor: %.2f\n", m[backtest.MetricProfitFactor])
	fmt.Printf("  Max Drawdown: %.2f%%\n", m[backtest.MetricMaxDrawdown]*100)
	fmt.Printf("  Sharpe: %.3f  Sortino: %.3f  Calmar: %.3f\n",
		m[backtest.MetricSharpe], m[backtest.MetricSortino], m[backtest.MetricCalmar])
}
