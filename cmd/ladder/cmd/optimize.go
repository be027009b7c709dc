package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/ladder/config"
	"github.com/rustyeddy/ladder/journal"
	"github.com/rustyeddy/ladder/market"
	"github.com/rustyeddy/ladder/optimizer"
	"github.com/rustyeddy/ladder/pkg/id"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Grid-search strategy parameters",
	Long: `Optimize backtests every combination of the parameter grid in parallel
and ranks the results by the objective metric.

The grid comes from optimizer.grid in the config; --param adds or replaces
one axis. Ctrl-C stops scheduling and reports the completed runs.

Example:
  ladder optimize -c ladder.yaml -d data/btcusdt-1h.csv \
    -p sma_length=20,50,100 -p adx_threshold=20,25,30 -w 4 -o results.csv`,
	RunE: runOptimize,
}

var (
	optDataPath  string
	optParams    []string
	optWorkers   int
	optObjective string
	optTopN      int
	optOutput    string
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringVarP(&optDataPath, "data", "d", "", "path to bar file, .csv or .parquet (required)")
	optimizeCmd.Flags().StringArrayVarP(&optParams, "param", "p", nil, "grid axis as name=v1,v2,... (repeatable)")
	optimizeCmd.Flags().IntVarP(&optWorkers, "workers", "w", -1, "concurrent backtests (0 = one per CPU, default from config)")
	optimizeCmd.Flags().StringVar(&optObjective, "objective", "", "metric to rank by (default from config)")
	optimizeCmd.Flags().IntVar(&optTopN, "top", -1, "results to print (default from config)")
	optimizeCmd.Flags().StringVarP(&optOutput, "output", "o", "", "CSV of all results (overrides journal.optimization_file)")

	optimizeCmd.MarkFlagRequired("data")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if optWorkers >= 0 {
		cfg.Optimizer.Workers = optWorkers
	}
	if optObjective != "" {
		cfg.Optimizer.Objective = optObjective
	}
	if optTopN >= 0 {
		cfg.Optimizer.TopN = optTopN
	}
	if optOutput != "" {
		cfg.Journal.OptimizationFile = optOutput
	}

	grid := optimizer.Grid{}
	for k, vs := range cfg.Optimizer.Grid {
		grid[k] = vs
	}
	for _, p := range optParams {
		name, vs, err := parseAxis(p)
		if err != nil {
			return err
		}
		grid[name] = vs
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	bs, err := market.Load(optDataPath, cfg.Symbol, cfg.Timeframe)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}

	fmt.Printf("Optimizing %s %s over %d combinations (%d bars)\n", bs.Symbol, bs.Timeframe, grid.Size(), bs.Len())

	opt := optimizer.FromConfig(cfg, log)
	rep, err := opt.Run(cmd.Context(), bs, grid)
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}

	if err := saveReport(cfg, rep, log); err != nil {
		return err
	}
	printReport(rep)
	return nil
}

// parseAxis parses "name=v1,v2,...".
func parseAxis(s string) (string, []float64, error) {
	name, list, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("bad --param %q, want name=v1,v2", s)
	}
	var vs []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("bad --param %q: %w", s, err)
		}
		vs = append(vs, v)
	}
	return name, vs, nil
}

func saveReport(cfg config.Config, rep *optimizer.Report, log *zap.Logger) error {
	if cfg.Journal.OptimizationFile != "" {
		if err := journal.SaveOptimizationCSV(cfg.Journal.OptimizationFile, rep); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
		log.Info("optimization results written", zap.String("path", cfg.Journal.OptimizationFile))
	}
	if cfg.Journal.Type != "sqlite" {
		return nil
	}

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	study := id.New()
	if err := j.RecordOptimization(study, journal.OptimizationRecords(rep)); err != nil {
		return fmt.Errorf("record optimization: %w", err)
	}
	log.Info("optimization journaled", zap.String("study", study))
	return nil
}

func printReport(rep *optimizer.Report) {
	if rep.Canceled {
		fmt.Printf("\nCanceled: %d of %d combinations completed\n", len(rep.All), rep.Total)
	} else {
		fmt.Printf("\nOptimization Complete! %d combinations in %s\n", rep.Total, rep.Elapsed.Round(time.Millisecond))
	}
	fmt.Printf("  Failed: %d\n", rep.Failed())
	fmt.Printf("  Objective: %s\n\n", rep.Objective)

	for i, r := range rep.Top {
		fmt.Printf("%3d. %10.4f  %s\n", i+1, r.Metrics[rep.Objective], r.Params)
	}
	if best, ok := rep.Best(); ok {
		fmt.Printf("\nBest: %s\n", best.Params)
	}
}
