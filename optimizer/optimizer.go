// Package optimizer grid-searches strategy parameters. Every parameter set is
// evaluated by its own backtest engine over the same bars; results are ranked
// deterministically regardless of evaluation order.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/ladder/backtest"
	"github.com/rustyeddy/ladder/config"
	"github.com/rustyeddy/ladder/errs"
	"github.com/rustyeddy/ladder/indicators"
	"github.com/rustyeddy/ladder/logger"
	"github.com/rustyeddy/ladder/market"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultObjective ranks by risk adjusted return.
const DefaultObjective = backtest.MetricSharpe

// Result is the outcome of one parameter set: metrics or a failure.
type Result struct {
	Params  ParamSet
	Metrics map[string]float64
	Err     error
	Failure string
}

// OK reports whether the evaluation succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Report is the ranked outcome of a grid search.
type Report struct {
	Objective string
	Total     int // combinations in the grid
	All       []Result
	Top       []Result
	Canceled  bool
	Elapsed   time.Duration
}

// Best returns the highest ranked successful result.
func (r *Report) Best() (Result, bool) {
	if len(r.Top) == 0 {
		return Result{}, false
	}
	return r.Top[0], true
}

// Failed counts failed evaluations.
func (r *Report) Failed() int {
	n := 0
	for _, x := range r.All {
		if !x.OK() {
			n++
		}
	}
	return n
}

// Optimizer evaluates a Grid against Base.
type Optimizer struct {
	Base      config.Config
	Workers   int // 0 = one per CPU
	Objective string
	TopN      int // 0 = all successful results

	Logger *zap.Logger
	Cache  *indicators.Cache

	// OnResult, when set, sees every completed evaluation as it finishes.
	// Calls are serialized.
	OnResult func(Result)
}

// FromConfig builds an optimizer from the optimizer section of cfg.
func FromConfig(cfg config.Config, log *zap.Logger) *Optimizer {
	return &Optimizer{
		Base:      cfg.Clone(),
		Workers:   cfg.Optimizer.Workers,
		Objective: cfg.Optimizer.Objective,
		TopN:      cfg.Optimizer.TopN,
		Logger:    log,
	}
}

func (o *Optimizer) objective() (string, error) {
	obj := o.Objective
	if obj == "" {
		obj = DefaultObjective
	}
	if !slices.Contains(backtest.MetricNames, obj) {
		return "", fmt.Errorf("%w: unknown objective %q", errs.ErrConfiguration, obj)
	}
	return obj, nil
}

// Run evaluates every combination of grid over bs. Per-set failures are
// recorded in the report. When ctx is canceled no new evaluation starts,
// runs in flight are discarded and the report holds what had completed.
func (o *Optimizer) Run(ctx context.Context, bs market.BarSet, grid Grid) (*Report, error) {
	obj, err := o.objective()
	if err != nil {
		return nil, err
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if err := bs.Validate(); err != nil {
		return nil, err
	}

	log := logger.OrNop(o.Logger).With(zap.String("component", "optimizer"))
	workers := o.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	cache := o.Cache
	if cache == nil {
		cache = indicators.NewCache(0)
	}

	combos := grid.Combinations()
	log.Info("grid search started",
		zap.Int("combinations", len(combos)),
		zap.Int("workers", workers),
		zap.String("objective", obj))
	start := time.Now()

	results := make([]Result, len(combos))
	done := make([]bool, len(combos))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(workers)

scheduling:
	for i, ps := range combos {
		i, ps := i, ps
		select {
		case <-ctx.Done():
			break scheduling
		default:
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res, ok := o.evaluate(ctx, bs, ps, cache, log)
			if !ok {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			results[i] = res
			done[i] = true
			if o.OnResult != nil {
				o.OnResult(res)
			}
			return nil
		})
	}
	_ = g.Wait()

	completed := make([]Result, 0, len(combos))
	for i, ok := range done {
		if ok {
			completed = append(completed, results[i])
		}
	}

	rep := &Report{
		Objective: obj,
		Total:     len(combos),
		All:       Rank(completed, obj),
		Canceled:  ctx.Err() != nil && len(completed) < len(combos),
		Elapsed:   time.Since(start),
	}
	rep.Top = top(rep.All, o.TopN)

	fields := []zap.Field{
		zap.Int("evaluated", len(rep.All)),
		zap.Int("failed", rep.Failed()),
		zap.Bool("canceled", rep.Canceled),
		zap.Duration("elapsed", rep.Elapsed),
	}
	if best, ok := rep.Best(); ok {
		fields = append(fields, zap.Stringer("best", best.Params), zap.Float64(obj, best.Metrics[obj]))
	}
	log.Info("grid search finished", fields...)
	return rep, nil
}

// evaluate runs one parameter set. ok is false when the run was interrupted
// by cancellation and must be discarded.
func (o *Optimizer) evaluate(ctx context.Context, bs market.BarSet, ps ParamSet, cache *indicators.Cache, log *zap.Logger) (Result, bool) {
	res := Result{Params: ps}

	cfg, err := ps.Apply(o.Base)
	if err != nil {
		return failed(res, err, log), true
	}
	eng, err := backtest.NewEngine(cfg,
		backtest.WithLogger(log.Named("engine")),
		backtest.WithIndicatorCache(cache))
	if err != nil {
		return failed(res, err, log), true
	}

	bt, err := eng.Run(ctx, bs)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return res, false
		}
		return failed(res, err, log), true
	}
	res.Metrics = bt.Metrics
	return res, true
}

func failed(res Result, err error, log *zap.Logger) Result {
	res.Err = err
	switch {
	case errors.Is(err, errs.ErrInsufficientData):
		res.Failure = "insufficient_data"
	case errors.Is(err, errs.ErrConfiguration):
		res.Failure = "configuration"
	default:
		res.Failure = "error"
	}
	log.Debug("parameter set failed", zap.Stringer("params", res.Params), zap.Error(err))
	return res
}

// Rank orders results: successful ones by objective descending with ties in
// ParamSet order, then failures in ParamSet order. The input is not modified.
func Rank(results []Result, objective string) []Result {
	out := slices.Clone(results)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.OK() != b.OK() {
			return a.OK()
		}
		if a.OK() {
			va, vb := a.Metrics[objective], b.Metrics[objective]
			if va != vb {
				return va > vb
			}
		}
		return a.Params.Compare(b.Params) < 0
	})
	return out
}

func top(ranked []Result, n int) []Result {
	var out []Result
	for _, r := range ranked {
		if !r.OK() {
			break
		}
		if n > 0 && len(out) == n {
			break
		}
		out = append(out, r)
	}
	return out
}
