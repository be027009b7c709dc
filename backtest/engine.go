// Package backtest runs the long-only position state machine over a bar
// series and computes performance metrics for the run.
package backtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rustyeddy/ladder/config"
	"github.com/rustyeddy/ladder/errs"
	"github.com/rustyeddy/ladder/indicators"
	"github.com/rustyeddy/ladder/logger"
	"github.com/rustyeddy/ladder/market"
	"github.com/rustyeddy/ladder/pkg/id"
	"github.com/rustyeddy/ladder/risk"
	"github.com/rustyeddy/ladder/strategies"
	"go.uber.org/zap"
)

// Engine runs one configuration. An Engine holds no per-run state and may be
// reused, but runs on one Engine must not overlap when a Recorder or other
// non-concurrent sink is attached.
type Engine struct {
	cfg      config.Config
	log      *zap.Logger
	sink     EventSink
	strategy strategies.Strategy
	cache    *indicators.Cache
	risk     *risk.Manager
	initial  float64
	runID    id.Func
	tradeID  id.Func
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = logger.OrNop(l) }
}

func WithSink(s EventSink) Option {
	return func(e *Engine) {
		if s != nil {
			e.sink = s
		}
	}
}

// WithInitialEquity overrides the configured starting equity.
func WithInitialEquity(v float64) Option {
	return func(e *Engine) { e.initial = v }
}

// WithStrategy replaces the strategy named in the configuration.
func WithStrategy(s strategies.Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

// WithIndicatorCache shares computed indicator columns between engines.
func WithIndicatorCache(c *indicators.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithIDs sets the generators for run and trade identifiers. By default
// runs get a ULID and trades are numbered within their run as
// <run id>-0001, <run id>-0002, ...
func WithIDs(run, trade id.Func) Option {
	return func(e *Engine) {
		if run != nil {
			e.runID = run
		}
		if trade != nil {
			e.tradeID = trade
		}
	}
}

// NewEngine builds an engine for cfg. cfg is copied.
func NewEngine(cfg config.Config, opts ...Option) (*Engine, error) {
	cfg = cfg.Clone()
	e := &Engine{
		cfg:     cfg,
		log:     zap.NewNop(),
		sink:    nopSink{},
		initial: cfg.InitialEquity,
		runID:   id.New,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.strategy == nil {
		s, err := strategies.ByName(cfg.Strategy.Name, StrategyParams(cfg))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrConfiguration, err)
		}
		e.strategy = s
	}
	if e.initial <= 0 {
		return nil, fmt.Errorf("%w: initial equity %.2f is not positive", errs.ErrConfiguration, e.initial)
	}
	e.risk = risk.FromConfig(cfg)
	return e, nil
}

// Lengths maps the strategy section of cfg onto indicator lengths.
func Lengths(cfg config.Config) indicators.Lengths {
	s := cfg.Strategy
	return indicators.Lengths{
		SMA:       s.SMALength,
		VolumeSMA: s.VolumeSMALength,
		RSI:       s.RSILength,
		ATR:       s.ATRLength,
		ADX:       s.ADXLength,
	}
}

// StrategyParams maps the strategy section of cfg onto signal thresholds.
func StrategyParams(cfg config.Config) strategies.Params {
	s := cfg.Strategy
	return strategies.Params{
		ADXThreshold:     s.ADXThreshold,
		VolumeMultiplier: s.VolumeMultiplier,
		RSIEntryMin:      s.RSIEntryMin,
		RSIEntryMax:      s.RSIEntryMax,
		RSIExit:          s.RSIExit,
	}
}

// Run computes indicators for bs and simulates over them.
func (e *Engine) Run(ctx context.Context, bs market.BarSet) (*Result, error) {
	if err := e.risk.Validate(); err != nil {
		return nil, err
	}
	calc := indicators.NewCalculator(Lengths(e.cfg), e.cache)
	rows, err := calc.Calculate(bs)
	if err != nil {
		return nil, err
	}
	symbol, timeframe := bs.Symbol, bs.Timeframe
	if symbol == "" {
		symbol = e.cfg.Symbol
	}
	if timeframe == "" {
		timeframe = e.cfg.Timeframe
	}
	return e.simulate(ctx, rows, symbol, timeframe)
}

// Simulate runs the state machine over precomputed rows. Symbol and
// timeframe come from the configuration.
func (e *Engine) Simulate(ctx context.Context, rows []indicators.Row) (*Result, error) {
	return e.simulate(ctx, rows, e.cfg.Symbol, e.cfg.Timeframe)
}

func (e *Engine) simulate(ctx context.Context, rows []indicators.Row, symbol, timeframe string) (*Result, error) {
	if err := e.risk.Validate(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no bars to simulate", errs.ErrInsufficientData)
	}
	for i := 1; i < len(rows); i++ {
		if !rows[i].Time.After(rows[i-1].Time) {
			return nil, fmt.Errorf("%w: bar %d is not after bar %d", errs.ErrConfiguration, i, i-1)
		}
	}

	runID := e.runID()
	log := e.log.With(zap.String("run_id", runID), zap.String("symbol", symbol),
		zap.String("strategy", e.strategy.Name()))
	publish := func(ev Event) {
		ev.RunID = runID
		ev.Symbol = symbol
		e.sink.Publish(ev)
	}

	res := &Result{
		RunID:         runID,
		Symbol:        symbol,
		Timeframe:     timeframe,
		Strategy:      e.strategy.Name(),
		InitialEquity: e.initial,
		Start:         rows[0].Time,
		End:           rows[len(rows)-1].Time,
		Bars:          len(rows),
		Equity:        make([]EquityPoint, 0, len(rows)),
	}

	tradeID := e.tradeID
	if tradeID == nil {
		tradeID = id.Sequence(runID)
	}
	tr := transition{risk: e.risk, newID: tradeID}
	s := state{balance: e.initial}
	openBars := 0

	collect := func(events []Event) {
		for _, ev := range events {
			switch ev.Type {
			case TradeClosed:
				res.Trades = append(res.Trades, *ev.Trade)
				log.Debug("trade closed", zap.String("trade_id", ev.TradeID),
					zap.String("reason", ev.Exit.Label()), zap.Float64("pnl", ev.Trade.PnL))
			case PartialExit:
				log.Debug("partial exit", zap.String("trade_id", ev.TradeID),
					zap.String("reason", ev.Exit.Label()), zap.Float64("size", ev.Exit.Size))
			case TradeOpened:
				log.Debug("trade opened", zap.String("trade_id", ev.TradeID),
					zap.Float64("entry", ev.Position.EntryPrice), zap.Float64("size", ev.Position.OriginalSize),
					zap.Float64("stop", ev.Position.StopLoss))
			case PositionStateIgnored:
				res.Ignored++
				log.Debug("signal ignored", zap.Error(ev.Err))
			}
			publish(ev)
		}
	}

	for i, r := range rows {
		if err := ctx.Err(); err != nil {
			log.Info("run canceled", zap.Int("bar", i))
			return nil, err
		}

		sig := e.strategy.Signal(i, rows)
		next, events, err := tr.step(s, i, r, sig)
		collect(events)
		if err != nil {
			log.Warn("run aborted", zap.Error(err))
			return nil, err
		}
		s = next

		if !s.flat() {
			openBars++
		}
		res.Equity = append(res.Equity, EquityPoint{
			Time:    r.Time,
			Equity:  s.equity(r.Close),
			Balance: s.balance,
		})
	}

	if !s.flat() {
		last := len(rows) - 1
		r := rows[last]
		pos := s.pos.clone()
		collect([]Event{closeRemainder(&s, pos, last, r, r.Close, EndOfData, 0)})
		res.Equity[last] = EquityPoint{Time: r.Time, Equity: s.equity(r.Close), Balance: s.balance}
	}

	metrics, notes := computeMetrics(metricInput{
		initial:  e.initial,
		trades:   res.Trades,
		equity:   res.Equity,
		openBars: openBars,
		annual:   AnnualizationFactor(e.cfg.AnnualizationFactor, timeframe),
	})
	for _, n := range notes {
		log.Debug("metric guarded", zap.Error(n))
	}
	res.Metrics = metrics

	log.Info("run completed",
		zap.Int("bars", res.Bars),
		zap.Int("trades", len(res.Trades)),
		zap.Float64("final_equity", metrics[MetricFinalEquity]),
		zap.Float64("sharpe", metrics[MetricSharpe]))
	publish(Event{Type: RunCompleted, Time: res.End, Index: res.Bars - 1, Result: res})
	return res, nil
}

// IsRunFailure reports whether err is a per-run failure that a grid search
// records instead of aborting on.
func IsRunFailure(err error) bool {
	return errors.Is(err, errs.ErrConfiguration) || errors.Is(err, errs.ErrInsufficientData)
}
