package journal

import (
	"fmt"
	"time"

	"github.com/rustyeddy/ladder/backtest"
	"github.com/rustyeddy/ladder/errs"
	"github.com/rustyeddy/ladder/optimizer"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func sampleResult() *backtest.Result {
	tr := backtest.Trade{
		ID:         "run-1-trade-0001",
		EntryTime:  t0.Add(10 * time.Hour),
		EntryPrice: 100,
		Size:       2,
		StopLoss:   96,
		ATR:        2,
		Exits: []backtest.Exit{
			{Time: t0.Add(15 * time.Hour), Index: 15, Price: 103, Size: 0.6, Fraction: 0.3, PnL: 1.8, Reason: backtest.TakeProfit, Level: 1},
			{Time: t0.Add(20 * time.Hour), Index: 20, Price: 96, Size: 1.4, Fraction: 0.7, PnL: -5.6, Reason: backtest.StopLoss},
		},
		PnL:      -3.8,
		ExitTime: t0.Add(20 * time.Hour),
	}
	return &backtest.Result{
		RunID:         "run-1",
		Symbol:        "BTC/USDT",
		Timeframe:     "1h",
		Strategy:      "ha-trend",
		InitialEquity: 10000,
		Start:         t0,
		End:           t0.Add(24 * time.Hour),
		Bars:          25,
		Trades:        []backtest.Trade{tr},
		Equity: []backtest.EquityPoint{
			{Time: t0, Equity: 10000, Balance: 10000},
			{Time: t0.Add(time.Hour), Equity: 10001, Balance: 10000},
			{Time: t0.Add(2 * time.Hour), Equity: 9996.2, Balance: 9996.2},
		},
		Metrics: map[string]float64{
			backtest.MetricTotalPnL:     -3.8,
			backtest.MetricTotalReturn:  -0.00038,
			backtest.MetricFinalEquity:  9996.2,
			backtest.MetricNumTrades:    1,
			backtest.MetricSharpe:       -0.5,
			backtest.MetricMaxDrawdown:  0.0005,
			backtest.MetricProfitFactor: 0,
		},
	}
}

func sampleReport() *optimizer.Report {
	ps := func(sma, adx float64) optimizer.ParamSet {
		return optimizer.NewParamSet(map[string]float64{"sma_length": sma, "adx_threshold": adx})
	}
	return &optimizer.Report{
		Objective: backtest.MetricSharpe,
		Total:     3,
		All: []optimizer.Result{
			{Params: ps(10, 20), Metrics: map[string]float64{backtest.MetricSharpe: 1, backtest.MetricNumTrades: 4}},
			{Params: ps(20, 20), Metrics: map[string]float64{backtest.MetricSharpe: 2, backtest.MetricNumTrades: 3}},
			{Params: ps(500, 20), Err: fmt.Errorf("run: %w", errs.ErrInsufficientData), Failure: "insufficient_data"},
		},
	}
}
