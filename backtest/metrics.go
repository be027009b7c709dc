package backtest

import (
	"fmt"
	"math"
	"strings"

	"github.com/rustyeddy/ladder/errs"
)

// Metric keys of Result.Metrics.
const (
	MetricTotalPnL         = "total_pnl"
	MetricTotalReturn      = "total_return"
	MetricFinalEquity      = "final_equity"
	MetricNumTrades        = "num_trades"
	MetricWinRate          = "win_rate"
	MetricAvgWin           = "avg_win"
	MetricAvgLoss          = "avg_loss"
	MetricProfitFactor     = "profit_factor"
	MetricMaxDrawdown      = "max_drawdown"
	MetricSharpe           = "sharpe_ratio"
	MetricSortino          = "sortino_ratio"
	MetricCalmar           = "calmar_ratio"
	MetricAnnualizedReturn = "annualized_return"
	MetricExposure         = "exposure"
)

// MetricNames lists every metric key in a stable order.
var MetricNames = []string{
	MetricTotalPnL, MetricTotalReturn, MetricFinalEquity, MetricNumTrades,
	MetricWinRate, MetricAvgWin, MetricAvgLoss, MetricProfitFactor,
	MetricMaxDrawdown, MetricSharpe, MetricSortino, MetricCalmar,
	MetricAnnualizedReturn, MetricExposure,
}

// DefaultAnnualization is used when the timeframe is unknown.
const DefaultAnnualization = 252

var periodsPerYear = map[string]float64{
	"1m":  525600,
	"5m":  105120,
	"15m": 35040,
	"30m": 17520,
	"1h":  8760,
	"4h":  2190,
	"1d":  365,
	"1w":  52,
}

// AnnualizationFactor returns configured when positive, else the number of
// bars per year for timeframe.
func AnnualizationFactor(configured float64, timeframe string) float64 {
	if configured > 0 {
		return configured
	}
	if f, ok := periodsPerYear[strings.ToLower(strings.TrimSpace(timeframe))]; ok {
		return f
	}
	return DefaultAnnualization
}

// Returns is the per-bar simple return series of an equity curve.
func Returns(equity []EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, equity[i].Equity/prev-1)
	}
	return out
}

// MaxDrawdown is the largest decline from a running peak, as a positive
// fraction of that peak.
func MaxDrawdown(equity []EquityPoint) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := (peak - p.Equity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdDev is the sample standard deviation.
func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	ss := 0.0
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// downsideDeviation is the root mean square of the negative returns.
func downsideDeviation(xs []float64) float64 {
	ss, n := 0.0, 0
	for _, x := range xs {
		if x < 0 {
			ss += x * x
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(ss / float64(n))
}

// metricInput is everything computeMetrics reads.
type metricInput struct {
	initial  float64
	trades   []Trade
	equity   []EquityPoint
	openBars int
	annual   float64
}

// computeMetrics never fails. Ratios whose denominator is zero resolve to 0
// and are reported in the returned notes, each wrapping errs.ErrComputation.
func computeMetrics(in metricInput) (map[string]float64, []error) {
	var notes []error
	sentinel := func(name, why string) float64 {
		notes = append(notes, fmt.Errorf("%w: %s set to 0: %s", errs.ErrComputation, name, why))
		return 0
	}

	m := make(map[string]float64, len(MetricNames))
	for _, k := range MetricNames {
		m[k] = 0
	}

	var totalPnL, grossWin, grossLoss float64
	var wins, losses int
	for _, tr := range in.trades {
		totalPnL += tr.PnL
		switch {
		case tr.PnL > 0:
			wins++
			grossWin += tr.PnL
		case tr.PnL < 0:
			losses++
			grossLoss += tr.PnL
		}
	}
	n := len(in.trades)

	final := in.initial
	if len(in.equity) > 0 {
		final = in.equity[len(in.equity)-1].Equity
	}

	m[MetricTotalPnL] = totalPnL
	m[MetricFinalEquity] = final
	m[MetricNumTrades] = float64(n)
	if in.initial > 0 {
		m[MetricTotalReturn] = final/in.initial - 1
	}

	if n > 0 {
		m[MetricWinRate] = float64(wins) / float64(n)
	}
	if wins > 0 {
		m[MetricAvgWin] = grossWin / float64(wins)
	}
	if losses > 0 {
		m[MetricAvgLoss] = grossLoss / float64(losses)
	}
	if grossLoss < 0 {
		m[MetricProfitFactor] = grossWin / -grossLoss
	} else {
		m[MetricProfitFactor] = sentinel(MetricProfitFactor, "no losing trades")
	}

	rets := Returns(in.equity)
	mu := mean(rets)
	sqrtAF := math.Sqrt(in.annual)

	if sd := stdDev(rets); sd > 0 {
		m[MetricSharpe] = mu / sd * sqrtAF
	} else {
		m[MetricSharpe] = sentinel(MetricSharpe, "zero return volatility")
	}

	if dd := downsideDeviation(rets); dd > 0 {
		m[MetricSortino] = mu / dd * sqrtAF
	} else {
		m[MetricSortino] = sentinel(MetricSortino, "no negative returns")
	}

	annualized := mu * in.annual
	maxDD := MaxDrawdown(in.equity)
	m[MetricAnnualizedReturn] = annualized
	m[MetricMaxDrawdown] = maxDD
	if maxDD > 0 {
		m[MetricCalmar] = annualized / maxDD
	} else {
		m[MetricCalmar] = sentinel(MetricCalmar, "no drawdown")
	}

	if len(in.equity) > 0 {
		m[MetricExposure] = float64(in.openBars) / float64(len(in.equity))
	}
	return m, notes
}
