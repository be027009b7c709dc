// Package risk sizes positions from account equity and volatility and lays
// out the stop-loss and take-profit ladder of each order.
package risk

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/rustyeddy/ladder/config"
	"github.com/rustyeddy/ladder/errs"
	"github.com/rustyeddy/ladder/indicators"
)

// FractionTolerance absorbs rounding in configured ladder fractions.
const FractionTolerance = 1e-9

// Level is one rung of the take-profit ladder of an order.
type Level struct {
	Index      int // 1-based, ascending by distance
	Multiplier float64
	Fraction   float64
	Price      float64
}

// Order is a sized long entry with its exits.
type Order struct {
	Entry    float64
	Size     float64
	StopLoss float64
	ATR      float64
	Levels   []Level
}

// PlannedRisk is the loss taken if the order is stopped out in full.
func (o Order) PlannedRisk() float64 {
	return PlannedRisk(o.Size, o.Entry, o.StopLoss)
}

// Notional is the capital committed at entry.
func (o Order) Notional() float64 {
	return o.Size * o.Entry
}

// Manager turns equity and ATR into sized orders.
type Manager struct {
	RiskPct        float64 // fraction of equity lost at the stop, 0.01 = 1%
	StopMultiplier float64
	Levels         []config.TakeProfitLevel
}

// NewManager returns a manager with its own copy of levels.
func NewManager(riskPct, stopMultiplier float64, levels []config.TakeProfitLevel) *Manager {
	return &Manager{
		RiskPct:        riskPct,
		StopMultiplier: stopMultiplier,
		Levels:         slices.Clone(levels),
	}
}

// FromConfig builds a manager from the risk section of cfg. risk_per_trade is
// a percentage.
func FromConfig(cfg config.Config) *Manager {
	return NewManager(cfg.Risk.RiskPerTrade/100, cfg.Risk.StopMultiplier, cfg.Risk.TakeProfitLevels)
}

// Validate checks the static parameters of the manager.
func (m *Manager) Validate() error {
	if m.RiskPct <= 0 || m.RiskPct > 1 {
		return fmt.Errorf("%w: risk fraction %.6f outside (0, 1]", errs.ErrConfiguration, m.RiskPct)
	}
	if m.StopMultiplier <= 0 {
		return fmt.Errorf("%w: stop multiplier must be positive, got %.6f", errs.ErrConfiguration, m.StopMultiplier)
	}
	sum := 0.0
	for i, l := range m.Levels {
		if l.Multiplier <= 0 {
			return fmt.Errorf("%w: take-profit level %d multiplier must be positive", errs.ErrConfiguration, i+1)
		}
		if l.Fraction <= 0 {
			return fmt.Errorf("%w: take-profit level %d fraction must be positive", errs.ErrConfiguration, i+1)
		}
		sum += l.Fraction
	}
	if sum > 1+FractionTolerance {
		return fmt.Errorf("%w: take-profit fractions sum to %.4f, more than 1", errs.ErrConfiguration, sum)
	}
	return nil
}

// Size computes a long order entered at entry:
//
//	size = equity × riskPct / (ATR × stopMultiplier)
//
// capped so that size × entry never exceeds equity. The stop sits
// ATR × stopMultiplier below entry and each take-profit ATR × multiplier
// above it, nearest first.
func (m *Manager) Size(equity, entry float64, atr indicators.Value) (Order, error) {
	if err := m.Validate(); err != nil {
		return Order{}, err
	}
	if !atr.OK || atr.V <= 0 || math.IsNaN(atr.V) {
		return Order{}, fmt.Errorf("%w: ATR %s is not usable for sizing", errs.ErrConfiguration, atr)
	}
	if equity <= 0 {
		return Order{}, fmt.Errorf("%w: equity %.2f is not positive", errs.ErrConfiguration, equity)
	}
	if entry <= 0 {
		return Order{}, fmt.Errorf("%w: entry price %.8f is not positive", errs.ErrConfiguration, entry)
	}

	stopDistance := atr.V * m.StopMultiplier
	size := equity * m.RiskPct / stopDistance
	if maxSize := equity / entry; size > maxSize {
		size = maxSize
	}
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return Order{}, fmt.Errorf("%w: computed size %.8f", errs.ErrConfiguration, size)
	}

	levels := make([]Level, len(m.Levels))
	for i, l := range m.Levels {
		levels[i] = Level{
			Multiplier: l.Multiplier,
			Fraction:   l.Fraction,
			Price:      entry + atr.V*l.Multiplier,
		}
	}
	sort.SliceStable(levels, func(i, j int) bool {
		return levels[i].Multiplier < levels[j].Multiplier
	})
	for i := range levels {
		levels[i].Index = i + 1
	}

	return Order{
		Entry:    entry,
		Size:     size,
		StopLoss: entry - stopDistance,
		ATR:      atr.V,
		Levels:   levels,
	}, nil
}
