package backtest

import (
	"fmt"
	"time"

	"github.com/rustyeddy/ladder/risk"
)

// Status of a position.
type Status int8

const (
	Open Status = iota + 1
	Closed
)

func (s Status) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// ExitReason records why part of a position was closed.
type ExitReason string

const (
	StopLoss   ExitReason = "stop_loss"
	TakeProfit ExitReason = "take_profit"
	ExitSignal ExitReason = "exit_signal"
	EndOfData  ExitReason = "end_of_data"
)

// LadderLevel is a take-profit rung and whether it has been filled.
type LadderLevel struct {
	risk.Level
	Consumed bool
}

// Position is a long position while the engine is Open. RemainingSize only
// decreases and stays positive until the position is closed.
type Position struct {
	ID            string
	EntryTime     time.Time
	EntryIndex    int
	EntryPrice    float64
	OriginalSize  float64
	RemainingSize float64
	StopLoss      float64
	ATR           float64
	Levels        []LadderLevel
	Status        Status

	Exits       []Exit
	RealizedPnL float64
}

// Unrealized is the mark-to-market PnL of the remainder at price.
func (p *Position) Unrealized(price float64) float64 {
	return p.RemainingSize * (price - p.EntryPrice)
}

func (p *Position) clone() *Position {
	c := *p
	c.Levels = append([]LadderLevel(nil), p.Levels...)
	c.Exits = append([]Exit(nil), p.Exits...)
	return &c
}

// Exit is one partial or final fill of a position.
type Exit struct {
	Time     time.Time
	Index    int
	Price    float64
	Size     float64
	Fraction float64 // of the original size
	PnL      float64
	Reason   ExitReason
	Level    int // 1-based ladder index for TakeProfit, else 0
}

// Label renders the reason with its ladder level, e.g. "take_profit(2)".
func (x Exit) Label() string {
	if x.Reason == TakeProfit {
		return fmt.Sprintf("%s(%d)", x.Reason, x.Level)
	}
	return string(x.Reason)
}

// Trade is the immutable record of a closed position.
type Trade struct {
	ID         string
	EntryTime  time.Time
	EntryPrice float64
	Size       float64
	StopLoss   float64
	ATR        float64
	Exits      []Exit
	PnL        float64
	ExitTime   time.Time
}

// ExitPrice is the size weighted average exit price.
func (t Trade) ExitPrice() float64 {
	var notional, size float64
	for _, x := range t.Exits {
		notional += x.Price * x.Size
		size += x.Size
	}
	if size == 0 {
		return 0
	}
	return notional / size
}

// ClosedFraction is the sum of exit fractions. It is 1 for every closed trade.
func (t Trade) ClosedFraction() float64 {
	sum := 0.0
	for _, x := range t.Exits {
		sum += x.Fraction
	}
	return sum
}

// Reason is the reason of the final exit.
func (t Trade) Reason() ExitReason {
	if len(t.Exits) == 0 {
		return ""
	}
	return t.Exits[len(t.Exits)-1].Reason
}

// EquityPoint is account equity at the close of one bar. Balance holds the
// realized part.
type EquityPoint struct {
	Time    time.Time
	Equity  float64
	Balance float64
}

// Result is the outcome of one complete run.
type Result struct {
	RunID         string
	Symbol        string
	Timeframe     string
	Strategy      string
	InitialEquity float64
	Start         time.Time
	End           time.Time
	Bars          int
	Trades        []Trade
	Equity        []EquityPoint
	Metrics       map[string]float64
	Ignored       int // signals that did not fit the position state
}
