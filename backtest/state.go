package backtest

import (
	"fmt"

	"github.com/rustyeddy/ladder/errs"
	"github.com/rustyeddy/ladder/indicators"
	"github.com/rustyeddy/ladder/pkg/id"
	"github.com/rustyeddy/ladder/risk"
	"github.com/rustyeddy/ladder/strategies"
)

// dustFraction of the original size below which a remainder counts as closed.
const dustFraction = 1e-9

// state is the account between two bars. pos is nil while Flat. States are
// never mutated in place: step copies the position before changing it.
type state struct {
	balance float64
	pos     *Position
}

func (s state) flat() bool { return s.pos == nil }

func (s state) equity(price float64) float64 {
	if s.pos == nil {
		return s.balance
	}
	return s.balance + s.pos.Unrealized(price)
}

// transition holds what step needs besides the state itself.
type transition struct {
	risk  *risk.Manager
	newID id.Func
}

// step advances the account over one bar:
//
//  1. an open position whose stop lies within the bar is closed at the stop.
//     The stop is checked before any take-profit on the same bar because the
//     path inside the bar is unknown.
//  2. take-profit levels within the bar fill nearest first, each closing its
//     fraction of the original size.
//  3. an exit signal closes what is left at the close.
//  4. an entry signal while Flat opens a position at the close.
//
// Signals that do not fit the state are reported as PositionStateIgnored
// events. A sizing failure is returned and ends the run.
func (t transition) step(s state, i int, r indicators.Row, sig strategies.Signal) (state, []Event, error) {
	var events []Event

	if !s.flat() {
		pos := s.pos.clone()
		var closed bool

		if r.Low <= pos.StopLoss {
			ev := closeRemainder(&s, pos, i, r, pos.StopLoss, StopLoss, 0)
			events = append(events, ev)
			closed = true
		}

		for k := range pos.Levels {
			if closed {
				break
			}
			lvl := &pos.Levels[k]
			if lvl.Consumed || r.High < lvl.Price {
				continue
			}
			lvl.Consumed = true

			size := min(lvl.Fraction*pos.OriginalSize, pos.RemainingSize)
			if pos.RemainingSize-size <= dustFraction*pos.OriginalSize {
				ev := closeRemainder(&s, pos, i, r, lvl.Price, TakeProfit, lvl.Index)
				events = append(events, ev)
				closed = true
				break
			}

			x := fill(pos, i, r, lvl.Price, size, TakeProfit)
			x.Level = lvl.Index
			pos.Exits = append(pos.Exits, x)
			s.balance += x.PnL
			events = append(events, Event{
				Type: PartialExit, Time: r.Time, Index: i, TradeID: pos.ID,
				Position: pos, Exit: &x,
			})
		}

		if !closed {
			s.pos = pos
		}
	}

	switch sig {
	case strategies.ExitLong:
		if s.flat() {
			events = append(events, ignored(i, r, "", sig, "no open position"))
			break
		}
		pos := s.pos.clone()
		events = append(events, closeRemainder(&s, pos, i, r, r.Close, ExitSignal, 0))

	case strategies.EnterLong:
		if !s.flat() {
			events = append(events, ignored(i, r, s.pos.ID, sig, "position already open"))
			break
		}
		order, err := t.risk.Size(s.balance, r.Close, r.ATR)
		if err != nil {
			return s, events, fmt.Errorf("size entry at bar %d: %w", i, err)
		}
		pos := open(t.newID(), i, r, order)
		s.pos = pos
		events = append(events, Event{
			Type: TradeOpened, Time: r.Time, Index: i, TradeID: pos.ID, Position: pos,
		})
	}

	return s, events, nil
}

func open(tradeID string, i int, r indicators.Row, o risk.Order) *Position {
	levels := make([]LadderLevel, len(o.Levels))
	for k, l := range o.Levels {
		levels[k] = LadderLevel{Level: l}
	}
	return &Position{
		ID:            tradeID,
		EntryTime:     r.Time,
		EntryIndex:    i,
		EntryPrice:    o.Entry,
		OriginalSize:  o.Size,
		RemainingSize: o.Size,
		StopLoss:      o.StopLoss,
		ATR:           o.ATR,
		Levels:        levels,
		Status:        Open,
	}
}

// fill takes size off pos at price and returns the exit.
func fill(pos *Position, i int, r indicators.Row, price, size float64, reason ExitReason) Exit {
	x := Exit{
		Time:     r.Time,
		Index:    i,
		Price:    price,
		Size:     size,
		Fraction: size / pos.OriginalSize,
		PnL:      size * (price - pos.EntryPrice),
		Reason:   reason,
	}
	pos.RemainingSize -= size
	pos.RealizedPnL += x.PnL
	return x
}

// closeRemainder closes everything left on pos, leaves s Flat and returns the
// TradeClosed event. pos must already be a private copy.
func closeRemainder(s *state, pos *Position, i int, r indicators.Row, price float64, reason ExitReason, level int) Event {
	x := fill(pos, i, r, price, pos.RemainingSize, reason)
	x.Level = level
	pos.RemainingSize = 0
	pos.Exits = append(pos.Exits, x)
	pos.Status = Closed
	s.balance += x.PnL
	s.pos = nil

	tr := &Trade{
		ID:         pos.ID,
		EntryTime:  pos.EntryTime,
		EntryPrice: pos.EntryPrice,
		Size:       pos.OriginalSize,
		StopLoss:   pos.StopLoss,
		ATR:        pos.ATR,
		Exits:      pos.Exits,
		PnL:        pos.RealizedPnL,
		ExitTime:   r.Time,
	}
	return Event{
		Type: TradeClosed, Time: r.Time, Index: i, TradeID: pos.ID,
		Position: pos, Exit: &tr.Exits[len(tr.Exits)-1], Trade: tr,
	}
}

func ignored(i int, r indicators.Row, tradeID string, sig strategies.Signal, why string) Event {
	return Event{
		Type: PositionStateIgnored, Time: r.Time, Index: i, TradeID: tradeID,
		Err: fmt.Errorf("%w: %s at bar %d: %s", errs.ErrPositionState, sig, i, why),
	}
}
