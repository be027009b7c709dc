package backtest

import (
	"time"
)

// EventType names an engine event.
type EventType string

const (
	TradeOpened          EventType = "trade_opened"
	PartialExit          EventType = "partial_exit"
	TradeClosed          EventType = "trade_closed"
	PositionStateIgnored EventType = "position_state_ignored"
	RunCompleted         EventType = "run_completed"
)

// Event is emitted by the engine as the simulation progresses. Only the
// fields relevant to Type are set.
type Event struct {
	Type    EventType
	RunID   string
	Symbol  string
	Time    time.Time
	Index   int
	TradeID string

	Position *Position // TradeOpened
	Exit     *Exit     // PartialExit, TradeClosed
	Trade    *Trade    // TradeClosed
	Result   *Result   // RunCompleted
	Err      error     // PositionStateIgnored
}

// EventSink consumes engine events. Publish is called from the goroutine
// running the simulation and must not block for long.
type EventSink interface {
	Publish(Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// MultiSink fans events out to every sink in order.
type MultiSink []EventSink

func (m MultiSink) Publish(e Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(e)
		}
	}
}

// Recorder keeps every event in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(e Event) {
	r.Events = append(r.Events, e)
}

// OfType returns the recorded events of type t.
func (r *Recorder) OfType(t EventType) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type nopSink struct{}

func (nopSink) Publish(Event) {}
