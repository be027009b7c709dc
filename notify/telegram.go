// Package notify delivers run events to a Telegram chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rustyeddy/ladder/backtest"
	"github.com/rustyeddy/ladder/config"
)

const (
	DefaultBaseURL = "https://api.telegram.org"
	queueSize      = 64
)

var ErrDisabled = errors.New("telegram notifications disabled")

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

type message struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Telegram is a backtest.EventSink that posts entries, ladder exits,
// closed trades and run summaries. Publish never blocks: messages are queued and sent by a
// background goroutine at most RatePerSecond per second.
type Telegram struct {
	client  *resty.Client
	limiter *rate.Limiter
	chatID  string
	token   string
	log     *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a notifier for cfg. When cfg is not Enabled the notifier
// accepts events and drops them.
func New(cfg config.NotifyConfig, log *zap.Logger) *Telegram {
	if log == nil {
		log = zap.NewNop()
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Telegram{
		client: resty.New().
			SetBaseURL(strings.TrimRight(base, "/")).
			SetTimeout(10*time.Second).
			SetHeader("Accept", "application/json"),
		limiter: rate.NewLimiter(limit, 1),
		chatID:  cfg.ChatID,
		token:   cfg.TelegramToken,
		log:     log.Named("telegram"),
		queue:   make(chan string, queueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	if t.Enabled() {
		t.wg.Add(1)
		go t.loop()
	}
	return t
}

func (t *Telegram) Enabled() bool {
	return t.token != "" && t.chatID != ""
}

// Send posts text synchronously, waiting for the rate limiter first.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if !t.Enabled() {
		return ErrDisabled
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	var out apiResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetRawPathParam("token", t.token).
		SetBody(message{ChatID: t.chatID, Text: text, ParseMode: "HTML"}).
		SetResult(&out).
		SetError(&out).
		Post("/bot{token}/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if resp.IsError() || !out.OK {
		return fmt.Errorf("telegram send: status %d: %s", resp.StatusCode(), out.Description)
	}
	return nil
}

// Publish implements backtest.EventSink.
func (t *Telegram) Publish(e backtest.Event) {
	if !t.Enabled() {
		return
	}
	text := Format(e)
	if text == "" {
		return
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	select {
	case t.queue <- text:
	default:
		t.log.Warn("notification queue full, dropping", zap.String("event", string(e.Type)))
	}
}

func (t *Telegram) loop() {
	defer t.wg.Done()
	for text := range t.queue {
		if err := t.Send(t.ctx, text); err != nil {
			t.log.Warn("notification failed", zap.Error(err))
		}
	}
}

// Close stops accepting events and waits for queued messages to be sent
// or for ctx to expire, whichever comes first.
func (t *Telegram) Close(ctx context.Context) error {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.cancel()
		return nil
	case <-ctx.Done():
		t.cancel()
		<-done
		return ctx.Err()
	}
}

// Format renders the events worth a notification. Other events give "".
func Format(e backtest.Event) string {
	switch e.Type {
	case backtest.TradeOpened:
		if e.Position == nil {
			return ""
		}
		p := e.Position
		return fmt.Sprintf("<b>%s</b> long opened\nentry %.5f\nsize %.6f\nstop %.5f\nladder %d levels",
			html.EscapeString(e.Symbol), p.EntryPrice, p.OriginalSize, p.StopLoss, len(p.Levels))

	case backtest.PartialExit:
		if e.Exit == nil {
			return ""
		}
		x := e.Exit
		return fmt.Sprintf("<b>%s</b> %s hit\nprice %.5f\nclosed %.0f%% of entry size\npnl <b>%.2f</b>",
			html.EscapeString(e.Symbol), html.EscapeString(x.Label()), x.Price, x.Fraction*100, x.PnL)

	case backtest.TradeClosed:
		if e.Trade == nil {
			return ""
		}
		tr := e.Trade
		return fmt.Sprintf("<b>%s</b> trade closed (%s)\nentry %.5f exit %.5f\nsize %.6f\npnl <b>%.2f</b>",
			html.EscapeString(e.Symbol), html.EscapeString(string(tr.Reason())),
			tr.EntryPrice, tr.ExitPrice(), tr.Size, tr.PnL)

	case backtest.RunCompleted:
		if e.Result == nil {
			return ""
		}
		r := e.Result
		return fmt.Sprintf("<b>%s %s</b> backtest done\nstrategy %s\ntrades %d\nreturn %.2f%%\nmax drawdown %.2f%%\nsharpe %.2f\nfinal equity %.2f",
			html.EscapeString(r.Symbol), html.EscapeString(r.Timeframe), html.EscapeString(r.Strategy),
			len(r.Trades),
			r.Metrics[backtest.MetricTotalReturn]*100,
			r.Metrics[backtest.MetricMaxDrawdown]*100,
			r.Metrics[backtest.MetricSharpe],
			r.Metrics[backtest.MetricFinalEquity])
	}
	return ""
}
