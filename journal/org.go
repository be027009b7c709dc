package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/ladder/risk"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block suitable for pasting into a journal.
// Structured facts go into the PROPERTIES drawer and every fill becomes a table row.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("*** Trade: %s (%s)", t.Symbol, shortID(t.TradeID))
	open := t.OpenTime.UTC().Format(time.RFC3339)
	closed := t.CloseTime.UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.TradeID))
	b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", t.Symbol))
	b.WriteString(fmt.Sprintf(":SIZE: %.6f\n", t.Size))
	b.WriteString(fmt.Sprintf(":ENTRY_PRICE: %.5f\n", t.EntryPrice))
	b.WriteString(fmt.Sprintf(":STOP_LOSS: %.5f\n", t.StopLoss))
	b.WriteString(fmt.Sprintf(":EXIT_PRICE: %.5f\n", t.ExitPrice))
	b.WriteString(fmt.Sprintf(":OPEN_TIME: %s\n", open))
	b.WriteString(fmt.Sprintf(":CLOSE_TIME: %s\n", closed))
	b.WriteString(fmt.Sprintf(":REALIZED_PL: %.2f\n", t.RealizedPL))
	b.WriteString(fmt.Sprintf(":PLANNED_RISK: %.2f\n", t.PlannedRisk))
	b.WriteString(fmt.Sprintf(":R_MULTIPLE: %.2f\n", t.RMultiple))
	b.WriteString(fmt.Sprintf(":REASON: %s\n", t.Reason))
	b.WriteString(":END:\n")

	if len(t.Exits) > 0 {
		b.WriteString("\n| # | Time | Reason | Price | Fraction | PnL | RR |\n")
		b.WriteString("|---+------+--------+-------+----------+-----+----|\n")
		for _, x := range t.Exits {
			rr := ""
			if x.Price > t.EntryPrice {
				rr = fmt.Sprintf("%.2f", risk.RR(t.EntryPrice, t.StopLoss, x.Price))
			}
			b.WriteString(fmt.Sprintf("| %d | %s | %s | %.5f | %.4f | %.2f | %s |\n",
				x.Seq, x.Time.UTC().Format(time.RFC3339), x.Reason, x.Price, x.Fraction, x.PnL, rr))
		}
	}
	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
