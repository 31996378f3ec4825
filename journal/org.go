package journal

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/tradelog/num"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block suitable for
// pasting into a journal. Structured facts go in a PROPERTIES drawer; setup
// and notes become the narrative sections.
func FormatTradeOrg(t TradeRecord) string {
	in, d := t.Input, t.Derived

	var b strings.Builder
	fmt.Fprintf(&b, "** Trade: %s %s (%s)\n", in.Symbol, strings.ToUpper(string(in.Direction)), shortID(t.ID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":ID: %s\n", t.ID)
	fmt.Fprintf(&b, ":ACCOUNT: %s\n", t.AccountID)
	fmt.Fprintf(&b, ":DATE: %s\n", t.Date.Format(DateLayout))
	fmt.Fprintf(&b, ":DURATION: %s\n", t.Duration)
	if !t.EntryDate.IsZero() {
		fmt.Fprintf(&b, ":ENTRY_DATE: %s\n", t.EntryDate.Format(DateLayout))
	}
	if !t.ExitDate.IsZero() {
		fmt.Fprintf(&b, ":EXIT_DATE: %s\n", t.ExitDate.Format(DateLayout))
	}
	fmt.Fprintf(&b, ":SYMBOL: %s\n", in.Symbol)
	fmt.Fprintf(&b, ":STATUS: %s\n", in.Status)
	fmt.Fprintf(&b, ":ENTRY_PRICE: %s\n", price(in.EntryPrice))
	fmt.Fprintf(&b, ":EXIT_PRICE: %s\n", price(in.ExitPrice))
	fmt.Fprintf(&b, ":STOP_LOSS: %s\n", price(in.StopLoss))
	fmt.Fprintf(&b, ":TAKE_PROFIT: %s\n", price(in.TakeProfit))
	fmt.Fprintf(&b, ":RISK: %s %s\n", in.Risk.Mode, num.Fixed(in.Risk.Value, 2))
	fmt.Fprintf(&b, ":LOT_SIZE: %s\n", fixed(d.LotSize))
	fmt.Fprintf(&b, ":RISK_MONEY: %s\n", fixed(d.RiskMoney))
	fmt.Fprintf(&b, ":RR: %s\n", fixed(d.RewardRisk))
	if t.Closed() {
		fmt.Fprintf(&b, ":REALIZED_PIPS: %s\n", fixed(d.RealizedPips))
		fmt.Fprintf(&b, ":REALIZED_PL: %s\n", fixed(d.RealizedPnL))
		fmt.Fprintf(&b, ":OUTCOME: %s\n", t.Outcome)
	}
	if t.Setup != "" {
		fmt.Fprintf(&b, ":SETUP: %s\n", t.Setup)
	}
	b.WriteString(":END:\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "*** Setup\n- %s\n\n", t.Setup)
	fmt.Fprintf(&b, "*** Notes\n- %s\n\n", oneLine(t.Notes))
	b.WriteString("*** Screenshots\n")
	fmt.Fprintf(&b, "- before: %s\n", t.BeforeScreenshot)
	fmt.Fprintf(&b, "- after: %s\n", t.AfterScreenshot)

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
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

func price(o num.Opt) string {
	v, ok := o.Get()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.5f", v)
}

func fixed(o num.Opt) string {
	v, ok := o.Get()
	if !ok {
		return "-"
	}
	return num.Fixed(v, 2)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
