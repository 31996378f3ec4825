package journal

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/rustyeddy/tradelog/num"
)

// CSVHeader is the first row written by WriteCSV.
var CSVHeader = []string{
	"id", "date", "duration", "entry_date", "exit_date",
	"symbol", "direction", "status",
	"entry_price", "exit_price", "stop_loss", "take_profit",
	"risk_mode", "risk_value", "capital",
	"lot_size", "risk_money", "stop_loss_pips", "take_profit_pips", "reward_risk",
	"realized_pips", "realized_pnl", "outcome",
	"setup", "notes", "before_screenshot", "after_screenshot",
}

// WriteCSV writes records with a header row. Values that were not computable
// are empty cells.
func WriteCSV(w io.Writer, records []TradeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		in, d := r.Input, r.Derived
		if err := cw.Write([]string{
			r.ID,
			r.Date.Format(DateLayout),
			string(r.Duration),
			date(r.EntryDate),
			date(r.ExitDate),
			in.Symbol,
			string(in.Direction),
			string(in.Status),
			opt(in.EntryPrice),
			opt(in.ExitPrice),
			opt(in.StopLoss),
			opt(in.TakeProfit),
			string(in.Risk.Mode),
			f(in.Risk.Value),
			f(in.Capital),
			opt(d.LotSize),
			opt(d.RiskMoney),
			opt(d.StopLossPips),
			opt(d.TakeProfitPips),
			opt(d.RewardRisk),
			opt(d.RealizedPips),
			opt(d.RealizedPnL),
			string(r.Outcome),
			r.Setup,
			r.Notes,
			r.BeforeScreenshot,
			r.AfterScreenshot,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func opt(o num.Opt) string {
	v, ok := o.Get()
	if !ok {
		return ""
	}
	return f(v)
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
