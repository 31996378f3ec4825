package stats

// EquityPoint is the running P&L at the end of a trading day.
type EquityPoint struct {
	Date          string  `json:"date"`
	DayPnL        float64 `json:"day_pnl"`
	Cumulative    float64 `json:"cumulative"`
	CumulativePct float64 `json:"cumulative_pct"`
}

// EquityCurve returns one point per trading day, oldest first.
func EquityCurve(entries []Entry, capital float64) []EquityPoint {
	days := dayList(ordered(entries))
	out := make([]EquityPoint, 0, len(days))
	var cum float64
	for _, d := range days {
		cum += d.PnL
		out = append(out, EquityPoint{
			Date:          d.Date,
			DayPnL:        d.PnL,
			Cumulative:    cum,
			CumulativePct: ROI(cum, capital),
		})
	}
	return out
}
