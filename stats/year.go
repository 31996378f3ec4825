package stats

import (
	"sort"
	"time"

	"github.com/rustyeddy/tradelog/num"
)

type YearAggregate struct {
	Year         int                `json:"year"`
	Months       [12]MonthAggregate `json:"months"`
	TotalPnL     float64            `json:"total_pnl"`
	Trades       int                `json:"trades"`
	Wins         int                `json:"wins"`
	Losses       int                `json:"losses"`
	WinRate      float64            `json:"win_rate"`
	ProfitFactor num.Factor         `json:"profit_factor"`
	ROIPercent   float64            `json:"roi_percent"`
}

func (y YearAggregate) clone() YearAggregate {
	for i := range y.Months {
		y.Months[i] = y.Months[i].clone()
	}
	return y
}

// Year aggregates the twelve months of year against one ROI baseline.
func Year(year int, entries []Entry, capital float64) YearAggregate {
	agg := YearAggregate{Year: year}

	var t tally
	var in []Entry
	for _, e := range ordered(entries) {
		if e.Date.Year() == year {
			in = append(in, e)
			t.add(e.PnL)
		}
	}
	for m := time.January; m <= time.December; m++ {
		agg.Months[m-1] = Month(year, m, in, capital)
	}

	agg.TotalPnL = t.PnL
	agg.Trades = t.Trades
	agg.Wins = t.Wins
	agg.Losses = t.Losses
	agg.WinRate = t.winRate()
	agg.ProfitFactor = t.profitFactor()
	agg.ROIPercent = ROI(t.PnL, capital)
	return agg
}

type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// AvailableMonths lists the months that contain at least one entry, oldest
// first.
func AvailableMonths(entries []Entry) []YearMonth {
	seen := make(map[YearMonth]struct{})
	for _, e := range entries {
		seen[YearMonth{Year: e.Date.Year(), Month: e.Date.Month()}] = struct{}{}
	}
	out := make([]YearMonth, 0, len(seen))
	for ym := range seen {
		out = append(out, ym)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}
