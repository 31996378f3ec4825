package stats

import (
	"time"

	"github.com/rustyeddy/tradelog/num"
)

// WeekAggregate is one calendar row of a month. Weeks start on Sunday.
type WeekAggregate struct {
	Index      int     `json:"index"`
	Week       int     `json:"week"`
	StartDay   int     `json:"start_day"`
	EndDay     int     `json:"end_day"`
	PnL        float64 `json:"pnl"`
	Days       int     `json:"days"`
	Trades     int     `json:"trades"`
	ROIPercent float64 `json:"roi_percent"`
}

type MonthAggregate struct {
	Year         int             `json:"year"`
	Month        time.Month      `json:"month"`
	TotalPnL     float64         `json:"total_pnl"`
	Trades       int             `json:"trades"`
	Wins         int             `json:"wins"`
	Losses       int             `json:"losses"`
	Breakeven    int             `json:"breakeven"`
	TradingDays  int             `json:"trading_days"`
	WinRate      float64         `json:"win_rate"`
	ProfitFactor num.Factor      `json:"profit_factor"`
	ROIPercent   float64         `json:"roi_percent"`
	Weeks        []WeekAggregate `json:"weeks"`
	Days         []DayAggregate  `json:"days"`
}

// ROI returns the month's ROI formatted to two decimals.
func (m MonthAggregate) ROI() string { return num.Fixed(m.ROIPercent, 2) }

func (m MonthAggregate) clone() MonthAggregate {
	m.Weeks = append([]WeekAggregate(nil), m.Weeks...)
	m.Days = append([]DayAggregate(nil), m.Days...)
	return m
}

// WeekIndex returns the 0-based calendar row of day in a month whose first day
// falls on first.
func WeekIndex(day int, first time.Weekday) int {
	return (day + int(first) - 1) / 7
}

// Month aggregates the entries that fall in year/month. Entries outside the
// month are ignored. capital is the ROI baseline.
func Month(year int, month time.Month, entries []Entry, capital float64) MonthAggregate {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysIn := first.AddDate(0, 1, -1).Day()
	firstWd := first.Weekday()

	agg := MonthAggregate{
		Year:  year,
		Month: month,
		Weeks: make([]WeekAggregate, WeekIndex(daysIn, firstWd)+1),
		Days:  []DayAggregate{},
	}
	for i := range agg.Weeks {
		start := i*7 - int(firstWd) + 1
		end := start + 6
		if start < 1 {
			start = 1
		}
		if end > daysIn {
			end = daysIn
		}
		agg.Weeks[i] = WeekAggregate{Index: i, Week: i + 1, StartDay: start, EndDay: end}
	}

	var t tally
	var in []Entry
	for _, e := range ordered(entries) {
		if e.Date.Year() == year && e.Date.Month() == month {
			in = append(in, e)
			t.add(e.PnL)
		}
	}

	for _, d := range dayList(in) {
		agg.Days = append(agg.Days, d)
		w := &agg.Weeks[WeekIndex(d.Day(), firstWd)]
		w.PnL += d.PnL
		w.Days++
		w.Trades += d.Trades
	}
	for i := range agg.Weeks {
		agg.Weeks[i].ROIPercent = ROI(agg.Weeks[i].PnL, capital)
	}

	agg.TotalPnL = t.PnL
	agg.Trades = t.Trades
	agg.Wins = t.Wins
	agg.Losses = t.Losses
	agg.Breakeven = t.Breakeven
	agg.TradingDays = len(agg.Days)
	agg.WinRate = t.winRate()
	agg.ProfitFactor = t.profitFactor()
	agg.ROIPercent = ROI(t.PnL, capital)
	return agg
}
