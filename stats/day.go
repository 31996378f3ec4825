package stats

import (
	"sort"
	"time"
)

type DayAggregate struct {
	Date      string  `json:"date"`
	PnL       float64 `json:"pnl"`
	Trades    int     `json:"trades"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	Breakeven int     `json:"breakeven"`
	WinRate   float64 `json:"win_rate"`
}

// Day returns the day of month of the aggregate.
func (d DayAggregate) Day() int {
	t, err := time.Parse(DayLayout, d.Date)
	if err != nil {
		return 0
	}
	return t.Day()
}

// DayAggregates groups entries by calendar day.
func DayAggregates(entries []Entry) map[string]DayAggregate {
	out := make(map[string]DayAggregate)
	for _, d := range dayList(ordered(entries)) {
		out[d.Date] = d
	}
	return out
}

// dayList folds already ordered entries into days sorted by date.
func dayList(sorted []Entry) []DayAggregate {
	var days []DayAggregate
	var cur tally
	key := ""
	flush := func() {
		if key == "" {
			return
		}
		days = append(days, DayAggregate{
			Date:      key,
			PnL:       cur.PnL,
			Trades:    cur.Trades,
			Wins:      cur.Wins,
			Losses:    cur.Losses,
			Breakeven: cur.Breakeven,
			WinRate:   cur.winRate(),
		})
	}
	for _, e := range sorted {
		k := DayKey(e.Date)
		if k != key {
			flush()
			key, cur = k, tally{}
		}
		cur.add(e.PnL)
	}
	flush()
	return days
}

// SortedDays returns the aggregates of m ordered by date.
func SortedDays(m map[string]DayAggregate) []DayAggregate {
	out := make([]DayAggregate, 0, len(m))
	for _, d := range m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
