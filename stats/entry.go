// Package stats aggregates closed trades into calendar performance views.
//
// Every aggregate is a pure function of its entries. Entries are copied and
// put into a canonical order before any sum is taken, so the same multiset of
// trades always produces bit-identical results regardless of input order.
package stats

import (
	"sort"
	"time"

	"github.com/rustyeddy/tradelog/num"
)

// DayLayout is the key format of day aggregates.
const DayLayout = "2006-01-02"

// Entry is one closed trade as the aggregator sees it.
type Entry struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date"`
	PnL  float64   `json:"pnl"`
}

// DayKey returns the YYYY-MM-DD key for t in its own location.
func DayKey(t time.Time) string { return t.Format(DayLayout) }

func ordered(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := DayKey(out[i].Date), DayKey(out[j].Date)
		if ki != kj {
			return ki < kj
		}
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].PnL < out[j].PnL
	})
	return out
}

// tally is the trade-level classification shared by every view.
type tally struct {
	Trades    int
	Wins      int
	Losses    int
	Breakeven int
	PnL       float64
	grossWin  float64
	grossLoss float64
}

func (t *tally) add(pnl float64) {
	t.Trades++
	t.PnL += pnl
	switch {
	case pnl > 0:
		t.Wins++
		t.grossWin += pnl
	case pnl < 0:
		t.Losses++
		t.grossLoss += -pnl
	default:
		t.Breakeven++
	}
}

// winRate is wins over decided trades, as a percentage. Breakeven trades do
// not count.
func (t tally) winRate() float64 {
	if t.Wins+t.Losses == 0 {
		return 0
	}
	return num.Round(float64(t.Wins)/float64(t.Wins+t.Losses)*100, 2)
}

func (t tally) profitFactor() num.Factor {
	return ProfitFactor(t.grossWin, t.grossLoss)
}

// ProfitFactor is gross win over gross loss. With no losses it is the
// infinite sentinel when anything was won and 0 otherwise.
func ProfitFactor(grossWin, grossLoss float64) num.Factor {
	if grossLoss <= 0 {
		if grossWin > 0 {
			return num.Infinite()
		}
		return num.Finite(0)
	}
	return num.Finite(grossWin / grossLoss)
}

// ROI is pnl as a percentage of capital rounded to two decimals; 0 when no
// capital baseline is known.
func ROI(pnl, capital float64) float64 {
	if capital <= 0 {
		return 0
	}
	return num.Round(pnl/capital*100, 2)
}
