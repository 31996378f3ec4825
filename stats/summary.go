package stats

import (
	"slices"

	"github.com/rustyeddy/tradelog/num"
	"gonum.org/v1/gonum/stat"
)

// Summary is the all-time view of an account.
type Summary struct {
	Trades       int        `json:"trades"`
	Wins         int        `json:"wins"`
	Losses       int        `json:"losses"`
	Breakeven    int        `json:"breakeven"`
	TradingDays  int        `json:"trading_days"`
	TotalPnL     float64    `json:"total_pnl"`
	WinRate      float64    `json:"win_rate"`
	ProfitFactor num.Factor `json:"profit_factor"`
	AverageWin   float64    `json:"average_win"`
	AverageLoss  float64    `json:"average_loss"`
	LargestWin   float64    `json:"largest_win"`
	LargestLoss  float64    `json:"largest_loss"`
	Expectancy   float64    `json:"expectancy"`
	DailyStdDev  float64    `json:"daily_std_dev"`
	ROIPercent   float64    `json:"roi_percent"`
}

// Summarize computes all-time statistics. AverageLoss and LargestLoss are
// negative amounts; Expectancy is the mean P&L per trade.
func Summarize(entries []Entry, capital float64) Summary {
	sorted := ordered(entries)

	var t tally
	var wins, losses []float64
	for _, e := range sorted {
		t.add(e.PnL)
		switch {
		case e.PnL > 0:
			wins = append(wins, e.PnL)
		case e.PnL < 0:
			losses = append(losses, e.PnL)
		}
	}

	days := dayList(sorted)
	daily := make([]float64, len(days))
	for i, d := range days {
		daily[i] = d.PnL
	}

	s := Summary{
		Trades:       t.Trades,
		Wins:         t.Wins,
		Losses:       t.Losses,
		Breakeven:    t.Breakeven,
		TradingDays:  len(days),
		TotalPnL:     t.PnL,
		WinRate:      t.winRate(),
		ProfitFactor: t.profitFactor(),
		ROIPercent:   ROI(t.PnL, capital),
	}
	if len(wins) > 0 {
		s.AverageWin = num.Round(stat.Mean(wins, nil), 2)
		s.LargestWin = slices.Max(wins)
	}
	if len(losses) > 0 {
		s.AverageLoss = num.Round(stat.Mean(losses, nil), 2)
		s.LargestLoss = slices.Min(losses)
	}
	if t.Trades > 0 {
		s.Expectancy = num.Round(t.PnL/float64(t.Trades), 2)
	}
	if len(daily) > 1 {
		s.DailyStdDev = num.Round(stat.StdDev(daily, nil), 2)
	}
	return s
}
