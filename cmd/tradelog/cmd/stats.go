package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradelog/num"
	"github.com/rustyeddy/tradelog/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print P&L aggregates",
	Long: `Aggregate realized P&L of closed trades.

Subcommands:
  month   - Calendar month with weekly rows
  year    - Twelve months of a year
  summary - All-time statistics

Examples:
  tradelog stats month 2024 3
  tradelog stats year 2024
  tradelog stats summary --account main`,
}

var statsMonthCmd = &cobra.Command{
	Use:   "month <year> <month>",
	Short: "Show a month calendar",
	Args:  cobra.ExactArgs(2),
	RunE:  runStatsMonth,
}

var statsYearCmd = &cobra.Command{
	Use:   "year <year>",
	Short: "Show a year overview",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatsYear,
}

var statsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show all-time statistics",
	Args:  cobra.NoArgs,
	RunE:  runStatsSummary,
}

var statsAccount string

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.AddCommand(statsMonthCmd)
	statsCmd.AddCommand(statsYearCmd)
	statsCmd.AddCommand(statsSummaryCmd)

	statsCmd.PersistentFlags().StringVarP(&statsAccount, "account", "a", "main", "account id")
}

func runStatsMonth(cmd *cobra.Command, args []string) error {
	year, err := parseYear(args[0])
	if err != nil {
		return err
	}
	m, err := strconv.Atoi(args[1])
	if err != nil || m < 1 || m > 12 {
		return fmt.Errorf("month must be between 1 and 12, got %q", args[1])
	}
	user, err := currentUser()
	if err != nil {
		return err
	}
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	agg, err := a.svc.Month(cmd.Context(), user, statsAccount, year, time.Month(m))
	if err != nil {
		return err
	}
	printMonth(cmd.OutOrStdout(), agg)
	return nil
}

func runStatsYear(cmd *cobra.Command, args []string) error {
	year, err := parseYear(args[0])
	if err != nil {
		return err
	}
	user, err := currentUser()
	if err != nil {
		return err
	}
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	agg, err := a.svc.Year(cmd.Context(), user, statsAccount, year)
	if err != nil {
		return err
	}
	printYear(cmd.OutOrStdout(), agg)
	return nil
}

func runStatsSummary(cmd *cobra.Command, args []string) error {
	user, err := currentUser()
	if err != nil {
		return err
	}
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sum, err := a.svc.Summary(cmd.Context(), user, statsAccount)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), sum)
	return nil
}

func printMonth(w io.Writer, m stats.MonthAggregate) {
	fmt.Fprintf(w, "%s %d\n", m.Month, m.Year)
	fmt.Fprintf(w, "  P&L: %s  ROI: %s%%  Trades: %d  Win rate: %s  Profit factor: %s\n",
		num.Money(m.TotalPnL), m.ROI(), m.Trades, num.Percent(m.WinRate), m.ProfitFactor)
	fmt.Fprintln(w)
	for _, wk := range m.Weeks {
		fmt.Fprintf(w, "  Week %d (%2d-%2d)  %10s  %6s%%  %d days\n",
			wk.Week, wk.StartDay, wk.EndDay, num.Compact(wk.PnL), num.Fixed(wk.ROIPercent, 2), wk.Days)
	}
	if len(m.Days) > 0 {
		fmt.Fprintln(w)
	}
	for _, d := range m.Days {
		fmt.Fprintf(w, "  %s  %10s  %d trades\n", d.Date, num.Money(d.PnL), d.Trades)
	}
}

func printYear(w io.Writer, y stats.YearAggregate) {
	fmt.Fprintf(w, "%d\n", y.Year)
	fmt.Fprintf(w, "  P&L: %s  ROI: %s%%  Trades: %d  Win rate: %s  Profit factor: %s\n",
		num.Money(y.TotalPnL), num.Fixed(y.ROIPercent, 2), y.Trades, num.Percent(y.WinRate), y.ProfitFactor)
	fmt.Fprintln(w)
	for _, m := range y.Months {
		if m.Trades == 0 {
			fmt.Fprintf(w, "  %-9s  %10s\n", m.Month, "-")
			continue
		}
		fmt.Fprintf(w, "  %-9s  %10s  %6s%%  %d trades\n", m.Month, num.Compact(m.TotalPnL), m.ROI(), m.Trades)
	}
}

func printSummary(w io.Writer, s stats.Summary) {
	fmt.Fprintf(w, "Trades:        %d (%d wins, %d losses, %d breakeven)\n", s.Trades, s.Wins, s.Losses, s.Breakeven)
	fmt.Fprintf(w, "Trading days:  %d\n", s.TradingDays)
	fmt.Fprintf(w, "Total P&L:     %s\n", num.Money(s.TotalPnL))
	fmt.Fprintf(w, "ROI:           %s\n", num.Percent(s.ROIPercent))
	fmt.Fprintf(w, "Win rate:      %s\n", num.Percent(s.WinRate))
	fmt.Fprintf(w, "Profit factor: %s\n", s.ProfitFactor)
	fmt.Fprintf(w, "Average win:   %s\n", num.Money(s.AverageWin))
	fmt.Fprintf(w, "Average loss:  %s\n", num.Money(s.AverageLoss))
	fmt.Fprintf(w, "Largest win:   %s\n", num.Money(s.LargestWin))
	fmt.Fprintf(w, "Largest loss:  %s\n", num.Money(s.LargestLoss))
	fmt.Fprintf(w, "Expectancy:    %s\n", num.Money(s.Expectancy))
	fmt.Fprintf(w, "Daily std dev: %s\n", num.Money(s.DailyStdDev))
}

func parseYear(s string) (int, error) {
	y, err := strconv.Atoi(s)
	if err != nil || y < 1 || y > 9999 {
		return 0, fmt.Errorf("year must be between 1 and 9999, got %q", s)
	}
	return y, nil
}
