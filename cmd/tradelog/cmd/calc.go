package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradelog/num"
	"github.com/rustyeddy/tradelog/risk"
)

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Preview position size and projected outcomes",
	Long: `Calculate lot size, money at risk and projected outcomes for a trade
without saving it.

Examples:
  tradelog calc --symbol EUR/USD --entry 1.1000 --sl 1.0980 --tp 1.1040 --mode percentage --risk 1
  tradelog calc --symbol XAU/USD --direction short --entry 2350 --sl 2360 --mode money --risk 200`,
	Args: cobra.NoArgs,
	RunE: runCalc,
}

// tradeFlags are the calculator inputs shared by calc and journal add.
type tradeFlags struct {
	symbol    string
	direction string
	status    string
	entry     float64
	exit      float64
	sl        float64
	tp        float64
	mode      string
	risk      float64
	capital   float64
	account   string
}

var calcFlags tradeFlags

func init() {
	rootCmd.AddCommand(calcCmd)
	calcFlags.register(calcCmd, "open")
}

func (f *tradeFlags) register(c *cobra.Command, status string) {
	fs := c.Flags()
	fs.StringVarP(&f.symbol, "symbol", "s", "", "instrument symbol, e.g. EUR/USD (required)")
	fs.StringVar(&f.direction, "direction", "long", "long or short")
	fs.StringVar(&f.status, "status", status, "open or closed")
	fs.Float64Var(&f.entry, "entry", 0, "entry price (required)")
	fs.Float64Var(&f.exit, "exit", 0, "exit price")
	fs.Float64Var(&f.sl, "sl", 0, "stop-loss price")
	fs.Float64Var(&f.tp, "tp", 0, "take-profit price")
	fs.StringVar(&f.mode, "mode", "percentage", "risk mode: percentage, money or lot")
	fs.Float64Var(&f.risk, "risk", 1, "risk value for the chosen mode")
	fs.Float64Var(&f.capital, "capital", 0, "capital snapshot (defaults to the account capital)")
	fs.StringVarP(&f.account, "account", "a", "main", "account id")
	c.MarkFlagRequired("symbol")
	c.MarkFlagRequired("entry")
}

// input converts the flags. Prices that were never set stay None.
func (f *tradeFlags) input(c *cobra.Command) risk.TradeInput {
	price := func(name string, v float64) num.Opt {
		if !c.Flags().Changed(name) {
			return num.None()
		}
		return num.Some(v)
	}
	return risk.TradeInput{
		Symbol:     f.symbol,
		Direction:  risk.Direction(f.direction),
		Status:     risk.Status(f.status),
		EntryPrice: price("entry", f.entry),
		ExitPrice:  price("exit", f.exit),
		StopLoss:   price("sl", f.sl),
		TakeProfit: price("tp", f.tp),
		Risk:       risk.Spec{Mode: risk.Mode(f.mode), Value: f.risk},
		Capital:    f.capital,
	}
}

func runCalc(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.Preview(calcFlags.account, calcFlags.input(cmd))
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}

func printResult(w io.Writer, r risk.Result) {
	fmt.Fprintf(w, "Instrument:      %s\n", r.Symbol)
	fmt.Fprintf(w, "Pip value/lot:   %s\n", money(r.PipValuePerLot))
	fmt.Fprintf(w, "Stop loss:       %s pips\n", r.StopLossPips)
	fmt.Fprintf(w, "Take profit:     %s pips\n", r.TakeProfitPips)
	fmt.Fprintf(w, "Lot size:        %s\n", r.LotSize)
	fmt.Fprintf(w, "Risk:            %s\n", money(r.RiskMoney))
	fmt.Fprintf(w, "Projected at TP: %s\n", money(r.ProjectedAtTP))
	fmt.Fprintf(w, "Projected at SL: %s\n", money(r.ProjectedAtSL))
	fmt.Fprintf(w, "Reward:risk:     %s\n", r.RewardRisk)
	if r.RealizedPips.Valid() || r.RealizedPnL.Valid() {
		fmt.Fprintf(w, "Realized:        %s pips, %s\n", r.RealizedPips, money(r.RealizedPnL))
	}
	for _, is := range r.Issues {
		fmt.Fprintf(w, "  ! %s: %s\n", is.Field, is.Msg)
	}
}

func money(o num.Opt) string {
	v, ok := o.Get()
	if !ok {
		return "-"
	}
	return num.Money(v)
}
