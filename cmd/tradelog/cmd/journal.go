package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradelog/journal"
	"github.com/rustyeddy/tradelog/num"
	"github.com/rustyeddy/tradelog/tradebook"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Manage trade journal records",
	Long: `Add, query and export trade journal records.

Subcommands:
  add    - Record a trade
  list   - List an account's trades
  show   - Show one trade in Org mode
  delete - Delete a trade
  export - Export the journal as CSV or Org mode

Examples:
  tradelog journal add --symbol EUR/USD --entry 1.1 --exit 1.105 --sl 1.098 --status closed --after chart.png
  tradelog journal list --limit 10
  tradelog journal list --from 2024-03-01 --to 2024-04-01
  tradelog journal export --format csv --out trades.csv`,
}

var journalAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a trade",
	Args:  cobra.NoArgs,
	RunE:  runJournalAdd,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trades, oldest first (newest first with --limit)",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <trade-id>",
	Short: "Show the details of a trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalDeleteCmd = &cobra.Command{
	Use:   "delete <trade-id>",
	Short: "Delete a trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDelete,
}

var journalExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the journal",
	Args:  cobra.NoArgs,
	RunE:  runJournalExport,
}

var (
	addFlags     tradeFlags
	addDate      string
	addDuration  string
	addEntryDate string
	addExitDate  string
	addSetup     string
	addNotes     string
	addBefore    string
	addAfter     string

	journalAccount string
	listLimit      int
	listFrom       string
	listTo         string
	exportFormat   string
	exportOut      string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalAddCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalDeleteCmd)
	journalCmd.AddCommand(journalExportCmd)

	addFlags.register(journalAddCmd, "closed")
	fs := journalAddCmd.Flags()
	fs.StringVar(&addDate, "date", time.Now().Format(journal.DateLayout), "trade date (YYYY-MM-DD)")
	fs.StringVar(&addDuration, "duration", "day", "day or swing")
	fs.StringVar(&addEntryDate, "entry-date", "", "swing entry date (YYYY-MM-DD)")
	fs.StringVar(&addExitDate, "exit-date", "", "swing exit date (YYYY-MM-DD)")
	fs.StringVar(&addSetup, "setup", "", "setup or strategy name")
	fs.StringVar(&addNotes, "notes", "", "free-form notes")
	fs.StringVar(&addBefore, "before", "", "before-trade screenshot file")
	fs.StringVar(&addAfter, "after", "", "after-trade screenshot file")

	for _, c := range []*cobra.Command{journalListCmd, journalShowCmd, journalDeleteCmd, journalExportCmd} {
		c.Flags().StringVarP(&journalAccount, "account", "a", "main", "account id")
	}
	journalListCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "show only the n newest trades")
	journalListCmd.Flags().StringVar(&listFrom, "from", "", "first trade date to include (YYYY-MM-DD)")
	journalListCmd.Flags().StringVar(&listTo, "to", "", "first trade date to exclude (YYYY-MM-DD)")
	journalExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "csv or org")
	journalExportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
}

func runJournalAdd(cmd *cobra.Command, args []string) error {
	user, err := currentUser()
	if err != nil {
		return err
	}
	d := tradebook.Draft{
		Input:    addFlags.input(cmd),
		Duration: journal.Duration(addDuration),
		Setup:    addSetup,
		Notes:    addNotes,
	}
	if d.Date, err = parseDay("date", addDate); err != nil {
		return err
	}
	if d.EntryDate, err = parseDay("entry-date", addEntryDate); err != nil {
		return err
	}
	if d.ExitDate, err = parseDay("exit-date", addExitDate); err != nil {
		return err
	}

	var files []*os.File
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	image := func(path string) (*tradebook.Image, error) {
		if path == "" {
			return nil, nil
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("screenshot: %w", err)
		}
		files = append(files, f)
		return &tradebook.Image{Filename: filepath.Base(path), Body: f}, nil
	}
	if d.Before, err = image(addBefore); err != nil {
		return err
	}
	if d.After, err = image(addAfter); err != nil {
		return err
	}

	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	saved, err := a.svc.Submit(cmd.Context(), user, addFlags.account, d)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Saved trade %s\n", saved.Record.ID)
	for _, w := range saved.Warnings {
		fmt.Fprintf(out, "  ! %s\n", w)
	}
	fmt.Fprintln(out, journal.FormatTradeOrg(*saved.Record))
	return nil
}

func runJournalList(cmd *cobra.Command, args []string) error {
	user, err := currentUser()
	if err != nil {
		return err
	}
	from, err := parseDay("from", listFrom)
	if err != nil {
		return err
	}
	to, err := parseDay("to", listTo)
	if err != nil {
		return err
	}
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	var recs []journal.TradeRecord
	switch {
	case listLimit > 0 && from.IsZero() && to.IsZero():
		recs, err = a.svc.Recent(cmd.Context(), user, journalAccount, listLimit)
	default:
		recs, err = a.svc.List(cmd.Context(), user, journalAccount)
		recs = journal.Between(recs, from, to)
		if listLimit > 0 {
			recs = journal.Newest(recs, listLimit)
		}
	}
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(out, "No trades.")
		return nil
	}
	for _, r := range recs {
		pnl := "open"
		if v, ok := r.PnL(); ok {
			pnl = num.Money(v)
		}
		fmt.Fprintf(out, "%s  %s  %-8s %-5s %-6s %12s  %s\n",
			r.Date.Format(journal.DateLayout), r.ID, r.Input.Symbol, r.Input.Direction, r.Input.Status, pnl, r.Setup)
	}
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	user, err := currentUser()
	if err != nil {
		return err
	}
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.svc.Get(cmd.Context(), user, journalAccount, args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(*rec))
	return nil
}

func runJournalDelete(cmd *cobra.Command, args []string) error {
	user, err := currentUser()
	if err != nil {
		return err
	}
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.svc.Delete(cmd.Context(), user, journalAccount, args[0]); err != nil {
		return fmt.Errorf("delete trade: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted trade %s\n", args[0])
	return nil
}

func runJournalExport(cmd *cobra.Command, args []string) error {
	user, err := currentUser()
	if err != nil {
		return err
	}
	if exportFormat != "csv" && exportFormat != "org" {
		return fmt.Errorf("unknown export format %q (want csv or org)", exportFormat)
	}
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	recs, err := a.svc.List(cmd.Context(), user, journalAccount)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}

	if exportFormat == "org" {
		_, err = fmt.Fprintln(w, journal.FormatTradesOrg(recs))
	} else {
		err = journal.WriteCSV(w, recs)
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if exportOut != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d trades to %s\n", len(recs), exportOut)
	}
	return nil
}

func parseDay(flag, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(journal.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", flag, err)
	}
	return t, nil
}
