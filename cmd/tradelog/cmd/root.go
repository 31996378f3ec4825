package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tradelog",
	Short: "A trading journal with risk sizing and P&L analytics",
	Long: `Tradelog records trades, sizes positions from a risk specification and
aggregates realized P&L into calendar, summary and equity views.

It provides tools for:
  - Previewing position size and projected outcomes before a trade
  - Journaling trades with before and after screenshots
  - Monthly and yearly performance calendars
  - Exporting the journal as CSV or Org mode
  - Serving everything over an HTTP API`,
	SilenceUsage: true,
}

var (
	configPath string
	cliUser    string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (YAML or JSON); defaults plus environment when empty")
	rootCmd.PersistentFlags().StringVarP(&cliUser, "user", "u", localUser, "user UUID the journal commands act as")
}
