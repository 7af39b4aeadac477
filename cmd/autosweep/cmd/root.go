package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "autosweep",
	Short: "Daily treasury sweep decision engine and holdings ledger",
	Long: `Autosweep decides how much surplus cash can be safely invested each day
and keeps a ledger of interest-bearing holdings.

It provides tools for:
  - Probability-weighted AR/AP cash-flow forecasting
  - Reserve ("must-keep") and deployable-surplus calculation
  - Waterfall allocation across a whitelisted instrument list
  - A transactional holdings ledger with daily interest accrual
  - Attribution and reporting queries over accrued interest`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
