package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "daybook",
	Short: "Daily expense and wager ledger for lottery booths",
	Long: `Daybook tracks per-day expenses and wager transactions, carries
balances forward across days, and freezes a day's closing balance when the
day is finalized.

Run 'daybook serve' to start the HTTP API, or use the journal utilities to
inspect and import data directly.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
