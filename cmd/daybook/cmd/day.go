package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/daybook/date"
	"github.com/rustyeddy/daybook/journal"
	"github.com/rustyeddy/daybook/ledger"
)

var dayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "Print one day's entries and balances",
	Long: `Print an owner's expenses, wager transactions, opening balance and
finalized state for a calendar day, straight from a SQLite journal.

Example:
  daybook day 2024-03-01 --db ./daybook.sqlite --owner 1`,
	Args: cobra.ExactArgs(1),
	RunE: runDay,
}

var (
	dayDBPath string
	dayOwner  int64
)

func init() {
	rootCmd.AddCommand(dayCmd)

	dayCmd.Flags().StringVarP(&dayDBPath, "db", "d", "./daybook.sqlite", "path to SQLite journal DB")
	dayCmd.Flags().Int64Var(&dayOwner, "owner", 1, "owner id")
}

func runDay(cmd *cobra.Command, args []string) error {
	d, err := date.Parse(args[0])
	if err != nil {
		return err
	}

	store, err := journal.NewSQLite(dayDBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	snap, err := ledger.New(store).Snapshot(cmd.Context(), dayOwner, d)
	if err != nil {
		return err
	}

	state := "open"
	if snap.Finalized {
		state = "finalized"
	}
	fmt.Printf("%s (%s)  opening balance: %s\n", snap.Date, state, snap.OpeningBalance)

	if len(snap.Expenses) == 0 && len(snap.Wagers) == 0 {
		fmt.Println("no entries")
		return nil
	}

	closing := snap.OpeningBalance
	for _, w := range snap.Wagers {
		sign := "+"
		if w.Flow == ledger.FlowEgress {
			sign = "-"
			closing = closing.Sub(w.Amount)
		} else {
			closing = closing.Add(w.Amount)
		}
		fmt.Printf("  wager   #%-3d %s%-10s %-20s %s\n", w.ID, sign, w.Amount, w.Source, w.Description)
	}
	for _, e := range snap.Expenses {
		closing = closing.Sub(e.Amount)
		cat := e.Category
		if e.Subcategory != "" {
			cat += "/" + e.Subcategory
		}
		fmt.Printf("  expense #%-3d -%-10s %-20s %s\n", e.ID, e.Amount, cat, e.Description)
	}
	fmt.Printf("closing balance: %s\n", closing)
	return nil
}
