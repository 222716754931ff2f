package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/xyproto/unzip"

	"github.com/rustyeddy/daybook/date"
	"github.com/rustyeddy/daybook/journal"
	"github.com/rustyeddy/daybook/ledger"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv|file.zip>",
	Short: "Import expenses from a CSV file",
	Long: `Import expense rows into a SQLite journal.

Rows have the form:
  date,category,subcategory,amount,description

A header row is skipped when the first field is not a date. With --zip the
argument is a zip archive; every .csv inside it is imported.

Example:
  daybook import expenses.csv --db ./daybook.sqlite --owner 1`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	importDBPath string
	importOwner  int64
	importZip    bool
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importDBPath, "db", "d", "./daybook.sqlite", "path to SQLite journal DB")
	importCmd.Flags().Int64Var(&importOwner, "owner", 1, "owner id to record expenses under")
	importCmd.Flags().BoolVar(&importZip, "zip", false, "treat the argument as a zip archive of CSV files")
}

func runImport(cmd *cobra.Command, args []string) error {
	store, err := journal.NewSQLite(importDBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	led := ledger.New(store)

	paths := []string{args[0]}
	if importZip {
		dir, err := os.MkdirTemp("", "daybook-import-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)

		if err := unzip.Extract(args[0], dir); err != nil {
			return fmt.Errorf("extract %s: %w", args[0], err)
		}
		paths, err = filepath.Glob(filepath.Join(dir, "*.csv"))
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no .csv files in %s", args[0])
		}
	}

	var total int
	for _, p := range paths {
		n, err := importCSV(cmd, led, p)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		total += n
	}
	fmt.Printf("imported %d expenses into %s\n", total, importDBPath)
	return nil
}

// importCSV reads date,category,subcategory,amount,description rows and
// appends each as an expense. Returns the number of rows imported.
func importCSV(cmd *cobra.Command, led *ledger.Ledger, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 5
	r.TrimLeadingSpace = true

	var n int
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}

		d, err := date.Parse(rec[0])
		if err != nil {
			// Header row, but only at the top of the file.
			if n == 0 && strings.EqualFold(rec[0], "date") {
				continue
			}
			return n, fmt.Errorf("row %d: %w", n+1, err)
		}
		amount, err := decimal.NewFromString(rec[3])
		if err != nil {
			return n, fmt.Errorf("row %d: bad amount %q", n+1, rec[3])
		}

		_, err = led.AddExpense(cmd.Context(), importOwner, ledger.Expense{
			Date:        d,
			Category:    rec[1],
			Subcategory: rec[2],
			Amount:      amount,
			Description: rec[4],
		})
		if err != nil {
			return n, fmt.Errorf("row %d: %w", n+1, err)
		}
		n++
	}
}
