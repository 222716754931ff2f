package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/daybook/date"
	"github.com/rustyeddy/daybook/ledger"
)

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "schema.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('expenses','wagers','day_closes')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["expenses"])
	assert.True(t, found["wagers"])
	assert.True(t, found["day_closes"])
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")
	day := date.MustParse("2024-03-01")

	s, err := NewSQLite(path)
	require.NoError(t, err)

	_, err = s.AppendExpense(ctx, ledger.Expense{
		Owner: 1, Date: day, Category: "Servicios", Subcategory: "Luz",
		Amount: decimal.RequireFromString("1500.50"), Description: "Pago de electricidad",
	})
	require.NoError(t, err)
	require.NoError(t, s.SaveDayClose(ctx, 1, ledger.ClosingBalance{
		Date: day, Value: decimal.RequireFromString("-1500.50"),
	}))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	expenses, err := s.ExpensesByDate(ctx, day, 1)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Luz", expenses[0].Subcategory)
	assert.True(t, expenses[0].Amount.Equal(decimal.RequireFromString("1500.50")))

	v, ok, err := s.ClosingBalance(ctx, 1, day)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, v.Equal(decimal.RequireFromString("-1500.50")))

	days, err := s.FinalizedDates(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []date.Date{day}, days)
}

func TestSQLiteAmountPrecision(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestSQLite(t)
	day := date.MustParse("2024-06-15")

	// Amounts survive storage exactly, no float rounding.
	e, err := s.AppendExpense(ctx, ledger.Expense{
		Owner: 1, Date: day, Category: "X",
		Amount: decimal.RequireFromString("0.1"),
	})
	require.NoError(t, err)
	_, err = s.AppendExpense(ctx, ledger.Expense{
		Owner: 1, Date: day, Category: "X",
		Amount: decimal.RequireFromString("0.2"),
	})
	require.NoError(t, err)

	got, err := s.ExpensesByDate(ctx, day, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)

	sum := got[0].Amount.Add(got[1].Amount)
	assert.True(t, sum.Equal(decimal.RequireFromString("0.3")), "got %s", sum)
	assert.Equal(t, e.ID, got[0].ID)
}
