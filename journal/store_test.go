package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/daybook/date"
	"github.com/rustyeddy/daybook/ledger"
)

// storeTests runs the ledger.Store contract against a backend. Memory and
// SQLite both go through it; Postgres shares the same code paths but needs a
// live server, so it is only covered by the compile-time assertion.
func storeTests(t *testing.T, newStore func(t *testing.T) ledger.Store) {
	ctx := context.Background()
	day := date.MustParse("2024-03-05")

	t.Run("expense ids increase per date", func(t *testing.T) {
		s := newStore(t)
		for i := 1; i <= 3; i++ {
			e, err := s.AppendExpense(ctx, ledger.Expense{
				Owner:    1,
				Date:     day,
				Category: "Servicios",
				Amount:   decimal.NewFromInt(int64(100 * i)),
			})
			require.NoError(t, err)
			assert.Equal(t, int64(i), e.ID)
		}

		// Another date starts its own sequence.
		e, err := s.AppendExpense(ctx, ledger.Expense{
			Owner: 1, Date: day.Add(1), Category: "Otros", Amount: decimal.NewFromInt(5),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), e.ID)
	})

	t.Run("expense and wager ids are independent", func(t *testing.T) {
		s := newStore(t)
		e, err := s.AppendExpense(ctx, ledger.Expense{Owner: 1, Date: day, Category: "Luz", Amount: decimal.NewFromInt(10)})
		require.NoError(t, err)
		w, err := s.AppendWager(ctx, ledger.WagerTransaction{Owner: 1, Date: day, Flow: ledger.FlowIngress, Source: "Primera", Amount: decimal.NewFromInt(20)})
		require.NoError(t, err)
		assert.Equal(t, int64(1), e.ID)
		assert.Equal(t, int64(1), w.ID)
	})

	t.Run("id sequence is shared across owners on one date", func(t *testing.T) {
		s := newStore(t)
		a, err := s.AppendExpense(ctx, ledger.Expense{Owner: 1, Date: day, Category: "A", Amount: decimal.NewFromInt(1)})
		require.NoError(t, err)
		b, err := s.AppendExpense(ctx, ledger.Expense{Owner: 2, Date: day, Category: "B", Amount: decimal.NewFromInt(2)})
		require.NoError(t, err)
		assert.Equal(t, int64(1), a.ID)
		assert.Equal(t, int64(2), b.ID)
	})

	t.Run("reads are owner filtered", func(t *testing.T) {
		s := newStore(t)
		_, err := s.AppendExpense(ctx, ledger.Expense{Owner: 1, Date: day, Category: "Mine", Amount: decimal.NewFromInt(1)})
		require.NoError(t, err)
		_, err = s.AppendExpense(ctx, ledger.Expense{Owner: 2, Date: day, Category: "Theirs", Amount: decimal.NewFromInt(2)})
		require.NoError(t, err)

		mine, err := s.ExpensesByDate(ctx, day, 1)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, "Mine", mine[0].Category)

		_, err = s.AppendWager(ctx, ledger.WagerTransaction{Owner: 2, Date: day, Flow: ledger.FlowEgress, Source: "X", Amount: decimal.NewFromInt(3)})
		require.NoError(t, err)
		wagers, err := s.WagersByDate(ctx, day, 1)
		require.NoError(t, err)
		assert.Empty(t, wagers)
	})

	t.Run("update merges fields and keeps identity", func(t *testing.T) {
		s := newStore(t)
		orig, err := s.AppendExpense(ctx, ledger.Expense{
			Owner: 7, Date: day, Category: "Servicios", Subcategory: "Luz",
			Amount: decimal.NewFromInt(1500), Description: "Pago de electricidad",
		})
		require.NoError(t, err)

		merged, err := s.UpdateExpense(ctx, ledger.Expense{
			ID: orig.ID, Date: day, Category: "Servicios", Subcategory: "Gas",
			Amount: decimal.NewFromInt(900), Description: "Corregido",
		})
		require.NoError(t, err)
		assert.Equal(t, orig.ID, merged.ID)
		assert.Equal(t, int64(7), merged.Owner)
		assert.Equal(t, "Gas", merged.Subcategory)
		assert.True(t, merged.Amount.Equal(decimal.NewFromInt(900)))
	})

	t.Run("update of missing id fails", func(t *testing.T) {
		s := newStore(t)
		_, err := s.UpdateExpense(ctx, ledger.Expense{ID: 99, Date: day, Amount: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, ledger.ErrNotFound)

		_, err = s.UpdateWager(ctx, ledger.WagerTransaction{ID: 99, Date: day, Flow: ledger.FlowIngress, Amount: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("remove is a no-op for missing ids", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.RemoveExpense(ctx, 42, day))
		assert.NoError(t, s.RemoveWager(ctx, 42, day))
	})

	t.Run("remove deletes by id and date", func(t *testing.T) {
		s := newStore(t)
		e, err := s.AppendExpense(ctx, ledger.Expense{Owner: 1, Date: day, Category: "X", Amount: decimal.NewFromInt(1)})
		require.NoError(t, err)
		require.NoError(t, s.RemoveExpense(ctx, e.ID, day))

		left, err := s.ExpensesByDate(ctx, day, 1)
		require.NoError(t, err)
		assert.Empty(t, left)
	})

	t.Run("day close round trip", func(t *testing.T) {
		s := newStore(t)

		_, ok, err := s.ClosingBalance(ctx, 1, day)
		require.NoError(t, err)
		assert.False(t, ok)

		fin, err := s.IsFinalized(ctx, 1, day)
		require.NoError(t, err)
		assert.False(t, fin)

		cb := ledger.ClosingBalance{Date: day, Value: decimal.NewFromInt(-1500)}
		require.NoError(t, s.SaveDayClose(ctx, 1, cb))

		got, ok, err := s.ClosingBalance(ctx, 1, day)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, got.Equal(cb.Value))

		fin, err = s.IsFinalized(ctx, 1, day)
		require.NoError(t, err)
		assert.True(t, fin)

		// Overwrite on re-close.
		require.NoError(t, s.SaveDayClose(ctx, 1, ledger.ClosingBalance{Date: day, Value: decimal.NewFromInt(250)}))
		got, ok, err = s.ClosingBalance(ctx, 1, day)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, got.Equal(decimal.NewFromInt(250)))
	})

	t.Run("day closes are owner scoped", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SaveDayClose(ctx, 1, ledger.ClosingBalance{Date: day, Value: decimal.NewFromInt(10)}))

		_, ok, err := s.ClosingBalance(ctx, 2, day)
		require.NoError(t, err)
		assert.False(t, ok)

		fin, err := s.IsFinalized(ctx, 2, day)
		require.NoError(t, err)
		assert.False(t, fin)
	})

	t.Run("finalized dates are sorted ascending", func(t *testing.T) {
		s := newStore(t)
		for _, str := range []string{"2024-03-09", "2024-03-02", "2024-03-05"} {
			d := date.MustParse(str)
			require.NoError(t, s.SaveDayClose(ctx, 1, ledger.ClosingBalance{Date: d, Value: decimal.Zero}))
		}
		require.NoError(t, s.SaveDayClose(ctx, 2, ledger.ClosingBalance{Date: day, Value: decimal.Zero}))

		got, err := s.FinalizedDates(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []date.Date{
			date.MustParse("2024-03-02"),
			date.MustParse("2024-03-05"),
			date.MustParse("2024-03-09"),
		}, got)
	})
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	storeTests(t, func(t *testing.T) ledger.Store { return NewMemory() })
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()
	storeTests(t, func(t *testing.T) ledger.Store {
		t.Helper()
		s := newTestSQLite(t)
		return s
	})
}

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
