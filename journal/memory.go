// Package journal provides the storage backends for the ledger: an in-memory
// store for tests and development, and SQLite/Postgres stores for real use.
// All three satisfy ledger.Store.
package journal

import (
	"context"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/daybook/date"
	"github.com/rustyeddy/daybook/ledger"
)

type ownerDay struct {
	owner int64
	day   date.Date
}

// Memory is an in-memory ledger.Store. Entry lists are kept per date with all
// owners mixed, exactly like the physical journal; owner filtering happens on
// read. Closing balances and finalized markers are kept per (owner, date) and
// always written together under the store lock.
type Memory struct {
	mu        sync.Mutex
	expenses  map[date.Date][]ledger.Expense
	wagers    map[date.Date][]ledger.WagerTransaction
	closings  map[ownerDay]decimal.Decimal
	finalized map[ownerDay]bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		expenses:  make(map[date.Date][]ledger.Expense),
		wagers:    make(map[date.Date][]ledger.WagerTransaction),
		closings:  make(map[ownerDay]decimal.Decimal),
		finalized: make(map[ownerDay]bool),
	}
}

// AppendExpense stores e under its date with the next id for that date.
func (m *Memory) AppendExpense(_ context.Context, e ledger.Expense) (ledger.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var maxID int64
	for _, x := range m.expenses[e.Date] {
		if x.ID > maxID {
			maxID = x.ID
		}
	}
	e.ID = maxID + 1
	m.expenses[e.Date] = append(m.expenses[e.Date], e)
	return e, nil
}

// ExpensesByDate returns the owner's expenses for one day.
func (m *Memory) ExpensesByDate(_ context.Context, d date.Date, owner int64) ([]ledger.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []ledger.Expense
	for _, e := range m.expenses[d] {
		if e.Owner == owner {
			out = append(out, e)
		}
	}
	return out, nil
}

// UpdateExpense merges e into the record with the same (date, id).
func (m *Memory) UpdateExpense(_ context.Context, e ledger.Expense) (ledger.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.expenses[e.Date]
	for i, x := range list {
		if x.ID == e.ID {
			x.Category = e.Category
			x.Subcategory = e.Subcategory
			x.Amount = e.Amount
			x.Description = e.Description
			list[i] = x
			return x, nil
		}
	}
	return ledger.Expense{}, ledger.ErrNotFound
}

// RemoveExpense deletes by (id, date); missing ids are a no-op.
func (m *Memory) RemoveExpense(_ context.Context, id int64, d date.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.expenses[d] = slices.DeleteFunc(m.expenses[d], func(e ledger.Expense) bool {
		return e.ID == id
	})
	return nil
}

// AppendWager stores w under its date with the next wager id for that date.
func (m *Memory) AppendWager(_ context.Context, w ledger.WagerTransaction) (ledger.WagerTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var maxID int64
	for _, x := range m.wagers[w.Date] {
		if x.ID > maxID {
			maxID = x.ID
		}
	}
	w.ID = maxID + 1
	m.wagers[w.Date] = append(m.wagers[w.Date], w)
	return w, nil
}

// WagersByDate returns the owner's wager transactions for one day.
func (m *Memory) WagersByDate(_ context.Context, d date.Date, owner int64) ([]ledger.WagerTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []ledger.WagerTransaction
	for _, w := range m.wagers[d] {
		if w.Owner == owner {
			out = append(out, w)
		}
	}
	return out, nil
}

// UpdateWager merges w into the record with the same (date, id).
func (m *Memory) UpdateWager(_ context.Context, w ledger.WagerTransaction) (ledger.WagerTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.wagers[w.Date]
	for i, x := range list {
		if x.ID == w.ID {
			x.Flow = w.Flow
			x.Source = w.Source
			x.Amount = w.Amount
			x.Description = w.Description
			list[i] = x
			return x, nil
		}
	}
	return ledger.WagerTransaction{}, ledger.ErrNotFound
}

// RemoveWager deletes by (id, date); missing ids are a no-op.
func (m *Memory) RemoveWager(_ context.Context, id int64, d date.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.wagers[d] = slices.DeleteFunc(m.wagers[d], func(w ledger.WagerTransaction) bool {
		return w.ID == id
	})
	return nil
}

// ClosingBalance returns the cached closing balance for (owner, d).
func (m *Memory) ClosingBalance(_ context.Context, owner int64, d date.Date) (decimal.Decimal, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := ownerDay{owner, d}
	v, ok := m.closings[k]
	if ok != m.finalized[k] {
		return decimal.Zero, false, ledger.ErrInconsistentState
	}
	return v, ok, nil
}

// SaveDayClose stores the closing balance and the finalized marker under one
// lock.
func (m *Memory) SaveDayClose(_ context.Context, owner int64, cb ledger.ClosingBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := ownerDay{owner, cb.Date}
	m.closings[k] = cb.Value
	m.finalized[k] = true
	return nil
}

// IsFinalized reports whether (owner, d) has been finalized.
func (m *Memory) IsFinalized(_ context.Context, owner int64, d date.Date) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := ownerDay{owner, d}
	_, hasBalance := m.closings[k]
	if hasBalance != m.finalized[k] {
		return false, ledger.ErrInconsistentState
	}
	return m.finalized[k], nil
}

// FinalizedDates lists the owner's finalized days, ascending.
func (m *Memory) FinalizedDates(_ context.Context, owner int64) ([]date.Date, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []date.Date
	for k := range m.finalized {
		if k.owner == owner {
			out = append(out, k.day)
		}
	}
	slices.SortFunc(out, func(a, b date.Date) int {
		switch {
		case a.Before(b):
			return -1
		case a.After(b):
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

var _ ledger.Store = (*Memory)(nil)
