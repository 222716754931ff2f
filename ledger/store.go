package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/daybook/date"
)

// Store is the persistence boundary of the ledger. Implementations live in
// the journal package (in-memory, SQLite, Postgres); the ledger never touches
// storage directly so it can be tested against the in-memory store and run
// against a real database without changes.
//
// Entry ids are assigned by the store: within one date the next id is the
// highest existing id plus one (starting at 1), counted across all owners.
// Expense and wager ids are independent sequences.
//
// Closing balances and finalized markers are keyed by (owner, date).
// SaveDayClose must persist both together: either in one transaction or under
// one lock, so a reader can never observe one without the other.
type Store interface {
	AppendExpense(ctx context.Context, e Expense) (Expense, error)
	ExpensesByDate(ctx context.Context, d date.Date, owner int64) ([]Expense, error)
	UpdateExpense(ctx context.Context, e Expense) (Expense, error)
	// RemoveExpense deletes the expense with the given id on the given
	// date. Removing an id that does not exist is a no-op.
	RemoveExpense(ctx context.Context, id int64, d date.Date) error

	AppendWager(ctx context.Context, w WagerTransaction) (WagerTransaction, error)
	WagersByDate(ctx context.Context, d date.Date, owner int64) ([]WagerTransaction, error)
	UpdateWager(ctx context.Context, w WagerTransaction) (WagerTransaction, error)
	RemoveWager(ctx context.Context, id int64, d date.Date) error

	// ClosingBalance returns the cached closing balance for (owner, d).
	// The boolean reports whether one has been persisted.
	ClosingBalance(ctx context.Context, owner int64, d date.Date) (decimal.Decimal, bool, error)
	// SaveDayClose persists the closing balance and marks the date
	// finalized, atomically. Overwrites any prior value for the same day.
	SaveDayClose(ctx context.Context, owner int64, cb ClosingBalance) error
	IsFinalized(ctx context.Context, owner int64, d date.Date) (bool, error)
	// FinalizedDates lists the owner's finalized dates in ascending order.
	FinalizedDates(ctx context.Context, owner int64) ([]date.Date, error)
}
