package ledger

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/daybook/date"
	"github.com/rustyeddy/daybook/events"
)

// Ledger coordinates the entry journal, balance resolution and day
// finalization over an injected Store.
//
// Mutations and finalization for the same (owner, date) pair are serialized
// by a per-key mutex: finalization reads the day's entries and then writes
// derived state, and an append interleaved between those steps would be
// silently left out of the closing balance. Reads are not locked.
type Ledger struct {
	store Store
	pub   events.Publisher
	log   *log.Logger

	mu    sync.Mutex // protects locks
	locks map[dayKey]*sync.Mutex
}

type dayKey struct {
	owner int64
	day   date.Date
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher emits a DayFinalized event after each successful
// finalization. Publish failures are logged, never returned: the day is
// already finalized by the time the event goes out.
func WithPublisher(p events.Publisher) Option {
	return func(l *Ledger) { l.pub = p }
}

// WithLogger overrides the default logger.
func WithLogger(lg *log.Logger) Option {
	return func(l *Ledger) { l.log = lg }
}

// New creates a Ledger over the given store.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		pub:   events.Nop{},
		log:   log.Default(),
		locks: make(map[dayKey]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// dayLock returns the mutex serializing writes for one (owner, date) pair.
func (l *Ledger) dayLock(owner int64, d date.Date) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := dayKey{owner, d}
	if _, ok := l.locks[k]; !ok {
		l.locks[k] = &sync.Mutex{}
	}
	return l.locks[k]
}

func requireOwner(owner int64) error {
	if owner == 0 {
		return ErrUnauthenticated
	}
	return nil
}

// --- Expenses ---

// AddExpense records a new expense. The store assigns its id.
func (l *Ledger) AddExpense(ctx context.Context, owner int64, e Expense) (Expense, error) {
	if err := requireOwner(owner); err != nil {
		return Expense{}, err
	}
	if e.Amount.IsNegative() {
		return Expense{}, ErrNegativeAmount
	}
	e.Owner = owner

	mu := l.dayLock(owner, e.Date)
	mu.Lock()
	defer mu.Unlock()

	stored, err := l.store.AppendExpense(ctx, e)
	if err != nil {
		return Expense{}, fmt.Errorf("append expense: %w", err)
	}
	return stored, nil
}

// Expenses lists the owner's expenses for one day.
func (l *Ledger) Expenses(ctx context.Context, owner int64, d date.Date) ([]Expense, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	return l.store.ExpensesByDate(ctx, d, owner)
}

// EditExpense replaces the mutable fields of the expense identified by
// (e.Date, e.ID) and returns the merged record.
func (l *Ledger) EditExpense(ctx context.Context, owner int64, e Expense) (Expense, error) {
	if err := requireOwner(owner); err != nil {
		return Expense{}, err
	}
	if e.Amount.IsNegative() {
		return Expense{}, ErrNegativeAmount
	}
	e.Owner = owner

	mu := l.dayLock(owner, e.Date)
	mu.Lock()
	defer mu.Unlock()

	merged, err := l.store.UpdateExpense(ctx, e)
	if err != nil {
		return Expense{}, fmt.Errorf("update expense %d on %s: %w", e.ID, e.Date, err)
	}
	return merged, nil
}

// DeleteExpense removes an expense by id and date. Deleting an id that does
// not exist is a no-op.
func (l *Ledger) DeleteExpense(ctx context.Context, owner int64, id int64, d date.Date) error {
	if err := requireOwner(owner); err != nil {
		return err
	}

	mu := l.dayLock(owner, d)
	mu.Lock()
	defer mu.Unlock()

	return l.store.RemoveExpense(ctx, id, d)
}

// --- Wager transactions ---

// AddWager records a new wager transaction. The store assigns its id,
// independently from expense ids.
func (l *Ledger) AddWager(ctx context.Context, owner int64, w WagerTransaction) (WagerTransaction, error) {
	if err := requireOwner(owner); err != nil {
		return WagerTransaction{}, err
	}
	if !w.Flow.Valid() {
		return WagerTransaction{}, ErrInvalidFlow
	}
	if w.Amount.IsNegative() {
		return WagerTransaction{}, ErrNegativeAmount
	}
	w.Owner = owner

	mu := l.dayLock(owner, w.Date)
	mu.Lock()
	defer mu.Unlock()

	stored, err := l.store.AppendWager(ctx, w)
	if err != nil {
		return WagerTransaction{}, fmt.Errorf("append wager: %w", err)
	}
	return stored, nil
}

// Wagers lists the owner's wager transactions for one day.
func (l *Ledger) Wagers(ctx context.Context, owner int64, d date.Date) ([]WagerTransaction, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	return l.store.WagersByDate(ctx, d, owner)
}

// EditWager replaces the mutable fields of the wager identified by
// (w.Date, w.ID) and returns the merged record.
func (l *Ledger) EditWager(ctx context.Context, owner int64, w WagerTransaction) (WagerTransaction, error) {
	if err := requireOwner(owner); err != nil {
		return WagerTransaction{}, err
	}
	if !w.Flow.Valid() {
		return WagerTransaction{}, ErrInvalidFlow
	}
	if w.Amount.IsNegative() {
		return WagerTransaction{}, ErrNegativeAmount
	}
	w.Owner = owner

	mu := l.dayLock(owner, w.Date)
	mu.Lock()
	defer mu.Unlock()

	merged, err := l.store.UpdateWager(ctx, w)
	if err != nil {
		return WagerTransaction{}, fmt.Errorf("update wager %d on %s: %w", w.ID, w.Date, err)
	}
	return merged, nil
}

// DeleteWager removes a wager transaction by id and date. Deleting an id
// that does not exist is a no-op.
func (l *Ledger) DeleteWager(ctx context.Context, owner int64, id int64, d date.Date) error {
	if err := requireOwner(owner); err != nil {
		return err
	}

	mu := l.dayLock(owner, d)
	mu.Lock()
	defer mu.Unlock()

	return l.store.RemoveWager(ctx, id, d)
}

// --- Balances ---

// OpeningBalance resolves the balance carried into the given day: the cached
// closing balance of the prior day when one exists, otherwise the accumulated
// net flow from the first of the month through the prior day.
func (l *Ledger) OpeningBalance(ctx context.Context, owner int64, d date.Date) (decimal.Decimal, error) {
	if err := requireOwner(owner); err != nil {
		return decimal.Zero, err
	}

	prior := d.Prev()
	cached, ok, err := l.store.ClosingBalance(ctx, owner, prior)
	if err != nil {
		return decimal.Zero, fmt.Errorf("closing balance for %s: %w", prior, err)
	}
	if ok {
		return cached, nil
	}
	return l.accumulateFromMonthStart(ctx, owner, d)
}

// accumulateFromMonthStart sums net flows for every day from the first of
// d's month through the day before d. This is the O(days) fallback for when
// no closing balance was ever persisted; the cache hit in OpeningBalance
// keeps the common case O(1).
func (l *Ledger) accumulateFromMonthStart(ctx context.Context, owner int64, d date.Date) (decimal.Decimal, error) {
	total := decimal.Zero
	for day := range date.Range(d.StartOfMonth(), d.Prev()) {
		expenses, err := l.store.ExpensesByDate(ctx, day, owner)
		if err != nil {
			return decimal.Zero, fmt.Errorf("expenses for %s: %w", day, err)
		}
		wagers, err := l.store.WagersByDate(ctx, day, owner)
		if err != nil {
			return decimal.Zero, fmt.Errorf("wagers for %s: %w", day, err)
		}
		total = total.Add(netFlow(expenses, wagers))
	}
	return total, nil
}

// --- Finalization ---

// FinalizeDay computes the day's closing balance, persists it together with
// the finalized marker, and returns the stored closing balance.
//
// Finalization is one-way: there is no un-finalize. Running it again for the
// same day recomputes and overwrites the stored value, which makes it
// idempotent as long as the day's entries are unchanged.
func (l *Ledger) FinalizeDay(ctx context.Context, owner int64, d date.Date) (ClosingBalance, error) {
	if err := requireOwner(owner); err != nil {
		return ClosingBalance{}, err
	}

	mu := l.dayLock(owner, d)
	mu.Lock()
	defer mu.Unlock()

	expenses, err := l.store.ExpensesByDate(ctx, d, owner)
	if err != nil {
		return ClosingBalance{}, fmt.Errorf("expenses for %s: %w", d, err)
	}
	wagers, err := l.store.WagersByDate(ctx, d, owner)
	if err != nil {
		return ClosingBalance{}, fmt.Errorf("wagers for %s: %w", d, err)
	}
	opening, err := l.OpeningBalance(ctx, owner, d)
	if err != nil {
		return ClosingBalance{}, err
	}

	cb := ClosingBalance{Date: d, Value: opening.Add(netFlow(expenses, wagers))}
	if err := l.store.SaveDayClose(ctx, owner, cb); err != nil {
		return ClosingBalance{}, fmt.Errorf("save day close for %s: %w", d, err)
	}

	ev := events.NewDayFinalized(owner, d.String(), cb.Value, time.Now().UTC())
	if err := l.pub.Publish(ctx, ev); err != nil {
		l.log.Printf("ledger: publish day finalized %s owner=%d: %v", d, owner, err)
	}
	return cb, nil
}

// IsFinalized reports whether the owner has finalized the given day.
func (l *Ledger) IsFinalized(ctx context.Context, owner int64, d date.Date) (bool, error) {
	if err := requireOwner(owner); err != nil {
		return false, err
	}
	return l.store.IsFinalized(ctx, owner, d)
}

// FinalizedDates lists the owner's finalized days in ascending order.
func (l *Ledger) FinalizedDates(ctx context.Context, owner int64) ([]date.Date, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	return l.store.FinalizedDates(ctx, owner)
}

// --- Snapshot ---

// Snapshot assembles the read model for one day: its expenses, its wager
// transactions, its opening balance and its finalized flag. It performs no
// writes.
func (l *Ledger) Snapshot(ctx context.Context, owner int64, d date.Date) (DaySnapshot, error) {
	if err := requireOwner(owner); err != nil {
		return DaySnapshot{}, err
	}

	expenses, err := l.store.ExpensesByDate(ctx, d, owner)
	if err != nil {
		return DaySnapshot{}, fmt.Errorf("expenses for %s: %w", d, err)
	}
	wagers, err := l.store.WagersByDate(ctx, d, owner)
	if err != nil {
		return DaySnapshot{}, fmt.Errorf("wagers for %s: %w", d, err)
	}
	opening, err := l.OpeningBalance(ctx, owner, d)
	if err != nil {
		return DaySnapshot{}, err
	}
	finalized, err := l.store.IsFinalized(ctx, owner, d)
	if err != nil {
		return DaySnapshot{}, fmt.Errorf("finalized flag for %s: %w", d, err)
	}

	if expenses == nil {
		expenses = []Expense{}
	}
	if wagers == nil {
		wagers = []WagerTransaction{}
	}
	return DaySnapshot{
		Date:           d,
		Expenses:       expenses,
		Wagers:         wagers,
		OpeningBalance: opening,
		Finalized:      finalized,
	}, nil
}
