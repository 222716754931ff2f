package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/daybook/date"
	"github.com/rustyeddy/daybook/ledger"
)

// SQLite is a ledger.Store backed by a SQLite file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and ensures the schema
// exists.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// AppendExpense inserts e with the next id for its date. The id lookup and
// the insert run in one transaction so concurrent appends cannot collide.
func (s *SQLite) AppendExpense(ctx context.Context, e ledger.Expense) (ledger.Expense, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Expense{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) + 1 FROM expenses WHERE day = ?`, e.Date)
	if err := row.Scan(&e.ID); err != nil {
		return ledger.Expense{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO expenses (day, id, owner, category, subcategory, amount, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Date, e.ID, e.Owner, e.Category, e.Subcategory, e.Amount, e.Description,
	)
	if err != nil {
		return ledger.Expense{}, err
	}
	if err := tx.Commit(); err != nil {
		return ledger.Expense{}, err
	}
	return e, nil
}

// ExpensesByDate returns the owner's expenses for one day, ordered by id.
func (s *SQLite) ExpensesByDate(ctx context.Context, d date.Date, owner int64) ([]ledger.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT day, id, owner, category, subcategory, amount, description
		FROM expenses
		WHERE day = ? AND owner = ?
		ORDER BY id ASC`, d, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Expense
	for rows.Next() {
		var e ledger.Expense
		if err := rows.Scan(
			&e.Date, &e.ID, &e.Owner,
			&e.Category, &e.Subcategory, &e.Amount, &e.Description,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateExpense replaces the mutable fields of the record with e's (date, id)
// and returns the merged row.
func (s *SQLite) UpdateExpense(ctx context.Context, e ledger.Expense) (ledger.Expense, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET category = ?, subcategory = ?, amount = ?, description = ?
		WHERE day = ? AND id = ?`,
		e.Category, e.Subcategory, e.Amount, e.Description, e.Date, e.ID,
	)
	if err != nil {
		return ledger.Expense{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ledger.Expense{}, err
	}
	if n == 0 {
		return ledger.Expense{}, ledger.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT day, id, owner, category, subcategory, amount, description
		FROM expenses WHERE day = ? AND id = ?`, e.Date, e.ID)
	var merged ledger.Expense
	if err := row.Scan(
		&merged.Date, &merged.ID, &merged.Owner,
		&merged.Category, &merged.Subcategory, &merged.Amount, &merged.Description,
	); err != nil {
		return ledger.Expense{}, err
	}
	return merged, nil
}

// RemoveExpense deletes by (id, date); deleting a missing id is a no-op.
func (s *SQLite) RemoveExpense(ctx context.Context, id int64, d date.Date) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE day = ? AND id = ?`, d, id)
	return err
}

// AppendWager inserts w with the next wager id for its date.
func (s *SQLite) AppendWager(ctx context.Context, w ledger.WagerTransaction) (ledger.WagerTransaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.WagerTransaction{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) + 1 FROM wagers WHERE day = ?`, w.Date)
	if err := row.Scan(&w.ID); err != nil {
		return ledger.WagerTransaction{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wagers (day, id, owner, flow, source, amount, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.Date, w.ID, w.Owner, string(w.Flow), w.Source, w.Amount, w.Description,
	)
	if err != nil {
		return ledger.WagerTransaction{}, err
	}
	if err := tx.Commit(); err != nil {
		return ledger.WagerTransaction{}, err
	}
	return w, nil
}

// WagersByDate returns the owner's wager transactions for one day, ordered
// by id.
func (s *SQLite) WagersByDate(ctx context.Context, d date.Date, owner int64) ([]ledger.WagerTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT day, id, owner, flow, source, amount, description
		FROM wagers
		WHERE day = ? AND owner = ?
		ORDER BY id ASC`, d, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.WagerTransaction
	for rows.Next() {
		var w ledger.WagerTransaction
		var flow string
		if err := rows.Scan(
			&w.Date, &w.ID, &w.Owner,
			&flow, &w.Source, &w.Amount, &w.Description,
		); err != nil {
			return nil, err
		}
		w.Flow = ledger.Flow(flow)
		out = append(out, w)
	}
	return out, rows.Err()
}

// UpdateWager replaces the mutable fields of the record with w's (date, id)
// and returns the merged row.
func (s *SQLite) UpdateWager(ctx context.Context, w ledger.WagerTransaction) (ledger.WagerTransaction, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE wagers
		SET flow = ?, source = ?, amount = ?, description = ?
		WHERE day = ? AND id = ?`,
		string(w.Flow), w.Source, w.Amount, w.Description, w.Date, w.ID,
	)
	if err != nil {
		return ledger.WagerTransaction{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ledger.WagerTransaction{}, err
	}
	if n == 0 {
		return ledger.WagerTransaction{}, ledger.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT day, id, owner, flow, source, amount, description
		FROM wagers WHERE day = ? AND id = ?`, w.Date, w.ID)
	var merged ledger.WagerTransaction
	var flow string
	if err := row.Scan(
		&merged.Date, &merged.ID, &merged.Owner,
		&flow, &merged.Source, &merged.Amount, &merged.Description,
	); err != nil {
		return ledger.WagerTransaction{}, err
	}
	merged.Flow = ledger.Flow(flow)
	return merged, nil
}

// RemoveWager deletes by (id, date); deleting a missing id is a no-op.
func (s *SQLite) RemoveWager(ctx context.Context, id int64, d date.Date) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM wagers WHERE day = ? AND id = ?`, d, id)
	return err
}

// ClosingBalance returns the cached closing balance for (owner, d).
func (s *SQLite) ClosingBalance(ctx context.Context, owner int64, d date.Date) (decimal.Decimal, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT closing FROM day_closes WHERE owner = ? AND day = ?`, owner, d)
	var v decimal.Decimal
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}
	return v, true, nil
}

// SaveDayClose upserts the day's closing row. The row doubles as the
// finalized marker, so balance and marker can never disagree.
func (s *SQLite) SaveDayClose(ctx context.Context, owner int64, cb ledger.ClosingBalance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO day_closes (owner, day, closing, finalized_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (owner, day) DO UPDATE SET
			closing = excluded.closing,
			finalized_at = excluded.finalized_at`,
		owner, cb.Date, cb.Value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save day close: %w", err)
	}
	return nil
}

// IsFinalized reports whether a closing row exists for (owner, d).
func (s *SQLite) IsFinalized(ctx context.Context, owner int64, d date.Date) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM day_closes WHERE owner = ? AND day = ?`, owner, d)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// FinalizedDates lists the owner's finalized days, ascending.
func (s *SQLite) FinalizedDates(ctx context.Context, owner int64) ([]date.Date, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT day FROM day_closes WHERE owner = ? ORDER BY day ASC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []date.Date
	for rows.Next() {
		var d date.Date
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

var _ ledger.Store = (*SQLite)(nil)
