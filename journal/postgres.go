package journal

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/daybook/date"
	"github.com/rustyeddy/daybook/ledger"
)

// PostgresSchema mirrors the SQLite schema with NUMERIC amounts.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS expenses (
	day DATE NOT NULL,
	id BIGINT NOT NULL,
	owner BIGINT NOT NULL,
	category TEXT NOT NULL,
	subcategory TEXT NOT NULL DEFAULT '',
	amount NUMERIC NOT NULL,
	description TEXT NOT NULL,
	PRIMARY KEY (day, id)
);

CREATE TABLE IF NOT EXISTS wagers (
	day DATE NOT NULL,
	id BIGINT NOT NULL,
	owner BIGINT NOT NULL,
	flow TEXT NOT NULL CHECK (flow IN ('ingress', 'egress')),
	source TEXT NOT NULL,
	amount NUMERIC NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (day, id)
);

CREATE TABLE IF NOT EXISTS day_closes (
	owner BIGINT NOT NULL,
	day DATE NOT NULL,
	closing NUMERIC NOT NULL,
	finalized_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (owner, day)
);

CREATE INDEX IF NOT EXISTS idx_expenses_owner ON expenses(day, owner);
CREATE INDEX IF NOT EXISTS idx_wagers_owner ON wagers(day, owner);
`

// Postgres is a ledger.Store backed by PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an opened database handle and ensures the schema exists.
func NewPostgres(db *sql.DB) (*Postgres, error) {
	if _, err := db.Exec(PostgresSchema); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// OpenPostgres opens a connection for the given DSN and ensures the schema
// exists.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	p, err := NewPostgres(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// Close closes the underlying database.
func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) AppendExpense(ctx context.Context, e ledger.Expense) (ledger.Expense, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Expense{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) + 1 FROM expenses WHERE day = $1`, e.Date)
	if err := row.Scan(&e.ID); err != nil {
		return ledger.Expense{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO expenses (day, id, owner, category, subcategory, amount, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
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

func (p *Postgres) ExpensesByDate(ctx context.Context, d date.Date, owner int64) ([]ledger.Expense, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT day, id, owner, category, subcategory, amount, description
		FROM expenses
		WHERE day = $1 AND owner = $2
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

func (p *Postgres) UpdateExpense(ctx context.Context, e ledger.Expense) (ledger.Expense, error) {
	row := p.db.QueryRowContext(ctx, `
		UPDATE expenses
		SET category = $1, subcategory = $2, amount = $3, description = $4
		WHERE day = $5 AND id = $6
		RETURNING day, id, owner, category, subcategory, amount, description`,
		e.Category, e.Subcategory, e.Amount, e.Description, e.Date, e.ID,
	)
	var merged ledger.Expense
	if err := row.Scan(
		&merged.Date, &merged.ID, &merged.Owner,
		&merged.Category, &merged.Subcategory, &merged.Amount, &merged.Description,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Expense{}, ledger.ErrNotFound
		}
		return ledger.Expense{}, err
	}
	return merged, nil
}

func (p *Postgres) RemoveExpense(ctx context.Context, id int64, d date.Date) error {
	_, err := p.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE day = $1 AND id = $2`, d, id)
	return err
}

func (p *Postgres) AppendWager(ctx context.Context, w ledger.WagerTransaction) (ledger.WagerTransaction, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.WagerTransaction{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) + 1 FROM wagers WHERE day = $1`, w.Date)
	if err := row.Scan(&w.ID); err != nil {
		return ledger.WagerTransaction{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wagers (day, id, owner, flow, source, amount, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
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

func (p *Postgres) WagersByDate(ctx context.Context, d date.Date, owner int64) ([]ledger.WagerTransaction, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT day, id, owner, flow, source, amount, description
		FROM wagers
		WHERE day = $1 AND owner = $2
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

func (p *Postgres) UpdateWager(ctx context.Context, w ledger.WagerTransaction) (ledger.WagerTransaction, error) {
	row := p.db.QueryRowContext(ctx, `
		UPDATE wagers
		SET flow = $1, source = $2, amount = $3, description = $4
		WHERE day = $5 AND id = $6
		RETURNING day, id, owner, flow, source, amount, description`,
		string(w.Flow), w.Source, w.Amount, w.Description, w.Date, w.ID,
	)
	var merged ledger.WagerTransaction
	var flow string
	if err := row.Scan(
		&merged.Date, &merged.ID, &merged.Owner,
		&flow, &merged.Source, &merged.Amount, &merged.Description,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.WagerTransaction{}, ledger.ErrNotFound
		}
		return ledger.WagerTransaction{}, err
	}
	merged.Flow = ledger.Flow(flow)
	return merged, nil
}

func (p *Postgres) RemoveWager(ctx context.Context, id int64, d date.Date) error {
	_, err := p.db.ExecContext(ctx,
		`DELETE FROM wagers WHERE day = $1 AND id = $2`, d, id)
	return err
}

func (p *Postgres) ClosingBalance(ctx context.Context, owner int64, d date.Date) (decimal.Decimal, bool, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT closing FROM day_closes WHERE owner = $1 AND day = $2`, owner, d)
	var v decimal.Decimal
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}
	return v, true, nil
}

func (p *Postgres) SaveDayClose(ctx context.Context, owner int64, cb ledger.ClosingBalance) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO day_closes (owner, day, closing, finalized_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner, day) DO UPDATE SET
			closing = EXCLUDED.closing,
			finalized_at = EXCLUDED.finalized_at`,
		owner, cb.Date, cb.Value, time.Now().UTC(),
	)
	return err
}

func (p *Postgres) IsFinalized(ctx context.Context, owner int64, d date.Date) (bool, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT 1 FROM day_closes WHERE owner = $1 AND day = $2`, owner, d)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *Postgres) FinalizedDates(ctx context.Context, owner int64) ([]date.Date, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT day FROM day_closes WHERE owner = $1 ORDER BY day ASC`, owner)
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

var _ ledger.Store = (*Postgres)(nil)
