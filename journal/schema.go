package journal

// Schema is the SQLite DDL. Ids are a per-date sequence assigned on insert,
// so entry tables key on (day, id). Amounts are stored as TEXT to keep
// decimal values exact. A day_close row is both the cached closing balance
// and the finalized marker: a day is finalized iff its row exists, which
// makes a half-finalized day unrepresentable.
const Schema = `
CREATE TABLE IF NOT EXISTS expenses (
	day TEXT NOT NULL,
	id INTEGER NOT NULL,
	owner INTEGER NOT NULL,
	category TEXT NOT NULL,
	subcategory TEXT NOT NULL DEFAULT '',
	amount TEXT NOT NULL,
	description TEXT NOT NULL,
	PRIMARY KEY (day, id)
);

CREATE TABLE IF NOT EXISTS wagers (
	day TEXT NOT NULL,
	id INTEGER NOT NULL,
	owner INTEGER NOT NULL,
	flow TEXT NOT NULL CHECK (flow IN ('ingress', 'egress')),
	source TEXT NOT NULL,
	amount TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (day, id)
);

CREATE TABLE IF NOT EXISTS day_closes (
	owner INTEGER NOT NULL,
	day TEXT NOT NULL,
	closing TEXT NOT NULL,
	finalized_at DATETIME NOT NULL,
	PRIMARY KEY (owner, day)
);

CREATE INDEX IF NOT EXISTS idx_expenses_owner ON expenses(day, owner);
CREATE INDEX IF NOT EXISTS idx_wagers_owner ON wagers(day, owner);
`
