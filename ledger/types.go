// Package ledger implements the daily ledger: per-day expense and wager
// journals, opening/closing balance resolution, and day finalization.
//
// The ledger itself holds no state; it is constructed over a Store and an
// optional event publisher. All amounts are decimals, all dates are calendar
// dates, and every operation is scoped to an authenticated owner.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/daybook/date"
)

// Flow tags the direction of a wager transaction.
type Flow string

const (
	// FlowIngress is money collected (e.g. wager takings).
	FlowIngress Flow = "ingress"
	// FlowEgress is money paid out (e.g. prize payouts).
	FlowEgress Flow = "egress"
)

// Valid reports whether f is a known flow direction.
func (f Flow) Valid() bool { return f == FlowIngress || f == FlowEgress }

// Expense is a single outflow recorded against a calendar day.
type Expense struct {
	ID          int64           `json:"id"`
	Owner       int64           `json:"owner"`
	Date        date.Date       `json:"date"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// WagerTransaction is a lottery-booth movement for a calendar day, tagged
// ingress or egress.
type WagerTransaction struct {
	ID          int64           `json:"id"`
	Owner       int64           `json:"owner"`
	Date        date.Date       `json:"date"`
	Flow        Flow            `json:"flow"`
	Source      string          `json:"source"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// ClosingBalance is the frozen balance for a finalized day.
type ClosingBalance struct {
	Date  date.Date       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// DaySnapshot is the read model for one day, as consumed by the presentation
// layer.
type DaySnapshot struct {
	Date           date.Date          `json:"date"`
	Expenses       []Expense          `json:"expenses"`
	Wagers         []WagerTransaction `json:"wagers"`
	OpeningBalance decimal.Decimal    `json:"opening_balance"`
	Finalized      bool               `json:"finalized"`
}

// netFlow computes a day's net movement:
// ingress wagers minus (expenses plus egress wagers).
func netFlow(expenses []Expense, wagers []WagerTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, w := range wagers {
		switch w.Flow {
		case FlowIngress:
			total = total.Add(w.Amount)
		case FlowEgress:
			total = total.Sub(w.Amount)
		}
	}
	for _, e := range expenses {
		total = total.Sub(e.Amount)
	}
	return total
}
