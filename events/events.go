// Package events defines the ledger's outbound integration events and the
// publisher abstraction used to emit them.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DayFinalized is emitted after a day's closing balance has been persisted.
type DayFinalized struct {
	EventID    string          `json:"event_id"`
	Owner      int64           `json:"owner"`
	Date       string          `json:"date"`
	Closing    decimal.Decimal `json:"closing"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewDayFinalized builds a DayFinalized event with a fresh event id.
func NewDayFinalized(owner int64, day string, closing decimal.Decimal, at time.Time) DayFinalized {
	return DayFinalized{
		EventID:    uuid.New().String(),
		Owner:      owner,
		Date:       day,
		Closing:    closing,
		OccurredAt: at,
	}
}

// Publisher emits events to an external system. Implementations must be safe
// for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// Nop is a Publisher that discards every event. It is the default when no
// broker is configured.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, any) error { return nil }
