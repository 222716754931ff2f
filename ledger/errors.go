package ledger

import "errors"

var (
	// ErrUnauthenticated is returned when no owner context accompanies a
	// call. Every ledger operation requires an authenticated owner.
	ErrUnauthenticated = errors.New("ledger: unauthenticated")

	// ErrNotFound is returned when updating an entry that does not exist
	// for the given date. Removals of missing entries are a no-op instead.
	ErrNotFound = errors.New("ledger: entry not found")

	// ErrNegativeAmount is returned when appending or editing an entry with
	// a negative amount.
	ErrNegativeAmount = errors.New("ledger: amount must not be negative")

	// ErrInvalidFlow is returned for a wager transaction whose direction is
	// neither ingress nor egress.
	ErrInvalidFlow = errors.New("ledger: wager flow must be ingress or egress")

	// ErrInconsistentState is returned by stores that find a closing
	// balance without its finalized marker, or the reverse. Stores persist
	// both atomically, so seeing this means the backing data was modified
	// out of band.
	ErrInconsistentState = errors.New("ledger: closing balance and finalized marker disagree")
)
