// Package date provides a calendar date with day granularity.
//
// The ledger never deals in times of day or timezones: an entry belongs to a
// calendar day, balances roll over at day boundaries, and months are plain
// calendar months. Keeping a dedicated type avoids the usual time.Time
// pitfalls (midnight drift across DST, accidental time components).
package date

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"iter"
	"time"
)

// Format is the canonical ISO-8601 representation used on the wire and in
// storage.
const Format = "2006-01-02"

// readFormat is permissive on read: it accepts single-digit months and days
// such as "2024-3-1".
const readFormat = "2006-1-2"

// Date represents a calendar date with no time component.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date for the given year, month and day.
// Out-of-range values roll over the way time.Date does.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// Today returns the current date in local time.
func Today() Date { return New(time.Now().Date()) }

// Parse parses a Date from an ISO-8601 string.
func Parse(s string) (Date, error) {
	t, err := time.Parse(readFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want %q: %w", s, Format, err)
	}
	return New(t.Date()), nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// constants.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// time returns the canonical representation of the date: midnight UTC.
func (d Date) time() time.Time {
	return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC)
}

// Year returns the year.
func (d Date) Year() int { return d.y }

// Month returns the month.
func (d Date) Month() time.Month { return d.m }

// Day returns the day of the month.
func (d Date) Day() int { return d.d }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// Add returns the date n days after d (before, for negative n).
func (d Date) Add(n int) Date { return New(d.y, d.m, d.d+n) }

// Prev returns the prior calendar day.
func (d Date) Prev() Date { return d.Add(-1) }

// StartOfMonth returns the first day of d's month.
func (d Date) StartOfMonth() Date { return New(d.y, d.m, 1) }

// Before reports whether d is before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether d is after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// String formats the date in its canonical format.
func (d Date) String() string { return d.time().Format(Format) }

// Range yields every day from start to end inclusive, in order. It yields
// nothing when end is before start.
func Range(start, end Date) iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for d := start; !d.After(end); d = d.Add(1) {
			if !yield(d) {
				return
			}
		}
	}
}

// MarshalJSON encodes the date as an ISO-8601 JSON string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes the date from a JSON string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer; dates are stored as TEXT.
func (d Date) Value() (driver.Value, error) { return d.String(), nil }

// Scan implements sql.Scanner for TEXT columns and time-typed drivers.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*d = parsed
	case []byte:
		return d.Scan(string(v))
	case time.Time:
		*d = New(v.Date())
	default:
		return fmt.Errorf("cannot scan %T into date.Date", src)
	}
	return nil
}
