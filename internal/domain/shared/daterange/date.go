package daterange

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the canonical textual form of a Date.
const Layout = "2006-01-02"

var ErrInvalidDate = errors.New("daterange: invalid calendar date")

// Date is a calendar day without a time-of-day component. The zero value is
// not a valid day.
type Date struct {
	t time.Time
}

// NewDate builds a Date from calendar fields. Out-of-range fields are
// normalized the way time.Date normalizes them.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Parse reads a zero-padded YYYY-MM-DD string. Surrounding whitespace is
// rejected.
func Parse(value string) (Date, error) {
	t, err := time.Parse(Layout, value)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	d := DateOf(t)
	if d.String() != value {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return d, nil
}

// MustParse is Parse for fixtures and tests.
func MustParse(value string) Date {
	d, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }

// Compare returns -1, 0 or +1.
func (d Date) Compare(other Date) int {
	return d.t.Compare(other.t)
}

func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// DaysUntil counts whole days from d to other; negative when other is earlier.
func (d Date) DaysUntil(other Date) int {
	return int(other.t.Sub(d.t).Hours() / 24)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// DaysInMonth reports the number of days in d's month.
func (d Date) DaysInMonth() int {
	return NewDate(d.Year(), d.Month()+1, 0).Day()
}

// ParseMonth reads a YYYY-MM value and returns its first day.
func ParseMonth(value string) (Date, error) {
	t, err := time.Parse("2006-01", value)
	if err != nil {
		return Date{}, fmt.Errorf("%w: month %q", ErrInvalidDate, value)
	}
	return DateOf(t), nil
}

// Strings formats a slice of dates.
func Strings(dates []Date) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	return out
}
