// Package core holds the domain model: ledger entries, recurring
// definitions, money in integer cents, and the calendar arithmetic the
// recurrence logic is built on.
package core

import (
	"fmt"
	"time"
)

// Date is a calendar day. The embedded time.Time is always midnight UTC.
type Date struct {
	time.Time
}

// MonthWindow is the first and last calendar day of a billing month.
type MonthWindow struct {
	Start Date
	End   Date
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ISO renders the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, value)
	}
	return Date{Time: t}, nil
}

// ParseMonth resolves a YYYY-MM key into the month's calendar window,
// leap years included.
func ParseMonth(value string) (MonthWindow, error) {
	t, err := time.Parse("2006-01", value)
	if err != nil {
		return MonthWindow{}, fmt.Errorf("%w: %q", ErrInvalidMonthKey, value)
	}
	year, month := t.Year(), int(t.Month())
	return MonthWindow{
		Start: NewDate(year, month, 1),
		End:   NewDate(year, month, DaysIn(year, month)),
	}, nil
}

// MonthKey renders the YYYY-MM key of the month containing d.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// DaysIn returns the number of days in a month. Day 0 of the next month is
// the last day of this one.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ShiftMonth moves a date by offset months, keeping the day of month but
// clamping it to the target month's last valid day (Jan 31 +1 month is
// Feb 28, or Feb 29 in a leap year). Negative offsets clamp the same way.
func ShiftMonth(d Date, offset int) Date {
	months := d.Year()*12 + int(d.Month()) - 1 + offset
	year := months / 12
	month := months%12 + 1
	day := d.Day()
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return NewDate(year, month, day)
}
