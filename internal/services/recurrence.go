// Package services holds the business logic: the recurrence resolver, the
// charge materializer, installment splitting, and report aggregation.
//
// Dueness checking uses one strategy per billing frequency, looked up in a
// registry keyed by the frequency value.
package services

import (
	"fmt"

	"despesas/internal/core"
)

// DuenessChecker decides whether a subscription should be billed inside a
// given calendar month. The subscription's active range is already known to
// overlap the month when a checker runs.
type DuenessChecker interface {
	IsDue(sub core.Subscription, month core.MonthWindow) bool
}

// MonthlyChecker bills in every month the subscription is active,
// regardless of the start day.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(core.Subscription, core.MonthWindow) bool {
	return true
}

// YearlyChecker bills only in the calendar month matching the
// subscription's start month.
type YearlyChecker struct{}

// IsDue computes the anniversary in the window's year, clamping the day for
// months shorter than the start day (a subscription started on the 31st, or
// on Feb 29, still gets billed).
func (YearlyChecker) IsDue(sub core.Subscription, month core.MonthWindow) bool {
	startMonth := int(sub.StartDate.Month())
	day := sub.StartDate.Day()
	if last := core.DaysIn(month.Start.Year(), startMonth); day > last {
		day = last
	}
	anniversary := core.NewDate(month.Start.Year(), startMonth, day)
	return !anniversary.Before(month.Start.Time) && !anniversary.After(month.End.Time)
}

var duenessCheckers = map[core.Frequency]DuenessChecker{
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// IsDue reports whether the subscription is chargeable in the month.
//
// The shared bound checks come first: a subscription that starts after the
// month ends, or ended before the month starts, is never due. Frequencies
// outside the registry were rejected at creation; hitting one here is a
// data error, not a resolution case.
func IsDue(sub core.Subscription, month core.MonthWindow) (bool, error) {
	if sub.StartDate.After(month.End.Time) {
		return false, nil
	}
	if !sub.EndDate.IsZero() && sub.EndDate.Before(month.Start.Time) {
		return false, nil
	}

	checker, ok := duenessCheckers[sub.Frequency]
	if !ok {
		return false, fmt.Errorf("%w: %q", core.ErrUnknownFrequency, sub.Frequency)
	}
	return checker.IsDue(sub, month), nil
}
