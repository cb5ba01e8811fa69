// Package timeutil provides calendar helpers used by the due-date policy
// and the rate-limit windows. No external dependencies - standard library only.
package timeutil

import (
	"time"
)

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// AddMonths adds n calendar months to t, clamping to the last day of the
// target month instead of letting time.AddDate roll over (Jan 31 + 1 month
// is Feb 28/29, not Mar 2/3).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartOfDay returns midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// WindowStart returns the start of the fixed window of the given size that
// contains t. Windows are aligned to the Unix epoch.
func WindowStart(t time.Time, window time.Duration) time.Time {
	return t.Truncate(window)
}

// WindowRemaining returns how long until the fixed window containing t rolls
// over.
func WindowRemaining(t time.Time, window time.Duration) time.Duration {
	return WindowStart(t, window).Add(window).Sub(t)
}

// IsSameDay reports whether t1 and t2 fall on the same calendar day.
func IsSameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// DaysBetween returns the number of whole calendar days between t1 and t2.
func DaysBetween(t1, t2 time.Time) int {
	if t1.After(t2) {
		t1, t2 = t2, t1
	}
	return int(StartOfDay(t2).Sub(StartOfDay(t1)).Hours() / 24)
}
