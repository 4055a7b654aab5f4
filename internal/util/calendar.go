package util

import "time"

// DateKey returns the canonical UTC date key ("2006-01-02") used to match
// bars with signals.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// CalendarDays returns the number of calendar days between two timestamps,
// comparing UTC dates rather than elapsed hours so that bars stamped at
// different clock times still count whole days.
func CalendarDays(from, to time.Time) int {
	fu := from.UTC()
	tu := to.UTC()
	f := time.Date(fu.Year(), fu.Month(), fu.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(tu.Year(), tu.Month(), tu.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// IsWeekend reports whether t falls on a Saturday or Sunday in UTC.
func IsWeekend(t time.Time) bool {
	wd := t.UTC().Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
