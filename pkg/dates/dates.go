// Package dates provides whole-calendar-day arithmetic for duty timelines.
//
// All timeline math is done in whole days so stored timestamps and
// user-supplied dates never drift apart by a time-of-day component. A
// calendar day is represented as a time.Time fixed at midnight UTC; the
// zero time.Time is never a valid day.
package dates

import "time"

// ToDay drops the time-of-day from a timestamp. Inputs carrying a UTC
// marker are read in the caller's local time first, matching how clients
// that serialize local dates as "...T00:00:00Z" expect them interpreted.
func ToDay(t time.Time) time.Time {
	if t.Location() == time.UTC {
		t = t.Local()
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AtMidnight re-anchors an already day-precision value at midnight UTC.
// Used when loading date columns whose driver representation may carry a
// different location.
func AtMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayBefore returns the calendar day immediately preceding d.
func DayBefore(d time.Time) time.Time {
	return AtMidnight(d).AddDate(0, 0, -1)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return AtMidnight(a).Equal(AtMidnight(b))
}

// Day builds a calendar day from its components.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
