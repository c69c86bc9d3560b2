// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

// Package dates provides civil-date helpers for the occurrence engine.
// A DateKey is a calendar day with no time or zone attached; all zone
// handling lives in [Clock], which is the single source of "today" for
// the whole service.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the wire and storage format for a DateKey.
const Layout = "2006-01-02"

// DateKey identifies a single calendar day as "YYYY-MM-DD".
// The zero value "" means unset. Because the layout is fixed-width
// ISO, lexicographic comparison matches chronological comparison.
type DateKey string

// ParseDateKey validates s as a calendar date and returns it as a DateKey.
func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date key %q: %w", s, err)
	}
	// time.Parse accepts some non-canonical spellings; round-trip to
	// guarantee the stored form is canonical.
	return DateKey(t.Format(Layout)), nil
}

// FromTime truncates t to its calendar day in t's own location.
func FromTime(t time.Time) DateKey {
	return DateKey(t.Format(Layout))
}

// NewDateKey builds a DateKey from components.
func NewDateKey(year int, month time.Month, day int) DateKey {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// IsZero reports whether the key is unset.
func (d DateKey) IsZero() bool { return d == "" }

// String returns the key in its storage form.
func (d DateKey) String() string { return string(d) }

// Time returns midnight UTC of the day. Calling Time on an unset or
// malformed key returns the zero time.
func (d DateKey) Time() time.Time {
	t, err := time.Parse(Layout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// At combines the day with a wall-clock time ("15:04") in loc.
// An empty or malformed hhmm falls back to midnight.
func (d DateKey) At(hhmm string, loc *time.Location) time.Time {
	day := d.Time()
	hour, minute := 0, 0
	if t, err := time.Parse("15:04", hhmm); err == nil {
		hour, minute = t.Hour(), t.Minute()
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
}

// Weekday returns the day of week of the key.
func (d DateKey) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// AddDays returns the key n days later (earlier for negative n).
func (d DateKey) AddDays(n int) DateKey {
	return FromTime(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than other.
func (d DateKey) Before(other DateKey) bool { return d < other }

// After reports whether d is strictly later than other.
func (d DateKey) After(other DateKey) bool { return d > other }

// Format renders the day using a time layout, e.g. "Jan 2".
func (d DateKey) Format(layout string) string {
	return d.Time().Format(layout)
}

// DaysBetween returns the number of days from a to b (negative when b
// precedes a).
func DaysBetween(a, b DateKey) int {
	return int(b.Time().Sub(a.Time()).Hours() / 24)
}

// NextWeekday returns the first day on or after d that falls on wd.
func NextWeekday(d DateKey, wd time.Weekday) DateKey {
	offset := (int(wd) - int(d.Weekday()) + 7) % 7
	return d.AddDays(offset)
}

// OrdinalLast selects the final occurrence of a weekday within a month
// when passed as the ordinal to NthWeekdayOfMonth.
const OrdinalLast = -1

// NthWeekdayOfMonth returns the nth occurrence (1..5, or OrdinalLast)
// of wd within the given month. The second return is false when the
// month has no such occurrence (e.g. a 5th Saturday in a 4-Saturday
// month).
func NthWeekdayOfMonth(year int, month time.Month, wd time.Weekday, n int) (DateKey, bool) {
	if n == OrdinalLast {
		last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
		back := (int(last.Weekday()) - int(wd) + 7) % 7
		return FromTime(last.AddDate(0, 0, -back)), true
	}
	if n < 1 || n > 5 {
		return "", false
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	day := first.AddDate(0, 0, offset+(n-1)*7)
	if day.Month() != month {
		return "", false
	}
	return FromTime(day), true
}

// ParseWeekday maps a stored day name ("monday", "Mon", ...) to a
// time.Weekday. The second return is false for unrecognized names.
func ParseWeekday(name string) (time.Weekday, bool) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := wd.String()
		if strings.EqualFold(name, full) || strings.EqualFold(name, full[:3]) {
			return wd, true
		}
	}
	return 0, false
}

// Clock resolves "today" in the site's civil timezone. Every surface
// must derive window bounds from one shared Clock; computing a local
// "now" elsewhere reintroduces cross-surface date drift.
type Clock struct {
	loc *time.Location
}

// NewClock loads the named timezone, e.g. "America/New_York".
func NewClock(timezone string) (*Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading site timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc}, nil
}

// FixedClock returns a Clock pinned to an explicit location, for tests.
func FixedClock(loc *time.Location) *Clock {
	return &Clock{loc: loc}
}

// Today returns the current calendar day in the site timezone.
func (c *Clock) Today() DateKey {
	return FromTime(time.Now().In(c.loc))
}

// Now returns the current instant in the site timezone.
func (c *Clock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Location exposes the site timezone for formatting.
func (c *Clock) Location() *time.Location {
	return c.loc
}
