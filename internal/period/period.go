// Package period maps event timestamps to check-in dates and computes
// calendar period boundaries (months, years, days-in-month).
package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayStart is the configured time-of-day at which a new check-in day begins.
// The zero value means midnight, i.e. calendar days.
type DayStart struct {
	Hour   int
	Minute int
}

// ParseDayStart parses an "HH:MM" string. Malformed input falls back to the
// zero value (00:00); the caller decides whether that deserves a warning.
func ParseDayStart(s string) (DayStart, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return DayStart{}, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return DayStart{}, false
	}
	return DayStart{Hour: h, Minute: m}, true
}

// String formats the day start back as "HH:MM".
func (ds DayStart) String() string {
	return fmt.Sprintf("%02d:%02d", ds.Hour, ds.Minute)
}

// EffectiveDate returns the calendar date the event at t is attributed to.
// An event whose local wall-clock time-of-day is strictly earlier than the
// day start belongs to the previous calendar day. This is a fixed local
// cutoff, not a rolling 24h window.
func (ds DayStart) EffectiveDate(t time.Time) time.Time {
	d := Date(t)
	if t.Hour() < ds.Hour || (t.Hour() == ds.Hour && t.Minute() < ds.Minute) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// Date truncates t to its calendar date at local midnight.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Month identifies one calendar month, the bot's query and rollover scope.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// String formats the month as "YYYY-MM", the form stored in checkin_meta.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Days returns the number of days in the month, leap years included.
func (m Month) Days() int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Contains reports whether date d falls inside the month.
func (m Month) Contains(d time.Time) bool {
	return d.Year() == m.Year && d.Month() == m.Month
}

// First returns the month's first day at midnight UTC, for range queries.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the following month.
func (m Month) Next() Month {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return Month{Year: t.Year(), Month: t.Month()}
}
