// Package model defines the data models for the check-in bot.
package model

import "time"

// CheckinRecord is one day of check-ins for one user.
// At most one row exists per (user, date); concurrent check-ins on the same
// day merge additively in storage.
type CheckinRecord struct {
	UserID      int64     `db:"user_id"`
	CheckinDate time.Time `db:"checkin_date"`
	DeerCount   int       `db:"deer_count"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// User keeps the last known display name for a user, used when rendering
// rankings. Identity is owned by Telegram; this is only a cache.
type User struct {
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	UpdatedAt time.Time `db:"updated_at"`
}

// MonthlySummary is the per-day view of one user's month.
// Derived on every query, never stored.
type MonthlySummary struct {
	UserID     int64
	Year       int
	Month      time.Month
	Days       map[int]int // day of month -> count
	ActiveDays int
	TotalCount int
}

// Empty reports whether the month has no check-ins at all.
func (s *MonthlySummary) Empty() bool {
	return len(s.Days) == 0
}

// YearlySummary nests per-month day counts for one user's year.
type YearlySummary struct {
	UserID       int64
	Year         int
	Months       map[time.Month]map[int]int // month -> day -> count
	ActiveMonths int
	ActiveDays   int
	TotalCount   int
	// PeakMonth is the month with the highest total; ties break toward the
	// lower month number. Zero when the year is empty.
	PeakMonth      time.Month
	PeakMonthCount int
}

// Empty reports whether the year has no check-ins at all.
func (s *YearlySummary) Empty() bool {
	return len(s.Months) == 0
}

// RankingEntry is one user's monthly total in a group ranking.
type RankingEntry struct {
	UserID int64 `db:"user_id"`
	Total  int   `db:"total"`
}

// Analysis holds the derived numbers behind a monthly report.
// Wording lives in the render package; these are the facts.
type Analysis struct {
	Year       int
	Month      time.Month
	ActiveDays int
	TotalCount int
	// CheckinRate is ActiveDays over the elapsed days of the month
	// (day-of-month so far for the current month, full length otherwise).
	CheckinRate float64
	// MaxRun is the longest run of consecutive check-in days; 0 for an
	// empty month.
	MaxRun int
	// PeakDay is the day with the highest single-day count, smallest day
	// winning ties; 0 for an empty month.
	PeakDay   int
	PeakCount int
}
