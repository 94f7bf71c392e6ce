package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"telegram-checkin-bot/internal/period"
)

// Validation errors for check-in and backfill parameters. Each maps to a
// distinct user-facing reply; none of them reaches storage.
var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrDayOutOfRange = errors.New("day is outside the current month")
	ErrFutureDay     = errors.New("day is in the future")
)

// CheckinResult is the outcome of a check-in or backfill attempt. A quota
// rejection arrives here as Accepted=false with a reason, not as an error.
type CheckinResult struct {
	Accepted      bool
	Reason        RejectReason
	Date          time.Time // effective date the attempt targeted
	NewDailyTotal int       // valid only when accepted
}

// CheckinService handles the write path: effective date resolution, quota
// enforcement, and the ledger increment.
type CheckinService struct {
	ledger     Ledger
	rollover   *RolloverManager
	dayStart   period.DayStart
	dailyMax   int
	monthlyMax int
	now        func() time.Time
}

// NewCheckinService creates a new CheckinService instance. The maxima follow
// the quota convention: 0 means unlimited.
func NewCheckinService(
	ledger Ledger,
	rollover *RolloverManager,
	dayStart period.DayStart,
	dailyMax, monthlyMax int,
) *CheckinService {
	return &CheckinService{
		ledger:     ledger,
		rollover:   rollover,
		dayStart:   dayStart,
		dailyMax:   dailyMax,
		monthlyMax: monthlyMax,
		now:        time.Now,
	}
}

// RecordCheckin records a check-in of amount markers at the event time at.
// The event is attributed to its effective date under the configured day
// start, quota-checked, and committed atomically.
func (s *CheckinService) RecordCheckin(ctx context.Context, userID int64, at time.Time, amount int) (*CheckinResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if err := s.rollover.Ensure(ctx, s.now()); err != nil {
		return nil, err
	}

	date := s.dayStart.EffectiveDate(at)
	return s.commit(ctx, userID, date, amount)
}

// RecordBackfill records amount onto a past day of the current month.
// The day must lie in [1, daysInCurrentMonth] and must not be after today
// (today meaning the current effective date).
func (s *CheckinService) RecordBackfill(ctx context.Context, userID int64, day, amount int) (*CheckinResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	today := s.dayStart.EffectiveDate(s.now())
	month := period.MonthOf(today)

	if day < 1 || day > month.Days() {
		return nil, fmt.Errorf("%w: day %d, month has %d days", ErrDayOutOfRange, day, month.Days())
	}
	if day > today.Day() {
		return nil, fmt.Errorf("%w: day %d, today is %d", ErrFutureDay, day, today.Day())
	}

	if err := s.rollover.Ensure(ctx, s.now()); err != nil {
		return nil, err
	}

	date := time.Date(month.Year, month.Month, day, 0, 0, 0, 0, today.Location())
	return s.commit(ctx, userID, date, amount)
}

// commit runs the quota check against current ledger state and applies the
// increment. The caller holds the per-user lock, so the read-then-increment
// pair cannot interleave with the same user's other writes; the increment
// itself is a single atomic upsert.
func (s *CheckinService) commit(ctx context.Context, userID int64, date time.Time, amount int) (*CheckinResult, error) {
	existingDaily, err := s.ledger.Get(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	monthExclToday := 0
	if s.monthlyMax > 0 {
		records, err := s.ledger.QueryMonth(ctx, userID, period.MonthOf(date))
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			if !period.SameDay(rec.CheckinDate, date) {
				monthExclToday += rec.DeerCount
			}
		}
	}

	if reason := CheckQuota(existingDaily, monthExclToday, amount, s.dailyMax, s.monthlyMax); reason != RejectNone {
		log.Debug().
			Int64("user_id", userID).
			Str("reason", reason.String()).
			Int("amount", amount).
			Msg("Check-in rejected by quota")
		return &CheckinResult{Accepted: false, Reason: reason, Date: date}, nil
	}

	total, err := s.ledger.Increment(ctx, userID, date, amount)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("user_id", userID).
		Str("date", date.Format("2006-01-02")).
		Int("amount", amount).
		Int("daily_total", total).
		Msg("Check-in recorded")

	return &CheckinResult{Accepted: true, Date: date, NewDailyTotal: total}, nil
}

// Today returns the current effective date; handlers use it to label the
// calendar reply and to highlight the current day.
func (s *CheckinService) Today() time.Time {
	return s.dayStart.EffectiveDate(s.now())
}
