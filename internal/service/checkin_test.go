package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"telegram-checkin-bot/internal/period"
)

func newTestCheckinService(ledger *memLedger, dayStart period.DayStart, dailyMax, monthlyMax int, now time.Time) *CheckinService {
	rollover := NewRolloverManager(ledger, newMemMeta(), false)
	svc := NewCheckinService(ledger, rollover, dayStart, dailyMax, monthlyMax)
	svc.now = func() time.Time { return now }
	return svc
}

func TestRecordCheckin_Accumulates(t *testing.T) {
	ledger := newMemLedger()
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.Local)
	svc := newTestCheckinService(ledger, period.DayStart{}, 0, 0, now)
	ctx := context.Background()

	res, err := svc.RecordCheckin(ctx, 1, now, 3)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, 3, res.NewDailyTotal)

	res, err = svc.RecordCheckin(ctx, 1, now, 2)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, 5, res.NewDailyTotal)

	count, err := ledger.Get(ctx, 1, period.Date(now))
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestRecordCheckin_InvalidAmount(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.Local)
	svc := newTestCheckinService(newMemLedger(), period.DayStart{}, 0, 0, now)

	_, err := svc.RecordCheckin(context.Background(), 1, now, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.RecordCheckin(context.Background(), 1, now, -2)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestRecordCheckin_DailyQuota(t *testing.T) {
	ledger := newMemLedger()
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.Local)
	svc := newTestCheckinService(ledger, period.DayStart{}, 5, 0, now)
	ctx := context.Background()

	res, err := svc.RecordCheckin(ctx, 1, now, 3)
	require.NoError(t, err)
	assert.True(t, res.Accepted)

	// 3 + 3 > 5: rejected with the daily reason, ledger unchanged.
	res, err = svc.RecordCheckin(ctx, 1, now, 3)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, RejectDailyLimit, res.Reason)
	assert.Equal(t, 3, ledger.total())

	// 3 + 2 == 5 still fits.
	res, err = svc.RecordCheckin(ctx, 1, now, 2)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, 5, res.NewDailyTotal)
}

func TestRecordCheckin_MonthlyQuota(t *testing.T) {
	ledger := newMemLedger()
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.Local)
	svc := newTestCheckinService(ledger, period.DayStart{}, 0, 10, now)
	ctx := context.Background()

	// Fill earlier days of the month.
	for day := 1; day <= 4; day++ {
		at := time.Date(2024, 6, day, 12, 0, 0, 0, time.Local)
		res, err := svc.RecordCheckin(ctx, 1, at, 2)
		require.NoError(t, err)
		require.True(t, res.Accepted)
	}

	// 8 so far; +2 reaches the cap of 10.
	res, err := svc.RecordCheckin(ctx, 1, now, 2)
	require.NoError(t, err)
	assert.True(t, res.Accepted)

	// Anything more is a monthly rejection.
	res, err = svc.RecordCheckin(ctx, 1, now, 1)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, RejectMonthlyLimit, res.Reason)
	assert.Equal(t, 10, ledger.total())
}

func TestRecordCheckin_EffectiveDateBoundary(t *testing.T) {
	ledger := newMemLedger()
	ds := period.DayStart{Hour: 4}
	base := time.Date(2024, 6, 10, 12, 0, 0, 0, time.Local)
	svc := newTestCheckinService(ledger, ds, 0, 0, base)
	ctx := context.Background()

	// 03:59 counts for June 9.
	res, err := svc.RecordCheckin(ctx, 1, time.Date(2024, 6, 10, 3, 59, 0, 0, time.Local), 1)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 9, 0, 0, 0, 0, time.Local), res.Date)

	// 04:00 counts for June 10.
	res, err = svc.RecordCheckin(ctx, 1, time.Date(2024, 6, 10, 4, 0, 0, 0, time.Local), 1)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.Local), res.Date)
}

func TestRecordBackfill_Validation(t *testing.T) {
	// June 10 is "today".
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name    string
		day     int
		amount  int
		wantErr error
	}{
		{"zero day", 0, 1, ErrDayOutOfRange},
		{"negative day", -3, 1, ErrDayOutOfRange},
		{"beyond days in month", 31, 1, ErrDayOutOfRange}, // June has 30
		{"future day", 11, 1, ErrFutureDay},
		{"zero amount", 5, 0, ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestCheckinService(newMemLedger(), period.DayStart{}, 0, 0, now)
			_, err := svc.RecordBackfill(context.Background(), 1, tt.day, tt.amount)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRecordBackfill_WritesPastDay(t *testing.T) {
	ledger := newMemLedger()
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.Local)
	svc := newTestCheckinService(ledger, period.DayStart{}, 0, 0, now)
	ctx := context.Background()

	res, err := svc.RecordBackfill(ctx, 1, 3, 2)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.Local), res.Date)

	count, err := ledger.Get(ctx, 1, time.Date(2024, 6, 3, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Today itself is a legal backfill target.
	res, err = svc.RecordBackfill(ctx, 1, 10, 1)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
}

func TestRecordBackfill_QuotaApplies(t *testing.T) {
	ledger := newMemLedger()
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.Local)
	svc := newTestCheckinService(ledger, period.DayStart{}, 2, 0, now)
	ctx := context.Background()

	res, err := svc.RecordBackfill(ctx, 1, 5, 2)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	res, err = svc.RecordBackfill(ctx, 1, 5, 1)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, RejectDailyLimit, res.Reason)
}

// The final count for a key equals the sum of all accepted amounts,
// regardless of how the increments interleave.
func TestCheckinAccumulationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.Local)
		ledger := newMemLedger()
		svc := newTestCheckinService(ledger, period.DayStart{}, 0, 0, now)
		ctx := context.Background()

		numOps := rapid.IntRange(1, 30).Draw(t, "numOps")
		expected := 0
		for i := 0; i < numOps; i++ {
			amount := rapid.IntRange(1, 10).Draw(t, "amount")
			expected += amount
			res, err := svc.RecordCheckin(ctx, 42, now, amount)
			if err != nil || !res.Accepted {
				t.Fatalf("unlimited check-in failed: res=%v err=%v", res, err)
			}
		}

		got, err := ledger.Get(ctx, 42, period.Date(now))
		if err != nil {
			t.Fatal(err)
		}
		if got != expected {
			t.Fatalf("final count %d, want %d", got, expected)
		}
	})
}
