package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-checkin-bot/internal/model"
	"telegram-checkin-bot/internal/period"
)

func TestMaxConsecutiveRun(t *testing.T) {
	tests := []struct {
		name string
		days map[int]int
		want int
	}{
		{"empty month", map[int]int{}, 0},
		{"single day", map[int]int{7: 1}, 1},
		{"run of three then pair", map[int]int{1: 1, 2: 1, 3: 1, 5: 1, 6: 1}, 3},
		{"no adjacency", map[int]int{1: 1, 3: 1, 5: 1}, 1},
		{"full run", map[int]int{1: 1, 2: 1, 3: 1, 4: 1}, 4},
		{"run at end of month", map[int]int{2: 1, 28: 1, 29: 1, 30: 1}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaxConsecutiveRun(tt.days))
		})
	}
}

func TestPeakDay(t *testing.T) {
	tests := []struct {
		name      string
		days      map[int]int
		wantDay   int
		wantCount int
	}{
		{"empty", map[int]int{}, 0, 0},
		{"single", map[int]int{5: 3}, 5, 3},
		{"clear winner", map[int]int{1: 2, 10: 7, 20: 4}, 10, 7},
		{"tie breaks to smallest day", map[int]int{8: 5, 3: 5, 20: 5}, 3, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, count := PeakDay(tt.days)
			assert.Equal(t, tt.wantDay, day)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}

func TestRankEntries(t *testing.T) {
	entries := []model.RankingEntry{
		{UserID: 1, Total: 10},
		{UserID: 2, Total: 30},
		{UserID: 3, Total: 20},
	}
	members := []int64{1, 2, 3}

	t.Run("sorted and truncated", func(t *testing.T) {
		got := RankEntries(entries, members, 0, 2)
		require.Len(t, got, 2)
		assert.Equal(t, model.RankingEntry{UserID: 2, Total: 30}, got[0])
		assert.Equal(t, model.RankingEntry{UserID: 3, Total: 20}, got[1])
	})

	t.Run("non-members dropped", func(t *testing.T) {
		got := RankEntries(entries, []int64{1, 3}, 0, 10)
		require.Len(t, got, 2)
		assert.Equal(t, int64(3), got[0].UserID)
		assert.Equal(t, int64(1), got[1].UserID)
	})

	t.Run("stale totals above cap dropped", func(t *testing.T) {
		got := RankEntries(entries, members, 25, 10)
		require.Len(t, got, 2)
		assert.Equal(t, int64(3), got[0].UserID)
	})

	t.Run("ties keep input order", func(t *testing.T) {
		tied := []model.RankingEntry{
			{UserID: 7, Total: 5},
			{UserID: 4, Total: 5},
			{UserID: 9, Total: 5},
		}
		got := RankEntries(tied, []int64{4, 7, 9}, 0, 10)
		require.Len(t, got, 3)
		assert.Equal(t, int64(7), got[0].UserID)
		assert.Equal(t, int64(4), got[1].UserID)
		assert.Equal(t, int64(9), got[2].UserID)
	})

	t.Run("empty member set", func(t *testing.T) {
		assert.Empty(t, RankEntries(entries, nil, 0, 10))
	})
}

func seedSummaryLedger(t *testing.T) *memLedger {
	t.Helper()
	ledger := newMemLedger()
	ctx := context.Background()
	add := func(userID int64, y int, m time.Month, d, count int) {
		_, err := ledger.Increment(ctx, userID, time.Date(y, m, d, 0, 0, 0, 0, time.UTC), count)
		require.NoError(t, err)
	}
	add(1, 2024, time.June, 1, 2)
	add(1, 2024, time.June, 2, 1)
	add(1, 2024, time.June, 3, 4)
	add(1, 2024, time.June, 5, 1)
	add(1, 2024, time.March, 10, 6)
	add(2, 2024, time.June, 4, 9)
	return ledger
}

func TestMonthly(t *testing.T) {
	svc := NewSummaryService(seedSummaryLedger(t), 0)
	ctx := context.Background()

	s, err := svc.Monthly(ctx, 1, period.Month{Year: 2024, Month: time.June})
	require.NoError(t, err)
	assert.Equal(t, 4, s.ActiveDays)
	assert.Equal(t, 8, s.TotalCount)
	assert.Equal(t, map[int]int{1: 2, 2: 1, 3: 4, 5: 1}, s.Days)
	assert.False(t, s.Empty())

	// Month without records is an empty summary, not an error.
	s, err = svc.Monthly(ctx, 1, period.Month{Year: 2024, Month: time.December})
	require.NoError(t, err)
	assert.True(t, s.Empty())
	assert.Equal(t, 0, s.TotalCount)
}

func TestYearly(t *testing.T) {
	svc := NewSummaryService(seedSummaryLedger(t), 0)

	s, err := svc.Yearly(context.Background(), 1, 2024)
	require.NoError(t, err)
	assert.Equal(t, 2, s.ActiveMonths)
	assert.Equal(t, 5, s.ActiveDays)
	assert.Equal(t, 14, s.TotalCount)
	// June (8) beats March (6).
	assert.Equal(t, time.June, s.PeakMonth)
	assert.Equal(t, 8, s.PeakMonthCount)

	empty, err := svc.Yearly(context.Background(), 1, 2020)
	require.NoError(t, err)
	assert.True(t, empty.Empty())
}

func TestYearlyPeakMonthTieBreaksLow(t *testing.T) {
	ledger := newMemLedger()
	ctx := context.Background()
	_, err := ledger.Increment(ctx, 1, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 5)
	require.NoError(t, err)
	_, err = ledger.Increment(ctx, 1, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), 5)
	require.NoError(t, err)

	svc := NewSummaryService(ledger, 0)
	s, err := svc.Yearly(ctx, 1, 2024)
	require.NoError(t, err)
	assert.Equal(t, time.February, s.PeakMonth)
}

func TestGroupRanking(t *testing.T) {
	svc := NewSummaryService(seedSummaryLedger(t), 0)

	got, err := svc.GroupRanking(context.Background(), period.Month{Year: 2024, Month: time.June}, []int64{1, 2}, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.RankingEntry{UserID: 2, Total: 9}, got[0])
	assert.Equal(t, model.RankingEntry{UserID: 1, Total: 8}, got[1])
}

func TestMonthlyAnalysis(t *testing.T) {
	svc := NewSummaryService(seedSummaryLedger(t), 0)
	// Fixed "now" in a different month: denominator is the full month.
	svc.now = func() time.Time { return time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC) }

	a, err := svc.MonthlyAnalysis(context.Background(), 1, period.Month{Year: 2024, Month: time.June})
	require.NoError(t, err)
	assert.Equal(t, 4, a.ActiveDays)
	assert.Equal(t, 8, a.TotalCount)
	assert.Equal(t, 3, a.MaxRun) // days 1,2,3
	assert.Equal(t, 3, a.PeakDay)
	assert.Equal(t, 4, a.PeakCount)
	assert.InDelta(t, 4.0/30.0, a.CheckinRate, 1e-9)
}

func TestMonthlyAnalysisCurrentMonthDenominator(t *testing.T) {
	svc := NewSummaryService(seedSummaryLedger(t), 0)
	// Querying the current month: denominator is day-of-month so far.
	svc.now = func() time.Time { return time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC) }

	a, err := svc.MonthlyAnalysis(context.Background(), 1, period.Month{Year: 2024, Month: time.June})
	require.NoError(t, err)
	assert.InDelta(t, 4.0/10.0, a.CheckinRate, 1e-9)
}

func TestMonthlyAnalysisEmptyMonth(t *testing.T) {
	svc := NewSummaryService(newMemLedger(), 0)
	svc.now = func() time.Time { return time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC) }

	a, err := svc.MonthlyAnalysis(context.Background(), 1, period.Month{Year: 2024, Month: time.June})
	require.NoError(t, err)
	assert.Zero(t, a.ActiveDays)
	assert.Zero(t, a.MaxRun)
	assert.Zero(t, a.PeakDay)
	assert.Zero(t, a.CheckinRate)
}
