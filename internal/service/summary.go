package service

import (
	"context"
	"sort"
	"time"

	"telegram-checkin-bot/internal/model"
	"telegram-checkin-bot/internal/period"
)

// SummaryService turns ledger rows into the read-only views the handlers
// render. Every view is recomputed per query; nothing is cached.
type SummaryService struct {
	ledger     Ledger
	monthlyMax int
	now        func() time.Time
}

// NewSummaryService creates a new SummaryService instance. monthlyMax is
// used as a defensive filter on rankings (0 disables it).
func NewSummaryService(ledger Ledger, monthlyMax int) *SummaryService {
	return &SummaryService{
		ledger:     ledger,
		monthlyMax: monthlyMax,
		now:        time.Now,
	}
}

// Monthly returns the per-day view of one user's month. A month with no
// records yields an empty (not nil) summary.
func (s *SummaryService) Monthly(ctx context.Context, userID int64, month period.Month) (*model.MonthlySummary, error) {
	records, err := s.ledger.QueryMonth(ctx, userID, month)
	if err != nil {
		return nil, err
	}

	summary := &model.MonthlySummary{
		UserID: userID,
		Year:   month.Year,
		Month:  month.Month,
		Days:   make(map[int]int, len(records)),
	}
	for _, rec := range records {
		summary.Days[rec.CheckinDate.Day()] = rec.DeerCount
		summary.TotalCount += rec.DeerCount
	}
	summary.ActiveDays = len(summary.Days)

	return summary, nil
}

// Yearly returns the nested per-month view of one user's year, including the
// most active month (ties break toward the lower month number).
func (s *SummaryService) Yearly(ctx context.Context, userID int64, year int) (*model.YearlySummary, error) {
	records, err := s.ledger.QueryYear(ctx, userID, year)
	if err != nil {
		return nil, err
	}

	summary := &model.YearlySummary{
		UserID: userID,
		Year:   year,
		Months: make(map[time.Month]map[int]int),
	}
	for _, rec := range records {
		m := rec.CheckinDate.Month()
		if summary.Months[m] == nil {
			summary.Months[m] = make(map[int]int)
		}
		summary.Months[m][rec.CheckinDate.Day()] = rec.DeerCount
		summary.TotalCount += rec.DeerCount
		summary.ActiveDays++
	}
	summary.ActiveMonths = len(summary.Months)

	for m := time.January; m <= time.December; m++ {
		days, ok := summary.Months[m]
		if !ok {
			continue
		}
		total := 0
		for _, c := range days {
			total += c
		}
		// Strict > keeps the lowest month on ties under ascending iteration.
		if total > summary.PeakMonthCount {
			summary.PeakMonth = m
			summary.PeakMonthCount = total
		}
	}

	return summary, nil
}

// GroupRanking returns the month's totals restricted to the given member
// ids, sorted descending by total and truncated to limit entries.
func (s *SummaryService) GroupRanking(ctx context.Context, month period.Month, memberIDs []int64, limit int) ([]model.RankingEntry, error) {
	entries, err := s.ledger.GroupTotals(ctx, month)
	if err != nil {
		return nil, err
	}
	return RankEntries(entries, memberIDs, s.monthlyMax, limit), nil
}

// MonthParticipants returns the ids of every user with at least one check-in
// in the month. Handlers pass them through the membership filter before
// asking for a ranking.
func (s *SummaryService) MonthParticipants(ctx context.Context, month period.Month) ([]int64, error) {
	entries, err := s.ledger.GroupTotals(ctx, month)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	return ids, nil
}

// MonthlyAnalysis derives the numbers behind a monthly report from the
// monthly summary.
func (s *SummaryService) MonthlyAnalysis(ctx context.Context, userID int64, month period.Month) (*model.Analysis, error) {
	summary, err := s.Monthly(ctx, userID, month)
	if err != nil {
		return nil, err
	}

	denominator := month.Days()
	if now := s.now(); month.Contains(now) {
		denominator = now.Day()
	}

	peakDay, peakCount := PeakDay(summary.Days)
	analysis := &model.Analysis{
		Year:       month.Year,
		Month:      month.Month,
		ActiveDays: summary.ActiveDays,
		TotalCount: summary.TotalCount,
		MaxRun:     MaxConsecutiveRun(summary.Days),
		PeakDay:    peakDay,
		PeakCount:  peakCount,
	}
	if denominator > 0 {
		analysis.CheckinRate = float64(summary.ActiveDays) / float64(denominator)
	}

	return analysis, nil
}

// RankEntries filters totals to the member set, drops entries above the
// monthly cap when one is configured (stale rows can exceed it), stable-sorts
// descending by total, and truncates to limit. Ties keep the input order.
func RankEntries(entries []model.RankingEntry, memberIDs []int64, monthlyMax, limit int) []model.RankingEntry {
	members := make(map[int64]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = struct{}{}
	}

	ranked := make([]model.RankingEntry, 0, len(entries))
	for _, e := range entries {
		if _, ok := members[e.UserID]; !ok {
			continue
		}
		if monthlyMax > 0 && e.Total > monthlyMax {
			continue
		}
		ranked = append(ranked, e)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total > ranked[j].Total
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// MaxConsecutiveRun returns the longest run of consecutive days present in
// the per-day map. An empty map yields 0.
func MaxConsecutiveRun(days map[int]int) int {
	if len(days) == 0 {
		return 0
	}

	sorted := make([]int, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Ints(sorted)

	maxRun, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1]+1 {
			run++
			if run > maxRun {
				maxRun = run
			}
		} else {
			run = 1
		}
	}
	return maxRun
}

// PeakDay returns the day with the highest single-day count and that count.
// Ties break toward the smallest day; an empty map yields (0, 0).
func PeakDay(days map[int]int) (int, int) {
	peakDay, peakCount := 0, 0
	for d := 1; d <= 31; d++ {
		if c, ok := days[d]; ok && c > peakCount {
			peakDay, peakCount = d, c
		}
	}
	return peakDay, peakCount
}
