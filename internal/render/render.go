// Package render formats summaries and reports as plain text messages.
package render

import (
	"fmt"
	"strings"
	"time"

	"telegram-checkin-bot/internal/model"
	"telegram-checkin-bot/internal/period"
)

var weekdayHeader = "一 二 三 四 五 六 日"

// MonthCalendar renders a monthly check-in grid. Checked days carry a ✓
// mark and today is bracketed when it falls inside the month.
func MonthCalendar(name string, s *model.MonthlySummary, today time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d年%d月 · %s 的打卡日历\n", s.Year, s.Month, name)
	b.WriteString(weekdayHeader)
	b.WriteString("\n")

	month := period.Month{Year: s.Year, Month: s.Month}
	first := time.Date(s.Year, s.Month, 1, 0, 0, 0, 0, today.Location())
	// Monday-first column index of the 1st.
	col := (int(first.Weekday()) + 6) % 7

	isCurrent := month.Contains(today)

	for i := 0; i < col; i++ {
		b.WriteString("    ")
	}
	for day := 1; day <= month.Days(); day++ {
		cell := fmt.Sprintf("%2d", day)
		if s.Days[day] > 0 {
			cell += "✓"
		} else {
			cell += " "
		}
		if isCurrent && day == today.Day() {
			cell = "[" + strings.TrimSpace(cell) + "]"
		}
		fmt.Fprintf(&b, "%-4s", cell)
		col++
		if col == 7 {
			b.WriteString("\n")
			col = 0
		}
	}
	if col != 0 {
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n本月已打卡 %d 天，累计鹿了 %d 次", s.ActiveDays, s.TotalCount)
	return b.String()
}

// YearOverview renders a compact month-by-month line for the year.
func YearOverview(name string, s *model.YearlySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d年 · %s 的打卡总览\n", s.Year, name)

	for m := time.January; m <= time.December; m++ {
		days := s.Months[m]
		if len(days) == 0 {
			fmt.Fprintf(&b, "%2d月  -\n", int(m))
			continue
		}
		total := 0
		for _, n := range days {
			total += n
		}
		fmt.Fprintf(&b, "%2d月  %d 天 / %d 次\n", int(m), len(days), total)
	}

	fmt.Fprintf(&b, "\n全年打卡 %d 个月，共 %d 天，累计鹿了 %d 次", s.ActiveMonths, s.ActiveDays, s.TotalCount)
	return b.String()
}

var medals = []string{"🥇", "🥈", "🥉"}

// Ranking renders the group leaderboard for a month.
func Ranking(month period.Month, entries []model.RankingEntry, names map[int64]string) string {
	if len(entries) == 0 {
		return fmt.Sprintf("%d年%d月还没有人打卡，快来抢第一！", month.Year, int(month.Month))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d年%d月 鹿王排行榜\n\n", month.Year, int(month.Month))
	for i, e := range entries {
		name := names[e.UserID]
		if name == "" {
			name = fmt.Sprintf("User%d", e.UserID)
		}
		prefix := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			prefix = medals[i]
		}
		fmt.Fprintf(&b, "%s %s：鹿了 %d 次\n", prefix, name, e.Total)
	}
	return strings.TrimRight(b.String(), "\n")
}

// MonthlyReport renders the analysis for one user-month.
func MonthlyReport(name string, a *model.Analysis) string {
	if a.TotalCount == 0 {
		return fmt.Sprintf("%d年%d月 %s 一次都没鹿，太健康了吧", a.Year, a.Month, name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d年%d月 · %s 的鹿报告\n\n", a.Year, a.Month, name)
	fmt.Fprintf(&b, "打卡 %d 天，累计 %d 次\n", a.ActiveDays, a.TotalCount)
	fmt.Fprintf(&b, "本月发射率：%.1f%%\n", a.CheckinRate*100)

	if a.PeakCount >= 3 {
		fmt.Fprintf(&b, "%d日单日狂鹿 %d 次，身体要紧\n", a.PeakDay, a.PeakCount)
	} else if a.PeakCount == 2 {
		fmt.Fprintf(&b, "%d日鹿了 %d 次，状态不错\n", a.PeakDay, a.PeakCount)
	}

	if a.MaxRun >= 7 {
		fmt.Fprintf(&b, "最长连续 %d 天，三天不鹿浑身难受？\n", a.MaxRun)
	} else if a.MaxRun >= 2 {
		fmt.Fprintf(&b, "最长连续 %d 天\n", a.MaxRun)
	}

	b.WriteString("\n")
	switch {
	case a.CheckinRate >= 0.7:
		b.WriteString("评价：鹿力全开，注意补充营养")
	case a.CheckinRate >= 0.4:
		b.WriteString("评价：张弛有度，收放自如")
	case a.CheckinRate >= 0.1:
		b.WriteString("评价：浅鹿辄止，颇有节制")
	default:
		b.WriteString("评价：心如止水，几近戒断")
	}
	return b.String()
}

// YearlyReport renders the year-end summary for one user.
func YearlyReport(name string, s *model.YearlySummary) string {
	if s.TotalCount == 0 {
		return fmt.Sprintf("%d年 %s 一次都没鹿，神仙转世", s.Year, name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d年 · %s 的年度鹿报告\n\n", s.Year, name)
	fmt.Fprintf(&b, "全年打卡 %d 个月，共 %d 天，累计 %d 次\n", s.ActiveMonths, s.ActiveDays, s.TotalCount)
	if s.PeakMonthCount > 0 {
		fmt.Fprintf(&b, "最猛月份：%d月，鹿了 %d 次\n", int(s.PeakMonth), s.PeakMonthCount)
	}

	b.WriteString("\n")
	avg := float64(s.TotalCount) / 12
	switch {
	case avg > 25:
		b.WriteString("年度评价：传说中的千年鹿王")
	case avg > 15:
		b.WriteString("年度评价：精力旺盛，鹿艺精湛")
	case avg > 8:
		b.WriteString("年度评价：稳定输出，细水长流")
	default:
		b.WriteString("年度评价：偶尔为之，重在参与")
	}
	return b.String()
}
