package handler

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-checkin-bot/internal/identity"
	"telegram-checkin-bot/internal/period"
	"telegram-checkin-bot/internal/render"
	"telegram-checkin-bot/internal/service"
)

// SummaryHandler handles the read-only views: calendars, year overviews,
// rankings, and reports.
type SummaryHandler struct {
	summaryService *service.SummaryService
	checkinService *service.CheckinService
	resolver       identity.Resolver
	rankingSize    int
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(
	summaryService *service.SummaryService,
	checkinService *service.CheckinService,
	resolver identity.Resolver,
	rankingSize int,
) *SummaryHandler {
	return &SummaryHandler{
		summaryService: summaryService,
		checkinService: checkinService,
		resolver:       resolver,
		rankingSize:    rankingSize,
	}
}

// HandleCalendar handles the /calendar command, showing the sender's
// current-month grid.
func (h *SummaryHandler) HandleCalendar(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	ctx := context.Background()
	today := h.checkinService.Today()
	summary, err := h.summaryService.Monthly(ctx, sender.ID, period.MonthOf(today))
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to load monthly summary")
		return c.Reply("❌ 查询失败，请稍后重试")
	}

	return c.Reply(render.MonthCalendar(senderName(sender), summary, today))
}

// HandleYear handles the /year [year] command. The year defaults to the
// current one.
func (h *SummaryHandler) HandleYear(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	year, ok := h.yearArg(c)
	if !ok {
		return c.Reply("❌ 年份不对，比如 /year 2024")
	}

	ctx := context.Background()
	summary, err := h.summaryService.Yearly(ctx, sender.ID, year)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Int("year", year).Msg("Failed to load yearly summary")
		return c.Reply("❌ 查询失败，请稍后重试")
	}

	return c.Reply(render.YearOverview(senderName(sender), summary))
}

// HandleRank handles the /rank command, showing the group's current-month
// leaderboard. Only current chat members appear.
func (h *SummaryHandler) HandleRank(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	if chat.Type == tele.ChatPrivate {
		return c.Reply("排行榜要在群里看")
	}

	ctx := context.Background()
	month := period.MonthOf(h.checkinService.Today())

	participants, err := h.summaryService.MonthParticipants(ctx, month)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to load ranking participants")
		return c.Reply("❌ 查询失败，请稍后重试")
	}

	members, err := h.resolver.FilterMembers(ctx, chat.ID, participants)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to filter chat members")
		return c.Reply("❌ 查询失败，请稍后重试")
	}

	entries, err := h.summaryService.GroupRanking(ctx, month, members, h.rankingSize)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to load ranking")
		return c.Reply("❌ 查询失败，请稍后重试")
	}

	names := make(map[int64]string, len(entries))
	for _, e := range entries {
		names[e.UserID] = h.resolver.DisplayName(ctx, chat.ID, e.UserID)
	}

	return c.Reply(render.Ranking(month, entries, names))
}

// HandleReport handles the /report [year] command. Without an argument it
// renders the current-month analysis, with one the year-end report.
func (h *SummaryHandler) HandleReport(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	ctx := context.Background()

	if len(c.Args()) > 0 {
		year, ok := h.yearArg(c)
		if !ok {
			return c.Reply("❌ 年份不对，比如 /report 2024")
		}
		summary, err := h.summaryService.Yearly(ctx, sender.ID, year)
		if err != nil {
			log.Error().Err(err).Int64("user_id", sender.ID).Int("year", year).Msg("Failed to load yearly report")
			return c.Reply("❌ 查询失败，请稍后重试")
		}
		return c.Reply(render.YearlyReport(senderName(sender), summary))
	}

	month := period.MonthOf(h.checkinService.Today())
	analysis, err := h.summaryService.MonthlyAnalysis(ctx, sender.ID, month)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to load monthly report")
		return c.Reply("❌ 查询失败，请稍后重试")
	}

	return c.Reply(render.MonthlyReport(senderName(sender), analysis))
}

// yearArg parses an optional year argument, defaulting to the current
// effective year. Out-of-range values are rejected rather than queried.
func (h *SummaryHandler) yearArg(c tele.Context) (int, bool) {
	args := c.Args()
	if len(args) == 0 {
		return h.checkinService.Today().Year(), true
	}

	year, err := strconv.Atoi(args[0])
	if err != nil || year < 2000 || year > 2100 {
		return 0, false
	}
	return year, true
}
