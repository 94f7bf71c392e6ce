// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-checkin-bot/internal/period"
	"telegram-checkin-bot/internal/pkg/lock"
	"telegram-checkin-bot/internal/render"
	"telegram-checkin-bot/internal/repository"
	"telegram-checkin-bot/internal/service"
)

// CheckinHandler handles the write path: marker messages and backfills.
type CheckinHandler struct {
	marker         string
	checkinService *service.CheckinService
	summaryService *service.SummaryService
	users          *repository.UserRepository
	userLock       *lock.UserLock
}

// NewCheckinHandler creates a new CheckinHandler. marker is the emoji whose
// repetitions count as a check-in.
func NewCheckinHandler(
	marker string,
	checkinService *service.CheckinService,
	summaryService *service.SummaryService,
	users *repository.UserRepository,
	userLock *lock.UserLock,
) *CheckinHandler {
	return &CheckinHandler{
		marker:         marker,
		checkinService: checkinService,
		summaryService: summaryService,
		users:          users,
		userLock:       userLock,
	}
}

// MarkerCount returns how many times marker repeats in text, or 0 when text
// is not a pure marker run. Whitespace between markers is tolerated so that
// "🦌 🦌" still counts as two.
func MarkerCount(text, marker string) int {
	if marker == "" {
		return 0
	}
	rest := strings.TrimSpace(text)
	if rest == "" {
		return 0
	}

	count := 0
	for rest != "" {
		if !strings.HasPrefix(rest, marker) {
			return 0
		}
		count++
		rest = strings.TrimLeft(rest[len(marker):], " \t")
	}
	return count
}

// HandleText handles plain text messages. Messages that are not a marker run
// pass through silently; everything else is a check-in of count markers.
func (h *CheckinHandler) HandleText(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	count := MarkerCount(c.Text(), h.marker)
	if count == 0 {
		return nil
	}

	at := time.Now()
	if msg := c.Message(); msg != nil {
		at = msg.Time()
	}

	ctx := context.Background()
	h.rememberName(ctx, sender)

	h.userLock.Lock(sender.ID)
	defer h.userLock.Unlock(sender.ID)

	result, err := h.checkinService.RecordCheckin(ctx, sender.ID, at, count)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Check-in failed")
		return c.Reply("❌ 打卡失败，请稍后重试")
	}
	if !result.Accepted {
		return c.Reply(rejectMessage(result.Reason))
	}

	return h.replyCalendar(ctx, c, sender)
}

// HandleBackfill handles the /backfill <day> [count] command, recording a
// check-in onto a past day of the current month.
func (h *CheckinHandler) HandleBackfill(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) < 1 || len(args) > 2 {
		return c.Reply("用法：/backfill <几号> [次数]")
	}

	day, err := strconv.Atoi(args[0])
	if err != nil {
		return c.Reply("❌ 日期要是数字，比如 /backfill 3")
	}
	count := 1
	if len(args) == 2 {
		count, err = strconv.Atoi(args[1])
		if err != nil {
			return c.Reply("❌ 次数要是数字，比如 /backfill 3 2")
		}
	}

	ctx := context.Background()
	h.rememberName(ctx, sender)

	h.userLock.Lock(sender.ID)
	defer h.userLock.Unlock(sender.ID)

	result, err := h.checkinService.RecordBackfill(ctx, sender.ID, day, count)
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		return c.Reply("❌ 次数要是正数")
	case errors.Is(err, service.ErrDayOutOfRange):
		return c.Reply("❌ 这个月没有这一天")
	case errors.Is(err, service.ErrFutureDay):
		return c.Reply("❌ 还没到那天呢，不能提前鹿")
	case err != nil:
		log.Error().Err(err).Int64("user_id", sender.ID).Int("day", day).Msg("Backfill failed")
		return c.Reply("❌ 补卡失败，请稍后重试")
	}
	if !result.Accepted {
		return c.Reply(rejectMessage(result.Reason))
	}

	return h.replyCalendar(ctx, c, sender)
}

// replyCalendar sends the sender's current-month calendar, the standard
// acknowledgement for a successful write.
func (h *CheckinHandler) replyCalendar(ctx context.Context, c tele.Context, sender *tele.User) error {
	today := h.checkinService.Today()
	summary, err := h.summaryService.Monthly(ctx, sender.ID, period.MonthOf(today))
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to load calendar after check-in")
		return c.Reply("✅ 打卡成功")
	}
	return c.Reply(render.MonthCalendar(senderName(sender), summary, today))
}

// rememberName refreshes the username cache; rankings fall back to it when
// the live member lookup has nothing better.
func (h *CheckinHandler) rememberName(ctx context.Context, sender *tele.User) {
	if err := h.users.Upsert(ctx, sender.ID, senderName(sender)); err != nil {
		log.Warn().Err(err).Int64("user_id", sender.ID).Msg("Failed to cache username")
	}
}

func senderName(sender *tele.User) string {
	if sender.Username != "" {
		return sender.Username
	}
	return sender.FirstName
}

func rejectMessage(reason service.RejectReason) string {
	switch reason {
	case service.RejectDailyLimit:
		return "🈲 今天鹿够了，身体要紧，明天再来"
	case service.RejectMonthlyLimit:
		return "🈲 本月配额已用完，下个月再战"
	default:
		return "🈲 打卡被拒绝了"
	}
}
