package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-checkin-bot/internal/service"
)

// AdminHandler handles admin-only maintenance commands.
type AdminHandler struct {
	rollover *service.RolloverManager
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(rollover *service.RolloverManager) *AdminHandler {
	return &AdminHandler{rollover: rollover}
}

// HandlePurge handles the /purge command, deleting every record outside the
// current month. Registered behind the admin middleware.
func (h *AdminHandler) HandlePurge(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	deleted, err := h.rollover.Purge(context.Background(), time.Now())
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Manual purge failed")
		return c.Reply("❌ 清理失败，请稍后重试")
	}

	return c.Reply(fmt.Sprintf("🧹 已清理 %d 条历史记录", deleted))
}
