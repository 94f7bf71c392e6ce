// Package identity resolves group membership and display names.
// The core never inspects the chat platform; handlers go through the
// Resolver interface and this package supplies the Telegram implementation.
package identity

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-checkin-bot/internal/repository"
)

// Resolver is the capability the handlers need from the chat platform.
type Resolver interface {
	// FilterMembers returns the subset of candidate user ids that are
	// current members of the chat. Bots cannot enumerate group members,
	// so membership is checked per candidate.
	FilterMembers(ctx context.Context, chatID int64, candidates []int64) ([]int64, error)

	// DisplayName returns the best available name for a user in a chat.
	// It never fails; the fallback is a synthetic "User<id>" label.
	DisplayName(ctx context.Context, chatID, userID int64) string
}

// TelegramResolver resolves identities against the Telegram API, with the
// users table as a cheap fallback for display names.
type TelegramResolver struct {
	bot   *tele.Bot
	users *repository.UserRepository
}

// NewTelegramResolver creates a new TelegramResolver.
func NewTelegramResolver(bot *tele.Bot, users *repository.UserRepository) *TelegramResolver {
	return &TelegramResolver{bot: bot, users: users}
}

// FilterMembers checks each candidate against the chat. Candidates whose
// lookup fails are skipped rather than failing the whole ranking.
func (r *TelegramResolver) FilterMembers(_ context.Context, chatID int64, candidates []int64) ([]int64, error) {
	chat := &tele.Chat{ID: chatID}

	members := make([]int64, 0, len(candidates))
	for _, id := range candidates {
		member, err := r.bot.ChatMemberOf(chat, &tele.User{ID: id})
		if err != nil {
			log.Debug().Int64("chat_id", chatID).Int64("user_id", id).Err(err).
				Msg("Membership lookup failed, skipping candidate")
			continue
		}
		switch member.Role {
		case tele.Creator, tele.Administrator, tele.Member, tele.Restricted:
			members = append(members, id)
		}
	}

	return members, nil
}

// DisplayName prefers the cached username, then a live member lookup, then
// a synthetic label.
func (r *TelegramResolver) DisplayName(ctx context.Context, chatID, userID int64) string {
	if names, err := r.users.Names(ctx, []int64{userID}); err == nil {
		if name, ok := names[userID]; ok && name != "" {
			return name
		}
	}

	member, err := r.bot.ChatMemberOf(&tele.Chat{ID: chatID}, &tele.User{ID: userID})
	if err == nil && member.User != nil {
		if member.User.Username != "" {
			return member.User.Username
		}
		if member.User.FirstName != "" {
			return member.User.FirstName
		}
	}

	return fmt.Sprintf("User%d", userID)
}
