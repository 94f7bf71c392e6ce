// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-checkin-bot/internal/config"
	"telegram-checkin-bot/internal/handler"
	"telegram-checkin-bot/internal/identity"
	"telegram-checkin-bot/internal/pkg/lock"
	"telegram-checkin-bot/internal/repository"
	"telegram-checkin-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	checkinHandler *handler.CheckinHandler
	summaryHandler *handler.SummaryHandler
	adminHandler   *handler.AdminHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config          *config.Config
	CheckinService  *service.CheckinService
	SummaryService  *service.SummaryService
	RolloverManager *service.RolloverManager
	Users           *repository.UserRepository
	UserLock        *lock.UserLock
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot: teleBot,
		cfg: deps.Config,
	}

	resolver := identity.NewTelegramResolver(teleBot, deps.Users)

	b.checkinHandler = handler.NewCheckinHandler(
		deps.Config.Checkin.Marker,
		deps.CheckinService,
		deps.SummaryService,
		deps.Users,
		deps.UserLock,
	)
	b.summaryHandler = handler.NewSummaryHandler(
		deps.SummaryService,
		deps.CheckinService,
		resolver,
		deps.Config.Checkin.RankingSize,
	)
	b.adminHandler = handler.NewAdminHandler(deps.RolloverManager)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware. Order matters: recovery
// wraps everything, access filtering runs before any handler logic.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(AccessMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and text handlers.
func (b *Bot) registerHandlers() {
	// Marker messages are plain text, not commands.
	b.bot.Handle(tele.OnText, b.checkinHandler.HandleText)

	b.bot.Handle("/backfill", b.checkinHandler.HandleBackfill)
	b.bot.Handle("/calendar", b.summaryHandler.HandleCalendar)
	b.bot.Handle("/year", b.summaryHandler.HandleYear)
	b.bot.Handle("/rank", b.summaryHandler.HandleRank)
	b.bot.Handle("/report", b.summaryHandler.HandleReport)

	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/purge", b.adminHandler.HandlePurge)
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
