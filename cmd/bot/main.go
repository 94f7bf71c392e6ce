// Package main is the entry point for the check-in bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telegram-checkin-bot/internal/bot"
	"telegram-checkin-bot/internal/config"
	"telegram-checkin-bot/internal/pkg/db"
	"telegram-checkin-bot/internal/pkg/lock"
	"telegram-checkin-bot/internal/repository"
	"telegram-checkin-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("marker", cfg.Checkin.Marker).
		Str("day_start", cfg.Checkin.DayStart).
		Int("daily_max", cfg.Checkin.DailyMax).
		Int("monthly_max", cfg.Checkin.MonthlyMax).
		Bool("auto_clean_history", cfg.Checkin.AutoCleanHistory).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	checkinRepo := repository.NewCheckinRepository(dbPool.Pool)
	metaRepo := repository.NewMetaRepository(dbPool.Pool)
	userRepo := repository.NewUserRepository(dbPool.Pool)

	// Initialize services
	rolloverManager := service.NewRolloverManager(checkinRepo, metaRepo, cfg.Checkin.AutoCleanHistory)
	checkinService := service.NewCheckinService(
		checkinRepo,
		rolloverManager,
		cfg.Checkin.ParsedDayStart(),
		cfg.Checkin.DailyMax,
		cfg.Checkin.MonthlyMax,
	)
	summaryService := service.NewSummaryService(checkinRepo, cfg.Checkin.MonthlyMax)

	userLock := lock.NewUserLock()

	// Create bot dependencies
	deps := &bot.Dependencies{
		Config:          cfg,
		CheckinService:  checkinService,
		SummaryService:  summaryService,
		RolloverManager: rolloverManager,
		Users:           userRepo,
		UserLock:        userLock,
	}

	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create checkins table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS checkins (
			user_id BIGINT NOT NULL,
			checkin_date DATE NOT NULL,
			deer_count INT NOT NULL DEFAULT 0 CHECK (deer_count >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, checkin_date)
		);
		CREATE INDEX IF NOT EXISTS idx_checkins_date ON checkins(checkin_date);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: checkins table created")

	// Migration 2: Create checkin_meta table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS checkin_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: checkin_meta table created")

	// Migration 3: Create users table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			username TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: users table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
