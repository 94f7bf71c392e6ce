// Package service provides business logic implementations.
package service

import (
	"context"
	"time"

	"telegram-checkin-bot/internal/model"
	"telegram-checkin-bot/internal/period"
)

// Ledger is the storage contract the services need from the check-in
// repository. Satisfied by repository.CheckinRepository; tests use an
// in-memory implementation.
type Ledger interface {
	Increment(ctx context.Context, userID int64, date time.Time, amount int) (int, error)
	Get(ctx context.Context, userID int64, date time.Time) (int, error)
	QueryMonth(ctx context.Context, userID int64, month period.Month) ([]model.CheckinRecord, error)
	QueryYear(ctx context.Context, userID int64, year int) ([]model.CheckinRecord, error)
	GroupTotals(ctx context.Context, month period.Month) ([]model.RankingEntry, error)
	DeleteOutsideMonth(ctx context.Context, month period.Month) (int64, error)
}

// MetaStore is the key-value contract for rollover tracking. Satisfied by
// repository.MetaRepository.
type MetaStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
