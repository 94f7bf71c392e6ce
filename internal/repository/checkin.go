// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-checkin-bot/internal/model"
	"telegram-checkin-bot/internal/period"
)

// CheckinRepository handles the check-in ledger: one row per (user, date)
// holding an accumulated count.
type CheckinRepository struct {
	pool *pgxpool.Pool
}

// NewCheckinRepository creates a new CheckinRepository instance.
func NewCheckinRepository(pool *pgxpool.Pool) *CheckinRepository {
	return &CheckinRepository{pool: pool}
}

// Increment adds amount to a user's count for the given date, creating the
// row if needed, and returns the new daily total. The upsert is one
// statement, so concurrent increments on the same key merge additively
// instead of overwriting each other.
func (r *CheckinRepository) Increment(ctx context.Context, userID int64, date time.Time, amount int) (int, error) {
	const query = `
		INSERT INTO checkins (user_id, checkin_date, deer_count, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id, checkin_date)
		DO UPDATE SET deer_count = checkins.deer_count + EXCLUDED.deer_count, updated_at = NOW()
		RETURNING deer_count
	`

	var total int
	err := r.pool.QueryRow(ctx, query, userID, date, amount).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to increment check-in count: %w", err)
	}

	return total, nil
}

// Get returns a user's count for one date. An absent row yields 0, nil.
func (r *CheckinRepository) Get(ctx context.Context, userID int64, date time.Time) (int, error) {
	const query = `
		SELECT deer_count
		FROM checkins
		WHERE user_id = $1 AND checkin_date = $2
	`

	var count int
	err := r.pool.QueryRow(ctx, query, userID, date).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get check-in count: %w", err)
	}

	return count, nil
}

// QueryMonth returns a user's records for one month, ordered by date.
func (r *CheckinRepository) QueryMonth(ctx context.Context, userID int64, month period.Month) ([]model.CheckinRecord, error) {
	return r.queryRange(ctx, userID, month.First(), month.Next().First())
}

// QueryYear returns a user's records for one year, ordered by date.
func (r *CheckinRepository) QueryYear(ctx context.Context, userID int64, year int) ([]model.CheckinRecord, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return r.queryRange(ctx, userID, from, from.AddDate(1, 0, 0))
}

func (r *CheckinRepository) queryRange(ctx context.Context, userID int64, from, to time.Time) ([]model.CheckinRecord, error) {
	const query = `
		SELECT user_id, checkin_date, deer_count, created_at, updated_at
		FROM checkins
		WHERE user_id = $1 AND checkin_date >= $2 AND checkin_date < $3
		ORDER BY checkin_date
	`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer rows.Close()

	var records []model.CheckinRecord
	for rows.Next() {
		var rec model.CheckinRecord
		err := rows.Scan(
			&rec.UserID,
			&rec.CheckinDate,
			&rec.DeerCount,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check-in record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check-ins: %w", err)
	}

	return records, nil
}

// GroupTotals returns per-user totals over one month, ordered by earliest
// insertion then user id. The aggregator's descending stable sort then
// breaks total ties toward the earlier participant.
func (r *CheckinRepository) GroupTotals(ctx context.Context, month period.Month) ([]model.RankingEntry, error) {
	const query = `
		SELECT user_id, SUM(deer_count)::INT AS total
		FROM checkins
		WHERE checkin_date >= $1 AND checkin_date < $2
		GROUP BY user_id
		ORDER BY MIN(created_at), user_id
	`

	rows, err := r.pool.Query(ctx, query, month.First(), month.Next().First())
	if err != nil {
		return nil, fmt.Errorf("failed to query group totals: %w", err)
	}
	defer rows.Close()

	var entries []model.RankingEntry
	for rows.Next() {
		var e model.RankingEntry
		if err := rows.Scan(&e.UserID, &e.Total); err != nil {
			return nil, fmt.Errorf("failed to scan group total: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group totals: %w", err)
	}

	return entries, nil
}

// DeleteOutsideMonth removes every record whose date falls outside the given
// month and returns the number of rows removed. Rollover cleanup only.
func (r *CheckinRepository) DeleteOutsideMonth(ctx context.Context, month period.Month) (int64, error) {
	const query = `
		DELETE FROM checkins
		WHERE checkin_date < $1 OR checkin_date >= $2
	`

	tag, err := r.pool.Exec(ctx, query, month.First(), month.Next().First())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale check-ins: %w", err)
	}

	return tag.RowsAffected(), nil
}
