package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrMetaNotFound is returned when a metadata key has never been written.
var ErrMetaNotFound = errors.New("metadata key not found")

// MetaRepository handles the singleton key-value metadata table used for
// rollover tracking. One logical row per key, last write wins.
type MetaRepository struct {
	pool *pgxpool.Pool
}

// NewMetaRepository creates a new MetaRepository instance.
func NewMetaRepository(pool *pgxpool.Pool) *MetaRepository {
	return &MetaRepository{pool: pool}
}

// Get returns the value stored under key, or ErrMetaNotFound.
func (r *MetaRepository) Get(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM checkin_meta WHERE key = $1`

	var value string
	err := r.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrMetaNotFound
		}
		return "", fmt.Errorf("failed to get metadata %q: %w", key, err)
	}

	return value, nil
}

// Set upserts the value stored under key.
func (r *MetaRepository) Set(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO checkin_meta (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set metadata %q: %w", key, err)
	}

	return nil
}
