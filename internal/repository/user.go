package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository caches the last known display name per user so rankings can
// be rendered without a platform round-trip per entry.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Upsert records the current display name for a user.
func (r *UserRepository) Upsert(ctx context.Context, userID int64, username string) error {
	const query = `
		INSERT INTO users (user_id, username, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET username = EXCLUDED.username, updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, userID, username); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

// Names returns the known display names for the given user ids. Unknown ids
// are simply missing from the result map.
func (r *UserRepository) Names(ctx context.Context, ids []int64) (map[int64]string, error) {
	if len(ids) == 0 {
		return map[int64]string{}, nil
	}

	const query = `
		SELECT user_id, username
		FROM users
		WHERE user_id = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query usernames: %w", err)
	}
	defer rows.Close()

	names := make(map[int64]string, len(ids))
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan username: %w", err)
		}
		names[id] = name
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usernames: %w", err)
	}

	return names, nil
}
