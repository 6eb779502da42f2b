package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores profiles in the profiles table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a Postgres-backed profile repository.
func NewPostgresRepository(pool *pgxpool.Pool) (*PostgresRepository, error) {
	if pool == nil {
		return nil, ErrRepositoryRequired
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	const query = `
		SELECT user_id, display_name, phone, avatar_url, updated_at
		FROM profiles
		WHERE user_id = $1`

	var p Profile
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.DisplayName, &p.Phone, &p.AvatarURL, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *PostgresRepository) Save(ctx context.Context, profile *Profile) error {
	const query = `
		INSERT INTO profiles (user_id, display_name, phone, avatar_url, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			phone = EXCLUDED.phone,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		profile.UserID, profile.DisplayName, profile.Phone, profile.AvatarURL, profile.UpdatedAt,
	)
	return err
}
