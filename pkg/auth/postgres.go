package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage implements PasswordStorage and MFAStorage over the
// users, user_credentials, and mfa_factors tables.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates the Postgres-backed auth storage.
func NewPostgresStorage(pool *pgxpool.Pool) (*PostgresStorage, error) {
	if pool == nil {
		return nil, errors.New("postgres pool is required")
	}
	return &PostgresStorage{pool: pool}, nil
}

func (s *PostgresStorage) CreateUser(ctx context.Context, user *User) error {
	const query = `
		INSERT INTO users (id, email, display_name, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := s.pool.Exec(ctx, query, user.ID, user.Email, user.DisplayName, user.CreatedAt)
	return err
}

func (s *PostgresStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	const query = `
		SELECT id, email, display_name, created_at
		FROM users
		WHERE id = $1`

	return s.scanUser(s.pool.QueryRow(ctx, query, id))
}

func (s *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	const query = `
		SELECT id, email, display_name, created_at
		FROM users
		WHERE email = $1`

	return s.scanUser(s.pool.QueryRow(ctx, query, email))
}

func (s *PostgresStorage) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStorage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func (s *PostgresStorage) StorePasswordHash(ctx context.Context, userID uuid.UUID, hash []byte) error {
	const query = `
		INSERT INTO user_credentials (user_id, password_hash, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			updated_at = now()`

	_, err := s.pool.Exec(ctx, query, userID, hash)
	return err
}

func (s *PostgresStorage) GetPasswordHash(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	var hash []byte
	err := s.pool.QueryRow(ctx,
		`SELECT password_hash FROM user_credentials WHERE user_id = $1`, userID,
	).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return hash, nil
}

func (s *PostgresStorage) CreateFactor(ctx context.Context, factor *Factor) error {
	const query = `
		INSERT INTO mfa_factors (id, user_id, friendly_name, secret, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		factor.ID, factor.UserID, factor.FriendlyName, factor.Secret, factor.Verified, factor.CreatedAt,
	)
	return err
}

func (s *PostgresStorage) GetFactor(ctx context.Context, id uuid.UUID) (*Factor, error) {
	const query = `
		SELECT id, user_id, friendly_name, secret, verified, created_at
		FROM mfa_factors
		WHERE id = $1`

	var f Factor
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.UserID, &f.FriendlyName, &f.Secret, &f.Verified, &f.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFactorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *PostgresStorage) ListFactors(ctx context.Context, userID uuid.UUID) ([]*Factor, error) {
	const query = `
		SELECT id, user_id, friendly_name, secret, verified, created_at
		FROM mfa_factors
		WHERE user_id = $1
		ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var factors []*Factor
	for rows.Next() {
		var f Factor
		if err := rows.Scan(&f.ID, &f.UserID, &f.FriendlyName, &f.Secret, &f.Verified, &f.CreatedAt); err != nil {
			return nil, err
		}
		factors = append(factors, &f)
	}
	return factors, rows.Err()
}

func (s *PostgresStorage) MarkFactorVerified(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE mfa_factors SET verified = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFactorNotFound
	}
	return nil
}

func (s *PostgresStorage) DeleteFactor(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM mfa_factors WHERE id = $1`, id)
	return err
}
