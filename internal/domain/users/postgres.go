package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name          TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    role          TEXT NOT NULL DEFAULT 'user',
    password      BYTEA NOT NULL,
    refresh_token TEXT,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, user *User) error {
	query := `
	  INSERT INTO users (name, email, role, password) VALUES ($1, $2, $3, $4) RETURNING id::text, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user.Email = normalizeEmail(user.Email)
	err := r.db.QueryRow(
		ctx, query, user.Name, user.Email, user.Role, user.Password.hash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `WHERE email = $1`, normalizeEmail(email))
}

func (r *Repository) getOne(ctx context.Context, where string, arg any) (*User, error) {
	query := `SELECT id::text, name, email, role, password, created_at, updated_at FROM users ` + where

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user := &User{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.Password.hash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *Repository) SaveRefreshToken(ctx context.Context, userID string, refreshToken string) error {
	return r.setRefreshToken(ctx, userID, HashToken(refreshToken))
}

func (r *Repository) RotateRefreshToken(ctx context.Context, userID, current, next string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return ErrTokenMismatch
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := r.db.Exec(ctx,
		`UPDATE users SET refresh_token = $1, updated_at = $2 WHERE id = $3 AND refresh_token = $4`,
		HashToken(next), time.Now().UTC(), userID, HashToken(current),
	)
	if err != nil {
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTokenMismatch
	}
	return nil
}

func (r *Repository) DeleteRefreshToken(ctx context.Context, userID string) error {
	return r.setRefreshToken(ctx, userID, nil)
}

func (r *Repository) setRefreshToken(ctx context.Context, userID string, value any) error {
	if _, err := uuid.Parse(userID); err != nil {
		return ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := r.db.Exec(ctx,
		`UPDATE users SET refresh_token = $1, updated_at = $2 WHERE id = $3`,
		value, time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRefreshToken retrieves the refresh token hash for a specific user.
func (r *Repository) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return "", ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var token *string
	err := r.db.QueryRow(ctx, `SELECT refresh_token FROM users WHERE id = $1`, userID).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to retrieve refresh token: %w", err)
	}
	if token == nil || *token == "" {
		return "", ErrNotFound
	}
	return *token, nil
}
