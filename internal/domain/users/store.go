package users

import (
	"context"
	"strings"
)

type Store interface {
	// Create assigns ID and timestamps. Emails are compared case-insensitively.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// SaveRefreshToken replaces the user's current refresh token. Only its hash is stored.
	SaveRefreshToken(ctx context.Context, userID string, refreshToken string) error
	// GetRefreshToken returns the stored hash, or ErrNotFound when none is active.
	GetRefreshToken(ctx context.Context, userID string) (string, error)
	// RotateRefreshToken swaps current for next in one step. It fails with
	// ErrTokenMismatch unless current is the active token.
	RotateRefreshToken(ctx context.Context, userID, current, next string) error
	DeleteRefreshToken(ctx context.Context, userID string) error
	EnsureSchema(ctx context.Context) error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
