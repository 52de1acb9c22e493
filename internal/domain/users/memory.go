package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
	tokens  map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
		tokens:  make(map[string]string),
	}
}

func (m *MemoryRepository) EnsureSchema(context.Context) error { return nil }

func (m *MemoryRepository) Create(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := normalizeEmail(user.Email)
	if _, taken := m.byEmail[email]; taken {
		return ErrDuplicateEmail
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	user.ID = uuid.NewString()
	user.Email = email
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	m.byID[user.ID] = &stored
	m.byEmail[email] = user.ID
	return nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	id, ok := m.byEmail[normalizeEmail(email)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *MemoryRepository) SaveRefreshToken(_ context.Context, userID string, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[userID]; !ok {
		return ErrNotFound
	}
	m.tokens[userID] = HashToken(refreshToken)
	return nil
}

func (m *MemoryRepository) GetRefreshToken(_ context.Context, userID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tokens[userID]
	if !ok {
		return "", ErrNotFound
	}
	return t, nil
}

func (m *MemoryRepository) RotateRefreshToken(_ context.Context, userID, current, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.tokens[userID]; !ok || t != HashToken(current) {
		return ErrTokenMismatch
	}
	m.tokens[userID] = HashToken(next)
	return nil
}

func (m *MemoryRepository) DeleteRefreshToken(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[userID]; !ok {
		return ErrNotFound
	}
	delete(m.tokens, userID)
	return nil
}
