package users

import (
	"context"
	"errors"
	"testing"
)

func newUser(t *testing.T, email string) *User {
	t.Helper()
	u := &User{Name: "Ana", Email: email, Role: "user"}
	if err := u.Password.Set("secret123"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	return u
}

func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("create and lookup", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		u := newUser(t, " Ana@Example.com ")
		if err := s.Create(ctx, u); err != nil {
			t.Fatalf("create: %v", err)
		}
		if u.ID == "" || u.Email != "ana@example.com" {
			t.Fatalf("unexpected user after create: %+v", u)
		}

		byEmail, err := s.GetByEmail(ctx, "ANA@example.com")
		if err != nil {
			t.Fatalf("get by email: %v", err)
		}
		if byEmail.ID != u.ID {
			t.Fatalf("got id %s want %s", byEmail.ID, u.ID)
		}
		if err := byEmail.Password.Compare("secret123"); err != nil {
			t.Fatalf("password hash did not round trip: %v", err)
		}

		byID, err := s.GetByID(ctx, u.ID)
		if err != nil {
			t.Fatalf("get by id: %v", err)
		}
		if byID.Name != "Ana" || byID.Role != "user" {
			t.Fatalf("unexpected user: %+v", byID)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := s.Create(ctx, newUser(t, "dup@example.com")); err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := s.Create(ctx, newUser(t, "DUP@example.com")); !errors.Is(err, ErrDuplicateEmail) {
			t.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}
	})

	t.Run("missing users", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if _, err := s.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := s.GetByID(ctx, "bogus"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("refresh token lifecycle", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		u := newUser(t, "tok@example.com")
		if err := s.Create(ctx, u); err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := s.GetRefreshToken(ctx, u.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected no token yet, got %v", err)
		}

		if err := s.SaveRefreshToken(ctx, u.ID, "token-1"); err != nil {
			t.Fatalf("save: %v", err)
		}
		got, err := s.GetRefreshToken(ctx, u.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got != HashToken("token-1") || got == "token-1" {
			t.Fatalf("stored token should be the hash, got %q", got)
		}

		if err := s.SaveRefreshToken(ctx, u.ID, "token-2"); err != nil {
			t.Fatalf("rotate: %v", err)
		}
		got, _ = s.GetRefreshToken(ctx, u.ID)
		if got != HashToken("token-2") {
			t.Fatalf("rotation not persisted")
		}

		if err := s.RotateRefreshToken(ctx, u.ID, "token-1", "token-3"); !errors.Is(err, ErrTokenMismatch) {
			t.Fatalf("rotating from a replaced token: %v", err)
		}
		if err := s.RotateRefreshToken(ctx, u.ID, "token-2", "token-3"); err != nil {
			t.Fatalf("rotate: %v", err)
		}
		if err := s.RotateRefreshToken(ctx, u.ID, "token-2", "token-4"); !errors.Is(err, ErrTokenMismatch) {
			t.Fatalf("second rotation from the same token: %v", err)
		}
		got, _ = s.GetRefreshToken(ctx, u.ID)
		if got != HashToken("token-3") {
			t.Fatalf("rotation not persisted")
		}

		if err := s.DeleteRefreshToken(ctx, u.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.GetRefreshToken(ctx, u.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected revoked token, got %v", err)
		}
		if err := s.RotateRefreshToken(ctx, u.ID, "token-3", "token-5"); !errors.Is(err, ErrTokenMismatch) {
			t.Fatalf("rotating a revoked token: %v", err)
		}
	})
}
