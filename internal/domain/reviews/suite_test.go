package reviews

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"goomer/internal/params"
)

func sampleReview(userID string, n int) *Review {
	return &Review{
		UserID:         userID,
		RestaurantName: fmt.Sprintf("Restaurant %d", n),
		Address:        "Rua das Flores, 100",
		City:           "Sao Paulo",
		Ratings:        Ratings{Food: 5, Service: 4, Environment: 5},
		Price:          3,
		Comment:        "Great food and service!",
	}
}

func ptr[T any](v T) *T { return &v }

// runStoreSuite checks the behaviour every Store implementation must share.
// newStore must return an empty store.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("create assigns id and timestamps", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		r := sampleReview("user-1", 1)
		r.ID = "caller-supplied"
		if err := s.Create(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
		if r.ID == "" || r.ID == "caller-supplied" {
			t.Fatalf("store did not assign id: %q", r.ID)
		}
		if !r.CreatedAt.Equal(r.UpdatedAt) {
			t.Fatalf("createdAt %v != updatedAt %v", r.CreatedAt, r.UpdatedAt)
		}

		got, err := s.GetByID(ctx, r.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.UserID != "user-1" || got.Ratings.Food != 5 || got.Comment != r.Comment {
			t.Fatalf("unexpected review: %+v", got)
		}
		if got.Images == nil || len(got.Images) != 0 {
			t.Fatalf("images should be an empty slice, got %#v", got.Images)
		}
		if !got.CreatedAt.Equal(r.CreatedAt) {
			t.Fatalf("createdAt did not round trip: %v vs %v", got.CreatedAt, r.CreatedAt)
		}
	})

	t.Run("images keep their order", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		r := sampleReview("user-1", 1)
		r.Images = []string{"https://img/a.jpg", "https://img/b.jpg", "https://img/c.jpg"}
		if err := s.Create(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := s.GetByID(ctx, r.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(got.Images) != 3 || got.Images[0] != "https://img/a.jpg" || got.Images[2] != "https://img/c.jpg" {
			t.Fatalf("images: %v", got.Images)
		}
	})

	t.Run("missing and malformed ids are not found", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, id := range []string{"", "not-an-id", "65f1c2a9e4b0a1b2c3d4e5f6", "3f1b6a52-2c43-4b7e-9c3a-8d7e6f5a4b3c"} {
			if _, err := s.GetByID(ctx, id); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetByID(%q): expected ErrNotFound, got %v", id, err)
			}
			if _, err := s.Update(ctx, id, Update{Comment: ptr("a new comment here")}); !errors.Is(err, ErrNotFound) {
				t.Errorf("Update(%q): expected ErrNotFound, got %v", id, err)
			}
			if err := s.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
				t.Errorf("Delete(%q): expected ErrNotFound, got %v", id, err)
			}
		}
	})

	t.Run("pagination is stable and ordered newest first", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for i := 0; i < 25; i++ {
			if err := s.Create(ctx, sampleReview("user-1", i)); err != nil {
				t.Fatalf("create %d: %v", i, err)
			}
		}

		all, err := s.GetPaginated(ctx, Query{Pagination: params.New(1, 50)})
		if err != nil {
			t.Fatalf("list all: %v", err)
		}
		if len(all.Reviews) != 25 || all.Pagination.Total != 25 {
			t.Fatalf("expected 25 reviews, got %d (total %d)", len(all.Reviews), all.Pagination.Total)
		}
		for i := 1; i < len(all.Reviews); i++ {
			if all.Reviews[i].CreatedAt.After(all.Reviews[i-1].CreatedAt) {
				t.Fatalf("not sorted by createdAt desc at %d", i)
			}
		}
		if all.Reviews[0].RestaurantName != "Restaurant 24" {
			t.Fatalf("newest insertion should come first, got %s", all.Reviews[0].RestaurantName)
		}

		p1, err := s.GetPaginated(ctx, Query{Pagination: params.New(1, 10)})
		if err != nil {
			t.Fatalf("page 1: %v", err)
		}
		p2, err := s.GetPaginated(ctx, Query{Pagination: params.New(2, 10)})
		if err != nil {
			t.Fatalf("page 2: %v", err)
		}

		seen := map[string]bool{}
		combined := append(append([]Review{}, p1.Reviews...), p2.Reviews...)
		if len(combined) != 20 {
			t.Fatalf("expected 20 reviews across two pages, got %d", len(combined))
		}
		for i, r := range combined {
			if seen[r.ID] {
				t.Fatalf("review %s appears on both pages", r.ID)
			}
			seen[r.ID] = true
			if r.ID != all.Reviews[i].ID {
				t.Fatalf("position %d: got %s want %s", i, r.ID, all.Reviews[i].ID)
			}
		}

		meta := p2.Pagination
		if meta.TotalPages != 3 || !meta.HasNext || !meta.HasPrev || meta.Page != 2 || meta.Limit != 10 {
			t.Fatalf("unexpected meta: %+v", meta)
		}

		p3, err := s.GetPaginated(ctx, Query{Pagination: params.New(3, 10)})
		if err != nil {
			t.Fatalf("page 3: %v", err)
		}
		if len(p3.Reviews) != 5 || p3.Pagination.HasNext {
			t.Fatalf("page 3: %d reviews, meta %+v", len(p3.Reviews), p3.Pagination)
		}

		p9, err := s.GetPaginated(ctx, Query{Pagination: params.New(9, 10)})
		if err != nil {
			t.Fatalf("page 9: %v", err)
		}
		if len(p9.Reviews) != 0 || p9.Reviews == nil || p9.Pagination.Total != 25 {
			t.Fatalf("page past the end: %+v", p9)
		}
	})

	t.Run("owner filter applies before the window", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for i := 0; i < 6; i++ {
			owner := "user-a"
			if i%3 == 0 {
				owner = "user-b"
			}
			if err := s.Create(ctx, sampleReview(owner, i)); err != nil {
				t.Fatalf("create: %v", err)
			}
		}

		page, err := s.GetPaginated(ctx, Query{Pagination: params.New(1, 3), UserID: "user-a"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if page.Pagination.Total != 4 || page.Pagination.TotalPages != 2 || len(page.Reviews) != 3 {
			t.Fatalf("unexpected page: %d reviews, meta %+v", len(page.Reviews), page.Pagination)
		}
		for _, r := range page.Reviews {
			if r.UserID != "user-a" {
				t.Fatalf("filter leaked review of %s", r.UserID)
			}
		}
	})

	t.Run("update merges supplied fields only", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		r := sampleReview("user-1", 1)
		r.Images = []string{"https://img/a.jpg"}
		if err := s.Create(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}

		got, err := s.Update(ctx, r.ID, Update{
			Comment: ptr("Changed my mind about it"),
			Ratings: &RatingsUpdate{Service: ptr(2.0)},
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.Comment != "Changed my mind about it" {
			t.Fatalf("comment not updated: %q", got.Comment)
		}
		if got.Ratings != (Ratings{Food: 5, Service: 2, Environment: 5}) {
			t.Fatalf("ratings not merged per field: %+v", got.Ratings)
		}
		if got.Price != 3 || got.RestaurantName != r.RestaurantName || got.UserID != "user-1" {
			t.Fatalf("untouched fields changed: %+v", got)
		}
		if len(got.Images) != 1 || got.Images[0] != "https://img/a.jpg" {
			t.Fatalf("images changed: %v", got.Images)
		}
		if got.UpdatedAt.Before(r.UpdatedAt) || !got.CreatedAt.Equal(r.CreatedAt) {
			t.Fatalf("timestamps: created %v updated %v (was %v)", got.CreatedAt, got.UpdatedAt, r.UpdatedAt)
		}

		again, err := s.GetByID(ctx, r.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if again.Comment != got.Comment || again.Ratings != got.Ratings {
			t.Fatalf("update not persisted: %+v", again)
		}
	})

	t.Run("delete removes the record", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		r := sampleReview("user-1", 1)
		if err := s.Create(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := s.Delete(ctx, r.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.GetByID(ctx, r.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := s.Delete(ctx, r.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("second delete: expected ErrNotFound, got %v", err)
		}
	})
}
