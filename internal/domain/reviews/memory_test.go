package reviews

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestMemoryRepository(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return NewMemoryRepository() })
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	s := NewMemoryRepository()
	ctx := context.Background()

	r := sampleReview("user-1", 1)
	r.Images = []string{"https://img/a.jpg"}
	if err := s.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}
	r.Images[0] = "mutated"

	got, _ := s.GetByID(ctx, r.ID)
	got.Images[0] = "mutated again"

	again, _ := s.GetByID(ctx, r.ID)
	if again.Images[0] != "https://img/a.jpg" {
		t.Fatalf("stored review was aliased: %v", again.Images)
	}
}

func TestUpdateApplyNeverMovesUpdatedAtBack(t *testing.T) {
	now := time.Now().UTC()
	r := Review{UpdatedAt: now}
	Update{}.Apply(&r, now.Add(-time.Minute))
	if !r.UpdatedAt.Equal(now) {
		t.Fatalf("updatedAt moved backwards: %v", r.UpdatedAt)
	}
}

func TestUpdateEmpty(t *testing.T) {
	if !(Update{}).Empty() || !(Update{Ratings: &RatingsUpdate{}}).Empty() {
		t.Fatalf("zero update should be empty")
	}
	if (Update{Price: ptr(2.0)}).Empty() {
		t.Fatalf("price update is not empty")
	}
}

func TestRatingsAcceptsEncodedString(t *testing.T) {
	var body struct {
		Ratings Ratings `json:"ratings"`
	}
	if err := json.Unmarshal([]byte(`{"ratings":"{\"food\":5,\"service\":4,\"environment\":3}"}`), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Ratings != (Ratings{Food: 5, Service: 4, Environment: 3}) {
		t.Fatalf("got %+v", body.Ratings)
	}

	var partial struct {
		Ratings *RatingsUpdate `json:"ratings"`
	}
	if err := json.Unmarshal([]byte(`{"ratings":"{\"food\":2}"}`), &partial); err != nil {
		t.Fatalf("unmarshal update: %v", err)
	}
	if partial.Ratings == nil || partial.Ratings.Food == nil || *partial.Ratings.Food != 2 || partial.Ratings.Service != nil {
		t.Fatalf("got %+v", partial.Ratings)
	}

	if err := json.Unmarshal([]byte(`{"ratings":"not json"}`), &body); err == nil {
		t.Fatalf("expected error for garbage string")
	}
}
