package reviews

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"goomer/internal/params"
)

var (
	ErrNotFound          = errors.New("review not found")
	QueryTimeoutDuration = time.Second * 5
)

type Review struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	RestaurantName string    `json:"restaurantName"`
	Address        string    `json:"address"`
	City           string    `json:"city"`
	Ratings        Ratings   `json:"ratings"`
	Price          float64   `json:"price"`
	Comment        string    `json:"comment"`
	Images         []string  `json:"images"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Ratings struct {
	Food        float64 `json:"food" bson:"food" validate:"required,min=1,max=5"`
	Service     float64 `json:"service" bson:"service" validate:"required,min=1,max=5"`
	Environment float64 `json:"environment" bson:"environment" validate:"required,min=1,max=5"`
}

// UnmarshalJSON also accepts the object encoded as a JSON string,
// which is how form posts deliver it.
func (r *Ratings) UnmarshalJSON(data []byte) error {
	type plain Ratings
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	return json.Unmarshal(data, (*plain)(r))
}

// Update carries the fields a partial update may touch. Nil means unchanged.
type Update struct {
	RestaurantName *string
	Address        *string
	City           *string
	Ratings        *RatingsUpdate
	Price          *float64
	Comment        *string
}

type RatingsUpdate struct {
	Food        *float64 `json:"food" validate:"omitnil,min=1,max=5"`
	Service     *float64 `json:"service" validate:"omitnil,min=1,max=5"`
	Environment *float64 `json:"environment" validate:"omitnil,min=1,max=5"`
}

// UnmarshalJSON mirrors Ratings.UnmarshalJSON.
func (r *RatingsUpdate) UnmarshalJSON(data []byte) error {
	type plain RatingsUpdate
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	return json.Unmarshal(data, (*plain)(r))
}

// Empty reports whether the update changes nothing besides updatedAt.
func (u Update) Empty() bool {
	return u.RestaurantName == nil && u.Address == nil && u.City == nil &&
		u.Price == nil && u.Comment == nil &&
		(u.Ratings == nil || (u.Ratings.Food == nil && u.Ratings.Service == nil && u.Ratings.Environment == nil))
}

// Apply merges the supplied fields into r. updatedAt never moves backwards.
func (u Update) Apply(r *Review, now time.Time) {
	if u.RestaurantName != nil {
		r.RestaurantName = *u.RestaurantName
	}
	if u.Address != nil {
		r.Address = *u.Address
	}
	if u.City != nil {
		r.City = *u.City
	}
	if u.Ratings != nil {
		if u.Ratings.Food != nil {
			r.Ratings.Food = *u.Ratings.Food
		}
		if u.Ratings.Service != nil {
			r.Ratings.Service = *u.Ratings.Service
		}
		if u.Ratings.Environment != nil {
			r.Ratings.Environment = *u.Ratings.Environment
		}
	}
	if u.Price != nil {
		r.Price = *u.Price
	}
	if u.Comment != nil {
		r.Comment = *u.Comment
	}
	if now.After(r.UpdatedAt) {
		r.UpdatedAt = now
	}
}

type Query struct {
	Pagination params.Pagination
	UserID     string // empty means every owner
}

type Page struct {
	Reviews    []Review          `json:"reviews"`
	Pagination params.Pagination `json:"pagination"`
}

// Now is the timestamp every store writes. Millisecond precision keeps the
// value identical after a round trip through any backend.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
