package params

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// URL: /reviews/paginated?page=2&limit=20
// → ParsePagination() → Pagination{Limit:20, Page:2, Offset:20}
// → store skips Offset, takes Limit, counts the filtered total
// → ComputeMeta(total) → fills TotalPages, HasNext, etc.
// Pagination holds pagination info and computed metadata.
type Pagination struct {
	Total      int  `json:"total"`       // items matching the filter, not the whole collection
	TotalPages int  `json:"totalPages"`  // ceil(total/limit)
	Page       int  `json:"currentPage"` // 1-based
	Limit      int  `json:"limit"`       // items per page
	HasNext    bool `json:"hasNextPage"`
	HasPrev    bool `json:"hasPrevPage"`
	Offset     int  `json:"-"`
}

// New builds a Pagination from already parsed values, applying the same
// defaults and clamps as ParsePagination.
func New(page, limit int) Pagination {
	p := Pagination{Page: 1, Limit: DefaultLimit}
	if page > 0 {
		p.Page = page
	}
	switch {
	case limit <= 0:
	case limit > MaxLimit:
		p.Limit = MaxLimit
	default:
		p.Limit = limit
	}
	// keeps the offset from overflowing on absurd page numbers
	if maxPage := math.MaxInt/p.Limit + 1; p.Page > maxPage {
		p.Page = maxPage
	}
	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// Unbounded is a single window of up to limit items starting at the first
// record. It skips the MaxLimit clamp and is meant for fixed server-side caps.
func Unbounded(limit int) Pagination {
	return Pagination{Page: 1, Limit: limit}
}

// ParsePagination parses ?limit=...&page=... safely. Careful key are case sensitive
func ParsePagination(q url.Values) Pagination {
	var page, limit int
	if pageStr := strings.TrimSpace(q.Get("page")); pageStr != "" {
		page, _ = strconv.Atoi(pageStr)
	}
	if limitStr := strings.TrimSpace(q.Get("limit")); limitStr != "" {
		limit, _ = strconv.Atoi(limitStr)
	}
	return New(page, limit)
}

// ComputeMeta updates pagination after fetching total count.
func (p *Pagination) ComputeMeta(total int) {
	p.Total = total
	p.TotalPages = 0
	if p.Limit > 0 {
		p.TotalPages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	p.HasPrev = p.Page > 1
	p.HasNext = p.Page < p.TotalPages
}
