package reviews

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type memoryEntry struct {
	review Review
	seq    int64
}

// MemoryRepository keeps reviews in process. Ties on createdAt are broken by
// insertion order, newest first.
type MemoryRepository struct {
	mu      sync.RWMutex
	seq     int64
	entries map[string]*memoryEntry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string]*memoryEntry)}
}

func (m *MemoryRepository) EnsureSchema(context.Context) error { return nil }

func (m *MemoryRepository) Create(_ context.Context, review *Review) error {
	now := Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	review.ID = uuid.NewString()
	review.CreatedAt = now
	review.UpdatedAt = now
	normalizeImages(review)

	stored := *review
	stored.Images = append([]string{}, review.Images...)
	m.entries[review.ID] = &memoryEntry{review: stored, seq: m.seq}
	return nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (*Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	r := clone(e.review)
	return &r, nil
}

func (m *MemoryRepository) GetPaginated(_ context.Context, q Query) (*Page, error) {
	m.mu.RLock()
	matched := make([]*memoryEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if q.UserID != "" && e.review.UserID != q.UserID {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.review.CreatedAt.Equal(b.review.CreatedAt) {
			return a.review.CreatedAt.After(b.review.CreatedAt)
		}
		return a.seq > b.seq
	})

	p := q.Pagination
	out := make([]Review, 0, p.Limit)
	for i := max(p.Offset, 0); i < len(matched) && len(out) < p.Limit; i++ {
		out = append(out, clone(matched[i].review))
	}
	m.mu.RUnlock()

	p.ComputeMeta(len(matched))
	return &Page{Reviews: out, Pagination: p}, nil
}

func (m *MemoryRepository) Update(_ context.Context, id string, u Update) (*Review, error) {
	now := Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.Apply(&e.review, now)
	r := clone(e.review)
	return &r, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		return ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func clone(r Review) Review {
	r.Images = append([]string{}, r.Images...)
	return r
}
