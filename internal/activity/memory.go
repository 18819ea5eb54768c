package activity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository for unit tests and local
// development without Postgres.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*Activity
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*Activity), now: time.Now}
}

// SetClock overrides the repository clock. Tests only.
func (m *MemoryRepository) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryRepository) Create(ctx context.Context, a *Activity) (*Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	now := m.now()
	if cp.OccurredAt.IsZero() {
		cp.OccurredAt = now
	}
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.store[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *MemoryRepository) Get(ctx context.Context, id string) (*Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.store[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryRepository) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]*Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Activity{}
	for _, a := range m.store {
		if a.UserID != userID {
			continue
		}
		if !inRange(a.OccurredAt, from, to) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func (m *MemoryRepository) Update(ctx context.Context, id string, description *string, minutes *int) (*Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[id]
	if !ok {
		return nil, nil
	}
	if description != nil {
		a.Description = *description
	}
	if minutes != nil {
		a.Minutes = *minutes
	}
	a.UpdatedAt = m.now()
	cp := *a
	return &cp, nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

// Summary buckets activities by department and UTC day.
func (m *MemoryRepository) Summary(ctx context.Context, from, to time.Time) ([]*SummaryRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	type key struct {
		dept string
		day  time.Time
	}
	buckets := map[key]*SummaryRow{}
	for _, a := range m.store {
		if !inRange(a.OccurredAt, from, to) {
			continue
		}
		k := key{dept: a.Department, day: a.OccurredAt.UTC().Truncate(24 * time.Hour)}
		row, ok := buckets[k]
		if !ok {
			row = &SummaryRow{Department: k.dept, Day: k.day}
			buckets[k] = row
		}
		row.Count++
		row.Minutes += a.Minutes
	}
	out := make([]*SummaryRow, 0, len(buckets))
	for _, row := range buckets {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Day.Equal(out[j].Day) {
			return out[i].Day.Before(out[j].Day)
		}
		return out[i].Department < out[j].Department
	})
	return out, nil
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
