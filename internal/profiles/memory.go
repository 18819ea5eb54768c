package profiles

import (
	"context"
	"sync"
	"time"

	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/models"
)

// MemoryRepository is a simple in-memory Repository used for unit tests and
// local development without Postgres. It follows the same (nil, nil)
// not-found convention as the Postgres implementation.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*models.Profile
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*models.Profile), now: time.Now}
}

// SetClock overrides the repository clock. Tests only.
func (m *MemoryRepository) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryRepository) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	now := m.now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.store[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *MemoryRepository) List(ctx context.Context) ([]*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Profile, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryRepository) UpdateRole(ctx context.Context, id string, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.store[id]; ok {
		p.Role = role
		p.UpdatedAt = m.now()
	}
	return nil
}

func (m *MemoryRepository) UpdateLastLogin(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.store[id]; ok {
		now := m.now()
		p.LastLogin = &now
	}
	return nil
}

func (m *MemoryRepository) SetSessionWindow(ctx context.Context, id string, createdAt, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.store[id]; ok {
		c, e := createdAt, expiresAt
		p.SessionCreatedAt = &c
		p.SessionExpiresAt = &e
	}
	return nil
}

func (m *MemoryRepository) SessionExpired(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok || p.SessionExpiresAt == nil {
		return false, nil
	}
	return p.SessionExpiresAt.Before(m.now()), nil
}

func (m *MemoryRepository) ClearSessionExpiry(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.store[id]; ok {
		p.SessionCreatedAt = nil
		p.SessionExpiresAt = nil
	}
	return nil
}
