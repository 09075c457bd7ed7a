package tenant

import (
	"context"
	"sync"

	"maplecase/pkg/domain"
	"maplecase/pkg/platform/sentinel"
)

// Store persists tenants.
type Store interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id domain.TenantID) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	SetActive(ctx context.Context, id domain.TenantID, active bool) error
}

// MemoryStore is an in-memory tenant store for tests and single-node runs.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[domain.TenantID]*Tenant
	bySlug  map[string]domain.TenantID
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[domain.TenantID]*Tenant),
		bySlug: make(map[string]domain.TenantID),
	}
}

// Create stores a copy of the tenant. A duplicate slug reports conflict.
func (s *MemoryStore) Create(_ context.Context, t *Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bySlug[t.Slug]; exists {
		return sentinel.ErrConflict
	}
	stored := *t
	s.byID[stored.ID] = &stored
	s.bySlug[stored.Slug] = stored.ID
	return nil
}

// GetByID returns a copy of the tenant.
func (s *MemoryStore) GetByID(_ context.Context, id domain.TenantID) (*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

// GetBySlug returns a copy of the tenant.
func (s *MemoryStore) GetBySlug(_ context.Context, slug string) (*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[slug]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.byID[id]
	return &copied, nil
}

// SetActive flips the tenant's active flag.
func (s *MemoryStore) SetActive(_ context.Context, id domain.TenantID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	t.Active = active
	return nil
}
