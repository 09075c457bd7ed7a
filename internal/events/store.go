package events

import (
	"context"
	"sort"
	"sync"
	"time"

	"maplecase/pkg/platform/sentinel"
)

// Store persists outbox entries. Append participates in the caller's
// transaction when one is in the context.
type Store interface {
	Append(ctx context.Context, entry *OutboxEntry) error
	ListUnpublished(ctx context.Context, limit int) ([]*OutboxEntry, error)
	MarkPublished(ctx context.Context, id int64, at time.Time) error
}

// MemoryStore is an in-memory outbox for tests and single-node runs.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	entries map[int64]*OutboxEntry
}

// NewMemoryStore returns an empty in-memory outbox.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, entries: make(map[int64]*OutboxEntry)}
}

// Append assigns the next sequence ID and stores a copy of the entry.
func (s *MemoryStore) Append(_ context.Context, entry *OutboxEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *entry
	stored.ID = s.nextID
	s.nextID++
	s.entries[stored.ID] = &stored
	entry.ID = stored.ID
	return nil
}

// ListUnpublished returns up to limit unpublished entries in append order.
func (s *MemoryStore) ListUnpublished(_ context.Context, limit int) ([]*OutboxEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []*OutboxEntry
	for _, entry := range s.entries {
		if entry.PublishedAt == nil {
			copied := *entry
			pending = append(pending, &copied)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// MarkPublished records the publish time for one entry.
func (s *MemoryStore) MarkPublished(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	entry.PublishedAt = &at
	return nil
}
