package ledger

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"maplecase/pkg/domain"
	"maplecase/pkg/platform/sentinel"
)

// MemoryStore is an in-memory ledger for tests and single-node runs. All
// reads and writes copy, so callers can never mutate stored history.
type MemoryStore struct {
	mu        sync.RWMutex
	cases     map[domain.CaseID]*domain.CaseRecord
	snapshots map[domain.CaseID][]*domain.CaseSnapshot
	events    map[domain.CaseID][]domain.CaseEvent
}

// NewMemoryStore returns an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cases:     make(map[domain.CaseID]*domain.CaseRecord),
		snapshots: make(map[domain.CaseID][]*domain.CaseSnapshot),
		events:    make(map[domain.CaseID][]domain.CaseEvent),
	}
}

// RunInTx runs fn directly. Atomicity for the memory store comes from the
// per-case lock held by the service around every write sequence.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// CreateCase stores a new case record.
func (s *MemoryStore) CreateCase(_ context.Context, record *domain.CaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cases[record.ID]; exists {
		return sentinel.ErrConflict
	}
	stored := *record
	s.cases[record.ID] = &stored
	return nil
}

// GetCase returns a copy of the case record.
func (s *MemoryStore) GetCase(_ context.Context, caseID domain.CaseID) (*domain.CaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.cases[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

// UpdateStatus sets the case status and update time.
func (s *MemoryStore) UpdateStatus(_ context.Context, caseID domain.CaseID, status domain.CaseStatus, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.cases[caseID]
	if !ok {
		return sentinel.ErrNotFound
	}
	record.Status = status
	record.UpdatedAt = now
	return nil
}

// SoftDelete marks the case deleted without touching its history.
func (s *MemoryStore) SoftDelete(_ context.Context, caseID domain.CaseID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.cases[caseID]
	if !ok {
		return sentinel.ErrNotFound
	}
	record.Deleted = true
	record.DeletedAt = &now
	record.UpdatedAt = now
	return nil
}

// LatestVersion returns the highest snapshot version, zero when none exist.
func (s *MemoryStore) LatestVersion(_ context.Context, caseID domain.CaseID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := 0
	for _, snapshot := range s.snapshots[caseID] {
		latest = max(latest, snapshot.Version)
	}
	return latest, nil
}

// AppendSnapshot stores a deep copy of the snapshot. A duplicate version
// is a lost race and reports conflict, mirroring the postgres unique index.
func (s *MemoryStore) AppendSnapshot(_ context.Context, snapshot *domain.CaseSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.snapshots[snapshot.CaseID] {
		if existing.Version == snapshot.Version {
			return sentinel.ErrConflict
		}
	}
	s.snapshots[snapshot.CaseID] = append(s.snapshots[snapshot.CaseID], cloneSnapshot(snapshot))
	return nil
}

// GetSnapshot returns a deep copy of one version.
func (s *MemoryStore) GetSnapshot(_ context.Context, caseID domain.CaseID, version int) (*domain.CaseSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, snapshot := range s.snapshots[caseID] {
		if snapshot.Version == version {
			return cloneSnapshot(snapshot), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// ListSnapshots returns deep copies of all versions in ascending order.
func (s *MemoryStore) ListSnapshots(_ context.Context, caseID domain.CaseID) ([]*domain.CaseSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshots := make([]*domain.CaseSnapshot, 0, len(s.snapshots[caseID]))
	for _, snapshot := range s.snapshots[caseID] {
		snapshots = append(snapshots, cloneSnapshot(snapshot))
	}
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Version < snapshots[j].Version })
	return snapshots, nil
}

// AppendEvent stores a copy of the event.
func (s *MemoryStore) AppendEvent(_ context.Context, event *domain.CaseEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[event.CaseID] = append(s.events[event.CaseID], cloneEvent(event))
	return nil
}

// ListEvents returns copies of the case's events in append order.
func (s *MemoryStore) ListEvents(_ context.Context, caseID domain.CaseID) ([]domain.CaseEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]domain.CaseEvent, 0, len(s.events[caseID]))
	for i := range s.events[caseID] {
		events = append(events, cloneEvent(&s.events[caseID][i]))
	}
	return events, nil
}

func cloneSnapshot(s *domain.CaseSnapshot) *domain.CaseSnapshot {
	out := *s
	out.Profile = s.Profile.Clone()
	out.Eligibility = append([]domain.ProgramEvaluation(nil), s.Eligibility...)
	out.CRS.Contributions = append([]domain.FactorContribution(nil), s.CRS.Contributions...)
	for i, c := range out.CRS.Contributions {
		out.CRS.Contributions[i].InputsUsed = maps.Clone(c.InputsUsed)
	}
	out.CRS.Reasons = append([]domain.ReasonCode(nil), s.CRS.Reasons...)
	out.Matrix.Documents = append([]domain.RequiredDocument(nil), s.Matrix.Documents...)
	out.Matrix.Forms = append([]string(nil), s.Matrix.Forms...)
	return &out
}

func cloneEvent(e *domain.CaseEvent) domain.CaseEvent {
	out := *e
	if e.Metadata != nil {
		out.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
