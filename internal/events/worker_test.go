package events

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maplecase/pkg/domain"
)

type fakePublisher struct {
	published [][]byte
	keys      []string
	failAfter int
}

func (p *fakePublisher) Publish(_ context.Context, key string, payload []byte) error {
	if p.failAfter > 0 && len(p.published) >= p.failAfter {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, payload)
	p.keys = append(p.keys, key)
	return nil
}

func testEvent(caseID domain.CaseID) domain.CaseEvent {
	return domain.CaseEvent{
		ID:        domain.NewEventID(),
		CaseID:    caseID,
		TenantID:  domain.NewTenantID(),
		Type:      domain.EventEvaluationCreated,
		Actor:     "user:jsmith",
		CreatedAt: time.Now().UTC(),
	}
}

func TestDrainPublishesInOrder(t *testing.T) {
	store := NewMemoryStore()
	caseID := domain.NewCaseID()

	for range 3 {
		entry, err := NewOutboxEntry(testEvent(caseID))
		require.NoError(t, err)
		require.NoError(t, store.Append(context.Background(), entry))
	}

	publisher := &fakePublisher{}
	worker := NewWorker(store, publisher, slog.Default(), time.Second)

	require.NoError(t, worker.Drain(context.Background()))

	assert.Len(t, publisher.published, 3)
	for _, key := range publisher.keys {
		assert.Equal(t, caseID.String(), key)
	}

	pending, err := store.ListUnpublished(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDrainStopsOnPublishFailure(t *testing.T) {
	store := NewMemoryStore()
	caseID := domain.NewCaseID()

	for range 3 {
		entry, err := NewOutboxEntry(testEvent(caseID))
		require.NoError(t, err)
		require.NoError(t, store.Append(context.Background(), entry))
	}

	publisher := &fakePublisher{failAfter: 1}
	worker := NewWorker(store, publisher, slog.Default(), time.Second)

	err := worker.Drain(context.Background())
	require.Error(t, err)

	// The failed entry and everything after it stay pending.
	pending, pendingErr := store.ListUnpublished(context.Background(), 10)
	require.NoError(t, pendingErr)
	assert.Len(t, pending, 2)
}

func TestDrainIsIdempotentWhenEmpty(t *testing.T) {
	store := NewMemoryStore()
	worker := NewWorker(store, &fakePublisher{}, slog.Default(), time.Second)

	require.NoError(t, worker.Drain(context.Background()))
	require.NoError(t, worker.Drain(context.Background()))
}

func TestOutboxEntryCategory(t *testing.T) {
	entry, err := NewOutboxEntry(testEvent(domain.NewCaseID()))
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryCompliance, entry.Category)
	assert.NotEmpty(t, entry.Payload)
}
