package lifecycle

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maplecase/internal/events"
	"maplecase/internal/ledger"
	"maplecase/pkg/domain"
	dErrors "maplecase/pkg/domain-errors"
	"maplecase/pkg/requestcontext"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService() (*Service, *ledger.MemoryStore, *events.MemoryStore) {
	store := ledger.NewMemoryStore()
	outbox := events.NewMemoryStore()
	svc := NewService(store, outbox, ledger.NewShardedLocker(), slog.Default())
	return svc, store, outbox
}

func tenantContext(tenantID domain.TenantID) context.Context {
	ctx := requestcontext.WithTenantID(context.Background(), tenantID)
	ctx = requestcontext.WithActor(ctx, "user:jsmith")
	return requestcontext.WithTime(ctx, fixedTime)
}

func seedCase(t *testing.T, store *ledger.MemoryStore, tenantID domain.TenantID, status domain.CaseStatus) domain.CaseID {
	t.Helper()
	caseID := domain.NewCaseID()
	require.NoError(t, store.CreateCase(context.Background(), &domain.CaseRecord{
		ID:        caseID,
		TenantID:  tenantID,
		Status:    status,
		CreatedAt: fixedTime,
		UpdatedAt: fixedTime,
	}))
	return caseID
}

func TestTransitionFollowsLifecycle(t *testing.T) {
	svc, store, outbox := newTestService()
	tenantID := domain.NewTenantID()
	ctx := tenantContext(tenantID)
	caseID := seedCase(t, store, tenantID, domain.CaseStatusEvaluated)

	record, err := svc.Transition(ctx, caseID, domain.CaseStatusSubmitted)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusSubmitted, record.Status)

	trail, err := store.ListEvents(ctx, caseID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, domain.EventStatusChanged, trail[0].Type)
	assert.Equal(t, "evaluated", trail[0].Metadata["from"])
	assert.Equal(t, "submitted", trail[0].Metadata["to"])

	pending, err := outbox.ListUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestTransitionWalkToArchive(t *testing.T) {
	svc, store, _ := newTestService()
	tenantID := domain.NewTenantID()
	ctx := tenantContext(tenantID)
	caseID := seedCase(t, store, tenantID, domain.CaseStatusEvaluated)

	for _, target := range []domain.CaseStatus{
		domain.CaseStatusSubmitted,
		domain.CaseStatusInReview,
		domain.CaseStatusComplete,
		domain.CaseStatusArchived,
	} {
		record, err := svc.Transition(ctx, caseID, target)
		require.NoError(t, err, "transition to %s", target)
		assert.Equal(t, target, record.Status)
	}

	trail, err := store.ListEvents(ctx, caseID)
	require.NoError(t, err)
	assert.Len(t, trail, 4)
}

func TestInvalidTransitionConflicts(t *testing.T) {
	svc, store, _ := newTestService()
	tenantID := domain.NewTenantID()
	ctx := tenantContext(tenantID)
	caseID := seedCase(t, store, tenantID, domain.CaseStatusDraft)

	_, err := svc.Transition(ctx, caseID, domain.CaseStatusComplete)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	// No event is recorded for a rejected transition.
	trail, err := store.ListEvents(ctx, caseID)
	require.NoError(t, err)
	assert.Empty(t, trail)
}

func TestArchivedCaseRejectsAllTargets(t *testing.T) {
	svc, store, _ := newTestService()
	tenantID := domain.NewTenantID()
	ctx := tenantContext(tenantID)
	caseID := seedCase(t, store, tenantID, domain.CaseStatusArchived)

	_, err := svc.Transition(ctx, caseID, domain.CaseStatusDraft)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestUnknownStatusRejected(t *testing.T) {
	svc, store, _ := newTestService()
	tenantID := domain.NewTenantID()
	ctx := tenantContext(tenantID)
	caseID := seedCase(t, store, tenantID, domain.CaseStatusDraft)

	_, err := svc.Transition(ctx, caseID, domain.CaseStatus("finalized"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestTransitionTenantIsolation(t *testing.T) {
	svc, store, _ := newTestService()
	caseID := seedCase(t, store, domain.NewTenantID(), domain.CaseStatusEvaluated)

	_, err := svc.Transition(tenantContext(domain.NewTenantID()), caseID, domain.CaseStatusSubmitted)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestTransitionUnknownCase(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := tenantContext(domain.NewTenantID())

	_, err := svc.Transition(ctx, domain.NewCaseID(), domain.CaseStatusSubmitted)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
