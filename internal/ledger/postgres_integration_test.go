//go:build integration

package ledger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maplecase/internal/events"
	"maplecase/pkg/domain"
	dErrors "maplecase/pkg/domain-errors"
	"maplecase/pkg/testutil/containers"
)

func TestPostgresLedger(t *testing.T) {
	pg := containers.NewPostgresContainer(t)

	store := NewPostgresStore(pg.DB)
	outbox := events.NewPostgresStore(pg.DB)
	svc := NewService(store, outbox, NewShardedLocker(), slog.Default(), NewMetrics())

	ctx := tenantContext(domain.NewTenantID())

	t.Run("persist and read back", func(t *testing.T) {
		snapshot, err := svc.PersistEvaluation(ctx, testRecord(domain.CaseID{}))
		require.NoError(t, err)
		assert.Equal(t, 1, snapshot.Version)

		stored, err := svc.Snapshot(ctx, snapshot.CaseID, 1)
		require.NoError(t, err)
		assert.Equal(t, snapshot.Fingerprint, stored.Fingerprint)
		assert.Equal(t, snapshot.CRS.Total, stored.CRS.Total)
		assert.Equal(t, "IN", stored.Profile.Citizenship)

		history, err := svc.History(ctx, snapshot.CaseID)
		require.NoError(t, err)
		require.Len(t, history.Snapshots, 1)
		require.Len(t, history.Events, 1)
		assert.Equal(t, domain.EventEvaluationCreated, history.Events[0].Type)
	})

	t.Run("duplicate version loses to unique index", func(t *testing.T) {
		snapshot, err := svc.PersistEvaluation(ctx, testRecord(domain.CaseID{}))
		require.NoError(t, err)

		dup := *snapshot
		dup.ID = domain.NewSnapshotID()
		err = store.AppendSnapshot(context.Background(), &dup)
		require.Error(t, err)
	})

	t.Run("versions stay contiguous across writers", func(t *testing.T) {
		first, err := svc.PersistEvaluation(ctx, testRecord(domain.CaseID{}))
		require.NoError(t, err)

		for want := 2; want <= 4; want++ {
			snapshot, err := svc.PersistEvaluation(ctx, testRecord(first.CaseID))
			require.NoError(t, err)
			assert.Equal(t, want, snapshot.Version)
		}
	})

	t.Run("soft delete hides case and leaves outbox trail", func(t *testing.T) {
		snapshot, err := svc.PersistEvaluation(ctx, testRecord(domain.CaseID{}))
		require.NoError(t, err)

		require.NoError(t, svc.SoftDelete(ctx, snapshot.CaseID))

		_, err = svc.History(ctx, snapshot.CaseID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

		pending, err := outbox.ListUnpublished(context.Background(), 100)
		require.NoError(t, err)

		var deleted bool
		for _, entry := range pending {
			if entry.CaseID == snapshot.CaseID && entry.Type == domain.EventCaseSoftDeleted {
				deleted = true
			}
		}
		assert.True(t, deleted, "soft delete event not mirrored to outbox")
	})
}
