// Package ledger is the append-only case history: versioned evaluation
// snapshots, case events, and the case head record. Snapshots are
// immutable once written and versions are contiguous per case; deletion
// is always soft and itself recorded as an event.
package ledger

import (
	"context"
	"time"

	"maplecase/pkg/domain"
)

// Store persists case records, snapshots, and events. Implementations
// return sentinel errors; the service translates them into coded domain
// errors.
type Store interface {
	TxRunner

	CreateCase(ctx context.Context, record *domain.CaseRecord) error
	GetCase(ctx context.Context, caseID domain.CaseID) (*domain.CaseRecord, error)
	UpdateStatus(ctx context.Context, caseID domain.CaseID, status domain.CaseStatus, now time.Time) error
	SoftDelete(ctx context.Context, caseID domain.CaseID, now time.Time) error

	LatestVersion(ctx context.Context, caseID domain.CaseID) (int, error)
	AppendSnapshot(ctx context.Context, snapshot *domain.CaseSnapshot) error
	GetSnapshot(ctx context.Context, caseID domain.CaseID, version int) (*domain.CaseSnapshot, error)
	ListSnapshots(ctx context.Context, caseID domain.CaseID) ([]*domain.CaseSnapshot, error)

	AppendEvent(ctx context.Context, event *domain.CaseEvent) error
	ListEvents(ctx context.Context, caseID domain.CaseID) ([]domain.CaseEvent, error)
}

// TxRunner runs a function inside one transaction. The postgres
// implementation carries the sql.Tx through the context; the memory
// implementation relies on the per-case lock for atomicity.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CaseLocker serializes writers of one case. Lock blocks until the lock
// is held or the context expires.
type CaseLocker interface {
	Lock(ctx context.Context, caseID domain.CaseID) (func(), error)
}
