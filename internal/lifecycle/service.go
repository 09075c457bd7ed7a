// Package lifecycle moves cases through their status graph and records
// every transition in the ledger.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"

	"maplecase/internal/events"
	"maplecase/internal/ledger"
	"maplecase/pkg/domain"
	dErrors "maplecase/pkg/domain-errors"
	"maplecase/pkg/platform/sentinel"
	"maplecase/pkg/requestcontext"
)

// Service applies status transitions. Writes hold the per-case lock and
// run in one transaction so the new status and its event land together.
type Service struct {
	store  ledger.Store
	outbox events.Store
	locker ledger.CaseLocker
	logger *slog.Logger
}

// NewService builds the lifecycle service.
func NewService(store ledger.Store, outbox events.Store, locker ledger.CaseLocker, logger *slog.Logger) *Service {
	return &Service{store: store, outbox: outbox, locker: locker, logger: logger}
}

// Transition moves the case to target if the lifecycle graph permits it,
// appending a STATUS_CHANGED event. Archived cases reject every target.
func (s *Service) Transition(ctx context.Context, caseID domain.CaseID, target domain.CaseStatus) (*domain.CaseRecord, error) {
	if !target.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown case status %q", target)
	}
	tenantID := requestcontext.TenantID(ctx)
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "tenant not resolved")
	}

	unlock, err := s.locker.Lock(ctx, caseID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "acquire case lock")
	}
	defer unlock()

	now := requestcontext.Now(ctx).UTC()

	var record *domain.CaseRecord
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		record, err = s.store.GetCase(ctx, caseID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "case not found")
		}
		if err != nil {
			return err
		}
		if record.TenantID != tenantID {
			return dErrors.New(dErrors.CodeForbidden, "case belongs to another tenant")
		}
		if record.Deleted {
			return dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		if record.Status == domain.CaseStatusArchived {
			return dErrors.New(dErrors.CodeConflict, "archived case is read-only")
		}
		if !record.Status.CanTransitionTo(target) {
			return dErrors.Newf(dErrors.CodeConflict,
				"cannot transition case from %s to %s", record.Status, target)
		}

		if err := s.store.UpdateStatus(ctx, caseID, target, now); err != nil {
			return err
		}

		event := &domain.CaseEvent{
			ID:       domain.NewEventID(),
			CaseID:   caseID,
			TenantID: tenantID,
			Type:     domain.EventStatusChanged,
			Actor:    requestcontext.Actor(ctx),
			Metadata: map[string]string{
				"from": string(record.Status),
				"to":   string(target),
			},
			CreatedAt: now,
		}
		if err := s.store.AppendEvent(ctx, event); err != nil {
			return err
		}
		entry, err := events.NewOutboxEntry(*event)
		if err != nil {
			return err
		}
		return s.outbox.Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	record.Status = target
	record.UpdatedAt = now
	s.logger.InfoContext(ctx, "case transitioned",
		"case_id", caseID,
		"tenant_id", tenantID,
		"to", target,
	)
	return record, nil
}
