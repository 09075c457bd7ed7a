package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"maplecase/internal/events"
	"maplecase/pkg/domain"
	dErrors "maplecase/pkg/domain-errors"
	"maplecase/pkg/platform/sentinel"
	"maplecase/pkg/requestcontext"
)

const (
	persistTimeout     = 10 * time.Second
	maxPersistAttempts = 3
	retryBackoffBase   = 50 * time.Millisecond
)

// EvaluationRecord is the input to one snapshot write. A nil CaseID
// creates a new case; otherwise the snapshot appends to the existing one.
type EvaluationRecord struct {
	CaseID        domain.CaseID
	Label         string
	Profile       domain.CandidateProfile
	Eligibility   []domain.ProgramEvaluation
	CRS           domain.CRSResult
	Matrix        domain.DocumentMatrix
	Fingerprint   string
	ConfigVersion string
	EngineVersion string
}

// SnapshotSummary is the per-version line of a case history, without the
// full profile payload.
type SnapshotSummary struct {
	Version       int       `json:"version"`
	CRSTotal      int       `json:"crs_total"`
	Fingerprint   string    `json:"fingerprint"`
	ConfigVersion string    `json:"config_version"`
	EngineVersion string    `json:"engine_version"`
	CreatedAt     time.Time `json:"created_at"`
}

// CaseHistory is the full read model of one case: current head, snapshot
// summaries, and the event trail.
type CaseHistory struct {
	Case      domain.CaseRecord  `json:"case"`
	Snapshots []SnapshotSummary  `json:"snapshots"`
	Events    []domain.CaseEvent `json:"events"`
}

// Service owns ledger writes. Every write holds the per-case lock and
// runs in one transaction covering snapshot, event, and outbox row, so a
// version either fully exists or not at all.
type Service struct {
	store   Store
	outbox  events.Store
	locker  CaseLocker
	logger  *slog.Logger
	metrics *Metrics
	timeout time.Duration
}

// NewService builds the ledger service.
func NewService(store Store, outbox events.Store, locker CaseLocker, logger *slog.Logger, metrics *Metrics) *Service {
	return &Service{
		store:   store,
		outbox:  outbox,
		locker:  locker,
		logger:  logger,
		metrics: metrics,
		timeout: persistTimeout,
	}
}

// PersistEvaluation appends one snapshot at version latest+1, together
// with its EVALUATION_CREATED event and outbox row. Version races lose to
// the store's uniqueness guard and are retried up to maxPersistAttempts
// times under the write deadline.
func (s *Service) PersistEvaluation(ctx context.Context, rec EvaluationRecord) (*domain.CaseSnapshot, error) {
	tenantID := requestcontext.TenantID(ctx)
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "tenant not resolved")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	caseID := rec.CaseID
	creating := caseID.IsNil()
	if creating {
		caseID = domain.NewCaseID()
	}

	var (
		snapshot *domain.CaseSnapshot
		err      error
	)
	for attempt := 1; attempt <= maxPersistAttempts; attempt++ {
		snapshot, err = s.persistOnce(ctx, tenantID, caseID, creating, rec)
		if err == nil {
			s.logger.InfoContext(ctx, "evaluation persisted",
				"case_id", caseID,
				"tenant_id", tenantID,
				"version", snapshot.Version,
				"fingerprint", snapshot.Fingerprint,
			)
			s.metrics.SnapshotPersisted(attempt)
			return snapshot, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			break
		}
		s.metrics.PersistRetried()
		if waitErr := sleepBackoff(ctx, attempt); waitErr != nil {
			err = waitErr
			break
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "ledger write timed out")
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return nil, dErrors.Wrap(err, dErrors.CodeConflict, "snapshot version contention persisted across retries")
	}
	return nil, translateRead(err)
}

func (s *Service) persistOnce(ctx context.Context, tenantID domain.TenantID, caseID domain.CaseID, creating bool, rec EvaluationRecord) (*domain.CaseSnapshot, error) {
	unlock, err := s.locker.Lock(ctx, caseID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "acquire case lock")
	}
	defer unlock()

	now := requestcontext.Now(ctx).UTC()
	actor := requestcontext.Actor(ctx)

	var snapshot *domain.CaseSnapshot
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		if creating {
			record := &domain.CaseRecord{
				ID:        caseID,
				TenantID:  tenantID,
				Status:    domain.CaseStatusDraft,
				Label:     rec.Label,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.store.CreateCase(ctx, record); err != nil {
				return err
			}
		}

		record, err := s.authorizedCase(ctx, tenantID, caseID)
		if err != nil {
			return err
		}
		if record.Status != domain.CaseStatusDraft && record.Status != domain.CaseStatusEvaluated {
			return dErrors.Newf(dErrors.CodeConflict,
				"case in status %s cannot be re-evaluated", record.Status)
		}

		latest, err := s.store.LatestVersion(ctx, caseID)
		if err != nil {
			return err
		}

		snapshot = &domain.CaseSnapshot{
			ID:            domain.NewSnapshotID(),
			CaseID:        caseID,
			TenantID:      tenantID,
			Version:       latest + 1,
			Profile:       rec.Profile.Clone(),
			Eligibility:   rec.Eligibility,
			CRS:           rec.CRS,
			Matrix:        rec.Matrix,
			Fingerprint:   rec.Fingerprint,
			ConfigVersion: rec.ConfigVersion,
			EngineVersion: rec.EngineVersion,
			CreatedAt:     now,
		}
		if err := s.store.AppendSnapshot(ctx, snapshot); err != nil {
			return err
		}

		if record.Status == domain.CaseStatusDraft {
			if err := s.store.UpdateStatus(ctx, caseID, domain.CaseStatusEvaluated, now); err != nil {
				return err
			}
		}

		return s.appendEvent(ctx, &domain.CaseEvent{
			ID:       domain.NewEventID(),
			CaseID:   caseID,
			TenantID: tenantID,
			Type:     domain.EventEvaluationCreated,
			Actor:    actor,
			Metadata: map[string]string{
				"version":        strconv.Itoa(snapshot.Version),
				"fingerprint":    rec.Fingerprint,
				"config_version": rec.ConfigVersion,
				"engine_version": rec.EngineVersion,
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// History returns the case head, snapshot summaries, and event trail.
func (s *Service) History(ctx context.Context, caseID domain.CaseID) (*CaseHistory, error) {
	record, err := s.authorizedCase(ctx, requestcontext.TenantID(ctx), caseID)
	if err != nil {
		return nil, translateRead(err)
	}

	snapshots, err := s.store.ListSnapshots(ctx, caseID)
	if err != nil {
		return nil, translateRead(err)
	}
	eventTrail, err := s.store.ListEvents(ctx, caseID)
	if err != nil {
		return nil, translateRead(err)
	}

	history := &CaseHistory{Case: *record, Events: eventTrail}
	for _, snapshot := range snapshots {
		history.Snapshots = append(history.Snapshots, SnapshotSummary{
			Version:       snapshot.Version,
			CRSTotal:      snapshot.CRS.Total,
			Fingerprint:   snapshot.Fingerprint,
			ConfigVersion: snapshot.ConfigVersion,
			EngineVersion: snapshot.EngineVersion,
			CreatedAt:     snapshot.CreatedAt,
		})
	}
	return history, nil
}

// Snapshot returns one full versioned snapshot.
func (s *Service) Snapshot(ctx context.Context, caseID domain.CaseID, version int) (*domain.CaseSnapshot, error) {
	if version < 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "snapshot version must be positive")
	}
	if _, err := s.authorizedCase(ctx, requestcontext.TenantID(ctx), caseID); err != nil {
		return nil, translateRead(err)
	}

	snapshot, err := s.store.GetSnapshot(ctx, caseID, version)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "snapshot version not found")
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// LatestSnapshot returns the newest snapshot of the case.
func (s *Service) LatestSnapshot(ctx context.Context, caseID domain.CaseID) (*domain.CaseSnapshot, error) {
	if _, err := s.authorizedCase(ctx, requestcontext.TenantID(ctx), caseID); err != nil {
		return nil, translateRead(err)
	}

	version, err := s.store.LatestVersion(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, dErrors.New(dErrors.CodeConflict, "case has no evaluation snapshots")
	}
	return s.store.GetSnapshot(ctx, caseID, version)
}

// RecordReadiness appends a READINESS_ASSESSED event with the verdict.
func (s *Service) RecordReadiness(ctx context.Context, caseID domain.CaseID, verdict domain.ReadinessVerdict) error {
	tenantID := requestcontext.TenantID(ctx)
	unlock, err := s.locker.Lock(ctx, caseID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "acquire case lock")
	}
	defer unlock()

	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.authorizedCase(ctx, tenantID, caseID); err != nil {
			return translateRead(err)
		}
		return s.appendEvent(ctx, &domain.CaseEvent{
			ID:        domain.NewEventID(),
			CaseID:    caseID,
			TenantID:  tenantID,
			Type:      domain.EventReadinessAssessed,
			Actor:     requestcontext.Actor(ctx),
			Metadata:  map[string]string{"verdict": string(verdict)},
			CreatedAt: requestcontext.Now(ctx).UTC(),
		})
	})
}

// SoftDelete hides the case from reads while preserving its history, and
// records the deletion itself as an event.
func (s *Service) SoftDelete(ctx context.Context, caseID domain.CaseID) error {
	tenantID := requestcontext.TenantID(ctx)
	unlock, err := s.locker.Lock(ctx, caseID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "acquire case lock")
	}
	defer unlock()

	now := requestcontext.Now(ctx).UTC()
	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.authorizedCase(ctx, tenantID, caseID); err != nil {
			return translateRead(err)
		}
		if err := s.store.SoftDelete(ctx, caseID, now); err != nil {
			return translateRead(err)
		}
		return s.appendEvent(ctx, &domain.CaseEvent{
			ID:        domain.NewEventID(),
			CaseID:    caseID,
			TenantID:  tenantID,
			Type:      domain.EventCaseSoftDeleted,
			Actor:     requestcontext.Actor(ctx),
			CreatedAt: now,
		})
	})
}

// appendEvent writes the event and its outbox mirror. Callers run it
// inside the transaction that produced the event.
func (s *Service) appendEvent(ctx context.Context, event *domain.CaseEvent) error {
	if err := s.store.AppendEvent(ctx, event); err != nil {
		return err
	}
	entry, err := events.NewOutboxEntry(*event)
	if err != nil {
		return err
	}
	return s.outbox.Append(ctx, entry)
}

// authorizedCase loads the case and enforces tenant ownership. Soft
// deleted cases are invisible to every caller.
func (s *Service) authorizedCase(ctx context.Context, tenantID domain.TenantID, caseID domain.CaseID) (*domain.CaseRecord, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "tenant not resolved")
	}
	record, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if record.TenantID != tenantID {
		return nil, dErrors.New(dErrors.CodeForbidden, "case belongs to another tenant")
	}
	if record.Deleted {
		return nil, sentinel.ErrNotFound
	}
	return record, nil
}

func translateRead(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "case not found")
	}
	return err
}

func sleepBackoff(ctx context.Context, attempt int) error {
	backoff := retryBackoffBase << (attempt - 1)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff):
		return nil
	}
}
