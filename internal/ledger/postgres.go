package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"maplecase/pkg/domain"
	"maplecase/pkg/platform/sentinel"
	"maplecase/pkg/platform/tx"
)

const pqUniqueViolation = "23505"

// PostgresStore persists the ledger in the cases, case_snapshots, and
// case_events tables. Snapshots carry their full JSON payload next to
// indexed columns; the unique (case_id, version) index is the final
// arbiter of version races.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// RunInTx starts a transaction, stores it in the context, and commits if
// fn succeeds. Nested calls join the outer transaction.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := tx.From(ctx); ok {
		return fn(ctx)
	}

	t, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	if err := fn(tx.WithTx(ctx, t)); err != nil {
		_ = t.Rollback()
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateCase inserts a new case record.
func (s *PostgresStore) CreateCase(ctx context.Context, record *domain.CaseRecord) error {
	const query = `
		INSERT INTO cases (id, tenant_id, status, label, created_at, updated_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, false)`

	_, err := s.q(ctx).ExecContext(ctx, query,
		record.ID.String(), record.TenantID.String(), string(record.Status),
		record.Label, record.CreatedAt, record.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create case: %w", err)
	}
	return nil
}

// GetCase returns the case record. Inside a write transaction the row is
// locked FOR UPDATE so concurrent writers of the same case serialize on it.
func (s *PostgresStore) GetCase(ctx context.Context, caseID domain.CaseID) (*domain.CaseRecord, error) {
	query := `
		SELECT id, tenant_id, status, label, created_at, updated_at, deleted, deleted_at
		FROM cases
		WHERE id = $1`
	if _, inTx := tx.From(ctx); inTx {
		query += " FOR UPDATE"
	}

	var (
		record             domain.CaseRecord
		id, tenant, status string
		deletedAt          sql.NullTime
	)
	err := s.q(ctx).QueryRowContext(ctx, query, caseID.String()).Scan(
		&id, &tenant, &status, &record.Label,
		&record.CreatedAt, &record.UpdatedAt, &record.Deleted, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}

	if record.ID, err = domain.ParseCaseID(id); err != nil {
		return nil, err
	}
	if record.TenantID, err = domain.ParseTenantID(tenant); err != nil {
		return nil, err
	}
	record.Status = domain.CaseStatus(status)
	if deletedAt.Valid {
		record.DeletedAt = &deletedAt.Time
	}
	return &record, nil
}

// UpdateStatus sets the case status and update time.
func (s *PostgresStore) UpdateStatus(ctx context.Context, caseID domain.CaseID, status domain.CaseStatus, now time.Time) error {
	const query = `UPDATE cases SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := s.q(ctx).ExecContext(ctx, query, caseID.String(), string(status), now)
	if err != nil {
		return fmt.Errorf("update case status: %w", err)
	}
	return requireAffected(result)
}

// SoftDelete marks the case deleted without touching its history.
func (s *PostgresStore) SoftDelete(ctx context.Context, caseID domain.CaseID, now time.Time) error {
	const query = `UPDATE cases SET deleted = true, deleted_at = $2, updated_at = $2 WHERE id = $1`

	result, err := s.q(ctx).ExecContext(ctx, query, caseID.String(), now)
	if err != nil {
		return fmt.Errorf("soft delete case: %w", err)
	}
	return requireAffected(result)
}

// LatestVersion returns the highest snapshot version, zero when none exist.
func (s *PostgresStore) LatestVersion(ctx context.Context, caseID domain.CaseID) (int, error) {
	const query = `SELECT COALESCE(MAX(version), 0) FROM case_snapshots WHERE case_id = $1`

	var version int
	if err := s.q(ctx).QueryRowContext(ctx, query, caseID.String()).Scan(&version); err != nil {
		return 0, fmt.Errorf("latest snapshot version: %w", err)
	}
	return version, nil
}

// AppendSnapshot inserts one immutable snapshot. A duplicate version hits
// the unique index and reports conflict.
func (s *PostgresStore) AppendSnapshot(ctx context.Context, snapshot *domain.CaseSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	const query = `
		INSERT INTO case_snapshots (id, case_id, tenant_id, version, payload, fingerprint, config_version, engine_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = s.q(ctx).ExecContext(ctx, query,
		snapshot.ID.String(), snapshot.CaseID.String(), snapshot.TenantID.String(),
		snapshot.Version, payload, snapshot.Fingerprint,
		snapshot.ConfigVersion, snapshot.EngineVersion, snapshot.CreatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns one version decoded from its payload.
func (s *PostgresStore) GetSnapshot(ctx context.Context, caseID domain.CaseID, version int) (*domain.CaseSnapshot, error) {
	const query = `SELECT payload FROM case_snapshots WHERE case_id = $1 AND version = $2`

	var payload []byte
	err := s.q(ctx).QueryRowContext(ctx, query, caseID.String(), version).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var snapshot domain.CaseSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// ListSnapshots returns all versions in ascending order.
func (s *PostgresStore) ListSnapshots(ctx context.Context, caseID domain.CaseID) ([]*domain.CaseSnapshot, error) {
	const query = `SELECT payload FROM case_snapshots WHERE case_id = $1 ORDER BY version`

	rows, err := s.q(ctx).QueryContext(ctx, query, caseID.String())
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.CaseSnapshot
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		var snapshot domain.CaseSnapshot
		if err := json.Unmarshal(payload, &snapshot); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		snapshots = append(snapshots, &snapshot)
	}
	return snapshots, rows.Err()
}

// AppendEvent inserts one ledger event.
func (s *PostgresStore) AppendEvent(ctx context.Context, event *domain.CaseEvent) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("encode event metadata: %w", err)
	}

	const query = `
		INSERT INTO case_events (id, case_id, tenant_id, event_type, actor, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = s.q(ctx).ExecContext(ctx, query,
		event.ID.String(), event.CaseID.String(), event.TenantID.String(),
		string(event.Type), event.Actor, metadata, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ListEvents returns the case's events in append order.
func (s *PostgresStore) ListEvents(ctx context.Context, caseID domain.CaseID) ([]domain.CaseEvent, error) {
	const query = `
		SELECT id, case_id, tenant_id, event_type, actor, metadata, created_at
		FROM case_events
		WHERE case_id = $1
		ORDER BY created_at, id`

	rows, err := s.q(ctx).QueryContext(ctx, query, caseID.String())
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.CaseEvent
	for rows.Next() {
		var (
			event               domain.CaseEvent
			id, caseRef, tenant string
			eventType           string
			metadata            []byte
		)
		if err := rows.Scan(&id, &caseRef, &tenant, &eventType, &event.Actor, &metadata, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if event.ID, err = domain.ParseEventID(id); err != nil {
			return nil, err
		}
		if event.CaseID, err = domain.ParseCaseID(caseRef); err != nil {
			return nil, err
		}
		if event.TenantID, err = domain.ParseTenantID(tenant); err != nil {
			return nil, err
		}
		event.Type = domain.EventType(eventType)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("decode event metadata: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
