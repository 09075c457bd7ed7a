package events

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"maplecase/pkg/domain"
	"maplecase/pkg/platform/sentinel"
	"maplecase/pkg/platform/tx"
)

// PostgresStore persists the outbox in the case_outbox table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

// Append inserts the entry, joining the transaction in context when the
// ledger writes event and outbox row atomically.
func (s *PostgresStore) Append(ctx context.Context, entry *OutboxEntry) error {
	const query = `
		INSERT INTO case_outbox (event_id, tenant_id, case_id, event_type, category, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := s.q(ctx).QueryRowContext(ctx, query,
		entry.EventID.String(), entry.TenantID.String(), entry.CaseID.String(),
		string(entry.Type), string(entry.Category), entry.Payload, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("append outbox entry: %w", err)
	}
	return nil
}

// ListUnpublished returns up to limit unpublished entries in insert order.
func (s *PostgresStore) ListUnpublished(ctx context.Context, limit int) ([]*OutboxEntry, error) {
	const query = `
		SELECT id, event_id, tenant_id, case_id, event_type, category, payload, created_at
		FROM case_outbox
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1`

	rows, err := s.q(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list unpublished outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []*OutboxEntry
	for rows.Next() {
		var (
			entry                     OutboxEntry
			eventID, tenantID, caseID string
			eventType, category       string
		)
		if err := rows.Scan(&entry.ID, &eventID, &tenantID, &caseID, &eventType, &category, &entry.Payload, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		if entry.EventID, err = domain.ParseEventID(eventID); err != nil {
			return nil, err
		}
		if entry.TenantID, err = domain.ParseTenantID(tenantID); err != nil {
			return nil, err
		}
		if entry.CaseID, err = domain.ParseCaseID(caseID); err != nil {
			return nil, err
		}
		entry.Type = domain.EventType(eventType)
		entry.Category = domain.EventCategory(category)
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// MarkPublished stamps the publish time for one entry.
func (s *PostgresStore) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	const query = `UPDATE case_outbox SET published_at = $2 WHERE id = $1`

	result, err := s.q(ctx).ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("mark outbox entry published: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark outbox entry published: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
