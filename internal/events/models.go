// Package events implements the transactional outbox for case events.
// The ledger appends an outbox row in the same transaction as the event
// it mirrors; the worker publishes unpublished rows to Kafka and marks
// them, so downstream consumers see exactly the events the ledger
// committed, at least once, in per-case order.
package events

import (
	"encoding/json"
	"time"

	"maplecase/pkg/domain"
	dErrors "maplecase/pkg/domain-errors"
)

// OutboxEntry is one pending or published case event. ID is assigned by
// the store and orders delivery.
type OutboxEntry struct {
	ID          int64                `json:"id"`
	EventID     domain.EventID       `json:"event_id"`
	TenantID    domain.TenantID      `json:"tenant_id"`
	CaseID      domain.CaseID        `json:"case_id"`
	Type        domain.EventType     `json:"type"`
	Category    domain.EventCategory `json:"category"`
	Payload     []byte               `json:"payload"`
	CreatedAt   time.Time            `json:"created_at"`
	PublishedAt *time.Time           `json:"published_at,omitempty"`
}

// NewOutboxEntry builds an entry mirroring a ledger event. The payload is
// the event itself, so consumers get the full record without a read-back.
func NewOutboxEntry(event domain.CaseEvent) (*OutboxEntry, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode outbox payload")
	}
	return &OutboxEntry{
		EventID:   event.ID,
		TenantID:  event.TenantID,
		CaseID:    event.CaseID,
		Type:      event.Type,
		Category:  event.Type.Category(),
		Payload:   payload,
		CreatedAt: event.CreatedAt,
	}, nil
}
