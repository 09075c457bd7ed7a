// Package domain holds typed identifiers shared across modules.
//
// IDs are distinct types over uuid.UUID so the compiler rejects
// cross-type assignment (a CaseID can never be passed where a TenantID
// is expected). Parse helpers enforce the trust-boundary invariant that
// IDs are valid, non-empty, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "maplecase/pkg/domain-errors"
)

// TenantID identifies a tenant organization (law firm or consultancy).
type TenantID uuid.UUID

// CaseID identifies an immigration case.
type CaseID uuid.UUID

// SnapshotID identifies one immutable case snapshot.
type SnapshotID uuid.UUID

// EventID identifies one case event.
type EventID uuid.UUID

func (id TenantID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id CaseID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id SnapshotID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id TenantID) String() string   { return uuid.UUID(id).String() }
func (id CaseID) String() string     { return uuid.UUID(id).String() }
func (id SnapshotID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string    { return uuid.UUID(id).String() }

// Defined types do not inherit uuid.UUID's marshalling, so each ID
// implements encoding.TextMarshaler and TextUnmarshaler explicitly to
// serialize as the canonical UUID string.

func (id TenantID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id CaseID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id SnapshotID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id EventID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func (id *TenantID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b), "tenant id")
	*id = TenantID(u)
	return err
}

func (id *CaseID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b), "case id")
	*id = CaseID(u)
	return err
}

func (id *SnapshotID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b), "snapshot id")
	*id = SnapshotID(u)
	return err
}

func (id *EventID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b), "event id")
	*id = EventID(u)
	return err
}

// NewTenantID returns a fresh random tenant ID.
func NewTenantID() TenantID { return TenantID(uuid.New()) }

// NewCaseID returns a fresh random case ID.
func NewCaseID() CaseID { return CaseID(uuid.New()) }

// NewSnapshotID returns a fresh random snapshot ID.
func NewSnapshotID() SnapshotID { return SnapshotID(uuid.New()) }

// NewEventID returns a fresh random event ID.
func NewEventID() EventID { return EventID(uuid.New()) }

// ParseTenantID parses and validates a tenant ID string.
func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID(s, "tenant id")
	return TenantID(u), err
}

// ParseCaseID parses and validates a case ID string.
func ParseCaseID(s string) (CaseID, error) {
	u, err := parseUUID(s, "case id")
	return CaseID(u), err
}

// ParseSnapshotID parses and validates a snapshot ID string.
func ParseSnapshotID(s string) (SnapshotID, error) {
	u, err := parseUUID(s, "snapshot id")
	return SnapshotID(u), err
}

// ParseEventID parses and validates an event ID string.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "event id")
	return EventID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be the nil UUID")
	}
	return u, nil
}
