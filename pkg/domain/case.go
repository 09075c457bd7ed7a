package domain

import "time"

// CaseStatus is a case's lifecycle state.
type CaseStatus string

const (
	CaseStatusDraft     CaseStatus = "draft"
	CaseStatusEvaluated CaseStatus = "evaluated"
	CaseStatusSubmitted CaseStatus = "submitted"
	CaseStatusInReview  CaseStatus = "in_review"
	CaseStatusComplete  CaseStatus = "complete"
	CaseStatusArchived  CaseStatus = "archived"
)

// allowedTransitions is the lifecycle graph. Reopening (evaluated to
// draft) keeps existing snapshots; returning to submitted from review is
// for cases kicked back for correction.
var allowedTransitions = map[CaseStatus][]CaseStatus{
	CaseStatusDraft:     {CaseStatusEvaluated},
	CaseStatusEvaluated: {CaseStatusDraft, CaseStatusSubmitted},
	CaseStatusSubmitted: {CaseStatusInReview},
	CaseStatusInReview:  {CaseStatusSubmitted, CaseStatusComplete},
	CaseStatusComplete:  {CaseStatusArchived},
	CaseStatusArchived:  {},
}

// Valid reports whether the status is part of the lifecycle.
func (s CaseStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle permits moving to target.
func (s CaseStatus) CanTransitionTo(target CaseStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// CaseRecord is the mutable head of a case. Historical evaluation state
// lives in snapshots; the record carries only current status and identity.
type CaseRecord struct {
	ID        CaseID     `json:"id"`
	TenantID  TenantID   `json:"tenant_id"`
	Status    CaseStatus `json:"status"`
	Label     string     `json:"label,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// CaseSnapshot is one immutable, versioned evaluation record. Versions
// are contiguous from 1 per case; a snapshot is never updated after write.
type CaseSnapshot struct {
	ID            SnapshotID          `json:"id"`
	CaseID        CaseID              `json:"case_id"`
	TenantID      TenantID            `json:"tenant_id"`
	Version       int                 `json:"version"`
	Profile       CandidateProfile    `json:"profile"`
	Eligibility   []ProgramEvaluation `json:"eligibility"`
	CRS           CRSResult           `json:"crs"`
	Matrix        DocumentMatrix      `json:"matrix"`
	Fingerprint   string              `json:"fingerprint"`
	ConfigVersion string              `json:"config_version"`
	EngineVersion string              `json:"engine_version"`
	CreatedAt     time.Time           `json:"created_at"`
}

// EventType classifies ledger events.
type EventType string

const (
	EventEvaluationCreated EventType = "EVALUATION_CREATED"
	EventStatusChanged     EventType = "STATUS_CHANGED"
	EventCaseSoftDeleted   EventType = "CASE_SOFT_DELETED"
	EventReadinessAssessed EventType = "READINESS_ASSESSED"
	EventTenantCreated     EventType = "TENANT_CREATED"
)

// EventCategory routes events to downstream consumers.
type EventCategory string

const (
	CategoryCompliance EventCategory = "compliance"
	CategoryOperations EventCategory = "operations"
)

// Category returns the downstream routing category for an event type.
func (t EventType) Category() EventCategory {
	switch t {
	case EventEvaluationCreated, EventCaseSoftDeleted, EventTenantCreated:
		return CategoryCompliance
	default:
		return CategoryOperations
	}
}

// CaseEvent is one append-only ledger entry. Metadata holds small
// structured details (old/new status, snapshot version), never profile data.
type CaseEvent struct {
	ID        EventID           `json:"id"`
	CaseID    CaseID            `json:"case_id"`
	TenantID  TenantID          `json:"tenant_id"`
	Type      EventType         `json:"type"`
	Actor     string            `json:"actor"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
