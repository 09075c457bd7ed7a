package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaseStatusTransitions(t *testing.T) {
	all := []CaseStatus{
		CaseStatusDraft, CaseStatusEvaluated, CaseStatusSubmitted,
		CaseStatusInReview, CaseStatusComplete, CaseStatusArchived,
	}

	allowed := map[CaseStatus][]CaseStatus{
		CaseStatusDraft:     {CaseStatusEvaluated},
		CaseStatusEvaluated: {CaseStatusDraft, CaseStatusSubmitted},
		CaseStatusSubmitted: {CaseStatusInReview},
		CaseStatusInReview:  {CaseStatusSubmitted, CaseStatusComplete},
		CaseStatusComplete:  {CaseStatusArchived},
		CaseStatusArchived:  {},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestCaseStatusValid(t *testing.T) {
	assert.True(t, CaseStatusDraft.Valid())
	assert.True(t, CaseStatusArchived.Valid())
	assert.False(t, CaseStatus("pending").Valid())
}

func TestEventCategory(t *testing.T) {
	assert.Equal(t, CategoryCompliance, EventEvaluationCreated.Category())
	assert.Equal(t, CategoryCompliance, EventCaseSoftDeleted.Category())
	assert.Equal(t, CategoryCompliance, EventTenantCreated.Category())
	assert.Equal(t, CategoryOperations, EventStatusChanged.Category())
	assert.Equal(t, CategoryOperations, EventReadinessAssessed.Category())
}
