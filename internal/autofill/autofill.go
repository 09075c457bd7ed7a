// Package autofill reports which form field paths can be populated from
// a case's profile. It backs the readiness assessor's completion
// percentages; actual form rendering happens downstream.
package autofill

import (
	"context"

	"maplecase/internal/ledger"
	"maplecase/pkg/domain"
)

// Service derives filled field paths from the latest evaluation snapshot.
type Service struct {
	ledger *ledger.Service
}

// New returns an autofill service reading from the ledger.
func New(l *ledger.Service) *Service {
	return &Service{ledger: l}
}

// FilledFields returns the field paths with a usable value in the case's
// latest profile. The form ID selects nothing today; every form draws
// from the same profile paths.
func (s *Service) FilledFields(ctx context.Context, caseID domain.CaseID, _ string) ([]string, error) {
	snapshot, err := s.ledger.LatestSnapshot(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return FilledPaths(&snapshot.Profile), nil
}

// FilledPaths lists the profile field paths holding a non-empty value,
// in a stable order. Paths mirror the profile's wire field names.
func FilledPaths(p *domain.CandidateProfile) []string {
	var paths []string
	add := func(path string, filled bool) {
		if filled {
			paths = append(paths, path)
		}
	}

	add("birth_date", !p.BirthDate.IsZero())
	add("marital_status", p.MaritalStatus != "")
	add("citizenship", p.Citizenship != "")
	add("family_size", p.FamilySize >= 1)
	add("sibling_in_canada", p.SiblingInCanada)
	add("education", len(p.Education) > 0)
	add("language_tests", len(p.LanguageTests) > 0)
	add("work_history", len(p.WorkHistory) > 0)
	add("job_offers", len(p.JobOffers) > 0)
	add("proof_of_funds", len(p.ProofOfFunds) > 0)
	add("medical_exam_at", !p.MedicalExamAt.IsZero())
	add("biometrics_at", !p.BiometricsAt.IsZero())
	if p.Spouse != nil {
		add("spouse", true)
		add("spouse.education", len(p.Spouse.Education) > 0)
		add("spouse.language_tests", len(p.Spouse.LanguageTests) > 0)
		add("spouse.work_history", len(p.Spouse.WorkHistory) > 0)
	}
	return paths
}
