package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maplecase/internal/bundle"
	"maplecase/pkg/domain"
)

func loadBundle(t *testing.T) *bundle.Bundle {
	t.Helper()
	b, err := bundle.Load("../bundle/testdata/bundle")
	require.NoError(t, err)
	return b
}

func docIDs(m domain.DocumentMatrix) []string {
	ids := make([]string, 0, len(m.Documents))
	for _, d := range m.Documents {
		ids = append(ids, d.ID)
	}
	return ids
}

func TestResolveBaseDocuments(t *testing.T) {
	b := loadBundle(t)
	profile := domain.CandidateProfile{MaritalStatus: domain.MaritalSingle, FamilySize: 1}

	m, err := New().Resolve(&profile, domain.ProgramCEC, b, false)
	require.NoError(t, err)

	assert.Equal(t, domain.ProgramCEC, m.Program)
	assert.ElementsMatch(t, []string{
		"passport", "digital_photo", "language_test_results", "police_certificate", "medical_exam_confirmation",
	}, docIDs(m))
	assert.Equal(t, []string{"imm0008", "imm5669"}, m.Forms)
}

func TestResolveConditionalDocuments(t *testing.T) {
	b := loadBundle(t)
	profile := domain.CandidateProfile{
		MaritalStatus:              domain.MaritalMarried,
		FamilySize:                 2,
		CertificateOfQualification: true,
		ProvincialNomination:       true,
		JobOffers: []domain.JobOffer{
			{Employer: "Maple Systems", NOC: "21232", TEER: 1, FullTime: true, DurationMonths: 24},
		},
		Spouse: &domain.SpouseProfile{},
	}

	m, err := New().Resolve(&profile, domain.ProgramFSW, b, true)
	require.NoError(t, err)

	ids := docIDs(m)
	assert.Contains(t, ids, "proof_of_funds_statement")
	assert.Contains(t, ids, "marriage_certificate")
	assert.Contains(t, ids, "spouse_passport")
	assert.Contains(t, ids, "job_offer_letter")
	assert.Contains(t, ids, "certificate_of_qualification")
	assert.Contains(t, ids, "provincial_nomination_certificate")
	assert.Contains(t, ids, "education_credential_assessment")
	assert.Contains(t, m.Forms, "imm5406")
}

func TestResolveSkipsFundsWhenNotRequired(t *testing.T) {
	b := loadBundle(t)
	profile := domain.CandidateProfile{MaritalStatus: domain.MaritalSingle, FamilySize: 1}

	m, err := New().Resolve(&profile, domain.ProgramFSW, b, false)
	require.NoError(t, err)

	assert.NotContains(t, docIDs(m), "proof_of_funds_statement")
}

func TestResolveDeduplicates(t *testing.T) {
	b := loadBundle(t)
	profile := domain.CandidateProfile{MaritalStatus: domain.MaritalSingle, FamilySize: 1}

	m, err := New().Resolve(&profile, domain.ProgramFST, b, true)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, id := range docIDs(m) {
		seen[id]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "document %s listed more than once", id)
	}
}

func TestEveryRuleTargetResolves(t *testing.T) {
	b := loadBundle(t)

	for _, rule := range b.Documents.Rules {
		for _, id := range rule.Include {
			_, ok := b.Document(id)
			assert.True(t, ok, "document rule references %s", id)
		}
	}
	for _, rule := range b.Forms.Rules {
		for _, id := range rule.Include {
			_, ok := b.Form(id)
			assert.True(t, ok, "form rule references %s", id)
		}
	}
}
