package fingerprint

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maplecase/pkg/domain"
)

func sampleProfile() domain.CandidateProfile {
	return domain.CandidateProfile{
		BirthDate:     time.Date(1996, 5, 12, 0, 0, 0, 0, time.UTC),
		MaritalStatus: domain.MaritalSingle,
		Citizenship:   "IN",
		FamilySize:    1,
		Education: []domain.EducationCredential{
			{Level: domain.EducationBachelors, Name: "BSc", CompletedAt: time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC)},
		},
		LanguageTests: []domain.LanguageTest{
			{
				TestType:  "IELTS",
				Language:  domain.LanguageEnglish,
				TakenAt:   time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
				ExpiresAt: time.Date(2027, 1, 10, 0, 0, 0, 0, time.UTC),
				CLB:       domain.CLBScores{Reading: 9, Writing: 9, Listening: 9, Speaking: 9},
			},
		},
	}
}

func TestEvaluationIsDeterministic(t *testing.T) {
	profile := sampleProfile()

	first, err := Evaluation(&profile, "bundle-fp", "2.3.1")
	require.NoError(t, err)
	second, err := Evaluation(&profile, "bundle-fp", "2.3.1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestEvaluationChangesWithEachInput(t *testing.T) {
	profile := sampleProfile()
	base, err := Evaluation(&profile, "bundle-fp", "2.3.1")
	require.NoError(t, err)

	changed := sampleProfile()
	changed.FamilySize = 2
	fp, err := Evaluation(&changed, "bundle-fp", "2.3.1")
	require.NoError(t, err)
	assert.NotEqual(t, base, fp)

	fp, err = Evaluation(&profile, "other-bundle", "2.3.1")
	require.NoError(t, err)
	assert.NotEqual(t, base, fp)

	fp, err = Evaluation(&profile, "bundle-fp", "2.4.0")
	require.NoError(t, err)
	assert.NotEqual(t, base, fp)
}

func TestCanonicalProfileSortsKeys(t *testing.T) {
	profile := sampleProfile()

	canonical, err := CanonicalProfile(&profile)
	require.NoError(t, err)

	s := string(canonical)
	assert.True(t, strings.Index(s, `"birth_date"`) < strings.Index(s, `"marital_status"`))
	assert.True(t, strings.Index(s, `"family_size"`) < strings.Index(s, `"language_tests"`))
	assert.NotContains(t, s, " ", "canonical form carries no insignificant whitespace")
}

func TestCanonicalProfileNormalizesUnicode(t *testing.T) {
	composed := sampleProfile()
	composed.Citizenship = "Qu\u00e9bec"

	decomposed := sampleProfile()
	decomposed.Citizenship = "Que\u0301bec"

	a, err := CanonicalProfile(&composed)
	require.NoError(t, err)
	b, err := CanonicalProfile(&decomposed)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestShort(t *testing.T) {
	assert.Equal(t, "abc", Short("abc"))
	long := strings.Repeat("f", 64)
	assert.Equal(t, "ffffffffffff…", Short(long))
}
