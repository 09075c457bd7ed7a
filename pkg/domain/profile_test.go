package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "maplecase/pkg/domain-errors"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func validProfile() CandidateProfile {
	return CandidateProfile{
		BirthDate:     date(1996, 5, 12),
		MaritalStatus: MaritalSingle,
		Citizenship:   "IN",
		FamilySize:    1,
		Education: []EducationCredential{
			{Level: EducationBachelors, Name: "BSc Computer Science", CompletedAt: date(2018, 6, 1)},
		},
		LanguageTests: []LanguageTest{
			{
				TestType:  "IELTS",
				Language:  LanguageEnglish,
				TakenAt:   date(2025, 1, 10),
				ExpiresAt: date(2027, 1, 10),
				CLB:       CLBScores{Reading: 9, Writing: 9, Listening: 9, Speaking: 9},
			},
		},
		WorkHistory: []WorkExperience{
			{
				Employer:  "Acme Software",
				NOC:       "21232",
				TEER:      1,
				StartDate: date(2019, 1, 1),
				EndDate:   date(2024, 1, 1),
				Paid:      true,
			},
		},
	}
}

func TestCandidateProfileValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*CandidateProfile)
		wantCode dErrors.Code
	}{
		{
			name:   "valid profile passes",
			mutate: func(p *CandidateProfile) {},
		},
		{
			name:     "missing birth date is incomplete",
			mutate:   func(p *CandidateProfile) { p.BirthDate = time.Time{} },
			wantCode: dErrors.CodeIncompleteInput,
		},
		{
			name:     "unknown marital status is invalid",
			mutate:   func(p *CandidateProfile) { p.MaritalStatus = "polyamorous" },
			wantCode: dErrors.CodeInvalidInput,
		},
		{
			name:     "zero family size is invalid",
			mutate:   func(p *CandidateProfile) { p.FamilySize = 0 },
			wantCode: dErrors.CodeInvalidInput,
		},
		{
			name:     "unknown education level is invalid",
			mutate:   func(p *CandidateProfile) { p.Education[0].Level = "bootcamp" },
			wantCode: dErrors.CodeInvalidInput,
		},
		{
			name:     "CLB out of range is invalid",
			mutate:   func(p *CandidateProfile) { p.LanguageTests[0].CLB.Speaking = 13 },
			wantCode: dErrors.CodeInvalidInput,
		},
		{
			name:     "TEER out of range is invalid",
			mutate:   func(p *CandidateProfile) { p.WorkHistory[0].TEER = 7 },
			wantCode: dErrors.CodeInvalidInput,
		},
		{
			name:     "work ending before start is invalid",
			mutate:   func(p *CandidateProfile) { p.WorkHistory[0].EndDate = date(2018, 1, 1) },
			wantCode: dErrors.CodeInvalidInput,
		},
		{
			name:     "missing work start date is incomplete",
			mutate:   func(p *CandidateProfile) { p.WorkHistory[0].StartDate = time.Time{} },
			wantCode: dErrors.CodeIncompleteInput,
		},
		{
			name: "spouse fields are validated too",
			mutate: func(p *CandidateProfile) {
				p.MaritalStatus = MaritalMarried
				p.Spouse = &SpouseProfile{
					Education: []EducationCredential{{Level: "unknown"}},
				}
			},
			wantCode: dErrors.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := validProfile()
			tt.mutate(&profile)

			err := profile.Validate()

			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestAgeAt(t *testing.T) {
	profile := CandidateProfile{BirthDate: date(1996, 5, 12)}

	assert.Equal(t, 29, profile.AgeAt(date(2026, 3, 1)))
	assert.Equal(t, 30, profile.AgeAt(date(2026, 5, 12)))
	assert.Equal(t, 29, profile.AgeAt(date(2026, 5, 11)))
}

func TestFirstAndSecondOfficialLanguage(t *testing.T) {
	now := date(2026, 3, 1)
	english := LanguageTest{
		Language:  LanguageEnglish,
		ExpiresAt: date(2027, 1, 1),
		CLB:       CLBScores{Reading: 7, Writing: 7, Listening: 7, Speaking: 7},
	}
	french := LanguageTest{
		Language:  LanguageFrench,
		ExpiresAt: date(2027, 1, 1),
		CLB:       CLBScores{Reading: 9, Writing: 9, Listening: 9, Speaking: 9},
	}

	t.Run("higher minimum CLB wins", func(t *testing.T) {
		profile := CandidateProfile{LanguageTests: []LanguageTest{english, french}}

		first, ok := profile.FirstOfficialLanguage(now)
		require.True(t, ok)
		assert.Equal(t, LanguageFrench, first.Language)

		second, ok := profile.SecondOfficialLanguage(now)
		require.True(t, ok)
		assert.Equal(t, LanguageEnglish, second.Language)
	})

	t.Run("english wins ties", func(t *testing.T) {
		tied := french
		tied.CLB = english.CLB
		profile := CandidateProfile{LanguageTests: []LanguageTest{tied, english}}

		first, ok := profile.FirstOfficialLanguage(now)
		require.True(t, ok)
		assert.Equal(t, LanguageEnglish, first.Language)
	})

	t.Run("expired tests are ignored", func(t *testing.T) {
		expired := english
		expired.ExpiresAt = date(2025, 1, 1)
		profile := CandidateProfile{LanguageTests: []LanguageTest{expired}}

		_, ok := profile.FirstOfficialLanguage(now)
		assert.False(t, ok)
	})
}

func TestSkilledExperienceMonths(t *testing.T) {
	now := date(2026, 3, 1)

	t.Run("counts paid skilled months inside the window", func(t *testing.T) {
		profile := CandidateProfile{WorkHistory: []WorkExperience{
			{TEER: 1, StartDate: date(2023, 3, 1), EndDate: date(2024, 3, 1), Paid: true},
		}}

		assert.Equal(t, 12, profile.SkilledExperienceMonths(now, 10, false))
	})

	t.Run("excludes unpaid, unskilled and wrong-flag periods", func(t *testing.T) {
		profile := CandidateProfile{WorkHistory: []WorkExperience{
			{TEER: 1, StartDate: date(2023, 3, 1), EndDate: date(2024, 3, 1), Paid: false},
			{TEER: 4, StartDate: date(2023, 3, 1), EndDate: date(2024, 3, 1), Paid: true},
			{TEER: 1, Canadian: true, StartDate: date(2023, 3, 1), EndDate: date(2024, 3, 1), Paid: true},
		}}

		assert.Equal(t, 0, profile.SkilledExperienceMonths(now, 10, false))
		assert.Equal(t, 12, profile.SkilledExperienceMonths(now, 10, true))
	})

	t.Run("ongoing periods count up to now", func(t *testing.T) {
		profile := CandidateProfile{WorkHistory: []WorkExperience{
			{TEER: 2, StartDate: date(2025, 3, 1), Paid: true},
		}}

		assert.Equal(t, 12, profile.SkilledExperienceMonths(now, 10, false))
	})

	t.Run("clamps to the recency window", func(t *testing.T) {
		profile := CandidateProfile{WorkHistory: []WorkExperience{
			{TEER: 1, StartDate: date(2010, 1, 1), EndDate: date(2024, 3, 1), Paid: true},
		}}

		assert.Equal(t, 96, profile.SkilledExperienceMonths(now, 10, false))
	})
}

func TestLatestProofOfFunds(t *testing.T) {
	profile := CandidateProfile{ProofOfFunds: []ProofOfFundsSnapshot{
		{AmountCents: 2_000_000, Currency: "CAD", TakenAt: date(2026, 1, 1)},
		{AmountCents: 1_000_000, Currency: "CAD", TakenAt: date(2026, 2, 1)},
	}}

	latest, ok := profile.LatestProofOfFunds()
	require.True(t, ok)
	assert.Equal(t, int64(1_000_000), latest.AmountCents, "latest by taken_at, not the maximum")

	empty := CandidateProfile{}
	_, ok = empty.LatestProofOfFunds()
	assert.False(t, ok)
}

func TestCloneIsDeep(t *testing.T) {
	original := validProfile()
	original.MaritalStatus = MaritalMarried
	original.Spouse = &SpouseProfile{
		LanguageTests: []LanguageTest{{Language: LanguageEnglish, CLB: CLBScores{Reading: 7, Writing: 7, Listening: 7, Speaking: 7}}},
	}

	clone := original.Clone()
	clone.LanguageTests[0].CLB.Reading = 4
	clone.WorkHistory[0].TEER = 5
	clone.Spouse.LanguageTests[0].CLB.Reading = 4

	assert.Equal(t, 9, original.LanguageTests[0].CLB.Reading)
	assert.Equal(t, 1, original.WorkHistory[0].TEER)
	assert.Equal(t, 7, original.Spouse.LanguageTests[0].CLB.Reading)
}

func TestHighestEducation(t *testing.T) {
	profile := CandidateProfile{Education: []EducationCredential{
		{Level: EducationSecondary},
		{Level: EducationMasters},
		{Level: EducationBachelors},
	}}

	best, ok := profile.HighestEducation()
	require.True(t, ok)
	assert.Equal(t, EducationMasters, best.Level)
}
