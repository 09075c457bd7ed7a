package intake

import (
	"time"

	"maplecase/internal/bundle"
	"maplecase/pkg/domain"
)

// RawScores are the per-ability scores as reported by the test provider,
// before CLB conversion.
type RawScores struct {
	Reading   float64 `json:"reading"`
	Writing   float64 `json:"writing"`
	Listening float64 `json:"listening"`
	Speaking  float64 `json:"speaking"`
}

// RawLanguageTest is a language test result in provider units.
type RawLanguageTest struct {
	TestType  string          `json:"test_type"`
	Language  domain.Language `json:"language"`
	TakenAt   time.Time       `json:"taken_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Scores    RawScores       `json:"scores"`
}

// ConvertTest converts one raw test result to CLB levels using the
// conversion tables for its test type. An unknown test type or ability
// reports invalid input.
func ConvertTest(b *bundle.Bundle, raw RawLanguageTest) (domain.LanguageTest, error) {
	out := domain.LanguageTest{
		TestType:  raw.TestType,
		Language:  raw.Language,
		TakenAt:   raw.TakenAt,
		ExpiresAt: raw.ExpiresAt,
	}

	conversions := []struct {
		ability string
		raw     float64
		into    *int
	}{
		{"reading", raw.Scores.Reading, &out.CLB.Reading},
		{"writing", raw.Scores.Writing, &out.CLB.Writing},
		{"listening", raw.Scores.Listening, &out.CLB.Listening},
		{"speaking", raw.Scores.Speaking, &out.CLB.Speaking},
	}
	for _, c := range conversions {
		clb, err := b.CLBTables.ConvertToCLB(raw.TestType, c.ability, c.raw)
		if err != nil {
			return domain.LanguageTest{}, err
		}
		*c.into = clb
	}
	return out, nil
}

// ConvertTests converts a batch of raw results, preserving order.
func ConvertTests(b *bundle.Bundle, raws []RawLanguageTest) ([]domain.LanguageTest, error) {
	tests := make([]domain.LanguageTest, 0, len(raws))
	for _, raw := range raws {
		t, err := ConvertTest(b, raw)
		if err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, nil
}
