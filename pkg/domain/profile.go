package domain

import (
	"fmt"
	"time"

	dErrors "maplecase/pkg/domain-errors"
)

// MaritalStatus enumerates the intake marital statuses.
type MaritalStatus string

const (
	MaritalSingle    MaritalStatus = "single"
	MaritalMarried   MaritalStatus = "married"
	MaritalCommonLaw MaritalStatus = "common_law"
	MaritalSeparated MaritalStatus = "separated"
	MaritalDivorced  MaritalStatus = "divorced"
	MaritalWidowed   MaritalStatus = "widowed"
)

// WithSpouse reports whether CRS evaluation uses the with-spouse tables.
func (m MaritalStatus) WithSpouse() bool {
	return m == MaritalMarried || m == MaritalCommonLaw
}

func (m MaritalStatus) valid() bool {
	switch m {
	case MaritalSingle, MaritalMarried, MaritalCommonLaw, MaritalSeparated, MaritalDivorced, MaritalWidowed:
		return true
	}
	return false
}

// EducationLevel enumerates credential levels, ordered by Rank.
type EducationLevel string

const (
	EducationLessThanSecondary EducationLevel = "less_than_secondary"
	EducationSecondary         EducationLevel = "secondary"
	EducationOneYear           EducationLevel = "one_year_postsecondary"
	EducationTwoYear           EducationLevel = "two_year_postsecondary"
	EducationBachelors         EducationLevel = "bachelors"
	EducationTwoOrMore         EducationLevel = "two_or_more_credentials"
	EducationMasters           EducationLevel = "masters"
	EducationDoctoral          EducationLevel = "doctoral"
)

var educationRanks = map[EducationLevel]int{
	EducationLessThanSecondary: 0,
	EducationSecondary:         1,
	EducationOneYear:           2,
	EducationTwoYear:           3,
	EducationBachelors:         4,
	EducationTwoOrMore:         5,
	EducationMasters:           6,
	EducationDoctoral:          7,
}

// Rank orders education levels for minima comparisons. Unknown levels
// rank below everything so they never satisfy a minimum.
func (l EducationLevel) Rank() int {
	if r, ok := educationRanks[l]; ok {
		return r
	}
	return -1
}

func (l EducationLevel) valid() bool {
	_, ok := educationRanks[l]
	return ok
}

// Language identifies an official language.
type Language string

const (
	LanguageEnglish Language = "english"
	LanguageFrench  Language = "french"
)

// CLBScores holds Canadian Language Benchmark levels for the four abilities.
type CLBScores struct {
	Reading   int `json:"reading"`
	Writing   int `json:"writing"`
	Listening int `json:"listening"`
	Speaking  int `json:"speaking"`
}

// Min returns the lowest of the four ability levels.
func (s CLBScores) Min() int {
	min := s.Reading
	for _, v := range []int{s.Writing, s.Listening, s.Speaking} {
		if v < min {
			min = v
		}
	}
	return min
}

// AllAtLeast reports whether every ability meets the level.
func (s CLBScores) AllAtLeast(level int) bool {
	return s.Min() >= level
}

func (s CLBScores) validate() error {
	for _, v := range []int{s.Reading, s.Writing, s.Listening, s.Speaking} {
		if v < 0 || v > 12 {
			return dErrors.Newf(dErrors.CodeInvalidInput, "CLB level %d outside 0..12", v)
		}
	}
	return nil
}

// LanguageTest is one language test result already converted to CLB by intake.
type LanguageTest struct {
	TestType  string    `json:"test_type"`
	Language  Language  `json:"language"`
	TakenAt   time.Time `json:"taken_at"`
	ExpiresAt time.Time `json:"expires_at"`
	CLB       CLBScores `json:"clb"`
}

// ValidAt reports whether the test result is still usable at the given time.
func (t LanguageTest) ValidAt(now time.Time) bool {
	return !t.ExpiresAt.Before(now)
}

// EducationCredential is one completed credential.
type EducationCredential struct {
	Level         EducationLevel `json:"level"`
	Name          string         `json:"name"`
	Canadian      bool           `json:"canadian"`
	DurationYears int            `json:"duration_years"`
	CompletedAt   time.Time      `json:"completed_at"`
}

// WorkExperience is one employment period. A zero EndDate means ongoing.
type WorkExperience struct {
	Employer   string    `json:"employer"`
	NOC        string    `json:"noc"`
	TEER       int       `json:"teer"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date,omitzero"`
	Continuous bool      `json:"continuous"`
	Canadian   bool      `json:"canadian"`
	Paid       bool      `json:"paid"`
}

// MonthsWithin returns the whole months of this period falling inside
// [windowStart, now]. Unpaid periods count zero months.
func (w WorkExperience) MonthsWithin(windowStart, now time.Time) int {
	if !w.Paid {
		return 0
	}
	start := w.StartDate
	if start.Before(windowStart) {
		start = windowStart
	}
	end := w.EndDate
	if end.IsZero() || end.After(now) {
		end = now
	}
	if !end.After(start) {
		return 0
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	return months
}

// JobOffer is a supported offer of arranged employment.
type JobOffer struct {
	Employer       string `json:"employer"`
	NOC            string `json:"noc"`
	TEER           int    `json:"teer"`
	FullTime       bool   `json:"full_time"`
	DurationMonths int    `json:"duration_months"`
}

// ProofOfFundsSnapshot is one point-in-time settlement funds statement.
// Intake normalizes amounts to CAD cents; any other currency fails the
// funds check closed.
type ProofOfFundsSnapshot struct {
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	TakenAt     time.Time `json:"taken_at"`
}

// SpouseProfile carries the accompanying spouse's assessable attributes.
type SpouseProfile struct {
	Education     []EducationCredential `json:"education"`
	LanguageTests []LanguageTest        `json:"language_tests"`
	WorkHistory   []WorkExperience      `json:"work_history"`
}

// CandidateProfile is the canonical, immutable evaluation input. It is
// normalized by intake and copied by value into every snapshot; the
// evaluator never mutates it.
type CandidateProfile struct {
	BirthDate                  time.Time              `json:"birth_date"`
	MaritalStatus              MaritalStatus          `json:"marital_status"`
	Citizenship                string                 `json:"citizenship"`
	FamilySize                 int                    `json:"family_size"`
	SiblingInCanada            bool                   `json:"sibling_in_canada"`
	ProvincialNomination       bool                   `json:"provincial_nomination"`
	CertificateOfQualification bool                   `json:"certificate_of_qualification"`
	Education                  []EducationCredential  `json:"education"`
	LanguageTests              []LanguageTest         `json:"language_tests"`
	WorkHistory                []WorkExperience       `json:"work_history"`
	JobOffers                  []JobOffer             `json:"job_offers"`
	ProofOfFunds               []ProofOfFundsSnapshot `json:"proof_of_funds"`
	MedicalExamAt              time.Time              `json:"medical_exam_at,omitzero"`
	BiometricsAt               time.Time              `json:"biometrics_at,omitzero"`
	Spouse                     *SpouseProfile         `json:"spouse,omitempty"`
}

// Validate enforces the profile invariants at the trust boundary.
func (p *CandidateProfile) Validate() error {
	if p.BirthDate.IsZero() {
		return dErrors.New(dErrors.CodeIncompleteInput, "birth date is required")
	}
	if !p.MaritalStatus.valid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown marital status %q", p.MaritalStatus)
	}
	if p.FamilySize < 1 {
		return dErrors.New(dErrors.CodeInvalidInput, "family size must be at least 1")
	}
	for _, cred := range p.Education {
		if !cred.Level.valid() {
			return dErrors.Newf(dErrors.CodeInvalidInput, "unknown education level %q", cred.Level)
		}
	}
	if err := validateLanguageTests(p.LanguageTests); err != nil {
		return err
	}
	if err := validateWork(p.WorkHistory); err != nil {
		return err
	}
	for _, offer := range p.JobOffers {
		if offer.TEER < 0 || offer.TEER > 5 {
			return dErrors.Newf(dErrors.CodeInvalidInput, "job offer TEER %d outside 0..5", offer.TEER)
		}
	}
	if p.Spouse != nil {
		for _, cred := range p.Spouse.Education {
			if !cred.Level.valid() {
				return dErrors.Newf(dErrors.CodeInvalidInput, "unknown spouse education level %q", cred.Level)
			}
		}
		if err := validateLanguageTests(p.Spouse.LanguageTests); err != nil {
			return err
		}
		if err := validateWork(p.Spouse.WorkHistory); err != nil {
			return err
		}
	}
	return nil
}

func validateLanguageTests(tests []LanguageTest) error {
	for _, t := range tests {
		if t.Language != LanguageEnglish && t.Language != LanguageFrench {
			return dErrors.Newf(dErrors.CodeInvalidInput, "unknown test language %q", t.Language)
		}
		if err := t.CLB.validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateWork(history []WorkExperience) error {
	for _, w := range history {
		if w.TEER < 0 || w.TEER > 5 {
			return dErrors.Newf(dErrors.CodeInvalidInput, "work experience TEER %d outside 0..5", w.TEER)
		}
		if w.StartDate.IsZero() {
			return dErrors.New(dErrors.CodeIncompleteInput, "work experience start date is required")
		}
		if !w.EndDate.IsZero() && w.EndDate.Before(w.StartDate) {
			return dErrors.Newf(dErrors.CodeInvalidInput, "work experience at %s ends before it starts", w.Employer)
		}
	}
	return nil
}

// AgeAt returns whole years of age at the given time.
func (p *CandidateProfile) AgeAt(now time.Time) int {
	years := now.Year() - p.BirthDate.Year()
	anniversary := p.BirthDate.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

// HighestEducation returns the highest-ranked credential, if any.
func (p *CandidateProfile) HighestEducation() (EducationCredential, bool) {
	return highestEducation(p.Education)
}

func highestEducation(creds []EducationCredential) (EducationCredential, bool) {
	var best EducationCredential
	found := false
	for _, cred := range creds {
		if !found || cred.Level.Rank() > best.Level.Rank() {
			best = cred
			found = true
		}
	}
	return best, found
}

// FirstOfficialLanguage returns the valid test designated as the first
// official language: the language whose best test has the higher minimum
// CLB, English winning ties so the choice is deterministic.
func (p *CandidateProfile) FirstOfficialLanguage(now time.Time) (LanguageTest, bool) {
	return firstOfficialLanguage(p.LanguageTests, now)
}

// SecondOfficialLanguage returns the best valid test in the other
// official language, if one exists.
func (p *CandidateProfile) SecondOfficialLanguage(now time.Time) (LanguageTest, bool) {
	first, ok := firstOfficialLanguage(p.LanguageTests, now)
	if !ok {
		return LanguageTest{}, false
	}
	other := LanguageEnglish
	if first.Language == LanguageEnglish {
		other = LanguageFrench
	}
	return bestTestFor(p.LanguageTests, other, now)
}

func firstOfficialLanguage(tests []LanguageTest, now time.Time) (LanguageTest, bool) {
	english, hasEnglish := bestTestFor(tests, LanguageEnglish, now)
	french, hasFrench := bestTestFor(tests, LanguageFrench, now)
	switch {
	case hasEnglish && hasFrench:
		if french.CLB.Min() > english.CLB.Min() {
			return french, true
		}
		return english, true
	case hasEnglish:
		return english, true
	case hasFrench:
		return french, true
	}
	return LanguageTest{}, false
}

func bestTestFor(tests []LanguageTest, lang Language, now time.Time) (LanguageTest, bool) {
	var best LanguageTest
	found := false
	for _, t := range tests {
		if t.Language != lang || !t.ValidAt(now) {
			continue
		}
		if !found || t.CLB.Min() > best.CLB.Min() {
			best = t
			found = true
		}
	}
	return best, found
}

// SkilledExperienceMonths sums months of paid TEER 0-3 experience inside
// the recency window, split by the Canadian flag.
func (p *CandidateProfile) SkilledExperienceMonths(now time.Time, windowYears int, canadian bool) int {
	return skilledMonths(p.WorkHistory, now, windowYears, canadian)
}

func skilledMonths(history []WorkExperience, now time.Time, windowYears int, canadian bool) int {
	windowStart := now.AddDate(-windowYears, 0, 0)
	total := 0
	for _, w := range history {
		if w.Canadian != canadian || w.TEER > 3 {
			continue
		}
		total += w.MonthsWithin(windowStart, now)
	}
	return total
}

// LatestProofOfFunds returns the most recent snapshot by TakenAt.
// The funds check reads the latest snapshot, not the maximum across
// snapshots.
func (p *CandidateProfile) LatestProofOfFunds() (ProofOfFundsSnapshot, bool) {
	var latest ProofOfFundsSnapshot
	found := false
	for _, s := range p.ProofOfFunds {
		if !found || s.TakenAt.After(latest.TakenAt) {
			latest = s
			found = true
		}
	}
	return latest, found
}

// Clone returns a deep copy. Snapshots store clones so historical data
// can never alias live state.
func (p *CandidateProfile) Clone() CandidateProfile {
	out := *p
	out.Education = append([]EducationCredential(nil), p.Education...)
	out.LanguageTests = append([]LanguageTest(nil), p.LanguageTests...)
	out.WorkHistory = append([]WorkExperience(nil), p.WorkHistory...)
	out.JobOffers = append([]JobOffer(nil), p.JobOffers...)
	out.ProofOfFunds = append([]ProofOfFundsSnapshot(nil), p.ProofOfFunds...)
	if p.Spouse != nil {
		spouse := SpouseProfile{
			Education:     append([]EducationCredential(nil), p.Spouse.Education...),
			LanguageTests: append([]LanguageTest(nil), p.Spouse.LanguageTests...),
			WorkHistory:   append([]WorkExperience(nil), p.Spouse.WorkHistory...),
		}
		out.Spouse = &spouse
	}
	return out
}

// String renders a compact description for logs without personal detail.
func (p *CandidateProfile) String() string {
	return fmt.Sprintf("profile{marital=%s family=%d tests=%d work=%d}",
		p.MaritalStatus, p.FamilySize, len(p.LanguageTests), len(p.WorkHistory))
}
