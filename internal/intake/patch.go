// Package intake normalizes candidate input before evaluation: it applies
// profile patches and converts raw language-test scores to CLB levels.
package intake

import (
	"bytes"
	"encoding/json"
	"time"

	"maplecase/pkg/domain"
	dErrors "maplecase/pkg/domain-errors"
)

// ProfilePatch is a partial profile update. Nil fields leave the base
// value untouched; present list fields replace the base list wholesale.
// The spouse patch merges recursively; `"spouse": null` removes the
// spouse.
type ProfilePatch struct {
	BirthDate                  *time.Time                     `json:"birth_date,omitempty"`
	MaritalStatus              *domain.MaritalStatus          `json:"marital_status,omitempty"`
	Citizenship                *string                        `json:"citizenship,omitempty"`
	FamilySize                 *int                           `json:"family_size,omitempty"`
	SiblingInCanada            *bool                          `json:"sibling_in_canada,omitempty"`
	ProvincialNomination       *bool                          `json:"provincial_nomination,omitempty"`
	CertificateOfQualification *bool                          `json:"certificate_of_qualification,omitempty"`
	Education                  *[]domain.EducationCredential  `json:"education,omitempty"`
	LanguageTests              *[]domain.LanguageTest         `json:"language_tests,omitempty"`
	WorkHistory                *[]domain.WorkExperience       `json:"work_history,omitempty"`
	JobOffers                  *[]domain.JobOffer             `json:"job_offers,omitempty"`
	ProofOfFunds               *[]domain.ProofOfFundsSnapshot `json:"proof_of_funds,omitempty"`
	MedicalExamAt              *time.Time                     `json:"medical_exam_at,omitempty"`
	BiometricsAt               *time.Time                     `json:"biometrics_at,omitempty"`
	Spouse                     *SpousePatch                   `json:"spouse,omitempty"`

	spouseSet bool
}

// SpousePatch is the spouse subtree of a profile patch.
type SpousePatch struct {
	Education     *[]domain.EducationCredential `json:"education,omitempty"`
	LanguageTests *[]domain.LanguageTest        `json:"language_tests,omitempty"`
	WorkHistory   *[]domain.WorkExperience      `json:"work_history,omitempty"`
}

// DecodePatch parses a patch document. Unknown keys are rejected so a
// misspelled field can never be silently dropped.
func DecodePatch(data []byte) (*ProfilePatch, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var p ProfilePatch
	if err := dec.Decode(&p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid profile patch")
	}

	// A present-but-null spouse key clears the spouse; distinguish it
	// from an absent key, which json.Decode cannot.
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid profile patch")
	}
	_, p.spouseSet = keys["spouse"]
	return &p, nil
}

// Apply merges the patch into a copy of the base profile and validates
// the result. The base profile is never modified.
func (p *ProfilePatch) Apply(base domain.CandidateProfile) (domain.CandidateProfile, error) {
	out := base.Clone()

	if p.BirthDate != nil {
		out.BirthDate = *p.BirthDate
	}
	if p.MaritalStatus != nil {
		out.MaritalStatus = *p.MaritalStatus
	}
	if p.Citizenship != nil {
		out.Citizenship = *p.Citizenship
	}
	if p.FamilySize != nil {
		out.FamilySize = *p.FamilySize
	}
	if p.SiblingInCanada != nil {
		out.SiblingInCanada = *p.SiblingInCanada
	}
	if p.ProvincialNomination != nil {
		out.ProvincialNomination = *p.ProvincialNomination
	}
	if p.CertificateOfQualification != nil {
		out.CertificateOfQualification = *p.CertificateOfQualification
	}
	if p.Education != nil {
		out.Education = append([]domain.EducationCredential(nil), *p.Education...)
	}
	if p.LanguageTests != nil {
		out.LanguageTests = append([]domain.LanguageTest(nil), *p.LanguageTests...)
	}
	if p.WorkHistory != nil {
		out.WorkHistory = append([]domain.WorkExperience(nil), *p.WorkHistory...)
	}
	if p.JobOffers != nil {
		out.JobOffers = append([]domain.JobOffer(nil), *p.JobOffers...)
	}
	if p.ProofOfFunds != nil {
		out.ProofOfFunds = append([]domain.ProofOfFundsSnapshot(nil), *p.ProofOfFunds...)
	}
	if p.MedicalExamAt != nil {
		out.MedicalExamAt = *p.MedicalExamAt
	}
	if p.BiometricsAt != nil {
		out.BiometricsAt = *p.BiometricsAt
	}

	if p.spouseSet {
		out.Spouse = mergeSpouse(out.Spouse, p.Spouse)
	}

	if err := out.Validate(); err != nil {
		return domain.CandidateProfile{}, err
	}
	return out, nil
}

func mergeSpouse(base *domain.SpouseProfile, patch *SpousePatch) *domain.SpouseProfile {
	if patch == nil {
		return nil
	}
	merged := domain.SpouseProfile{}
	if base != nil {
		merged = *base
	}
	if patch.Education != nil {
		merged.Education = append([]domain.EducationCredential(nil), *patch.Education...)
	}
	if patch.LanguageTests != nil {
		merged.LanguageTests = append([]domain.LanguageTest(nil), *patch.LanguageTests...)
	}
	if patch.WorkHistory != nil {
		merged.WorkHistory = append([]domain.WorkExperience(nil), *patch.WorkHistory...)
	}
	return &merged
}
