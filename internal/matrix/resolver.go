// Package matrix resolves the document and form requirements for a
// profile and a recommended program from the bundle's declarative rules.
package matrix

import (
	"maplecase/internal/bundle"
	"maplecase/pkg/domain"
	dErrors "maplecase/pkg/domain-errors"
	platformstrings "maplecase/pkg/platform/strings"
)

// Conditions the bundle's matrix rules may gate on.
const (
	condHasSpouse      = "has_spouse"
	condPoFRequired    = "pof_required"
	condHasJobOffer    = "has_job_offer"
	condHasCertificate = "has_certificate"
	condHasNomination  = "has_nomination"
)

// Resolver builds document matrices.
type Resolver struct{}

// New returns a matrix resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve collects the program's base documents and forms plus every
// satisfied conditional rule, deduplicated in first-seen order. The
// pofRequired flag comes from the eligibility outcome: programs whose
// funds check was exempted or absent do not require the funds statement.
func (r *Resolver) Resolve(profile *domain.CandidateProfile, program domain.ProgramCode, b *bundle.Bundle, pofRequired bool) (domain.DocumentMatrix, error) {
	conditions := activeConditions(profile, pofRequired)

	var docIDs []string
	for _, rule := range b.Documents.Rules {
		if ruleApplies(rule.Program, rule.Condition, program, conditions) {
			docIDs = append(docIDs, rule.Include...)
		}
	}
	docIDs = platformstrings.DedupeAndTrim(docIDs)

	matrix := domain.DocumentMatrix{Program: program}
	for _, id := range docIDs {
		def, ok := b.Document(id)
		if !ok {
			return domain.DocumentMatrix{}, dErrors.Newf(dErrors.CodeInvariantViolation,
				"config reference broken: document %q not declared", id)
		}
		matrix.Documents = append(matrix.Documents, domain.RequiredDocument{
			ID:        def.ID,
			Label:     def.Label,
			Category:  def.Category,
			Mandatory: def.Mandatory,
		})
	}

	var formIDs []string
	for _, rule := range b.Forms.Rules {
		if ruleApplies(rule.Program, rule.Condition, program, conditions) {
			formIDs = append(formIDs, rule.Include...)
		}
	}
	matrix.Forms = platformstrings.DedupeAndTrim(formIDs)
	for _, id := range matrix.Forms {
		if _, ok := b.Form(id); !ok {
			return domain.DocumentMatrix{}, dErrors.Newf(dErrors.CodeInvariantViolation,
				"config reference broken: form %q not declared", id)
		}
	}

	return matrix, nil
}

func activeConditions(profile *domain.CandidateProfile, pofRequired bool) map[string]bool {
	return map[string]bool{
		condHasSpouse:      profile.MaritalStatus.WithSpouse(),
		condPoFRequired:    pofRequired,
		condHasJobOffer:    len(profile.JobOffers) > 0,
		condHasCertificate: profile.CertificateOfQualification,
		condHasNomination:  profile.ProvincialNomination,
	}
}

func ruleApplies(ruleProgram domain.ProgramCode, condition string, program domain.ProgramCode, conditions map[string]bool) bool {
	if ruleProgram != "" && ruleProgram != program {
		return false
	}
	if condition != "" && !conditions[condition] {
		return false
	}
	return true
}
