// Package readiness assesses whether a case is ready for submission:
// per-form completion from the autofill pipeline, uploaded documents
// against the resolved matrix, and advisory checks on evidence validity.
// Reports reference field paths and document IDs only, never content.
package readiness

import (
	"context"
	"fmt"
	"time"

	"maplecase/internal/bundle"
	"maplecase/pkg/domain"
	dErrors "maplecase/pkg/domain-errors"
)

//go:generate mockgen -source=assessor.go -destination=mocks/autofill.go -package=mocks

// AutofillPort reports which field paths of a form the autofill pipeline
// can populate from the case profile.
type AutofillPort interface {
	FilledFields(ctx context.Context, caseID domain.CaseID, formID string) ([]string, error)
}

// Assessor produces submission readiness reports.
type Assessor struct {
	autofill AutofillPort
}

// New returns a readiness assessor backed by the autofill port.
func New(autofill AutofillPort) *Assessor {
	return &Assessor{autofill: autofill}
}

// Assess builds the readiness report for a snapshot's matrix. Uploaded
// holds the document IDs already on file for the case.
func (a *Assessor) Assess(ctx context.Context, snapshot *domain.CaseSnapshot, uploaded []string, b *bundle.Bundle, now time.Time) (domain.ReadinessReport, error) {
	report := domain.ReadinessReport{
		CaseID:     snapshot.CaseID,
		AssessedAt: now,
	}

	blockers, warns := 0, 0

	onFile := make(map[string]bool, len(uploaded))
	for _, id := range uploaded {
		onFile[id] = true
	}
	for _, doc := range snapshot.Matrix.Documents {
		if onFile[doc.ID] {
			continue
		}
		report.MissingDocuments = append(report.MissingDocuments, doc.ID)
		check := domain.ReadinessCheck{
			Code:     "DOCUMENT_MISSING",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("document %s is not on file", doc.ID),
			Ref:      doc.ID,
		}
		if doc.Mandatory {
			check.Severity = domain.SeverityBlocker
			blockers++
		} else {
			warns++
		}
		report.Checks = append(report.Checks, check)
	}

	for _, formID := range snapshot.Matrix.Forms {
		form, ok := b.Form(formID)
		if !ok {
			return domain.ReadinessReport{}, dErrors.Newf(dErrors.CodeInvariantViolation,
				"config reference broken: form %q not declared", formID)
		}

		filled, err := a.autofill.FilledFields(ctx, snapshot.CaseID, formID)
		if err != nil {
			return domain.ReadinessReport{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "autofill coverage unavailable")
		}

		fr := assessForm(form, filled)
		for _, check := range fr.Checks {
			if check.Severity == domain.SeverityBlocker {
				blockers++
			}
		}
		report.Forms = append(report.Forms, fr)
	}

	for _, check := range advisoryChecks(&snapshot.Profile, b, now) {
		report.Checks = append(report.Checks, check)
		if check.Severity == domain.SeverityWarn {
			warns++
		}
	}

	switch {
	case blockers > 0:
		report.Verdict = domain.VerdictNotReady
	case warns > 0:
		report.Verdict = domain.VerdictNeedsReview
	default:
		report.Verdict = domain.VerdictReady
	}
	return report, nil
}

func assessForm(form bundle.FormDef, filled []string) domain.FormReadiness {
	have := make(map[string]bool, len(filled))
	for _, path := range filled {
		have[path] = true
	}

	required, complete := 0, 0
	fr := domain.FormReadiness{FormID: form.ID}
	for _, field := range form.Fields {
		if !field.Required {
			continue
		}
		required++
		if have[field.Path] {
			complete++
			continue
		}
		fr.MissingFields = append(fr.MissingFields, field.Path)
		fr.Checks = append(fr.Checks, domain.ReadinessCheck{
			Code:     "FIELD_MISSING",
			Severity: domain.SeverityBlocker,
			Message:  fmt.Sprintf("required field %s has no value", field.Path),
			Ref:      form.ID + "." + field.Path,
		})
	}

	if required == 0 {
		fr.CompletionPercent = 100
	} else {
		fr.CompletionPercent = complete * 100 / required
	}
	return fr
}

// advisoryChecks flags evidence that is valid today but close to aging
// out of the submission window.
func advisoryChecks(profile *domain.CandidateProfile, b *bundle.Bundle, now time.Time) []domain.ReadinessCheck {
	var checks []domain.ReadinessCheck
	for _, test := range profile.LanguageTests {
		if !test.ValidAt(now) {
			continue
		}
		if test.ExpiresAt.Before(now.AddDate(0, 3, 0)) {
			checks = append(checks, domain.ReadinessCheck{
				Code:     "LANGUAGE_TEST_EXPIRING",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("%s result expires %s", test.TestType, test.ExpiresAt.Format("2006-01-02")),
				Ref:      "language_tests",
			})
		}
	}
	if latest, ok := profile.LatestProofOfFunds(); ok {
		if latest.TakenAt.Before(now.AddDate(0, -6, 0)) {
			checks = append(checks, domain.ReadinessCheck{
				Code:     "FUNDS_SNAPSHOT_STALE",
				Severity: domain.SeverityInfo,
				Message:  "latest settlement funds snapshot is older than six months",
				Ref:      "proof_of_funds",
			})
		}
	}
	validity := b.BiometricsMedicals
	if !profile.MedicalExamAt.IsZero() && profile.MedicalExamAt.AddDate(0, validity.MedicalValidMonths, 0).Before(now) {
		checks = append(checks, domain.ReadinessCheck{
			Code:     "MEDICAL_EXAM_EXPIRED",
			Severity: domain.SeverityWarn,
			Message:  "immigration medical exam is past its validity period",
			Ref:      "medical_exam_at",
		})
	}
	if !profile.BiometricsAt.IsZero() && profile.BiometricsAt.AddDate(validity.BiometricsValidYears, 0, 0).Before(now) {
		checks = append(checks, domain.ReadinessCheck{
			Code:     "BIOMETRICS_EXPIRED",
			Severity: domain.SeverityWarn,
			Message:  "biometrics are past their validity period",
			Ref:      "biometrics_at",
		})
	}
	return checks
}
