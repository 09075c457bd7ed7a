package handler

import (
	"maplecase/internal/intake"
	"maplecase/pkg/domain"
	dErrors "maplecase/pkg/domain-errors"
)

// EvaluateRequest is the wire form of an evaluation request. CaseID is
// optional; omitting it opens a new case. RawLanguageTests carry scores
// in provider units for conversion to CLB server-side.
type EvaluateRequest struct {
	CaseID           string                   `json:"case_id,omitempty"`
	Label            string                   `json:"label,omitempty"`
	Profile          domain.CandidateProfile  `json:"profile"`
	RawLanguageTests []intake.RawLanguageTest `json:"raw_language_tests,omitempty"`
}

// ParsedCaseID returns the case ID, or the zero ID when none was sent.
func (r EvaluateRequest) ParsedCaseID() (domain.CaseID, error) {
	if r.CaseID == "" {
		return domain.CaseID{}, nil
	}
	return domain.ParseCaseID(r.CaseID)
}

// TransitionRequest asks for a lifecycle move.
type TransitionRequest struct {
	Target string `json:"target"`
}

// ParsedTarget validates the requested status.
func (r TransitionRequest) ParsedTarget() (domain.CaseStatus, error) {
	target := domain.CaseStatus(r.Target)
	if !target.Valid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown case status %q", r.Target)
	}
	return target, nil
}

// ReadinessRequest lists the document IDs already on file for the case.
type ReadinessRequest struct {
	UploadedDocuments []string `json:"uploaded_documents"`
}
