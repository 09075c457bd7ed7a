package domain

import "time"

// ProgramCode identifies a federal immigration program.
type ProgramCode string

const (
	ProgramFSW ProgramCode = "FSW"
	ProgramCEC ProgramCode = "CEC"
	ProgramFST ProgramCode = "FST"
)

// ReasonCode is a stable, machine-readable ineligibility or advisory code.
// Program-specific codes are declared in the rule bundle; the constants
// below are emitted by the engine itself.
type ReasonCode string

const (
	// ReasonFundsCurrencyUnnormalized marks a funds check that failed
	// closed because the latest snapshot was not normalized to CAD.
	ReasonFundsCurrencyUnnormalized ReasonCode = "PROFILE_FOF_CURRENCY_UNNORMALIZED"

	// ReasonSpouseRequired marks a with-spouse evaluation missing the
	// spouse profile needed for the spouse factor set.
	ReasonSpouseRequired ReasonCode = "CRS_SPOUSE_REQUIRED"
)

// ProgramEvaluation is the outcome of one program's predicate chain. All
// predicates run even after the first failure so Reasons is complete, in
// the order the bundle declares the checks.
type ProgramEvaluation struct {
	Program  ProgramCode  `json:"program"`
	Eligible bool         `json:"eligible"`
	Reasons  []ReasonCode `json:"reasons,omitempty"`
	RuleRefs []string     `json:"rule_refs,omitempty"`
}

// FactorContribution explains one CRS factor's award.
type FactorContribution struct {
	FactorCode     string            `json:"factor_code"`
	PointsAwarded  int               `json:"points_awarded"`
	PointsMax      int               `json:"points_max"`
	InputsUsed     map[string]string `json:"inputs_used,omitempty"`
	RuleReference  string            `json:"rule_reference"`
	ExplanationKey string            `json:"explanation_key"`
}

// CRSResult is the full Comprehensive Ranking System breakdown. Total is
// always the sum of the contributions after caps.
type CRSResult struct {
	Total         int                  `json:"total"`
	Contributions []FactorContribution `json:"contributions"`
	Reasons       []ReasonCode         `json:"reasons,omitempty"`
}

// RequiredDocument is one entry of the resolved document matrix.
type RequiredDocument struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Category  string `json:"category"`
	Mandatory bool   `json:"mandatory"`
}

// DocumentMatrix lists the documents and forms a submission requires,
// resolved from the profile and the recommended program.
type DocumentMatrix struct {
	Program   ProgramCode        `json:"program"`
	Documents []RequiredDocument `json:"documents"`
	Forms     []string           `json:"forms"`
}

// EvaluationResult is the complete output of one evaluation run.
type EvaluationResult struct {
	CaseID                CaseID              `json:"case_id"`
	Version               int                 `json:"version"`
	Eligibility           []ProgramEvaluation `json:"eligibility"`
	CRS                   CRSResult           `json:"crs"`
	Matrix                DocumentMatrix      `json:"matrix"`
	PrimaryRecommendation ProgramCode         `json:"primary_recommendation,omitempty"`
	Fingerprint           string              `json:"fingerprint"`
	ConfigVersion         string              `json:"config_version"`
	EngineVersion         string              `json:"engine_version"`
	EvaluatedAt           time.Time           `json:"evaluated_at"`
}

// Severity grades a readiness check finding.
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarn    Severity = "WARN"
	SeverityBlocker Severity = "BLOCKER"
)

// ReadinessVerdict is the overall submission readiness outcome.
type ReadinessVerdict string

const (
	VerdictReady       ReadinessVerdict = "READY"
	VerdictNeedsReview ReadinessVerdict = "NEEDS_REVIEW"
	VerdictNotReady    ReadinessVerdict = "NOT_READY"
)

// ReadinessCheck is one finding. Ref carries a field path or document ID,
// never document content.
type ReadinessCheck struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Ref      string   `json:"ref,omitempty"`
}

// FormReadiness summarizes one form's completion state.
type FormReadiness struct {
	FormID            string           `json:"form_id"`
	CompletionPercent int              `json:"completion_percent"`
	MissingFields     []string         `json:"missing_fields,omitempty"`
	Checks            []ReadinessCheck `json:"checks,omitempty"`
}

// ReadinessReport is the full submission readiness assessment.
type ReadinessReport struct {
	CaseID           CaseID           `json:"case_id"`
	Verdict          ReadinessVerdict `json:"verdict"`
	Forms            []FormReadiness  `json:"forms"`
	MissingDocuments []string         `json:"missing_documents,omitempty"`
	Checks           []ReadinessCheck `json:"checks,omitempty"`
	AssessedAt       time.Time        `json:"assessed_at"`
}
