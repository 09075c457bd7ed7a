// Package evaluation orchestrates one evaluation run: validate the
// profile, fan out eligibility and CRS scoring, resolve the document
// matrix, fingerprint the run, and persist the snapshot to the ledger.
package evaluation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"maplecase/internal/bundle"
	"maplecase/internal/crs"
	"maplecase/internal/eligibility"
	"maplecase/internal/evaluation/metrics"
	"maplecase/internal/fingerprint"
	"maplecase/internal/intake"
	"maplecase/internal/ledger"
	"maplecase/internal/matrix"
	"maplecase/internal/readiness"
	"maplecase/pkg/domain"
	"maplecase/pkg/requestcontext"
)

// EngineVersion identifies the scoring engine build. It feeds the
// evaluation fingerprint, so any change in scoring semantics must bump it.
const EngineVersion = "2.3.1"

// EvaluateRequest is the input to one evaluation run. A nil CaseID opens
// a new case. RawLanguageTests are converted to CLB levels and appended
// to the profile's language tests before validation.
type EvaluateRequest struct {
	CaseID           domain.CaseID
	Label            string
	Profile          domain.CandidateProfile
	RawLanguageTests []intake.RawLanguageTest
}

// Service runs evaluations end to end.
type Service struct {
	bundles     *bundle.Handle
	eligibility *eligibility.Evaluator
	crs         *crs.Engine
	matrix      *matrix.Resolver
	readiness   *readiness.Assessor
	ledger      *ledger.Service
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

// NewService wires the evaluation pipeline.
func NewService(bundles *bundle.Handle, ledgerSvc *ledger.Service, assessor *readiness.Assessor, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		bundles:     bundles,
		eligibility: eligibility.New(),
		crs:         crs.New(),
		matrix:      matrix.New(),
		readiness:   assessor,
		ledger:      ledgerSvc,
		logger:      logger,
		metrics:     m,
		tracer:      otel.Tracer("maplecase/evaluation"),
	}
}

// Evaluate runs the full pipeline and persists the result as the case's
// next snapshot. The bundle pointer is taken once, so a concurrent config
// reload never mixes table versions within one run.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (*domain.EvaluationResult, error) {
	ctx, span := s.tracer.Start(ctx, "evaluation.Evaluate")
	defer span.End()
	start := time.Now()

	b := s.bundles.Current()

	profile := req.Profile
	if len(req.RawLanguageTests) > 0 {
		converted, err := intake.ConvertTests(b, req.RawLanguageTests)
		if err != nil {
			return nil, err
		}
		profile.LanguageTests = append(profile.LanguageTests, converted...)
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx).UTC()

	// Eligibility and CRS read the same immutable inputs; run them in
	// parallel.
	var (
		evals     []domain.ProgramEvaluation
		crsResult domain.CRSResult
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		evals = s.eligibility.Evaluate(&profile, b, now)
		return nil
	})
	g.Go(func() error {
		crsResult = s.crs.Score(&profile, b, now)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	primary, hasPrimary := eligibility.Primary(evals)
	var docMatrix domain.DocumentMatrix
	if hasPrimary {
		pofRequired := eligibility.FundsRequired(&profile, b, primary)
		resolved, err := s.matrix.Resolve(&profile, primary, b, pofRequired)
		if err != nil {
			return nil, err
		}
		docMatrix = resolved
	}

	fp, err := fingerprint.Evaluation(&profile, b.Fingerprint(), EngineVersion)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("evaluation.fingerprint", fp),
		attribute.Int("evaluation.crs_total", crsResult.Total),
	)

	snapshot, err := s.ledger.PersistEvaluation(ctx, ledger.EvaluationRecord{
		CaseID:        req.CaseID,
		Label:         req.Label,
		Profile:       profile,
		Eligibility:   evals,
		CRS:           crsResult,
		Matrix:        docMatrix,
		Fingerprint:   fp,
		ConfigVersion: b.Version(),
		EngineVersion: EngineVersion,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveEvaluation(string(primary), crsResult.Total, start)
	s.logger.InfoContext(ctx, "case evaluated",
		"case_id", snapshot.CaseID,
		"version", snapshot.Version,
		"primary", primary,
		"crs_total", crsResult.Total,
		"config_version", b.Version(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &domain.EvaluationResult{
		CaseID:                snapshot.CaseID,
		Version:               snapshot.Version,
		Eligibility:           evals,
		CRS:                   crsResult,
		Matrix:                docMatrix,
		PrimaryRecommendation: primary,
		Fingerprint:           fp,
		ConfigVersion:         b.Version(),
		EngineVersion:         EngineVersion,
		EvaluatedAt:           snapshot.CreatedAt,
	}, nil
}

// Reevaluate applies a partial profile update to the case's latest
// snapshot and runs a fresh evaluation on the merged profile. The merge
// never touches stored history; the result lands as the next version.
func (s *Service) Reevaluate(ctx context.Context, caseID domain.CaseID, patch *intake.ProfilePatch) (*domain.EvaluationResult, error) {
	ctx, span := s.tracer.Start(ctx, "evaluation.Reevaluate")
	defer span.End()

	snapshot, err := s.ledger.LatestSnapshot(ctx, caseID)
	if err != nil {
		return nil, err
	}

	merged, err := patch.Apply(snapshot.Profile)
	if err != nil {
		return nil, err
	}

	return s.Evaluate(ctx, EvaluateRequest{CaseID: caseID, Profile: merged})
}

// AssessReadiness checks the case's latest snapshot for submission
// readiness and records the verdict in the ledger.
func (s *Service) AssessReadiness(ctx context.Context, caseID domain.CaseID, uploaded []string) (*domain.ReadinessReport, error) {
	ctx, span := s.tracer.Start(ctx, "evaluation.AssessReadiness")
	defer span.End()
	start := time.Now()

	snapshot, err := s.ledger.LatestSnapshot(ctx, caseID)
	if err != nil {
		return nil, err
	}

	b := s.bundles.Current()
	report, err := s.readiness.Assess(ctx, snapshot, uploaded, b, requestcontext.Now(ctx).UTC())
	if err != nil {
		return nil, err
	}

	if err := s.ledger.RecordReadiness(ctx, caseID, report.Verdict); err != nil {
		return nil, err
	}

	s.metrics.ObserveReadiness(string(report.Verdict), start)
	s.logger.InfoContext(ctx, "readiness assessed",
		"case_id", caseID,
		"verdict", report.Verdict,
		"missing_documents", len(report.MissingDocuments),
	)
	return &report, nil
}

// History exposes the ledger's case history read model.
func (s *Service) History(ctx context.Context, caseID domain.CaseID) (*ledger.CaseHistory, error) {
	return s.ledger.History(ctx, caseID)
}

// Snapshot exposes one versioned snapshot.
func (s *Service) Snapshot(ctx context.Context, caseID domain.CaseID, version int) (*domain.CaseSnapshot, error) {
	return s.ledger.Snapshot(ctx, caseID, version)
}

// DeleteCase soft deletes the case.
func (s *Service) DeleteCase(ctx context.Context, caseID domain.CaseID) error {
	return s.ledger.SoftDelete(ctx, caseID)
}
