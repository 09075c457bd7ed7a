package evaluation

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maplecase/internal/bundle"
	"maplecase/internal/events"
	"maplecase/internal/intake"
	"maplecase/internal/ledger"
	"maplecase/internal/readiness"
	"maplecase/pkg/domain"
	dErrors "maplecase/pkg/domain-errors"
	"maplecase/pkg/requestcontext"
)

var evalTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubAutofill struct{}

func (stubAutofill) FilledFields(context.Context, domain.CaseID, string) ([]string, error) {
	return []string{"birth_date", "marital_status", "citizenship", "family_size", "language_tests", "education", "work_history"}, nil
}

func newTestService(t *testing.T) (*Service, *ledger.MemoryStore) {
	t.Helper()

	handle, err := bundle.NewHandle("../bundle/testdata/bundle", slog.Default())
	require.NoError(t, err)

	store := ledger.NewMemoryStore()
	ledgerSvc := ledger.NewService(store, events.NewMemoryStore(), ledger.NewShardedLocker(), slog.Default(), ledger.NewMetrics())
	assessor := readiness.New(stubAutofill{})

	return NewService(handle, ledgerSvc, assessor, slog.Default(), nil), store
}

func tenantContext(tenantID domain.TenantID) context.Context {
	ctx := requestcontext.WithTenantID(context.Background(), tenantID)
	ctx = requestcontext.WithActor(ctx, "user:jsmith")
	return requestcontext.WithTime(ctx, evalTime)
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// eligibleProfile passes the FSW chain: CLB 9 across the board, a
// bachelor's degree, five years of continuous foreign TEER 1 experience,
// and settlement funds above the single-applicant floor.
func eligibleProfile() domain.CandidateProfile {
	return domain.CandidateProfile{
		BirthDate:     date(1996, 9, 15),
		MaritalStatus: domain.MaritalSingle,
		Citizenship:   "IN",
		FamilySize:    1,
		Education: []domain.EducationCredential{
			{Level: domain.EducationBachelors, Name: "BEng", CompletedAt: date(2018, 6, 1)},
		},
		LanguageTests: []domain.LanguageTest{{
			TestType:  "IELTS",
			Language:  domain.LanguageEnglish,
			TakenAt:   date(2025, 6, 1),
			ExpiresAt: date(2027, 6, 1),
			CLB:       domain.CLBScores{Reading: 9, Writing: 9, Listening: 9, Speaking: 9},
		}},
		WorkHistory: []domain.WorkExperience{
			{Employer: "Acme Software", NOC: "21232", TEER: 1, StartDate: date(2021, 1, 1), EndDate: date(2026, 1, 1), Paid: true},
		},
		ProofOfFunds: []domain.ProofOfFundsSnapshot{
			{AmountCents: 2_000_000, Currency: "CAD", TakenAt: date(2026, 2, 1)},
		},
	}
}

func TestEvaluatePersistsSnapshot(t *testing.T) {
	svc, store := newTestService(t)
	ctx := tenantContext(domain.NewTenantID())

	result, err := svc.Evaluate(ctx, EvaluateRequest{Profile: eligibleProfile(), Label: "Singh, Priya"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Version)
	assert.Equal(t, domain.ProgramFSW, result.PrimaryRecommendation)
	assert.Equal(t, "2026.02", result.ConfigVersion)
	assert.Equal(t, EngineVersion, result.EngineVersion)
	assert.NotEmpty(t, result.Fingerprint)
	assert.NotEmpty(t, result.Matrix.Documents)
	assert.Greater(t, result.CRS.Total, 0)

	snapshot, err := store.GetSnapshot(ctx, result.CaseID, 1)
	require.NoError(t, err)
	assert.Equal(t, result.Fingerprint, snapshot.Fingerprint)
	assert.Equal(t, result.CRS.Total, snapshot.CRS.Total)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := tenantContext(domain.NewTenantID())

	first, err := svc.Evaluate(ctx, EvaluateRequest{Profile: eligibleProfile()})
	require.NoError(t, err)
	second, err := svc.Evaluate(ctx, EvaluateRequest{CaseID: first.CaseID, Profile: eligibleProfile()})
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.CRS, second.CRS)
	assert.Equal(t, first.Eligibility, second.Eligibility)
	assert.Equal(t, 2, second.Version)
}

// A married profile without a spouse block still evaluates, but the
// persisted snapshot must carry the spouse-required flag.
func TestEvaluateMarriedWithoutSpouseFlagsReason(t *testing.T) {
	svc, store := newTestService(t)
	ctx := tenantContext(domain.NewTenantID())

	profile := eligibleProfile()
	profile.MaritalStatus = domain.MaritalMarried
	profile.FamilySize = 2

	result, err := svc.Evaluate(ctx, EvaluateRequest{Profile: profile})
	require.NoError(t, err)
	assert.Contains(t, result.CRS.Reasons, domain.ReasonSpouseRequired)

	snapshot, err := store.GetSnapshot(ctx, result.CaseID, 1)
	require.NoError(t, err)
	assert.Contains(t, snapshot.CRS.Reasons, domain.ReasonSpouseRequired)
}

func TestEvaluateConvertsRawLanguageScores(t *testing.T) {
	svc, store := newTestService(t)
	ctx := tenantContext(domain.NewTenantID())

	profile := eligibleProfile()
	profile.LanguageTests = nil

	result, err := svc.Evaluate(ctx, EvaluateRequest{
		Profile: profile,
		RawLanguageTests: []intake.RawLanguageTest{{
			TestType:  "IELTS",
			Language:  domain.LanguageEnglish,
			TakenAt:   date(2025, 6, 1),
			ExpiresAt: date(2027, 6, 1),
			Scores:    intake.RawScores{Reading: 8.0, Writing: 7.5, Listening: 8.0, Speaking: 7.5},
		}},
	})
	require.NoError(t, err)

	snapshot, err := store.GetSnapshot(ctx, result.CaseID, 1)
	require.NoError(t, err)
	require.Len(t, snapshot.Profile.LanguageTests, 1)
	assert.Equal(t, domain.CLBScores{Reading: 10, Writing: 10, Listening: 9, Speaking: 10},
		snapshot.Profile.LanguageTests[0].CLB)
}

func TestReevaluateMergesPatch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := tenantContext(domain.NewTenantID())

	first, err := svc.Evaluate(ctx, EvaluateRequest{Profile: eligibleProfile()})
	require.NoError(t, err)

	patch, err := intake.DecodePatch([]byte(`{"provincial_nomination":true}`))
	require.NoError(t, err)

	second, err := svc.Reevaluate(ctx, first.CaseID, patch)
	require.NoError(t, err)

	assert.Equal(t, 2, second.Version)
	assert.Equal(t, first.CRS.Total+600, second.CRS.Total)
	assert.NotEqual(t, first.Fingerprint, second.Fingerprint)
}

func TestReevaluateUnknownCase(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := tenantContext(domain.NewTenantID())

	patch, err := intake.DecodePatch([]byte(`{"family_size":2}`))
	require.NoError(t, err)

	_, err = svc.Reevaluate(ctx, domain.NewCaseID(), patch)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestEvaluateRejectsInvalidProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := tenantContext(domain.NewTenantID())

	profile := eligibleProfile()
	profile.FamilySize = 0

	_, err := svc.Evaluate(ctx, EvaluateRequest{Profile: profile})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestEvaluateIncompleteProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := tenantContext(domain.NewTenantID())

	profile := eligibleProfile()
	profile.BirthDate = time.Time{}

	_, err := svc.Evaluate(ctx, EvaluateRequest{Profile: profile})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeIncompleteInput))
}

func TestEvaluateNoEligibleProgramSkipsMatrix(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := tenantContext(domain.NewTenantID())

	profile := eligibleProfile()
	profile.LanguageTests = nil
	profile.WorkHistory = nil
	profile.ProofOfFunds = nil

	result, err := svc.Evaluate(ctx, EvaluateRequest{Profile: profile})
	require.NoError(t, err)

	assert.Empty(t, result.PrimaryRecommendation)
	assert.Empty(t, result.Matrix.Documents)
	for _, ev := range result.Eligibility {
		assert.False(t, ev.Eligible, "%s should be ineligible", ev.Program)
	}
}

// Concurrent evaluations of one case must all land, with distinct
// contiguous versions and identical fingerprints.
func TestConcurrentEvaluationsOfOneCase(t *testing.T) {
	svc, store := newTestService(t)
	ctx := tenantContext(domain.NewTenantID())

	first, err := svc.Evaluate(ctx, EvaluateRequest{Profile: eligibleProfile()})
	require.NoError(t, err)

	const runs = 8
	results := make([]*domain.EvaluationResult, runs)
	errs := make([]error, runs)
	var wg sync.WaitGroup
	for i := range runs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.Evaluate(ctx, EvaluateRequest{CaseID: first.CaseID, Profile: eligibleProfile()})
		}()
	}
	wg.Wait()

	for i := range runs {
		require.NoError(t, errs[i])
		assert.Equal(t, first.Fingerprint, results[i].Fingerprint)
	}

	snapshots, err := store.ListSnapshots(ctx, first.CaseID)
	require.NoError(t, err)
	require.Len(t, snapshots, runs+1)
	for i, snapshot := range snapshots {
		assert.Equal(t, i+1, snapshot.Version)
	}
}

func TestAssessReadinessRecordsVerdict(t *testing.T) {
	svc, store := newTestService(t)
	ctx := tenantContext(domain.NewTenantID())

	result, err := svc.Evaluate(ctx, EvaluateRequest{Profile: eligibleProfile()})
	require.NoError(t, err)

	uploaded := make([]string, 0, len(result.Matrix.Documents))
	for _, doc := range result.Matrix.Documents {
		uploaded = append(uploaded, doc.ID)
	}

	report, err := svc.AssessReadiness(ctx, result.CaseID, uploaded)
	require.NoError(t, err)
	assert.Equal(t, result.CaseID, report.CaseID)
	assert.Empty(t, report.MissingDocuments)

	trail, err := store.ListEvents(ctx, result.CaseID)
	require.NoError(t, err)
	var recorded bool
	for _, event := range trail {
		if event.Type == domain.EventReadinessAssessed {
			recorded = true
			assert.Equal(t, string(report.Verdict), event.Metadata["verdict"])
		}
	}
	assert.True(t, recorded, "readiness verdict not recorded in ledger")
}

func TestAssessReadinessWithoutEvaluation(t *testing.T) {
	svc, store := newTestService(t)
	tenantID := domain.NewTenantID()
	ctx := tenantContext(tenantID)

	caseID := domain.NewCaseID()
	require.NoError(t, store.CreateCase(ctx, &domain.CaseRecord{
		ID: caseID, TenantID: tenantID, Status: domain.CaseStatusDraft,
		CreatedAt: evalTime, UpdatedAt: evalTime,
	}))

	_, err := svc.AssessReadiness(ctx, caseID, nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}
