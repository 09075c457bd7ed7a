// Package cases holds step definitions for the case evaluation flow:
// evaluate, re-evaluate, history, lifecycle transitions, and readiness.
package cases

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the main test context these steps need.
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	ResponseField(path string) (any, error)
	LastStatus() int
	CaseID() string
	SetCaseID(id string)
}

// RegisterSteps registers the case flow step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &caseSteps{tc: tc}

	ctx.Step(`^I evaluate a new skilled worker case$`, steps.evaluateNewCase)
	ctx.Step(`^I re-evaluate the same case$`, steps.reevaluateCase)
	ctx.Step(`^I fetch the case history$`, steps.fetchHistory)
	ctx.Step(`^the history has (\d+) snapshots?$`, steps.historyHasSnapshots)
	ctx.Step(`^I transition the case to "([^"]*)"$`, steps.transitionCase)
	ctx.Step(`^I request a readiness assessment$`, steps.requestReadiness)
}

type caseSteps struct {
	tc TestContext
}

// skilledWorkerProfile is a single FSW-eligible candidate: CLB 9 across
// the board, a bachelor's degree, five years of continuous foreign TEER 1
// experience, and sufficient settlement funds.
func skilledWorkerProfile() map[string]any {
	return map[string]any{
		"birth_date":     "1997-02-14T00:00:00Z",
		"marital_status": "single",
		"citizenship":    "IN",
		"family_size":    1,
		"education": []map[string]any{
			{"level": "bachelors", "name": "BSc Computer Science", "duration_years": 4,
				"completed_at": "2018-06-30T00:00:00Z"},
		},
		"language_tests": []map[string]any{
			{"test_type": "IELTS", "language": "english",
				"taken_at": "2025-11-10T00:00:00Z", "expires_at": "2027-11-10T00:00:00Z",
				"clb": map[string]int{"reading": 9, "writing": 9, "listening": 9, "speaking": 9}},
		},
		"work_history": []map[string]any{
			{"employer": "Infotech Ltd", "noc": "21231", "teer": 1,
				"start_date": "2021-01-01T00:00:00Z", "end_date": "2026-01-01T00:00:00Z",
				"continuous": true, "paid": true},
		},
		"proof_of_funds": []map[string]any{
			{"amount_cents": 2000000, "currency": "CAD", "taken_at": "2026-02-01T00:00:00Z"},
		},
	}
}

func (s *caseSteps) evaluateNewCase(ctx context.Context) error {
	if err := s.tc.POST("/v1/cases/evaluate", map[string]any{
		"label":   "Singh, Priya",
		"profile": skilledWorkerProfile(),
	}); err != nil {
		return err
	}
	if s.tc.LastStatus() != 200 {
		return fmt.Errorf("evaluate returned %d", s.tc.LastStatus())
	}
	caseID, err := s.tc.ResponseField("case_id")
	if err != nil {
		return err
	}
	s.tc.SetCaseID(caseID.(string))
	return nil
}

func (s *caseSteps) reevaluateCase(ctx context.Context) error {
	return s.tc.POST("/v1/cases/evaluate", map[string]any{
		"case_id": s.tc.CaseID(),
		"label":   "Singh, Priya",
		"profile": skilledWorkerProfile(),
	})
}

func (s *caseSteps) fetchHistory(ctx context.Context) error {
	return s.tc.GET("/v1/cases/" + s.tc.CaseID() + "/history")
}

func (s *caseSteps) historyHasSnapshots(ctx context.Context, want int) error {
	snapshots, err := s.tc.ResponseField("snapshots")
	if err != nil {
		return err
	}
	list, ok := snapshots.([]any)
	if !ok {
		return fmt.Errorf("snapshots is not a list")
	}
	if len(list) != want {
		return fmt.Errorf("expected %d snapshots, got %d", want, len(list))
	}
	return nil
}

func (s *caseSteps) transitionCase(ctx context.Context, target string) error {
	return s.tc.POST("/v1/cases/"+s.tc.CaseID()+"/transition", map[string]any{
		"target": target,
	})
}

func (s *caseSteps) requestReadiness(ctx context.Context) error {
	return s.tc.POST("/v1/cases/"+s.tc.CaseID()+"/readiness", map[string]any{
		"uploaded_documents": []string{},
	})
}
