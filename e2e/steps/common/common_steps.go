// Package common holds step definitions shared by every feature:
// service availability, tenant provisioning, and response assertions.
package common

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the main test context these steps need.
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	ResponseField(path string) (any, error)
	LastStatus() int
	TenantID() string
	SetTenantID(id string)
}

// RegisterSteps registers the shared step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the service is running$`, steps.serviceIsRunning)
	ctx.Step(`^a provisioned tenant$`, steps.provisionedTenant)
	ctx.Step(`^the response status is (\d+)$`, steps.responseStatusIs)
	ctx.Step(`^the response field "([^"]*)" equals "([^"]*)"$`, steps.responseFieldEquals)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceIsRunning(ctx context.Context) error {
	if err := s.tc.GET("/healthz"); err != nil {
		return err
	}
	if s.tc.LastStatus() != 200 {
		return fmt.Errorf("health check returned %d", s.tc.LastStatus())
	}
	return nil
}

func (s *commonSteps) provisionedTenant(ctx context.Context) error {
	if s.tc.TenantID() != "" {
		return nil
	}
	if err := s.tc.POST("/admin/tenants", map[string]any{
		"name": "E2E Immigration Services",
		"slug": fmt.Sprintf("e2e-%d", time.Now().UnixNano()),
	}); err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("tenant creation returned %d", s.tc.LastStatus())
	}
	id, err := s.tc.ResponseField("tenant.id")
	if err != nil {
		return err
	}
	s.tc.SetTenantID(id.(string))
	return nil
}

func (s *commonSteps) responseStatusIs(ctx context.Context, status int) error {
	if s.tc.LastStatus() != status {
		return fmt.Errorf("expected status %d, got %d", status, s.tc.LastStatus())
	}
	return nil
}

func (s *commonSteps) responseFieldEquals(ctx context.Context, path, want string) error {
	got, err := s.tc.ResponseField(path)
	if err != nil {
		return err
	}
	if fmt.Sprintf("%v", got) != want {
		return fmt.Errorf("field %q: expected %q, got %v", path, want, got)
	}
	return nil
}
