// Package e2e drives the running service over HTTP with godog scenarios.
// Point MAPLECASE_E2E_URL at a server started with in-memory stores (no
// MAPLECASE_DATABASE_URL) for a self-contained run.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// TestContext carries HTTP state between steps of one scenario.
type TestContext struct {
	baseURL string
	client  *http.Client

	tenantID string
	actor    string

	lastStatus int
	lastBody   map[string]any

	caseID string
}

// NewTestContext builds a context against the configured base URL.
func NewTestContext() *TestContext {
	baseURL := os.Getenv("MAPLECASE_E2E_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &TestContext{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		actor:   "agent:e2e",
	}
}

// Reset clears per-scenario state. The tenant survives so scenarios can
// share one provisioned tenant per feature run.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.caseID = ""
}

// POST sends a JSON body and records the response.
func (tc *TestContext) POST(path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, tc.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req)
}

// GET fetches a path and records the response.
func (tc *TestContext) GET(path string) error {
	req, err := http.NewRequest(http.MethodGet, tc.baseURL+path, nil)
	if err != nil {
		return err
	}
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	if tc.tenantID != "" {
		req.Header.Set("X-Tenant-ID", tc.tenantID)
		req.Header.Set("X-Actor", tc.actor)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody = nil
	_ = json.NewDecoder(resp.Body).Decode(&tc.lastBody)
	return nil
}

// ResponseField digs a dotted path out of the last response body.
func (tc *TestContext) ResponseField(path string) (any, error) {
	var current any = tc.lastBody
	for _, key := range splitPath(path) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q not found in response", path)
		}
		current, ok = m[key]
		if !ok {
			return nil, fmt.Errorf("field %q not found in response", path)
		}
	}
	return current, nil
}

// LastStatus returns the status code of the last response.
func (tc *TestContext) LastStatus() int { return tc.lastStatus }

// TenantID returns the provisioned tenant, if any.
func (tc *TestContext) TenantID() string { return tc.tenantID }

// SetTenantID records the tenant used on subsequent case requests.
func (tc *TestContext) SetTenantID(id string) { tc.tenantID = id }

// CaseID returns the case created in this scenario.
func (tc *TestContext) CaseID() string { return tc.caseID }

// SetCaseID records the case under test.
func (tc *TestContext) SetCaseID(id string) { tc.caseID = id }

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	return append(parts, path[start:])
}
