package httptransport

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	evalhandler "maplecase/internal/evaluation/handler"
	"maplecase/internal/evaluation/handler/mocks"
	"maplecase/internal/ledger"
	"maplecase/internal/tenant"
	"maplecase/pkg/domain"
	"maplecase/pkg/platform/middleware/tenantctx"
	"maplecase/pkg/testutil"
)

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockService) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockService(ctrl)
	lc := mocks.NewMockLifecycle(ctrl)

	cases := evalhandler.New(service, lc, slog.Default())
	tenants := tenant.NewHandler(tenant.NewService(tenant.NewMemoryStore(), slog.Default()), slog.Default())
	return NewRouter(cases, tenants), service
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestMetricsExposed(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestCaseRoutesRequireTenant(t *testing.T) {
	router, _ := newTestRouter(t)

	req := testutil.NewRequest(t, http.MethodGet, "/v1/cases/"+domain.NewCaseID().String()+"/history")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}

func TestCaseRouteWithTenantReachesHandler(t *testing.T) {
	router, service := newTestRouter(t)

	caseID := domain.NewCaseID()
	service.EXPECT().History(gomock.Any(), caseID).Return(&ledger.CaseHistory{}, nil)

	req := testutil.NewRequest(t, http.MethodGet, "/v1/cases/"+caseID.String()+"/history")
	req.Header.Set(tenantctx.HeaderTenantID, domain.NewTenantID().String())
	req.Header.Set(tenantctx.HeaderActor, "agent:test")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestTenantRoutesOutsideTenantBoundary(t *testing.T) {
	router, _ := newTestRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/tenants", tenant.CreateRequest{
		Name: "Northern Gate",
		Slug: "northern-gate",
	})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusCreated)
}
