package tenant

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maplecase/pkg/domain"
	"maplecase/pkg/testutil"
)

func setupHandler() (*Service, chi.Router) {
	svc := newTestService()
	handler := NewHandler(svc, slog.Default())
	r := chi.NewRouter()
	handler.Register(r)
	return svc, r
}

func TestHandleCreate(t *testing.T) {
	_, router := setupHandler()

	req := testutil.NewJSONRequest(t, http.MethodPost, "/tenants", CreateRequest{
		Name: "Northern Gate Immigration",
		Slug: "northern-gate",
	})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusCreated)
	resp := testutil.UnmarshalResponse[CreateResponse](t, rr)
	assert.Equal(t, "northern-gate", resp.Tenant.Slug)
	assert.True(t, resp.Tenant.Active)
	assert.NotEmpty(t, resp.Secret)
	assert.Empty(t, resp.Tenant.SecretHash)
}

func TestHandleCreateRejectsUnknownFields(t *testing.T) {
	_, router := setupHandler()

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/tenants",
		`{"name":"Northern Gate","slug":"northern-gate","plan":"gold"}`)
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
}

func TestHandleCreateInvalidSlug(t *testing.T) {
	_, router := setupHandler()

	req := testutil.NewJSONRequest(t, http.MethodPost, "/tenants", CreateRequest{
		Name: "Northern Gate",
		Slug: "Northern Gate",
	})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
}

func TestHandleCreateDuplicateSlug(t *testing.T) {
	svc, router := setupHandler()
	_, _, err := svc.Create(testContext(), "Northern Gate", "northern-gate")
	require.NoError(t, err)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/tenants", CreateRequest{
		Name: "Another Firm",
		Slug: "northern-gate",
	})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
}

func TestHandleGet(t *testing.T) {
	svc, router := setupHandler()
	created, _, err := svc.Create(testContext(), "Northern Gate", "northern-gate")
	require.NoError(t, err)

	req := testutil.NewRequest(t, http.MethodGet, "/tenants/"+created.ID.String())
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[Tenant](t, rr)
	assert.Equal(t, created.ID, resp.ID)
	assert.Equal(t, "Northern Gate", resp.Name)
}

func TestHandleGetNotFound(t *testing.T) {
	_, router := setupHandler()

	req := testutil.NewRequest(t, http.MethodGet, "/tenants/"+domain.NewTenantID().String())
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestHandleDeactivateAndActivate(t *testing.T) {
	svc, router := setupHandler()
	created, secret, err := svc.Create(testContext(), "Northern Gate", "northern-gate")
	require.NoError(t, err)

	rr := testutil.DoRequest(router, testutil.NewRequest(t,
		http.MethodPost, "/tenants/"+created.ID.String()+"/deactivate"))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	_, err = svc.Authenticate(testContext(), "northern-gate", secret)
	assert.Error(t, err)

	rr = testutil.DoRequest(router, testutil.NewRequest(t,
		http.MethodPost, "/tenants/"+created.ID.String()+"/activate"))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	_, err = svc.Authenticate(testContext(), "northern-gate", secret)
	assert.NoError(t, err)
}

func TestHandleDeactivateUnknownTenant(t *testing.T) {
	_, router := setupHandler()

	rr := testutil.DoRequest(router, testutil.NewRequest(t,
		http.MethodPost, "/tenants/"+domain.NewTenantID().String()+"/deactivate"))

	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestHandleGetBadID(t *testing.T) {
	_, router := setupHandler()

	req := testutil.NewRequest(t, http.MethodGet, "/tenants/not-a-uuid")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}
