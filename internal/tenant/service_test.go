package tenant

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "maplecase/pkg/domain-errors"
	"maplecase/pkg/requestcontext"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService() *Service {
	return NewService(NewMemoryStore(), slog.Default())
}

func testContext() context.Context {
	return requestcontext.WithTime(context.Background(), fixedTime)
}

func TestCreateReturnsOneTimeSecret(t *testing.T) {
	svc := newTestService()
	ctx := testContext()

	created, secret, err := svc.Create(ctx, "Northern Gate Immigration", "northern-gate")
	require.NoError(t, err)

	assert.Equal(t, "Northern Gate Immigration", created.Name)
	assert.Equal(t, "northern-gate", created.Slug)
	assert.True(t, created.Active)
	assert.Equal(t, fixedTime, created.CreatedAt)
	assert.NotEmpty(t, secret)
	assert.NotContains(t, created.SecretHash, secret)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService()
	ctx := testContext()

	cases := []struct {
		name     string
		tenant   string
		slug     string
		wantCode dErrors.Code
	}{
		{"missing name", "", "northern-gate", dErrors.CodeIncompleteInput},
		{"uppercase slug", "Northern Gate", "Northern-Gate", dErrors.CodeInvalidInput},
		{"slug with spaces", "Northern Gate", "northern gate", dErrors.CodeInvalidInput},
		{"trailing hyphen", "Northern Gate", "northern-gate-", dErrors.CodeInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Create(ctx, tc.tenant, tc.slug)
			assert.True(t, dErrors.HasCode(err, tc.wantCode), "got %v", err)
		})
	}
}

func TestCreateDuplicateSlugConflicts(t *testing.T) {
	svc := newTestService()
	ctx := testContext()

	_, _, err := svc.Create(ctx, "Northern Gate", "northern-gate")
	require.NoError(t, err)

	_, _, err = svc.Create(ctx, "Another Firm", "northern-gate")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict), "got %v", err)
}

func TestAuthenticateRoundTrip(t *testing.T) {
	svc := newTestService()
	ctx := testContext()

	created, secret, err := svc.Create(ctx, "Northern Gate", "northern-gate")
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, "northern-gate", secret)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Authenticate(ctx, "northern-gate", "not-the-secret")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized), "got %v", err)

	_, err = svc.Authenticate(ctx, "no-such-tenant", secret)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized), "got %v", err)
}

func TestDeactivatedTenantCannotAuthenticate(t *testing.T) {
	svc := newTestService()
	ctx := testContext()

	created, secret, err := svc.Create(ctx, "Northern Gate", "northern-gate")
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, created.ID))

	_, err = svc.Authenticate(ctx, "northern-gate", secret)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden), "got %v", err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}
