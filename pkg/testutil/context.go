package testutil

import (
	"net/http"
	"time"

	id "maplecase/pkg/domain"
	"maplecase/pkg/requestcontext"
)

// WithTenant adds a tenant ID and actor to the request context, simulating
// what the tenant middleware does for authenticated requests. An invalid
// tenant ID is silently ignored.
func WithTenant(req *http.Request, tenantID, actor string) *http.Request {
	ctx := req.Context()
	if parsed, err := id.ParseTenantID(tenantID); err == nil {
		ctx = requestcontext.WithTenantID(ctx, parsed)
	}
	if actor != "" {
		ctx = requestcontext.WithActor(ctx, actor)
	}
	return req.WithContext(ctx)
}

// WithTime pins the request-scoped evaluation time.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
