// Package tenantctx resolves the tenant and actor for a request.
//
// Authentication itself happens upstream; the gateway forwards the
// resolved identity as headers. This middleware is the single place that
// trusts those headers, so swapping in a real token verifier later only
// touches this package.
package tenantctx

import (
	"net/http"

	id "maplecase/pkg/domain"
	dErrors "maplecase/pkg/domain-errors"
	"maplecase/pkg/platform/httputil"
	"maplecase/pkg/requestcontext"
)

const (
	// HeaderTenantID carries the resolved tenant UUID.
	HeaderTenantID = "X-Tenant-ID"
	// HeaderActor carries the opaque acting-user identifier.
	HeaderActor = "X-Actor"
	// HeaderRequestID carries the upstream correlation ID, if any.
	HeaderRequestID = "X-Request-ID"
)

// RequireTenant extracts tenant and actor headers, validates them, and
// injects them into the request context. Requests without a valid tenant
// are rejected before reaching any handler.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := id.ParseTenantID(r.Header.Get(HeaderTenantID))
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "tenant not resolved"))
			return
		}

		actor := r.Header.Get(HeaderActor)
		if actor == "" {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "actor not resolved"))
			return
		}

		ctx := requestcontext.WithTenantID(r.Context(), tenantID)
		ctx = requestcontext.WithActor(ctx, actor)
		if reqID := r.Header.Get(HeaderRequestID); reqID != "" {
			ctx = requestcontext.WithRequestID(ctx, reqID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
