// Package httptransport assembles the public HTTP surface. It wires
// middleware and mounts module handlers; business logic stays in the
// module services.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	evalhandler "maplecase/internal/evaluation/handler"
	"maplecase/internal/tenant"
	"maplecase/pkg/platform/httputil"
	"maplecase/pkg/platform/middleware/metadata"
	"maplecase/pkg/platform/middleware/requesttime"
	"maplecase/pkg/platform/middleware/tenantctx"
)

// NewRouter builds the full router. Case routes live under /v1 and
// require a resolved tenant; tenant provisioning is operator-facing and
// mounted outside the tenant boundary.
func NewRouter(cases *evalhandler.Handler, tenants *tenant.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/admin", func(r chi.Router) {
		tenants.Register(r)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(tenantctx.RequireTenant)
		cases.Register(r)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
