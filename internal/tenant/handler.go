package tenant

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"maplecase/pkg/domain"
	"maplecase/pkg/platform/httputil"
	"maplecase/pkg/requestcontext"
)

// CreateRequest is the wire form of a tenant provisioning request.
type CreateRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CreateResponse returns the tenant with its one-time plaintext secret.
type CreateResponse struct {
	Tenant *Tenant `json:"tenant"`
	Secret string  `json:"secret"`
}

// Handler serves the tenant provisioning API. These endpoints are
// operator-facing and mounted outside the tenant-scoped middleware.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the tenant handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts tenant endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/tenants", h.HandleCreate)
	r.Get("/tenants/{tenantID}", h.HandleGet)
	r.Post("/tenants/{tenantID}/deactivate", h.HandleDeactivate)
	r.Post("/tenants/{tenantID}/activate", h.HandleActivate)
}

// HandleCreate handles POST /tenants.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	t, secret, err := h.service.Create(ctx, req.Name, req.Slug)
	if err != nil {
		h.logger.ErrorContext(ctx, "tenant creation failed",
			"request_id", requestID,
			"slug", req.Slug,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, CreateResponse{Tenant: t, Secret: secret})
}

// HandleGet handles GET /tenants/{tenantID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, err := domain.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	t, err := h.service.Get(ctx, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

// HandleDeactivate handles POST /tenants/{tenantID}/deactivate.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.service.Deactivate)
}

// HandleActivate handles POST /tenants/{tenantID}/activate.
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.service.Reactivate)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.TenantID) error) {
	ctx := r.Context()

	tenantID, err := domain.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := op(ctx, tenantID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
