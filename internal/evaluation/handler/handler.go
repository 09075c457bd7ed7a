// Package handler wires the case evaluation endpoints to the evaluation
// and lifecycle services.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"maplecase/internal/evaluation"
	"maplecase/internal/intake"
	"maplecase/internal/ledger"
	"maplecase/pkg/domain"
	dErrors "maplecase/pkg/domain-errors"
	"maplecase/pkg/platform/httputil"
	"maplecase/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/services.go -package=mocks

// Service defines the evaluation operations the handler depends on.
type Service interface {
	Evaluate(ctx context.Context, req evaluation.EvaluateRequest) (*domain.EvaluationResult, error)
	Reevaluate(ctx context.Context, caseID domain.CaseID, patch *intake.ProfilePatch) (*domain.EvaluationResult, error)
	History(ctx context.Context, caseID domain.CaseID) (*ledger.CaseHistory, error)
	Snapshot(ctx context.Context, caseID domain.CaseID, version int) (*domain.CaseSnapshot, error)
	AssessReadiness(ctx context.Context, caseID domain.CaseID, uploaded []string) (*domain.ReadinessReport, error)
	DeleteCase(ctx context.Context, caseID domain.CaseID) error
}

// Lifecycle defines the status transition operation.
type Lifecycle interface {
	Transition(ctx context.Context, caseID domain.CaseID, target domain.CaseStatus) (*domain.CaseRecord, error)
}

// Handler serves the case evaluation API.
type Handler struct {
	service   Service
	lifecycle Lifecycle
	logger    *slog.Logger
}

// New constructs the handler with its dependencies.
func New(service Service, lifecycle Lifecycle, logger *slog.Logger) *Handler {
	return &Handler{service: service, lifecycle: lifecycle, logger: logger}
}

// Register mounts the case endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/cases/evaluate", h.HandleEvaluate)
	r.Patch("/cases/{caseID}/profile", h.HandlePatchProfile)
	r.Get("/cases/{caseID}/history", h.HandleHistory)
	r.Get("/cases/{caseID}/snapshots/{version}", h.HandleSnapshot)
	r.Post("/cases/{caseID}/transition", h.HandleTransition)
	r.Post("/cases/{caseID}/readiness", h.HandleReadiness)
	r.Delete("/cases/{caseID}", h.HandleDelete)
}

// HandleEvaluate handles POST /cases/evaluate.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	caseID, err := req.ParsedCaseID()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Evaluate(ctx, evaluation.EvaluateRequest{
		CaseID:           caseID,
		Label:            req.Label,
		Profile:          req.Profile,
		RawLanguageTests: req.RawLanguageTests,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "evaluation failed",
			"request_id", requestID,
			"case_id", req.CaseID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "evaluation served",
		"request_id", requestID,
		"case_id", result.CaseID,
		"version", result.Version,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandlePatchProfile handles PATCH /cases/{caseID}/profile. The body is
// a partial profile; it merges into the latest snapshot's profile and
// the merged result is evaluated as the case's next version.
func (h *Handler) HandlePatchProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	caseID, err := domain.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unreadable request body"))
		return
	}
	patch, err := intake.DecodePatch(body)
	if err != nil {
		h.logger.WarnContext(ctx, "profile patch decode failed",
			"request_id", requestID,
			"case_id", caseID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Reevaluate(ctx, caseID, patch)
	if err != nil {
		h.logger.ErrorContext(ctx, "profile patch evaluation failed",
			"request_id", requestID,
			"case_id", caseID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "profile patch evaluated",
		"request_id", requestID,
		"case_id", result.CaseID,
		"version", result.Version,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleHistory handles GET /cases/{caseID}/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := domain.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	history, err := h.service.History(ctx, caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

// HandleSnapshot handles GET /cases/{caseID}/snapshots/{version}.
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := domain.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "snapshot version must be an integer"))
		return
	}

	snapshot, err := h.service.Snapshot(ctx, caseID, version)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snapshot)
}

// HandleTransition handles POST /cases/{caseID}/transition.
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caseID, err := domain.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	target, err := req.ParsedTarget()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.lifecycle.Transition(ctx, caseID, target)
	if err != nil {
		h.logger.ErrorContext(ctx, "transition failed",
			"request_id", requestID,
			"case_id", caseID,
			"target", target,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleReadiness handles POST /cases/{caseID}/readiness.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caseID, err := domain.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReadinessRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	report, err := h.service.AssessReadiness(ctx, caseID, req.UploadedDocuments)
	if err != nil {
		h.logger.ErrorContext(ctx, "readiness assessment failed",
			"request_id", requestID,
			"case_id", caseID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleDelete handles DELETE /cases/{caseID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := domain.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DeleteCase(ctx, caseID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
