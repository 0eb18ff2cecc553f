package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"casefile/internal/cases/models"
	casesservice "casefile/internal/cases/service"
	"casefile/internal/platform/middleware"
	"casefile/internal/transport/http/shared"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/requestcontext"
)

// Service defines the case operations the handler exposes.
type Service interface {
	Create(ctx context.Context, actor id.ActorID, in casesservice.CreateCaseInput) (*models.Case, error)
	Submit(ctx context.Context, actor id.ActorID, caseID id.CaseID) (*models.Case, error)
	CadetReview(ctx context.Context, actor id.ActorID, caseID id.CaseID, decision models.ReviewDecision, reason string) (*models.Case, error)
	OfficerReview(ctx context.Context, actor id.ActorID, caseID id.CaseID, decision models.ReviewDecision, reason string) (*models.Case, error)
	StartInvestigation(ctx context.Context, actor id.ActorID, caseID id.CaseID) (*models.Case, error)
	Close(ctx context.Context, actor id.ActorID, caseID id.CaseID) (*models.Case, error)
	Get(ctx context.Context, actor id.ActorID, caseID id.CaseID) (*models.Case, error)
	ListVisible(ctx context.Context, actor id.ActorID) ([]*models.Case, error)
	Reviews(ctx context.Context, actor id.ActorID, caseID id.CaseID) ([]*models.CaseReview, error)
}

// Handler wires case endpoints to the case service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts case endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/cases", h.HandleCreate)
	r.Get("/cases", h.HandleList)
	r.Get("/cases/{caseID}", h.HandleGet)
	r.Get("/cases/{caseID}/reviews", h.HandleReviews)
	r.Post("/cases/{caseID}/submit", h.HandleSubmit)
	r.Post("/cases/{caseID}/cadet-review", h.HandleCadetReview)
	r.Post("/cases/{caseID}/officer-review", h.HandleOfficerReview)
	r.Post("/cases/{caseID}/investigate", h.HandleStartInvestigation)
	r.Post("/cases/{caseID}/close", h.HandleClose)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActorID(ctx)

	req, ok := shared.DecodeJSON[createRequest](w, r)
	if !ok {
		return
	}
	in, err := req.toInput()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	c, err := h.service.Create(ctx, actor, in)
	if err != nil {
		h.logError(ctx, "case creation failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cases, err := h.service.ListVisible(ctx, middleware.GetActorID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, cases)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(ctx, middleware.GetActorID(ctx), caseID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) HandleReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	reviews, err := h.service.Reviews(ctx, middleware.GetActorID(ctx), caseID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reviews)
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "case submission failed", h.service.Submit)
}

func (h *Handler) HandleStartInvestigation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "starting investigation failed", h.service.StartInvestigation)
}

func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "case close failed", h.service.Close)
}

func (h *Handler) HandleCadetReview(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.CadetReview)
}

func (h *Handler) HandleOfficerReview(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.OfficerReview)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, logMsg string, op func(context.Context, id.ActorID, id.CaseID) (*models.Case, error)) {
	ctx := r.Context()
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	c, err := op(ctx, middleware.GetActorID(ctx), caseID)
	if err != nil {
		h.logError(ctx, logMsg, err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, op func(context.Context, id.ActorID, id.CaseID, models.ReviewDecision, string) (*models.Case, error)) {
	ctx := r.Context()
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	req, ok := shared.DecodeJSON[reviewRequest](w, r)
	if !ok {
		return
	}
	c, err := op(ctx, middleware.GetActorID(ctx), caseID, models.ReviewDecision(req.Decision), req.Reason)
	if err != nil {
		h.logError(ctx, "case review failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) caseID(w http.ResponseWriter, r *http.Request) (id.CaseID, bool) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid case id"))
		return id.CaseID{}, false
	}
	return caseID, true
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"actor_id", requestcontext.ActorID(ctx),
		"error", err,
	)
}
