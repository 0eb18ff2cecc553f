package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"casefile/internal/platform/middleware"
	"casefile/internal/suspects/models"
	"casefile/internal/transport/http/shared"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/requestcontext"
)

// Service defines the suspect operations the handler exposes.
type Service interface {
	Identify(ctx context.Context, actor id.ActorID, caseID id.CaseID, personID id.PersonID, reason string) (*models.Suspect, error)
	ChangeStatus(ctx context.Context, actor id.ActorID, suspectID id.SuspectID, newStatus models.SuspectStatus) (*models.Suspect, error)
	Get(ctx context.Context, actor id.ActorID, suspectID id.SuspectID) (*models.Suspect, error)
	ListByCase(ctx context.Context, actor id.ActorID, caseID id.CaseID) ([]*models.Suspect, error)
	WantedList(ctx context.Context) ([]*models.WantedEntry, error)
}

// Handler wires suspect endpoints to the suspect service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts authenticated suspect endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/cases/{caseID}/suspects", h.HandleIdentify)
	r.Get("/cases/{caseID}/suspects", h.HandleListByCase)
	r.Get("/suspects/{suspectID}", h.HandleGet)
	r.Post("/suspects/{suspectID}/status", h.HandleChangeStatus)
}

// RegisterPublic mounts the public wanted list. No auth; anyone may look.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/wanted", h.HandleWantedList)
}

type identifyRequest struct {
	PersonID string `json:"person_id"`
	Reason   string `json:"reason"`
}

func (h *Handler) HandleIdentify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid case id"))
		return
	}
	req, ok := shared.DecodeJSON[identifyRequest](w, r)
	if !ok {
		return
	}
	personID, err := id.ParsePersonID(req.PersonID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid person id"))
		return
	}

	suspect, err := h.service.Identify(ctx, middleware.GetActorID(ctx), caseID, personID, req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "suspect identification failed",
			"request_id", requestcontext.RequestID(ctx),
			"case_id", caseID,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, suspect)
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) HandleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	suspectID, err := id.ParseSuspectID(chi.URLParam(r, "suspectID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid suspect id"))
		return
	}
	req, ok := shared.DecodeJSON[changeStatusRequest](w, r)
	if !ok {
		return
	}

	suspect, err := h.service.ChangeStatus(ctx, middleware.GetActorID(ctx), suspectID, models.SuspectStatus(req.Status))
	if err != nil {
		h.logger.ErrorContext(ctx, "suspect status change failed",
			"request_id", requestcontext.RequestID(ctx),
			"suspect_id", suspectID,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, suspect)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	suspectID, err := id.ParseSuspectID(chi.URLParam(r, "suspectID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid suspect id"))
		return
	}
	suspect, err := h.service.Get(ctx, middleware.GetActorID(ctx), suspectID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, suspect)
}

func (h *Handler) HandleListByCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid case id"))
		return
	}
	suspects, err := h.service.ListByCase(ctx, middleware.GetActorID(ctx), caseID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, suspects)
}

func (h *Handler) HandleWantedList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.WantedList(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "wanted list failed", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, entries)
}
