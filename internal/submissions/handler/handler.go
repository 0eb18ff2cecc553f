package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"casefile/internal/platform/middleware"
	"casefile/internal/submissions/models"
	"casefile/internal/transport/http/shared"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/requestcontext"
)

// Service defines the submission operations the handler exposes.
type Service interface {
	Submit(ctx context.Context, actor id.ActorID, caseID id.CaseID, suspectIDs []id.SuspectID, reasoning string) (*models.SuspectSubmission, error)
	Review(ctx context.Context, actor id.ActorID, submissionID id.SubmissionID, approve bool, notes string) (*models.SuspectSubmission, error)
	Get(ctx context.Context, actor id.ActorID, submissionID id.SubmissionID) (*models.SuspectSubmission, error)
	ListByCase(ctx context.Context, actor id.ActorID, caseID id.CaseID) ([]*models.SuspectSubmission, error)
}

// Handler wires submission endpoints to the submission service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts submission endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/cases/{caseID}/submissions", h.HandleSubmit)
	r.Get("/cases/{caseID}/submissions", h.HandleListByCase)
	r.Get("/submissions/{submissionID}", h.HandleGet)
	r.Post("/submissions/{submissionID}/review", h.HandleReview)
}

type submitRequest struct {
	SuspectIDs []string `json:"suspect_ids"`
	Reasoning  string   `json:"reasoning"`
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid case id"))
		return
	}
	req, ok := shared.DecodeJSON[submitRequest](w, r)
	if !ok {
		return
	}
	suspectIDs := make([]id.SuspectID, 0, len(req.SuspectIDs))
	for _, raw := range req.SuspectIDs {
		suspectID, err := id.ParseSuspectID(raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid suspect id"))
			return
		}
		suspectIDs = append(suspectIDs, suspectID)
	}

	submission, err := h.service.Submit(ctx, middleware.GetActorID(ctx), caseID, suspectIDs, req.Reasoning)
	if err != nil {
		h.logger.ErrorContext(ctx, "suspect submission failed",
			"request_id", requestcontext.RequestID(ctx),
			"case_id", caseID,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, submission)
}

type reviewRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes,omitempty"`
}

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	submissionID, err := id.ParseSubmissionID(chi.URLParam(r, "submissionID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid submission id"))
		return
	}
	req, ok := shared.DecodeJSON[reviewRequest](w, r)
	if !ok {
		return
	}

	submission, err := h.service.Review(ctx, middleware.GetActorID(ctx), submissionID, req.Approve, req.Notes)
	if err != nil {
		h.logger.ErrorContext(ctx, "submission review failed",
			"request_id", requestcontext.RequestID(ctx),
			"submission_id", submissionID,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, submission)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	submissionID, err := id.ParseSubmissionID(chi.URLParam(r, "submissionID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid submission id"))
		return
	}
	submission, err := h.service.Get(ctx, middleware.GetActorID(ctx), submissionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, submission)
}

func (h *Handler) HandleListByCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid case id"))
		return
	}
	submissions, err := h.service.ListByCase(ctx, middleware.GetActorID(ctx), caseID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, submissions)
}
