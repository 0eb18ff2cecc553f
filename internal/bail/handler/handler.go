package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"casefile/internal/bail/models"
	"casefile/internal/platform/middleware"
	"casefile/internal/transport/http/shared"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/requestcontext"
)

// Service defines the bail operations the handler exposes.
type Service interface {
	Request(ctx context.Context, actor id.ActorID, suspectID id.SuspectID, amount int64) (*models.BailPayment, error)
	Review(ctx context.Context, actor id.ActorID, bailID id.BailID, approve bool) (*models.BailPayment, error)
	Pay(ctx context.Context, actor id.ActorID, bailID id.BailID) (*models.BailPayment, error)
	VerifyPayment(ctx context.Context, actor id.ActorID, bailID id.BailID) (*models.BailPayment, error)
	Get(ctx context.Context, actor id.ActorID, bailID id.BailID) (*models.BailPayment, error)
	ListBySuspect(ctx context.Context, actor id.ActorID, suspectID id.SuspectID) ([]*models.BailPayment, error)
}

// Handler wires bail endpoints to the bail service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts bail endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/suspects/{suspectID}/bail", h.HandleRequest)
	r.Get("/suspects/{suspectID}/bail", h.HandleListBySuspect)
	r.Get("/bail/{bailID}", h.HandleGet)
	r.Post("/bail/{bailID}/review", h.HandleReview)
	r.Post("/bail/{bailID}/pay", h.HandlePay)
	r.Post("/bail/{bailID}/verify", h.HandleVerify)
}

type requestRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	suspectID, err := id.ParseSuspectID(chi.URLParam(r, "suspectID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid suspect id"))
		return
	}
	req, ok := shared.DecodeJSON[requestRequest](w, r)
	if !ok {
		return
	}

	bail, err := h.service.Request(ctx, middleware.GetActorID(ctx), suspectID, req.Amount)
	if err != nil {
		h.logError(ctx, "bail request failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, bail)
}

type reviewRequest struct {
	Approve bool `json:"approve"`
}

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bailID, ok := h.bailID(w, r)
	if !ok {
		return
	}
	req, decoded := shared.DecodeJSON[reviewRequest](w, r)
	if !decoded {
		return
	}
	bail, err := h.service.Review(ctx, middleware.GetActorID(ctx), bailID, req.Approve)
	if err != nil {
		h.logError(ctx, "bail review failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, bail)
}

func (h *Handler) HandlePay(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "bail payment failed", h.service.Pay)
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "bail verification failed", h.service.VerifyPayment)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, logMsg string, op func(context.Context, id.ActorID, id.BailID) (*models.BailPayment, error)) {
	ctx := r.Context()
	bailID, ok := h.bailID(w, r)
	if !ok {
		return
	}
	bail, err := op(ctx, middleware.GetActorID(ctx), bailID)
	if err != nil {
		h.logError(ctx, logMsg, err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, bail)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bailID, ok := h.bailID(w, r)
	if !ok {
		return
	}
	bail, err := h.service.Get(ctx, middleware.GetActorID(ctx), bailID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, bail)
}

func (h *Handler) HandleListBySuspect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	suspectID, err := id.ParseSuspectID(chi.URLParam(r, "suspectID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid suspect id"))
		return
	}
	bails, err := h.service.ListBySuspect(ctx, middleware.GetActorID(ctx), suspectID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, bails)
}

func (h *Handler) bailID(w http.ResponseWriter, r *http.Request) (id.BailID, bool) {
	bailID, err := id.ParseBailID(chi.URLParam(r, "bailID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid bail id"))
		return id.BailID{}, false
	}
	return bailID, true
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"actor_id", requestcontext.ActorID(ctx),
		"error", err,
	)
}
