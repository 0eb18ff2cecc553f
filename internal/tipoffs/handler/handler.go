package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"casefile/internal/platform/middleware"
	"casefile/internal/tipoffs/models"
	"casefile/internal/transport/http/shared"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/requestcontext"
)

// Service defines the tip operations the handler exposes.
type Service interface {
	Submit(ctx context.Context, submitter id.PersonID, suspectID id.SuspectID, content string) (*models.TipOff, error)
	OfficerReview(ctx context.Context, actor id.ActorID, tipID id.TipOffID, approve bool, reason string) (*models.TipOff, error)
	DetectiveReview(ctx context.Context, actor id.ActorID, tipID id.TipOffID, approve bool, reason string) (*models.TipOff, error)
	VerifyReward(ctx context.Context, actor id.ActorID, submitter id.PersonID, code string) (*models.TipOff, error)
	RedeemReward(ctx context.Context, actor id.ActorID, submitter id.PersonID, code string) (*models.TipOff, error)
	ListByCase(ctx context.Context, actor id.ActorID, caseID id.CaseID) ([]*models.TipOff, error)
}

// Handler wires tip endpoints to the tip service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts authenticated tip endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/cases/{caseID}/tips", h.HandleListByCase)
	r.Post("/tips/{tipID}/officer-review", h.HandleOfficerReview)
	r.Post("/tips/{tipID}/detective-review", h.HandleDetectiveReview)
	r.Post("/rewards/verify", h.HandleVerifyReward)
	r.Post("/rewards/redeem", h.HandleRedeemReward)
}

// RegisterPublic mounts the citizen submission endpoint. Tips come from the
// public; no token is required.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/tips", h.HandleSubmit)
}

type submitRequest struct {
	NationalID string `json:"national_id"`
	SuspectID  string `json:"suspect_id"`
	Content    string `json:"content"`
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := shared.DecodeJSON[submitRequest](w, r)
	if !ok {
		return
	}
	submitter, err := id.ParsePersonID(req.NationalID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid national id"))
		return
	}
	suspectID, err := id.ParseSuspectID(req.SuspectID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid suspect id"))
		return
	}

	tip, err := h.service.Submit(ctx, submitter, suspectID, req.Content)
	if err != nil {
		h.logError(ctx, "tip submission failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, tip)
}

type reviewRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason,omitempty"`
}

func (h *Handler) HandleOfficerReview(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "tip officer review failed", h.service.OfficerReview)
}

func (h *Handler) HandleDetectiveReview(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "tip detective review failed", h.service.DetectiveReview)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, logMsg string, op func(context.Context, id.ActorID, id.TipOffID, bool, string) (*models.TipOff, error)) {
	ctx := r.Context()
	tipID, err := id.ParseTipOffID(chi.URLParam(r, "tipID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid tip id"))
		return
	}
	req, ok := shared.DecodeJSON[reviewRequest](w, r)
	if !ok {
		return
	}
	tip, err := op(ctx, middleware.GetActorID(ctx), tipID, req.Approve, req.Reason)
	if err != nil {
		h.logError(ctx, logMsg, err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, tip)
}

type claimRequest struct {
	NationalID     string `json:"national_id"`
	RedemptionCode string `json:"redemption_code"`
}

func (h *Handler) HandleVerifyReward(w http.ResponseWriter, r *http.Request) {
	h.claim(w, r, "reward verification failed", h.service.VerifyReward)
}

func (h *Handler) HandleRedeemReward(w http.ResponseWriter, r *http.Request) {
	h.claim(w, r, "reward redemption failed", h.service.RedeemReward)
}

func (h *Handler) claim(w http.ResponseWriter, r *http.Request, logMsg string, op func(context.Context, id.ActorID, id.PersonID, string) (*models.TipOff, error)) {
	ctx := r.Context()
	req, ok := shared.DecodeJSON[claimRequest](w, r)
	if !ok {
		return
	}
	submitter, err := id.ParsePersonID(req.NationalID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid national id"))
		return
	}
	tip, err := op(ctx, middleware.GetActorID(ctx), submitter, req.RedemptionCode)
	if err != nil {
		h.logError(ctx, logMsg, err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, tip)
}

func (h *Handler) HandleListByCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid case id"))
		return
	}
	tips, err := h.service.ListByCase(ctx, middleware.GetActorID(ctx), caseID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, tips)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
