package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"casefile/internal/interrogations/models"
	interrogationsservice "casefile/internal/interrogations/service"
	"casefile/internal/platform/middleware"
	"casefile/internal/transport/http/shared"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/requestcontext"
)

// Service defines the interrogation operations the handler exposes.
type Service interface {
	Open(ctx context.Context, actor id.ActorID, caseID id.CaseID, suspectID id.SuspectID, detective, sergeant id.ActorID) (*models.Interrogation, error)
	SubmitRatings(ctx context.Context, actor id.ActorID, interrogationID id.InterrogationID, in interrogationsservice.SubmitRatingsInput) (*models.Interrogation, error)
	CaptainDecide(ctx context.Context, actor id.ActorID, interrogationID id.InterrogationID, verdict models.Verdict, reasoning string) (*models.CaptainDecision, error)
	ChiefDecide(ctx context.Context, actor id.ActorID, decisionID id.DecisionID, answer models.ChiefAnswer, comments string) (*models.PoliceChiefDecision, error)
	Get(ctx context.Context, actor id.ActorID, interrogationID id.InterrogationID) (*models.Interrogation, error)
	ListByCase(ctx context.Context, actor id.ActorID, caseID id.CaseID) ([]*models.Interrogation, error)
	Decision(ctx context.Context, actor id.ActorID, interrogationID id.InterrogationID) (*models.CaptainDecision, error)
}

// Handler wires interrogation endpoints to the interrogation service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts interrogation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/cases/{caseID}/interrogations", h.HandleOpen)
	r.Get("/cases/{caseID}/interrogations", h.HandleListByCase)
	r.Get("/interrogations/{interrogationID}", h.HandleGet)
	r.Post("/interrogations/{interrogationID}/ratings", h.HandleSubmitRatings)
	r.Get("/interrogations/{interrogationID}/decision", h.HandleDecision)
	r.Post("/interrogations/{interrogationID}/decision", h.HandleCaptainDecide)
	r.Post("/decisions/{decisionID}/chief-review", h.HandleChiefDecide)
}

type openRequest struct {
	SuspectID   string `json:"suspect_id"`
	DetectiveID string `json:"detective_id"`
	SergeantID  string `json:"sergeant_id"`
}

func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid case id"))
		return
	}
	req, ok := shared.DecodeJSON[openRequest](w, r)
	if !ok {
		return
	}
	suspectID, err := id.ParseSuspectID(req.SuspectID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid suspect id"))
		return
	}
	detective, err := id.ParseActorID(req.DetectiveID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid detective id"))
		return
	}
	sergeant, err := id.ParseActorID(req.SergeantID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid sergeant id"))
		return
	}

	interrogation, err := h.service.Open(ctx, middleware.GetActorID(ctx), caseID, suspectID, detective, sergeant)
	if err != nil {
		h.logError(ctx, "opening interrogation failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, interrogation)
}

type ratingsRequest struct {
	DetectiveGuiltRating int    `json:"detective_guilt_rating"`
	SergeantGuiltRating  int    `json:"sergeant_guilt_rating"`
	DetectiveNotes       string `json:"detective_notes,omitempty"`
	SergeantNotes        string `json:"sergeant_notes,omitempty"`
}

func (h *Handler) HandleSubmitRatings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	interrogationID, ok := h.interrogationID(w, r)
	if !ok {
		return
	}
	req, decoded := shared.DecodeJSON[ratingsRequest](w, r)
	if !decoded {
		return
	}

	interrogation, err := h.service.SubmitRatings(ctx, middleware.GetActorID(ctx), interrogationID, interrogationsservice.SubmitRatingsInput{
		DetectiveGuiltRating: req.DetectiveGuiltRating,
		SergeantGuiltRating:  req.SergeantGuiltRating,
		DetectiveNotes:       req.DetectiveNotes,
		SergeantNotes:        req.SergeantNotes,
	})
	if err != nil {
		h.logError(ctx, "rating submission failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, interrogation)
}

type verdictRequest struct {
	Decision  string `json:"decision"`
	Reasoning string `json:"reasoning"`
}

func (h *Handler) HandleCaptainDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	interrogationID, ok := h.interrogationID(w, r)
	if !ok {
		return
	}
	req, decoded := shared.DecodeJSON[verdictRequest](w, r)
	if !decoded {
		return
	}

	decision, err := h.service.CaptainDecide(ctx, middleware.GetActorID(ctx), interrogationID, models.Verdict(req.Decision), req.Reasoning)
	if err != nil {
		h.logError(ctx, "captain verdict failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, decision)
}

type chiefRequest struct {
	Decision string `json:"decision"`
	Comments string `json:"comments"`
}

func (h *Handler) HandleChiefDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	decisionID, err := id.ParseDecisionID(chi.URLParam(r, "decisionID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid decision id"))
		return
	}
	req, decoded := shared.DecodeJSON[chiefRequest](w, r)
	if !decoded {
		return
	}

	chiefDecision, err := h.service.ChiefDecide(ctx, middleware.GetActorID(ctx), decisionID, models.ChiefAnswer(req.Decision), req.Comments)
	if err != nil {
		h.logError(ctx, "chief review failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, chiefDecision)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	interrogationID, ok := h.interrogationID(w, r)
	if !ok {
		return
	}
	interrogation, err := h.service.Get(ctx, middleware.GetActorID(ctx), interrogationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, interrogation)
}

func (h *Handler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	interrogationID, ok := h.interrogationID(w, r)
	if !ok {
		return
	}
	decision, err := h.service.Decision(ctx, middleware.GetActorID(ctx), interrogationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, decision)
}

func (h *Handler) HandleListByCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid case id"))
		return
	}
	interrogations, err := h.service.ListByCase(ctx, middleware.GetActorID(ctx), caseID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, interrogations)
}

func (h *Handler) interrogationID(w http.ResponseWriter, r *http.Request) (id.InterrogationID, bool) {
	interrogationID, err := id.ParseInterrogationID(chi.URLParam(r, "interrogationID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid interrogation id"))
		return id.InterrogationID{}, false
	}
	return interrogationID, true
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"actor_id", requestcontext.ActorID(ctx),
		"error", err,
	)
}
