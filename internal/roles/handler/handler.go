package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"casefile/internal/platform/middleware"
	"casefile/internal/roles/models"
	"casefile/internal/transport/http/shared"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/requestcontext"
)

// Service defines the role administration operations the handler exposes.
type Service interface {
	CreateRole(ctx context.Context, name, capability string, rank int) (*models.Role, error)
	GrantRole(ctx context.Context, actor id.ActorID, capability string) error
	ListByActor(ctx context.Context, actor id.ActorID) ([]*models.Role, error)
	RequireMinRank(ctx context.Context, actor id.ActorID, minRank int) (*models.Role, error)
}

// Handler wires role administration endpoints to the role authority. Role
// creation and granting are chief-only.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts role endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/roles", h.HandleCreateRole)
	r.Post("/roles/grant", h.HandleGrantRole)
	r.Get("/roles/mine", h.HandleMyRoles)
}

type createRoleRequest struct {
	Name       string `json:"name"`
	Capability string `json:"capability"`
	Rank       int    `json:"rank"`
}

func (h *Handler) HandleCreateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := h.service.RequireMinRank(ctx, middleware.GetActorID(ctx), models.RankChief); err != nil {
		shared.WriteError(w, err)
		return
	}
	req, ok := shared.DecodeJSON[createRoleRequest](w, r)
	if !ok {
		return
	}

	role, err := h.service.CreateRole(ctx, req.Name, req.Capability, req.Rank)
	if err != nil {
		h.logger.ErrorContext(ctx, "role creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"capability", req.Capability,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, role)
}

type grantRoleRequest struct {
	ActorID    string `json:"actor_id"`
	Capability string `json:"capability"`
}

func (h *Handler) HandleGrantRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := h.service.RequireMinRank(ctx, middleware.GetActorID(ctx), models.RankChief); err != nil {
		shared.WriteError(w, err)
		return
	}
	req, ok := shared.DecodeJSON[grantRoleRequest](w, r)
	if !ok {
		return
	}
	actorID, err := id.ParseActorID(req.ActorID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid actor id"))
		return
	}

	if err := h.service.GrantRole(ctx, actorID, req.Capability); err != nil {
		h.logger.ErrorContext(ctx, "role grant failed",
			"request_id", requestcontext.RequestID(ctx),
			"capability", req.Capability,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) HandleMyRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roles, err := h.service.ListByActor(ctx, middleware.GetActorID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, roles)
}
