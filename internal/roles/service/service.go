package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"casefile/internal/roles/models"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/platform/sentinel"
	"casefile/pkg/requestcontext"
)

// Store persists the open role set and actor grants.
type Store interface {
	CreateIfCapabilityAvailable(ctx context.Context, role *models.Role) error
	FindByCapability(ctx context.Context, capability string) (*models.Role, error)
	Grant(ctx context.Context, actor id.ActorID, roleID id.RoleID) error
	ListByActor(ctx context.Context, actor id.ActorID) ([]*models.Role, error)
	ListActorsWithMinRank(ctx context.Context, minRank int) ([]id.ActorID, error)
}

// Authority resolves capability and rank questions for every other vertical.
// It is the single place role semantics live; workflow services only consume
// the question-answering surface.
type Authority struct {
	store Store
}

func NewAuthority(store Store) *Authority {
	return &Authority{store: store}
}

// CreateRole adds a role to the open set. Duplicate capabilities conflict.
func (a *Authority) CreateRole(ctx context.Context, name, capability string, rank int) (*models.Role, error) {
	role, err := models.NewRole(id.RoleID(uuid.New()), name, capability, rank, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}
	if err := a.store.CreateIfCapabilityAvailable(ctx, role); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "role capability must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create role")
	}
	return role, nil
}

// GrantRole assigns a role to an actor by capability name.
func (a *Authority) GrantRole(ctx context.Context, actor id.ActorID, capability string) error {
	role, err := a.store.FindByCapability(ctx, capability)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "role not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up role")
	}
	if err := a.store.Grant(ctx, actor, role.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant role")
	}
	return nil
}

// HasCapability reports whether the actor holds the named capability.
func (a *Authority) HasCapability(ctx context.Context, actor id.ActorID, capability string) (bool, error) {
	held, err := a.store.ListByActor(ctx, actor)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve actor roles")
	}
	for _, role := range held {
		if role.Capability == capability {
			return true, nil
		}
	}
	return false, nil
}

// HighestPoliceRank returns the actor's highest-ranked police role, or nil
// for plain citizens.
func (a *Authority) HighestPoliceRank(ctx context.Context, actor id.ActorID) (*models.Role, error) {
	held, err := a.store.ListByActor(ctx, actor)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve actor roles")
	}
	var highest *models.Role
	for _, role := range held {
		if !role.IsPolice() {
			continue
		}
		if highest == nil || role.Rank > highest.Rank {
			highest = role
		}
	}
	return highest, nil
}

// RequireCapability fails with a permission error unless the actor holds the
// named capability.
func (a *Authority) RequireCapability(ctx context.Context, actor id.ActorID, capability string) error {
	ok, err := a.HasCapability(ctx, actor, capability)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.Newf(dErrors.CodeForbidden, "%s capability required", capability)
	}
	return nil
}

// RequireMinRank fails unless the actor holds a police role with rank >= min.
// Returns the actor's highest police role on success.
func (a *Authority) RequireMinRank(ctx context.Context, actor id.ActorID, minRank int) (*models.Role, error) {
	highest, err := a.HighestPoliceRank(ctx, actor)
	if err != nil {
		return nil, err
	}
	if highest == nil || highest.Rank < minRank {
		return nil, dErrors.New(dErrors.CodeForbidden, "insufficient police rank")
	}
	return highest, nil
}

// RequireRankBetween fails unless the actor's highest police rank falls in
// [minRank, maxRank]. The tip-off officer triage gate uses this: any rank up
// to police officer may act, detective and above may not.
func (a *Authority) RequireRankBetween(ctx context.Context, actor id.ActorID, minRank, maxRank int) (*models.Role, error) {
	highest, err := a.HighestPoliceRank(ctx, actor)
	if err != nil {
		return nil, err
	}
	if highest == nil || highest.Rank < minRank || highest.Rank > maxRank {
		return nil, dErrors.New(dErrors.CodeForbidden, "actor rank not eligible for this step")
	}
	return highest, nil
}

// ListByActor returns every role the actor holds.
func (a *Authority) ListByActor(ctx context.Context, actor id.ActorID) ([]*models.Role, error) {
	held, err := a.store.ListByActor(ctx, actor)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve actor roles")
	}
	return held, nil
}

// ActorsWithMinRank lists actors holding at least the given police rank.
// Used for broadcast notifications (e.g. all sergeant-capable actors).
func (a *Authority) ActorsWithMinRank(ctx context.Context, minRank int) ([]id.ActorID, error) {
	actors, err := a.store.ListActorsWithMinRank(ctx, minRank)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list actors by rank")
	}
	return actors, nil
}
