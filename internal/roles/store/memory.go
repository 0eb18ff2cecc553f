package store

import (
	"context"
	"sync"

	"casefile/internal/roles/models"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
)

// InMemory implements the role store with mutex-guarded maps. Unit tests and
// local development run against it; production uses Postgres.
type InMemory struct {
	mu     sync.RWMutex
	roles  map[id.RoleID]*models.Role
	grants map[id.ActorID]map[id.RoleID]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{
		roles:  make(map[id.RoleID]*models.Role),
		grants: make(map[id.ActorID]map[id.RoleID]struct{}),
	}
}

func (s *InMemory) CreateIfCapabilityAvailable(ctx context.Context, role *models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.Capability == role.Capability {
			return sentinel.ErrConflict
		}
	}
	cp := *role
	s.roles[role.ID] = &cp
	return nil
}

func (s *InMemory) FindByCapability(ctx context.Context, capability string) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, role := range s.roles {
		if role.Capability == capability {
			cp := *role
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Grant(ctx context.Context, actor id.ActorID, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.grants[actor] == nil {
		s.grants[actor] = make(map[id.RoleID]struct{})
	}
	s.grants[actor][roleID] = struct{}{}
	return nil
}

func (s *InMemory) ListByActor(ctx context.Context, actor id.ActorID) ([]*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Role
	for roleID := range s.grants[actor] {
		if role, ok := s.roles[roleID]; ok {
			cp := *role
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemory) ListActorsWithMinRank(ctx context.Context, minRank int) ([]id.ActorID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []id.ActorID
	for actor, roleIDs := range s.grants {
		for roleID := range roleIDs {
			if role, ok := s.roles[roleID]; ok && role.Rank >= minRank {
				out = append(out, actor)
				break
			}
		}
	}
	return out, nil
}
