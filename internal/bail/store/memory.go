package store

import (
	"context"
	"sync"

	"casefile/internal/bail/models"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
)

// InMemory implements the bail store with a mutex-guarded map.
type InMemory struct {
	mu    sync.RWMutex
	bails map[id.BailID]*models.BailPayment
	order []id.BailID
}

func NewInMemory() *InMemory {
	return &InMemory{bails: make(map[id.BailID]*models.BailPayment)}
}

func (s *InMemory) Create(ctx context.Context, bail *models.BailPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bails[bail.ID]; ok {
		return sentinel.ErrConflict
	}
	s.bails[bail.ID] = cloneBail(bail)
	s.order = append(s.order, bail.ID)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, bailID id.BailID) (*models.BailPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bail, ok := s.bails[bailID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneBail(bail), nil
}

func (s *InMemory) Execute(ctx context.Context, bailID id.BailID, validate func(*models.BailPayment) error, mutate func(*models.BailPayment)) (*models.BailPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bail, ok := s.bails[bailID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(bail); err != nil {
		return nil, err
	}
	mutate(bail)
	return cloneBail(bail), nil
}

func (s *InMemory) ListBySuspect(ctx context.Context, suspectID id.SuspectID) ([]*models.BailPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.BailPayment
	for _, bailID := range s.order {
		if bail := s.bails[bailID]; bail.SuspectID == suspectID {
			out = append(out, cloneBail(bail))
		}
	}
	return out, nil
}

func cloneBail(bail *models.BailPayment) *models.BailPayment {
	cp := *bail
	if bail.ApprovedBySergeant != nil {
		v := *bail.ApprovedBySergeant
		cp.ApprovedBySergeant = &v
	}
	if bail.ApprovedAt != nil {
		v := *bail.ApprovedAt
		cp.ApprovedAt = &v
	}
	if bail.PaidAt != nil {
		v := *bail.PaidAt
		cp.PaidAt = &v
	}
	return &cp
}
