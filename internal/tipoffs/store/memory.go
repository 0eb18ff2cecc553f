package store

import (
	"context"
	"sync"

	"casefile/internal/tipoffs/models"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
)

// InMemory implements the tip store with a mutex-guarded map. Redemption
// codes are indexed separately to enforce uniqueness.
type InMemory struct {
	mu     sync.RWMutex
	tips   map[id.TipOffID]*models.TipOff
	order  []id.TipOffID
	byCode map[string]id.TipOffID
}

func NewInMemory() *InMemory {
	return &InMemory{
		tips:   make(map[id.TipOffID]*models.TipOff),
		byCode: make(map[string]id.TipOffID),
	}
}

func (s *InMemory) Create(ctx context.Context, tip *models.TipOff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tips[tip.ID]; ok {
		return sentinel.ErrConflict
	}
	s.tips[tip.ID] = cloneTip(tip)
	s.order = append(s.order, tip.ID)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, tipID id.TipOffID) (*models.TipOff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tip, ok := s.tips[tipID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneTip(tip), nil
}

func (s *InMemory) FindByCodeAndSubmitter(ctx context.Context, code string, submitter id.PersonID) (*models.TipOff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tipID, ok := s.byCode[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	tip := s.tips[tipID]
	if tip.SubmittedBy != submitter {
		return nil, sentinel.ErrNotFound
	}
	return cloneTip(tip), nil
}

func (s *InMemory) Execute(ctx context.Context, tipID id.TipOffID, validate func(*models.TipOff) error, mutate func(*models.TipOff)) (*models.TipOff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tip, ok := s.tips[tipID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(tip); err != nil {
		return nil, err
	}
	next := cloneTip(tip)
	mutate(next)
	if next.RedemptionCode != nil && tip.RedemptionCode == nil {
		if _, taken := s.byCode[*next.RedemptionCode]; taken {
			return nil, sentinel.ErrConflict
		}
		s.byCode[*next.RedemptionCode] = next.ID
	}
	s.tips[tipID] = next
	return cloneTip(next), nil
}

func (s *InMemory) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.TipOff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TipOff
	for _, tipID := range s.order {
		if tip := s.tips[tipID]; tip.CaseID == caseID {
			out = append(out, cloneTip(tip))
		}
	}
	return out, nil
}

func cloneTip(tip *models.TipOff) *models.TipOff {
	cp := *tip
	if tip.OfficerID != nil {
		v := *tip.OfficerID
		cp.OfficerID = &v
	}
	if tip.DetectiveID != nil {
		v := *tip.DetectiveID
		cp.DetectiveID = &v
	}
	if tip.RedemptionCode != nil {
		v := *tip.RedemptionCode
		cp.RedemptionCode = &v
	}
	if tip.ApprovedAt != nil {
		v := *tip.ApprovedAt
		cp.ApprovedAt = &v
	}
	if tip.RedeemedBy != nil {
		v := *tip.RedeemedBy
		cp.RedeemedBy = &v
	}
	if tip.RedeemedAt != nil {
		v := *tip.RedeemedAt
		cp.RedeemedAt = &v
	}
	return &cp
}
