package store

import (
	"context"
	"sync"

	"casefile/internal/interrogations/models"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
)

// InMemory implements the interrogation store with mutex-guarded maps.
type InMemory struct {
	mu sync.RWMutex

	interrogations map[id.InterrogationID]*models.Interrogation
	order          []id.InterrogationID

	decisions       map[id.DecisionID]*models.CaptainDecision
	byInterrogation map[id.InterrogationID]id.DecisionID
	chiefDecisions  map[id.ChiefDecisionID]*models.PoliceChiefDecision
	chiefByDecision map[id.DecisionID]id.ChiefDecisionID
}

func NewInMemory() *InMemory {
	return &InMemory{
		interrogations:  make(map[id.InterrogationID]*models.Interrogation),
		decisions:       make(map[id.DecisionID]*models.CaptainDecision),
		byInterrogation: make(map[id.InterrogationID]id.DecisionID),
		chiefDecisions:  make(map[id.ChiefDecisionID]*models.PoliceChiefDecision),
		chiefByDecision: make(map[id.DecisionID]id.ChiefDecisionID),
	}
}

func (s *InMemory) CreateInterrogation(ctx context.Context, interrogation *models.Interrogation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interrogations[interrogation.ID]; ok {
		return sentinel.ErrConflict
	}
	s.interrogations[interrogation.ID] = cloneInterrogation(interrogation)
	s.order = append(s.order, interrogation.ID)
	return nil
}

func (s *InMemory) FindInterrogation(ctx context.Context, interrogationID id.InterrogationID) (*models.Interrogation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	interrogation, ok := s.interrogations[interrogationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneInterrogation(interrogation), nil
}

func (s *InMemory) ExecuteInterrogation(ctx context.Context, interrogationID id.InterrogationID, validate func(*models.Interrogation) error, mutate func(*models.Interrogation)) (*models.Interrogation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	interrogation, ok := s.interrogations[interrogationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(interrogation); err != nil {
		return nil, err
	}
	mutate(interrogation)
	return cloneInterrogation(interrogation), nil
}

func (s *InMemory) ListInterrogationsByCase(ctx context.Context, caseID id.CaseID) ([]*models.Interrogation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Interrogation
	for _, interrogationID := range s.order {
		if interrogation := s.interrogations[interrogationID]; interrogation.CaseID == caseID {
			out = append(out, cloneInterrogation(interrogation))
		}
	}
	return out, nil
}

func (s *InMemory) CreateDecision(ctx context.Context, decision *models.CaptainDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byInterrogation[decision.InterrogationID]; ok {
		return sentinel.ErrConflict
	}
	s.decisions[decision.ID] = cloneDecision(decision)
	s.byInterrogation[decision.InterrogationID] = decision.ID
	return nil
}

func (s *InMemory) FindDecision(ctx context.Context, decisionID id.DecisionID) (*models.CaptainDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	decision, ok := s.decisions[decisionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneDecision(decision), nil
}

func (s *InMemory) FindDecisionByInterrogation(ctx context.Context, interrogationID id.InterrogationID) (*models.CaptainDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	decisionID, ok := s.byInterrogation[interrogationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneDecision(s.decisions[decisionID]), nil
}

func (s *InMemory) ExecuteDecision(ctx context.Context, decisionID id.DecisionID, validate func(*models.CaptainDecision) error, mutate func(*models.CaptainDecision)) (*models.CaptainDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	decision, ok := s.decisions[decisionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(decision); err != nil {
		return nil, err
	}
	mutate(decision)
	return cloneDecision(decision), nil
}

func (s *InMemory) CreateChiefDecision(ctx context.Context, decision *models.PoliceChiefDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chiefByDecision[decision.CaptainDecisionID]; ok {
		return sentinel.ErrConflict
	}
	cp := *decision
	s.chiefDecisions[decision.ID] = &cp
	s.chiefByDecision[decision.CaptainDecisionID] = decision.ID
	return nil
}

func (s *InMemory) FindChiefDecisionByDecision(ctx context.Context, decisionID id.DecisionID) (*models.PoliceChiefDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chiefDecisionID, ok := s.chiefByDecision[decisionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.chiefDecisions[chiefDecisionID]
	return &cp, nil
}

func cloneInterrogation(interrogation *models.Interrogation) *models.Interrogation {
	cp := *interrogation
	if interrogation.DetectiveGuiltRating != nil {
		v := *interrogation.DetectiveGuiltRating
		cp.DetectiveGuiltRating = &v
	}
	if interrogation.SergeantGuiltRating != nil {
		v := *interrogation.SergeantGuiltRating
		cp.SergeantGuiltRating = &v
	}
	if interrogation.SubmittedAt != nil {
		v := *interrogation.SubmittedAt
		cp.SubmittedAt = &v
	}
	return &cp
}

func cloneDecision(decision *models.CaptainDecision) *models.CaptainDecision {
	cp := *decision
	return &cp
}
