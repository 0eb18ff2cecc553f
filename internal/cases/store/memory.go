package store

import (
	"context"
	"sort"
	"sync"

	"casefile/internal/cases/models"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
)

// InMemory implements the case store with a mutex-guarded map. Execute holds
// the lock across validate and mutate, mirroring the row lock the Postgres
// implementation takes.
type InMemory struct {
	mu      sync.RWMutex
	cases   map[id.CaseID]*models.Case
	order   []id.CaseID
	reviews map[id.CaseID][]*models.CaseReview
}

func NewInMemory() *InMemory {
	return &InMemory{
		cases:   make(map[id.CaseID]*models.Case),
		reviews: make(map[id.CaseID][]*models.CaseReview),
	}
}

func (s *InMemory) Create(ctx context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := cloneCase(c)
	s.cases[c.ID] = cp
	s.order = append(s.order, c.ID)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCase(c), nil
}

// Execute runs validate then mutate under the store lock. The mutation is
// applied to the stored record only when validate succeeds.
func (s *InMemory) Execute(ctx context.Context, caseID id.CaseID, validate func(*models.Case) error, mutate func(*models.Case)) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	mutate(c)
	return cloneCase(c), nil
}

func (s *InMemory) ListByStatuses(ctx context.Context, statuses []models.CaseStatus) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[models.CaseStatus]struct{}, len(statuses))
	for _, status := range statuses {
		want[status] = struct{}{}
	}
	var out []*models.Case
	for _, caseID := range s.order {
		c := s.cases[caseID]
		if _, ok := want[c.Status]; ok {
			out = append(out, cloneCase(c))
		}
	}
	return out, nil
}

func (s *InMemory) ListByParticipant(ctx context.Context, actor id.ActorID) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Case
	for _, caseID := range s.order {
		c := s.cases[caseID]
		if c.IsParticipant(actor) {
			out = append(out, cloneCase(c))
		}
	}
	return out, nil
}

func (s *InMemory) AppendReview(ctx context.Context, review *models.CaseReview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *review
	s.reviews[review.CaseID] = append(s.reviews[review.CaseID], &cp)
	return nil
}

func (s *InMemory) ListReviews(ctx context.Context, caseID id.CaseID) ([]*models.CaseReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reviews := s.reviews[caseID]
	out := make([]*models.CaseReview, 0, len(reviews))
	for _, r := range reviews {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func cloneCase(c *models.Case) *models.Case {
	cp := *c
	if c.AssignedCadet != nil {
		v := *c.AssignedCadet
		cp.AssignedCadet = &v
	}
	if c.AssignedOfficer != nil {
		v := *c.AssignedOfficer
		cp.AssignedOfficer = &v
	}
	if c.AssignedDetective != nil {
		v := *c.AssignedDetective
		cp.AssignedDetective = &v
	}
	if c.AssignedSergeant != nil {
		v := *c.AssignedSergeant
		cp.AssignedSergeant = &v
	}
	if c.OpenedAt != nil {
		v := *c.OpenedAt
		cp.OpenedAt = &v
	}
	if c.ClosedAt != nil {
		v := *c.ClosedAt
		cp.ClosedAt = &v
	}
	cp.Complainants = append([]id.PersonID(nil), c.Complainants...)
	cp.Witnesses = append([]id.PersonID(nil), c.Witnesses...)
	return &cp
}
