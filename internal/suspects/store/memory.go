package store

import (
	"context"
	"sync"
	"time"

	"casefile/internal/suspects/models"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
)

// InMemory implements the suspect store with a mutex-guarded map. Insertion
// order is preserved so equal danger scores list stably.
type InMemory struct {
	mu       sync.RWMutex
	suspects map[id.SuspectID]*models.Suspect
	order    []id.SuspectID
	pairs    map[pairKey]struct{}
}

type pairKey struct {
	caseID   id.CaseID
	personID id.PersonID
}

func NewInMemory() *InMemory {
	return &InMemory{
		suspects: make(map[id.SuspectID]*models.Suspect),
		pairs:    make(map[pairKey]struct{}),
	}
}

func (s *InMemory) Create(ctx context.Context, suspect *models.Suspect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{caseID: suspect.CaseID, personID: suspect.PersonID}
	if _, ok := s.pairs[key]; ok {
		return sentinel.ErrConflict
	}
	cp := cloneSuspect(suspect)
	s.suspects[suspect.ID] = cp
	s.order = append(s.order, suspect.ID)
	s.pairs[key] = struct{}{}
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, suspectID id.SuspectID) (*models.Suspect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	suspect, ok := s.suspects[suspectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneSuspect(suspect), nil
}

func (s *InMemory) Execute(ctx context.Context, suspectID id.SuspectID, validate func(*models.Suspect) error, mutate func(*models.Suspect)) (*models.Suspect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	suspect, ok := s.suspects[suspectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(suspect); err != nil {
		return nil, err
	}
	mutate(suspect)
	return cloneSuspect(suspect), nil
}

func (s *InMemory) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.Suspect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Suspect
	for _, suspectID := range s.order {
		if suspect := s.suspects[suspectID]; suspect.CaseID == caseID {
			out = append(out, cloneSuspect(suspect))
		}
	}
	return out, nil
}

func (s *InMemory) ListByStatus(ctx context.Context, status models.SuspectStatus) ([]*models.Suspect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Suspect
	for _, suspectID := range s.order {
		if suspect := s.suspects[suspectID]; suspect.Status == status {
			out = append(out, cloneSuspect(suspect))
		}
	}
	return out, nil
}

// EscalateOverdue promotes every under_pursuit suspect identified at or
// before the cutoff in one pass, returning how many changed.
func (s *InMemory) EscalateOverdue(ctx context.Context, cutoff time.Time, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	escalated := 0
	for _, suspect := range s.suspects {
		if suspect.Status == models.StatusUnderPursuit && !suspect.IdentifiedAt.After(cutoff) {
			suspect.Status = models.StatusIntensivePursuit
			suspect.UpdatedAt = now
			escalated++
		}
	}
	return escalated, nil
}

func cloneSuspect(suspect *models.Suspect) *models.Suspect {
	cp := *suspect
	if suspect.ArrestedAt != nil {
		v := *suspect.ArrestedAt
		cp.ArrestedAt = &v
	}
	if suspect.ApprovedBySergeant != nil {
		v := *suspect.ApprovedBySergeant
		cp.ApprovedBySergeant = &v
	}
	return &cp
}
