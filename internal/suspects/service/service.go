package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	casesmodels "casefile/internal/cases/models"
	"casefile/internal/platform/metrics"
	rolesmodels "casefile/internal/roles/models"
	"casefile/internal/suspects/models"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/platform/sentinel"
	"casefile/pkg/requestcontext"
)

// Store persists suspects. Execute holds the lock across validate and
// mutate; EscalateOverdue is the one batched write in the system.
type Store interface {
	Create(ctx context.Context, suspect *models.Suspect) error
	FindByID(ctx context.Context, suspectID id.SuspectID) (*models.Suspect, error)
	Execute(ctx context.Context, suspectID id.SuspectID, validate func(*models.Suspect) error, mutate func(*models.Suspect)) (*models.Suspect, error)
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.Suspect, error)
	ListByStatus(ctx context.Context, status models.SuspectStatus) ([]*models.Suspect, error)
	EscalateOverdue(ctx context.Context, cutoff time.Time, now time.Time) (int, error)
}

// Authority answers capability and rank questions.
type Authority interface {
	RequireCapability(ctx context.Context, actor id.ActorID, capability string) error
	RequireMinRank(ctx context.Context, actor id.ActorID, minRank int) (*rolesmodels.Role, error)
}

// CaseReader is the slice of the case vertical this service consumes.
type CaseReader interface {
	FindByID(ctx context.Context, caseID id.CaseID) (*casesmodels.Case, error)
}

// WantedCache is the optional read-through cache for the public list.
type WantedCache interface {
	Get(ctx context.Context) ([]*models.WantedEntry, bool)
	Set(ctx context.Context, entries []*models.WantedEntry)
	Invalidate(ctx context.Context)
}

// Service owns suspect tracking: identification, pursuit escalation, the
// public wanted list and manual status changes.
type Service struct {
	store     Store
	authority Authority
	cases     CaseReader
	cache     WantedCache
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithCache(c WantedCache) Option {
	return func(s *Service) { s.cache = c }
}

func New(store Store, authority Authority, cases CaseReader, opts ...Option) *Service {
	s := &Service{store: store, authority: authority, cases: cases}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Identify creates a suspect in under_pursuit against a case currently
// under investigation. One suspect per (case, person).
func (s *Service) Identify(ctx context.Context, actor id.ActorID, caseID id.CaseID, personID id.PersonID, reason string) (*models.Suspect, error) {
	if err := s.authority.RequireCapability(ctx, actor, rolesmodels.CapabilityDetective); err != nil {
		return nil, err
	}
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case")
	}
	if c.Status != casesmodels.StatusUnderInvestigation {
		return nil, dErrors.Newf(dErrors.CodeConflict, "case is %s, expected %s", c.Status, casesmodels.StatusUnderInvestigation)
	}

	suspect, err := models.NewSuspect(id.SuspectID(uuid.New()), caseID, personID, actor, reason, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, suspect); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "person is already a suspect in this case")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create suspect")
	}
	s.metrics.IncrementSuspectsIdentified()
	s.invalidateCache(ctx)
	return suspect, nil
}

// ChangeStatus performs a manual status change. Detective, sergeant, captain
// or above may act; forcing intensive_pursuit ahead of the 30-day threshold
// is an explicit override this path allows.
func (s *Service) ChangeStatus(ctx context.Context, actor id.ActorID, suspectID id.SuspectID, newStatus models.SuspectStatus) (*models.Suspect, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankDetective); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	suspect, err := s.store.Execute(ctx, suspectID,
		func(sp *models.Suspect) error { return sp.CanChangeStatusTo(newStatus) },
		func(sp *models.Suspect) { sp.ApplyStatusChange(newStatus, now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "suspect not found")
		}
		return nil, err
	}
	if newStatus == models.StatusArrested {
		s.metrics.IncrementSuspectsArrested()
	}
	s.invalidateCache(ctx)
	return suspect, nil
}

// Get returns a suspect by ID for any police rank.
func (s *Service) Get(ctx context.Context, actor id.ActorID, suspectID id.SuspectID) (*models.Suspect, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankCadet); err != nil {
		return nil, err
	}
	suspect, err := s.store.FindByID(ctx, suspectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "suspect not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load suspect")
	}
	return suspect, nil
}

// ListByCase returns a case's suspects for any police rank.
func (s *Service) ListByCase(ctx context.Context, actor id.ActorID, caseID id.CaseID) ([]*models.Suspect, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankCadet); err != nil {
		return nil, err
	}
	suspects, err := s.store.ListByCase(ctx, caseID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list suspects")
	}
	return suspects, nil
}

// WantedList is the public query. Escalation is lazy: any under_pursuit
// suspect past the threshold is bulk-promoted to intensive_pursuit as a side
// effect of this read, then the intensive-pursuit set is returned ordered by
// danger score descending. Ties keep insertion order; exactly equal scores
// are rare enough that no richer tie-break is warranted.
func (s *Service) WantedList(ctx context.Context) ([]*models.WantedEntry, error) {
	if s.cache != nil {
		if entries, ok := s.cache.Get(ctx); ok {
			return entries, nil
		}
	}

	now := requestcontext.Now(ctx)
	escalated, err := s.store.EscalateOverdue(ctx, now.Add(-models.IntensivePursuitThreshold), now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to escalate suspects")
	}
	s.metrics.AddSuspectsEscalated(escalated)

	atLarge, err := s.store.ListByStatus(ctx, models.StatusIntensivePursuit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list wanted suspects")
	}

	levels := make(map[id.CaseID]casesmodels.CrimeLevel)
	entries := make([]*models.WantedEntry, 0, len(atLarge))
	for _, suspect := range atLarge {
		level, ok := levels[suspect.CaseID]
		if !ok {
			c, err := s.cases.FindByID(ctx, suspect.CaseID)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case for wanted list")
			}
			level = c.CrimeLevel
			levels[suspect.CaseID] = level
		}
		entries = append(entries, &models.WantedEntry{
			Suspect:      suspect,
			CrimeLevel:   level,
			DaysAtLarge:  suspect.DaysAtLarge(now),
			DangerScore:  suspect.DangerScore(level, now),
			RewardAmount: suspect.RewardAmount(level, now),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DangerScore > entries[j].DangerScore
	})

	if s.cache != nil {
		s.cache.Set(ctx, entries)
	}
	return entries, nil
}

func (s *Service) invalidateCache(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
