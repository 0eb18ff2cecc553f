package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"casefile/internal/cases/models"
	"casefile/internal/notify"
	"casefile/internal/platform/metrics"
	rolesmodels "casefile/internal/roles/models"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/platform/sentinel"
	"casefile/pkg/platform/tx"
	"casefile/pkg/requestcontext"
)

// Store persists cases and their review history. Execute must hold the lock
// (mutex or SELECT FOR UPDATE) across both callbacks so the read-validate-
// write of a transition is atomic.
type Store interface {
	Create(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	Execute(ctx context.Context, caseID id.CaseID, validate func(*models.Case) error, mutate func(*models.Case)) (*models.Case, error)
	ListByStatuses(ctx context.Context, statuses []models.CaseStatus) ([]*models.Case, error)
	ListByParticipant(ctx context.Context, actor id.ActorID) ([]*models.Case, error)
	AppendReview(ctx context.Context, review *models.CaseReview) error
	ListReviews(ctx context.Context, caseID id.CaseID) ([]*models.CaseReview, error)
}

// Authority answers capability and rank questions.
type Authority interface {
	HasCapability(ctx context.Context, actor id.ActorID, capability string) (bool, error)
	HighestPoliceRank(ctx context.Context, actor id.ActorID) (*rolesmodels.Role, error)
	RequireCapability(ctx context.Context, actor id.ActorID, capability string) error
	RequireMinRank(ctx context.Context, actor id.ActorID, minRank int) (*rolesmodels.Role, error)
	ActorsWithMinRank(ctx context.Context, minRank int) ([]id.ActorID, error)
}

// TrialEligibility is the interrogation chain's contract consumed at close.
type TrialEligibility interface {
	TrialEligible(ctx context.Context, caseID id.CaseID) (bool, error)
}

// Service owns the case lifecycle state machine.
type Service struct {
	store     Store
	authority Authority
	trials    TrialEligibility
	sink      notify.Sink
	metrics   *metrics.Metrics
	runner    tx.Runner
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTrialEligibility(t TrialEligibility) Option {
	return func(s *Service) { s.trials = t }
}

func New(store Store, authority Authority, sink notify.Sink, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		store:     store,
		authority: authority,
		sink:      sink,
		runner:    runner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCaseInput carries the payload for filing a new case.
type CreateCaseInput struct {
	Title         string
	Description   string
	FormationType models.FormationType
	CrimeLevel    models.CrimeLevel
	Complainants  []id.PersonID
	Witnesses     []id.PersonID
}

// Create files a new case. Complaint-formed cases start as drafts owned by
// the complainant. Crime-scene reports require a police rank; a report filed
// by the highest-ranked role skips both review stages and opens immediately.
func (s *Service) Create(ctx context.Context, actor id.ActorID, in CreateCaseInput) (*models.Case, error) {
	now := requestcontext.Now(ctx)
	c, err := models.NewCase(id.CaseID(uuid.New()), in.Title, in.Description, in.FormationType, in.CrimeLevel, actor, now)
	if err != nil {
		return nil, err
	}
	c.Complainants = in.Complainants
	c.Witnesses = in.Witnesses

	if in.FormationType == models.FormationCrimeScene {
		rank, err := s.authority.HighestPoliceRank(ctx, actor)
		if err != nil {
			return nil, err
		}
		if rank == nil {
			return nil, dErrors.New(dErrors.CodeForbidden, "crime scene reports require a police rank")
		}
		if rank.Rank >= rolesmodels.RankChief {
			c.ApplyAutoOpen(actor, now)
		}
	}

	if err := s.store.Create(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create case")
	}
	if c.Status == models.StatusOpen {
		s.metrics.IncrementCasesOpened()
	}
	return c, nil
}

// Submit moves a draft into cadet review and tells every police actor, cadet
// rank and up, that a case is waiting.
func (s *Service) Submit(ctx context.Context, actor id.ActorID, caseID id.CaseID) (*models.Case, error) {
	var updated *models.Case
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.store.Execute(txCtx, caseID,
			func(c *models.Case) error { return c.CanSubmit(actor) },
			func(c *models.Case) { c.ApplySubmit(requestcontext.Now(txCtx)) },
		)
		if err != nil {
			return translateStoreErr(err, "case")
		}
		updated = c

		cadets, err := s.authority.ActorsWithMinRank(txCtx, rolesmodels.RankCadet)
		if err != nil {
			return err
		}
		for _, cadet := range cadets {
			if err := s.sink.Notify(txCtx, cadet, notify.KindCaseSubmitted, c.ID, map[string]string{"title": c.Title}); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to queue notification")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CadetReview records the first-stage review decision. Approval hands the
// case to officer review; rejection counts toward the three-strike limit and
// the third strike is terminal.
func (s *Service) CadetReview(ctx context.Context, actor id.ActorID, caseID id.CaseID, decision models.ReviewDecision, reason string) (*models.Case, error) {
	if err := s.authority.RequireCapability(ctx, actor, rolesmodels.CapabilityCadet); err != nil {
		return nil, err
	}
	if err := validateReviewInput(decision, reason); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var updated *models.Case
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.store.Execute(txCtx, caseID,
			func(c *models.Case) error { return c.CanCadetReview() },
			func(c *models.Case) {
				if decision == models.DecisionApprove {
					c.ApplyCadetApproval(actor, now)
				} else {
					c.ApplyCadetRejection(now)
				}
			},
		)
		if err != nil {
			return translateStoreErr(err, "case")
		}
		updated = c

		if err := s.appendReview(txCtx, c.ID, models.StageCadet, actor, decision, reason, now); err != nil {
			return err
		}
		return s.sink.Notify(txCtx, c.CreatedBy, notify.KindCaseReviewed, c.ID, map[string]string{
			"stage":    string(models.StageCadet),
			"decision": string(decision),
			"status":   string(c.Status),
		})
	})
	if err != nil {
		return nil, err
	}
	if updated.Status == models.StatusRejected {
		s.metrics.IncrementCasesRejected()
	}
	return updated, nil
}

// OfficerReview records the second-stage review decision. Any police rank
// above cadet may act. Rejection routes by formation type and never touches
// the rejection count; only cadet-stage rejections do.
func (s *Service) OfficerReview(ctx context.Context, actor id.ActorID, caseID id.CaseID, decision models.ReviewDecision, reason string) (*models.Case, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankOfficer); err != nil {
		return nil, err
	}
	if err := validateReviewInput(decision, reason); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var updated *models.Case
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.store.Execute(txCtx, caseID,
			func(c *models.Case) error { return c.CanOfficerReview() },
			func(c *models.Case) {
				if decision == models.DecisionApprove {
					c.ApplyOfficerApproval(actor, now)
				} else {
					c.ApplyOfficerRejection(now)
				}
			},
		)
		if err != nil {
			return translateStoreErr(err, "case")
		}
		updated = c

		if err := s.appendReview(txCtx, c.ID, models.StageOfficer, actor, decision, reason, now); err != nil {
			return err
		}
		return s.sink.Notify(txCtx, c.CreatedBy, notify.KindCaseReviewed, c.ID, map[string]string{
			"stage":    string(models.StageOfficer),
			"decision": string(decision),
			"status":   string(c.Status),
		})
	})
	if err != nil {
		return nil, err
	}
	if updated.Status == models.StatusOpen {
		s.metrics.IncrementCasesOpened()
	}
	return updated, nil
}

// StartInvestigation assigns the acting detective and moves an open case
// under investigation.
func (s *Service) StartInvestigation(ctx context.Context, actor id.ActorID, caseID id.CaseID) (*models.Case, error) {
	if err := s.authority.RequireCapability(ctx, actor, rolesmodels.CapabilityDetective); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	c, err := s.store.Execute(ctx, caseID,
		func(c *models.Case) error { return c.CanStartInvestigation() },
		func(c *models.Case) { c.ApplyInvestigationStart(actor, now) },
	)
	if err != nil {
		return nil, translateStoreErr(err, "case")
	}
	return c, nil
}

// Close terminates a trial-pending case. Captain or above only, and only
// once the interrogation chain has produced a finalized-or-pending-chief
// guilty verdict.
func (s *Service) Close(ctx context.Context, actor id.ActorID, caseID id.CaseID) (*models.Case, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankCaptain); err != nil {
		return nil, err
	}
	if s.trials != nil {
		eligible, err := s.trials.TrialEligible(ctx, caseID)
		if err != nil {
			return nil, err
		}
		if !eligible {
			return nil, dErrors.New(dErrors.CodeConflict, "case has no finalized guilty verdict")
		}
	}
	now := requestcontext.Now(ctx)
	c, err := s.store.Execute(ctx, caseID,
		func(c *models.Case) error { return c.CanClose() },
		func(c *models.Case) { c.ApplyClose(now) },
	)
	if err != nil {
		return nil, translateStoreErr(err, "case")
	}
	s.metrics.IncrementCasesClosed()
	return c, nil
}

// Get returns a case the actor is allowed to see.
func (s *Service) Get(ctx context.Context, actor id.ActorID, caseID id.CaseID) (*models.Case, error) {
	c, err := s.store.FindByID(ctx, caseID)
	if err != nil {
		return nil, translateStoreErr(err, "case")
	}
	visible, err := s.canSee(ctx, actor, c)
	if err != nil {
		return nil, err
	}
	if !visible {
		// Do not reveal whether the case exists.
		return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
	}
	return c, nil
}

// ListVisible returns the role-specific subset of cases plus anything the
// actor participates in.
func (s *Service) ListVisible(ctx context.Context, actor id.ActorID) ([]*models.Case, error) {
	rank, err := s.authority.HighestPoliceRank(ctx, actor)
	if err != nil {
		return nil, err
	}

	seen := make(map[id.CaseID]struct{})
	var out []*models.Case

	if statuses := visibleStatuses(rank); len(statuses) > 0 {
		byStatus, err := s.store.ListByStatuses(ctx, statuses)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases")
		}
		for _, c := range byStatus {
			seen[c.ID] = struct{}{}
			out = append(out, c)
		}
	}

	participating, err := s.store.ListByParticipant(ctx, actor)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases")
	}
	for _, c := range participating {
		if _, ok := seen[c.ID]; !ok {
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Reviews returns the review history for a case the actor may see.
func (s *Service) Reviews(ctx context.Context, actor id.ActorID, caseID id.CaseID) ([]*models.CaseReview, error) {
	if _, err := s.Get(ctx, actor, caseID); err != nil {
		return nil, err
	}
	reviews, err := s.store.ListReviews(ctx, caseID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reviews")
	}
	return reviews, nil
}

func (s *Service) appendReview(ctx context.Context, caseID id.CaseID, stage models.ReviewStage, reviewer id.ActorID, decision models.ReviewDecision, reason string, now time.Time) error {
	review := &models.CaseReview{
		ID:         uuid.New(),
		CaseID:     caseID,
		Stage:      stage,
		ReviewerID: reviewer,
		Decision:   decision,
		Reason:     reason,
		CreatedAt:  now,
	}
	if err := s.store.AppendReview(ctx, review); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record review")
	}
	return nil
}

func (s *Service) canSee(ctx context.Context, actor id.ActorID, c *models.Case) (bool, error) {
	if c.IsParticipant(actor) {
		return true, nil
	}
	rank, err := s.authority.HighestPoliceRank(ctx, actor)
	if err != nil {
		return false, err
	}
	for _, status := range visibleStatuses(rank) {
		if c.Status == status {
			return true, nil
		}
	}
	return false, nil
}

// visibleStatuses maps a police rank to the lifecycle slice that rank works
// in. Captain and above see everything.
func visibleStatuses(rank *rolesmodels.Role) []models.CaseStatus {
	if rank == nil {
		return nil
	}
	switch {
	case rank.Rank >= rolesmodels.RankCaptain:
		return []models.CaseStatus{
			models.StatusDraft, models.StatusCadetReview, models.StatusOfficerReview,
			models.StatusOpen, models.StatusUnderInvestigation, models.StatusSuspectsIdentified,
			models.StatusArrestApproved, models.StatusInterrogation, models.StatusTrialPending,
			models.StatusClosed, models.StatusRejected,
		}
	case rank.Rank >= rolesmodels.RankSergeant:
		return []models.CaseStatus{
			models.StatusSuspectsIdentified, models.StatusArrestApproved,
			models.StatusInterrogation, models.StatusTrialPending,
		}
	case rank.Rank >= rolesmodels.RankDetective:
		return []models.CaseStatus{
			models.StatusOpen, models.StatusUnderInvestigation, models.StatusSuspectsIdentified,
			models.StatusArrestApproved, models.StatusInterrogation,
		}
	case rank.Rank >= rolesmodels.RankOfficer:
		return []models.CaseStatus{models.StatusOfficerReview, models.StatusOpen}
	default:
		return []models.CaseStatus{models.StatusCadetReview}
	}
}

func validateReviewInput(decision models.ReviewDecision, reason string) error {
	if decision != models.DecisionApprove && decision != models.DecisionReject {
		return dErrors.New(dErrors.CodeValidation, "decision must be approve or reject")
	}
	if decision == models.DecisionReject && strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "rejection requires a reason")
	}
	return nil
}

// translateStoreErr converts store sentinels into domain errors. Conflict
// errors from Execute validate callbacks pass through untouched so the
// message keeps naming the actual status.
func translateStoreErr(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, entity+" not found")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
}
