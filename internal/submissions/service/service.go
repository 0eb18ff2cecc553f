package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	casesmodels "casefile/internal/cases/models"
	"casefile/internal/notify"
	"casefile/internal/platform/metrics"
	rolesmodels "casefile/internal/roles/models"
	"casefile/internal/submissions/models"
	suspectsmodels "casefile/internal/suspects/models"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/platform/sentinel"
	"casefile/pkg/platform/tx"
	"casefile/pkg/requestcontext"
)

// Store persists suspect submissions.
type Store interface {
	Create(ctx context.Context, submission *models.SuspectSubmission) error
	FindByID(ctx context.Context, submissionID id.SubmissionID) (*models.SuspectSubmission, error)
	Execute(ctx context.Context, submissionID id.SubmissionID, validate func(*models.SuspectSubmission) error, mutate func(*models.SuspectSubmission)) (*models.SuspectSubmission, error)
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.SuspectSubmission, error)
}

// CaseStore is the slice of the case store the approval flow drives.
type CaseStore interface {
	Execute(ctx context.Context, caseID id.CaseID, validate func(*casesmodels.Case) error, mutate func(*casesmodels.Case)) (*casesmodels.Case, error)
}

// SuspectStore is the slice of the suspect store the approval flow drives.
type SuspectStore interface {
	FindByID(ctx context.Context, suspectID id.SuspectID) (*suspectsmodels.Suspect, error)
	Execute(ctx context.Context, suspectID id.SuspectID, validate func(*suspectsmodels.Suspect) error, mutate func(*suspectsmodels.Suspect)) (*suspectsmodels.Suspect, error)
}

// Authority answers capability and rank questions.
type Authority interface {
	RequireCapability(ctx context.Context, actor id.ActorID, capability string) error
	RequireMinRank(ctx context.Context, actor id.ActorID, minRank int) (*rolesmodels.Role, error)
	ActorsWithMinRank(ctx context.Context, minRank int) ([]id.ActorID, error)
}

// Service owns the detective-to-sergeant suspect submission flow.
type Service struct {
	store     Store
	cases     CaseStore
	suspects  SuspectStore
	authority Authority
	sink      notify.Sink
	metrics   *metrics.Metrics
	runner    tx.Runner
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, cases CaseStore, suspects SuspectStore, authority Authority, sink notify.Sink, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		store:     store,
		cases:     cases,
		suspects:  suspects,
		authority: authority,
		sink:      sink,
		runner:    runner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit files a submission covering a suspect set on a case under
// investigation. The case transition, the submission insert and the sergeant
// broadcast commit together.
func (s *Service) Submit(ctx context.Context, actor id.ActorID, caseID id.CaseID, suspectIDs []id.SuspectID, reasoning string) (*models.SuspectSubmission, error) {
	if err := s.authority.RequireCapability(ctx, actor, rolesmodels.CapabilityDetective); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	submission, err := models.NewSuspectSubmission(id.SubmissionID(uuid.New()), caseID, actor, suspectIDs, reasoning, now)
	if err != nil {
		return nil, err
	}

	err = s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		for _, suspectID := range suspectIDs {
			suspect, err := s.suspects.FindByID(txCtx, suspectID)
			if err != nil {
				return translateStoreErr(err, "suspect")
			}
			if suspect.CaseID != caseID {
				return dErrors.New(dErrors.CodeValidation, "suspect does not belong to this case")
			}
		}

		if _, err := s.cases.Execute(txCtx, caseID,
			func(c *casesmodels.Case) error { return c.CanMarkSuspectsIdentified() },
			func(c *casesmodels.Case) { c.ApplySuspectsIdentified(now) },
		); err != nil {
			return translateStoreErr(err, "case")
		}
		if err := s.store.Create(txCtx, submission); err != nil {
			return translateStoreErr(err, "submission")
		}

		sergeants, err := s.authority.ActorsWithMinRank(txCtx, rolesmodels.RankSergeant)
		if err != nil {
			return err
		}
		for _, sergeant := range sergeants {
			if err := s.sink.Notify(txCtx, sergeant, notify.KindSuspectsSubmitted, caseID, map[string]string{
				"submission_id": submission.ID.String(),
				"suspects":      strconv.Itoa(len(suspectIDs)),
			}); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to queue notification")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementSubmissionsFiled()
	return submission, nil
}

// Review records the sergeant verdict. Approval issues warrants for every
// suspect in the submission and moves the case to arrest_approved; rejection
// sends the case back under investigation. Either way the detective hears
// about it.
func (s *Service) Review(ctx context.Context, actor id.ActorID, submissionID id.SubmissionID, approve bool, notes string) (*models.SuspectSubmission, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankSergeant); err != nil {
		return nil, err
	}
	if !approve && strings.TrimSpace(notes) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "rejection requires review notes")
	}

	now := requestcontext.Now(ctx)
	var updated *models.SuspectSubmission
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		submission, err := s.store.Execute(txCtx, submissionID,
			func(sub *models.SuspectSubmission) error { return sub.CanReview() },
			func(sub *models.SuspectSubmission) {
				if approve {
					sub.ApplyApproval(actor, notes, now)
				} else {
					sub.ApplyRejection(actor, notes, now)
				}
			},
		)
		if err != nil {
			return translateStoreErr(err, "submission")
		}
		updated = submission

		if approve {
			if err := s.applyApproval(txCtx, submission, actor, now); err != nil {
				return err
			}
		} else {
			if _, err := s.cases.Execute(txCtx, submission.CaseID,
				func(c *casesmodels.Case) error { return c.CanResolveSubmission() },
				func(c *casesmodels.Case) { c.ApplyInvestigationResumed(now) },
			); err != nil {
				return translateStoreErr(err, "case")
			}
		}

		decision := "rejected"
		if approve {
			decision = "approved"
		}
		return s.sink.Notify(txCtx, submission.DetectiveID, notify.KindSubmissionReviewed, submission.CaseID, map[string]string{
			"submission_id": submission.ID.String(),
			"decision":      decision,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) applyApproval(ctx context.Context, submission *models.SuspectSubmission, sergeant id.ActorID, now time.Time) error {
	if _, err := s.cases.Execute(ctx, submission.CaseID,
		func(c *casesmodels.Case) error { return c.CanResolveSubmission() },
		func(c *casesmodels.Case) { c.ApplyArrestApproved(sergeant, now) },
	); err != nil {
		return translateStoreErr(err, "case")
	}
	for _, suspectID := range submission.SuspectIDs {
		if _, err := s.suspects.Execute(ctx, suspectID,
			func(*suspectsmodels.Suspect) error { return nil },
			func(suspect *suspectsmodels.Suspect) { suspect.ApplyArrestApproval(sergeant, now) },
		); err != nil {
			return translateStoreErr(err, "suspect")
		}
	}
	return nil
}

// Get returns a submission visible to any police rank.
func (s *Service) Get(ctx context.Context, actor id.ActorID, submissionID id.SubmissionID) (*models.SuspectSubmission, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankCadet); err != nil {
		return nil, err
	}
	submission, err := s.store.FindByID(ctx, submissionID)
	if err != nil {
		return nil, translateStoreErr(err, "submission")
	}
	return submission, nil
}

// ListByCase returns a case's submission history, newest last.
func (s *Service) ListByCase(ctx context.Context, actor id.ActorID, caseID id.CaseID) ([]*models.SuspectSubmission, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankCadet); err != nil {
		return nil, err
	}
	submissions, err := s.store.ListByCase(ctx, caseID)
	if err != nil {
		return nil, translateStoreErr(err, "submission")
	}
	return submissions, nil
}

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
