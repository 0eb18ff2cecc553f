package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	casesmodels "casefile/internal/cases/models"
	"casefile/internal/interrogations/models"
	"casefile/internal/notify"
	"casefile/internal/platform/metrics"
	rolesmodels "casefile/internal/roles/models"
	suspectsmodels "casefile/internal/suspects/models"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/platform/sentinel"
	"casefile/pkg/platform/tx"
	"casefile/pkg/requestcontext"
)

// Store persists interrogations and the decision chain above them.
type Store interface {
	CreateInterrogation(ctx context.Context, interrogation *models.Interrogation) error
	FindInterrogation(ctx context.Context, interrogationID id.InterrogationID) (*models.Interrogation, error)
	ExecuteInterrogation(ctx context.Context, interrogationID id.InterrogationID, validate func(*models.Interrogation) error, mutate func(*models.Interrogation)) (*models.Interrogation, error)
	ListInterrogationsByCase(ctx context.Context, caseID id.CaseID) ([]*models.Interrogation, error)

	CreateDecision(ctx context.Context, decision *models.CaptainDecision) error
	FindDecision(ctx context.Context, decisionID id.DecisionID) (*models.CaptainDecision, error)
	FindDecisionByInterrogation(ctx context.Context, interrogationID id.InterrogationID) (*models.CaptainDecision, error)
	ExecuteDecision(ctx context.Context, decisionID id.DecisionID, validate func(*models.CaptainDecision) error, mutate func(*models.CaptainDecision)) (*models.CaptainDecision, error)

	CreateChiefDecision(ctx context.Context, decision *models.PoliceChiefDecision) error
	FindChiefDecisionByDecision(ctx context.Context, decisionID id.DecisionID) (*models.PoliceChiefDecision, error)
}

// CaseStore is the slice of the case vertical the decision chain drives.
type CaseStore interface {
	FindByID(ctx context.Context, caseID id.CaseID) (*casesmodels.Case, error)
	Execute(ctx context.Context, caseID id.CaseID, validate func(*casesmodels.Case) error, mutate func(*casesmodels.Case)) (*casesmodels.Case, error)
}

// SuspectReader looks up suspects for validation when opening.
type SuspectReader interface {
	FindByID(ctx context.Context, suspectID id.SuspectID) (*suspectsmodels.Suspect, error)
}

// Authority answers capability and rank questions.
type Authority interface {
	RequireCapability(ctx context.Context, actor id.ActorID, capability string) error
	RequireMinRank(ctx context.Context, actor id.ActorID, minRank int) (*rolesmodels.Role, error)
	ActorsWithMinRank(ctx context.Context, minRank int) ([]id.ActorID, error)
}

// Service owns the interrogation decision chain: detective and sergeant
// ratings, the captain verdict and the chief gate on critical crimes.
type Service struct {
	store     Store
	cases     CaseStore
	suspects  SuspectReader
	authority Authority
	sink      notify.Sink
	metrics   *metrics.Metrics
	runner    tx.Runner
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, cases CaseStore, suspects SuspectReader, authority Authority, sink notify.Sink, runner tx.Runner, opts ...Option) *Service {
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

// Open starts an interrogation of a warrant-approved suspect and moves the
// case into the interrogation stage.
func (s *Service) Open(ctx context.Context, actor id.ActorID, caseID id.CaseID, suspectID id.SuspectID, detective, sergeant id.ActorID) (*models.Interrogation, error) {
	if err := s.authority.RequireCapability(ctx, actor, rolesmodels.CapabilityDetective); err != nil {
		return nil, err
	}
	if _, err := s.authority.RequireMinRank(ctx, detective, rolesmodels.RankDetective); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "interrogation detective must hold detective rank")
	}
	if _, err := s.authority.RequireMinRank(ctx, sergeant, rolesmodels.RankSergeant); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "interrogation sergeant must hold sergeant rank")
	}

	suspect, err := s.suspects.FindByID(ctx, suspectID)
	if err != nil {
		return nil, translateStoreErr(err, "suspect")
	}
	if suspect.CaseID != caseID {
		return nil, dErrors.New(dErrors.CodeValidation, "suspect does not belong to this case")
	}
	if !suspect.ArrestWarrantIssued {
		return nil, dErrors.New(dErrors.CodeConflict, "suspect has no approved arrest warrant")
	}

	now := requestcontext.Now(ctx)
	interrogation := models.NewInterrogation(id.InterrogationID(uuid.New()), caseID, suspectID, detective, sergeant, now)

	err = s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.cases.Execute(txCtx, caseID,
			func(c *casesmodels.Case) error { return c.CanStartInterrogation() },
			func(c *casesmodels.Case) { c.ApplyInterrogationStarted(now) },
		); err != nil {
			return translateStoreErr(err, "case")
		}
		if err := s.store.CreateInterrogation(txCtx, interrogation); err != nil {
			return translateStoreErr(err, "interrogation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return interrogation, nil
}

// SubmitRatingsInput carries both guilt assessments.
type SubmitRatingsInput struct {
	DetectiveGuiltRating int
	SergeantGuiltRating  int
	DetectiveNotes       string
	SergeantNotes        string
}

// SubmitRatings lands both guilt ratings in one step. Only the assigned
// detective or sergeant may call; every captain hears the interrogation is
// ready.
func (s *Service) SubmitRatings(ctx context.Context, actor id.ActorID, interrogationID id.InterrogationID, in SubmitRatingsInput) (*models.Interrogation, error) {
	now := requestcontext.Now(ctx)
	var updated *models.Interrogation
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		interrogation, err := s.store.ExecuteInterrogation(txCtx, interrogationID,
			func(i *models.Interrogation) error {
				return i.CanSubmitRatings(actor, in.DetectiveGuiltRating, in.SergeantGuiltRating)
			},
			func(i *models.Interrogation) {
				i.ApplySubmitRatings(in.DetectiveGuiltRating, in.SergeantGuiltRating, in.DetectiveNotes, in.SergeantNotes, now)
			},
		)
		if err != nil {
			return translateStoreErr(err, "interrogation")
		}
		updated = interrogation

		captains, err := s.authority.ActorsWithMinRank(txCtx, rolesmodels.RankCaptain)
		if err != nil {
			return err
		}
		for _, captain := range captains {
			if err := s.sink.Notify(txCtx, captain, notify.KindInterrogationSubmitted, interrogation.CaseID, map[string]string{
				"interrogation_id": interrogation.ID.String(),
			}); err != nil {
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

// CaptainDecide issues the verdict on a submitted interrogation. Critical
// crimes park the decision for the chief; a guilty verdict moves the case
// toward trial either way.
func (s *Service) CaptainDecide(ctx context.Context, actor id.ActorID, interrogationID id.InterrogationID, verdict models.Verdict, reasoning string) (*models.CaptainDecision, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankCaptain); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var decision *models.CaptainDecision
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		interrogation, err := s.store.ExecuteInterrogation(txCtx, interrogationID,
			func(i *models.Interrogation) error { return i.CanReview() },
			func(i *models.Interrogation) { i.ApplyReviewed(now) },
		)
		if err != nil {
			return translateStoreErr(err, "interrogation")
		}

		c, err := s.cases.FindByID(txCtx, interrogation.CaseID)
		if err != nil {
			return translateStoreErr(err, "case")
		}
		requiresChief := c.CrimeLevel.IsCritical()

		decision, err = models.NewCaptainDecision(id.DecisionID(uuid.New()), interrogation.ID, actor, verdict, reasoning, requiresChief, now)
		if err != nil {
			return err
		}
		if err := s.store.CreateDecision(txCtx, decision); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "interrogation already has a verdict")
			}
			return translateStoreErr(err, "captain decision")
		}

		if verdict == models.VerdictGuilty {
			if _, err := s.cases.Execute(txCtx, interrogation.CaseID,
				func(c *casesmodels.Case) error { return c.CanMarkTrialPending() },
				func(c *casesmodels.Case) { c.ApplyTrialPending(now) },
			); err != nil {
				return translateStoreErr(err, "case")
			}
		}

		for _, recipient := range []id.ActorID{interrogation.DetectiveID, interrogation.SergeantID} {
			if err := s.sink.Notify(txCtx, recipient, notify.KindVerdictIssued, interrogation.CaseID, map[string]string{
				"interrogation_id": interrogation.ID.String(),
				"verdict":          string(verdict),
			}); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to queue notification")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementVerdicts(string(verdict))
	return decision, nil
}

// ChiefDecide records the chief's sign-off on an awaiting decision. The
// captain decision completes whether the chief approves or rejects; the
// rejection stands as the chief's recorded disagreement.
func (s *Service) ChiefDecide(ctx context.Context, actor id.ActorID, decisionID id.DecisionID, answer models.ChiefAnswer, comments string) (*models.PoliceChiefDecision, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankChief); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	chiefDecision, err := models.NewPoliceChiefDecision(id.ChiefDecisionID(uuid.New()), decisionID, actor, answer, comments, now)
	if err != nil {
		return nil, err
	}

	err = s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.store.ExecuteDecision(txCtx, decisionID,
			func(d *models.CaptainDecision) error { return d.CanChiefDecide() },
			func(d *models.CaptainDecision) { d.ApplyChiefDecided(now) },
		); err != nil {
			return translateStoreErr(err, "captain decision")
		}
		if err := s.store.CreateChiefDecision(txCtx, chiefDecision); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "captain decision already has a chief sign-off")
			}
			return translateStoreErr(err, "chief decision")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chiefDecision, nil
}

// TrialEligible reports whether any interrogation on the case carries a
// finalized guilty verdict.
func (s *Service) TrialEligible(ctx context.Context, caseID id.CaseID) (bool, error) {
	interrogations, err := s.store.ListInterrogationsByCase(ctx, caseID)
	if err != nil {
		return false, translateStoreErr(err, "interrogation")
	}
	for _, interrogation := range interrogations {
		decision, err := s.store.FindDecisionByInterrogation(ctx, interrogation.ID)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return false, translateStoreErr(err, "captain decision")
		}
		if decision.Decision == models.VerdictGuilty && decision.IsFinalized() {
			return true, nil
		}
	}
	return false, nil
}

// Get returns an interrogation visible to any police rank.
func (s *Service) Get(ctx context.Context, actor id.ActorID, interrogationID id.InterrogationID) (*models.Interrogation, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankCadet); err != nil {
		return nil, err
	}
	interrogation, err := s.store.FindInterrogation(ctx, interrogationID)
	if err != nil {
		return nil, translateStoreErr(err, "interrogation")
	}
	return interrogation, nil
}

// ListByCase returns a case's interrogations in creation order.
func (s *Service) ListByCase(ctx context.Context, actor id.ActorID, caseID id.CaseID) ([]*models.Interrogation, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankCadet); err != nil {
		return nil, err
	}
	interrogations, err := s.store.ListInterrogationsByCase(ctx, caseID)
	if err != nil {
		return nil, translateStoreErr(err, "interrogation")
	}
	return interrogations, nil
}

// Decision returns the captain decision for an interrogation, if any.
func (s *Service) Decision(ctx context.Context, actor id.ActorID, interrogationID id.InterrogationID) (*models.CaptainDecision, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankCadet); err != nil {
		return nil, err
	}
	decision, err := s.store.FindDecisionByInterrogation(ctx, interrogationID)
	if err != nil {
		return nil, translateStoreErr(err, "captain decision")
	}
	return decision, nil
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
