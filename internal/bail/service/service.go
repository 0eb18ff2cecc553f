package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"

	"casefile/internal/bail/gateway"
	"casefile/internal/bail/models"
	casesmodels "casefile/internal/cases/models"
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

// Store persists bail payments.
type Store interface {
	Create(ctx context.Context, bail *models.BailPayment) error
	FindByID(ctx context.Context, bailID id.BailID) (*models.BailPayment, error)
	Execute(ctx context.Context, bailID id.BailID, validate func(*models.BailPayment) error, mutate func(*models.BailPayment)) (*models.BailPayment, error)
	ListBySuspect(ctx context.Context, suspectID id.SuspectID) ([]*models.BailPayment, error)
}

// SuspectStore is the slice of the suspect vertical a settled bail releases.
type SuspectStore interface {
	FindByID(ctx context.Context, suspectID id.SuspectID) (*suspectsmodels.Suspect, error)
	Execute(ctx context.Context, suspectID id.SuspectID, validate func(*suspectsmodels.Suspect) error, mutate func(*suspectsmodels.Suspect)) (*suspectsmodels.Suspect, error)
}

// CaseReader looks up the case behind a suspect for its crime level.
type CaseReader interface {
	FindByID(ctx context.Context, caseID id.CaseID) (*casesmodels.Case, error)
}

// Authority answers capability and rank questions.
type Authority interface {
	RequireMinRank(ctx context.Context, actor id.ActorID, minRank int) (*rolesmodels.Role, error)
}

// Service owns the bail workflow: the request, the sergeant gate and the
// payment gateway round trip.
type Service struct {
	store     Store
	suspects  SuspectStore
	cases     CaseReader
	authority Authority
	gateway   gateway.PaymentGateway
	sink      notify.Sink
	metrics   *metrics.Metrics
	runner    tx.Runner
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, suspects SuspectStore, cases CaseReader, authority Authority, gw gateway.PaymentGateway, sink notify.Sink, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		store:     store,
		suspects:  suspects,
		cases:     cases,
		authority: authority,
		gateway:   gw,
		sink:      sink,
		runner:    runner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request files bail for an arrested suspect. Any police rank may file;
// citizens cannot. Only crime levels 2 and 3 are bailable, and level 2
// auto-approves at creation.
func (s *Service) Request(ctx context.Context, actor id.ActorID, suspectID id.SuspectID, amount int64) (*models.BailPayment, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankCadet); err != nil {
		return nil, err
	}
	suspect, err := s.suspects.FindByID(ctx, suspectID)
	if err != nil {
		return nil, translateStoreErr(err, "suspect")
	}
	if suspect.Status != suspectsmodels.StatusArrested {
		return nil, dErrors.Newf(dErrors.CodeConflict, "suspect is %s, bail requires an arrested suspect", suspect.Status)
	}
	c, err := s.cases.FindByID(ctx, suspect.CaseID)
	if err != nil {
		return nil, translateStoreErr(err, "case")
	}

	now := requestcontext.Now(ctx)
	bail, err := models.NewBailPayment(id.BailID(uuid.New()), suspectID, suspect.CaseID, amount, c.CrimeLevel.Level, actor, now)
	if err != nil {
		return nil, err
	}
	err = s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.Create(txCtx, bail); err != nil {
			return translateStoreErr(err, "bail")
		}
		if bail.Status == models.StatusApproved {
			return s.sink.Notify(txCtx, bail.RequestedBy, notify.KindBailApproved, bail.CaseID, map[string]string{
				"bail_id": bail.ID.String(),
				"amount":  strconv.FormatInt(bail.Amount, 10),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bail, nil
}

// Review records the sergeant's call on a pending request.
func (s *Service) Review(ctx context.Context, actor id.ActorID, bailID id.BailID, approve bool) (*models.BailPayment, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankSergeant); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	var updated *models.BailPayment
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		bail, err := s.store.Execute(txCtx, bailID,
			func(b *models.BailPayment) error { return b.RequireStatus(models.StatusPending) },
			func(b *models.BailPayment) {
				if approve {
					b.ApplyApproval(actor, now)
				} else {
					b.ApplyRejection(actor, now)
				}
			},
		)
		if err != nil {
			return translateStoreErr(err, "bail")
		}
		updated = bail
		if !approve {
			return nil
		}
		return s.sink.Notify(txCtx, bail.RequestedBy, notify.KindBailApproved, bail.CaseID, map[string]string{
			"bail_id": bail.ID.String(),
			"amount":  strconv.FormatInt(bail.Amount, 10),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Pay asks the gateway to take the money. The authority token is stored for
// verification; a gateway failure leaves the bail approved so the call can
// simply be retried.
func (s *Service) Pay(ctx context.Context, actor id.ActorID, bailID id.BailID) (*models.BailPayment, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankCadet); err != nil {
		return nil, err
	}
	bail, err := s.store.FindByID(ctx, bailID)
	if err != nil {
		return nil, translateStoreErr(err, "bail")
	}
	if err := bail.RequireStatus(models.StatusApproved); err != nil {
		return nil, err
	}

	authority, refID, err := s.gateway.RequestPayment(ctx, bail.Amount, gateway.PaymentMeta{
		BailID:    bail.ID.String(),
		CaseID:    bail.CaseID.String(),
		SuspectID: bail.SuspectID.String(),
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "payment gateway is unavailable")
	}

	now := requestcontext.Now(ctx)
	updated, err := s.store.Execute(ctx, bailID,
		func(b *models.BailPayment) error { return b.RequireStatus(models.StatusApproved) },
		func(b *models.BailPayment) { b.ApplyAuthority(authority, refID, now) },
	)
	if err != nil {
		return nil, translateStoreErr(err, "bail")
	}
	return updated, nil
}

// VerifyPayment confirms settlement with the gateway. A bail already paid
// returns as-is without a second gateway call, so retried verifications are
// harmless. Settlement clears the suspect.
func (s *Service) VerifyPayment(ctx context.Context, actor id.ActorID, bailID id.BailID) (*models.BailPayment, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankCadet); err != nil {
		return nil, err
	}
	bail, err := s.store.FindByID(ctx, bailID)
	if err != nil {
		return nil, translateStoreErr(err, "bail")
	}
	if bail.Status == models.StatusPaid {
		return bail, nil
	}
	if err := bail.RequireStatus(models.StatusApproved); err != nil {
		return nil, err
	}
	if bail.GatewayAuthority == "" {
		return nil, dErrors.New(dErrors.CodeConflict, "bail has no pending gateway payment")
	}

	result, err := s.gateway.Verify(ctx, bail.GatewayAuthority, bail.Amount)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "payment gateway is unavailable")
	}
	if !result.Settled {
		return nil, dErrors.New(dErrors.CodeConflict, "payment has not settled")
	}

	now := requestcontext.Now(ctx)
	var updated *models.BailPayment
	err = s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		updated, err = s.store.Execute(txCtx, bailID,
			func(b *models.BailPayment) error { return b.RequireStatus(models.StatusApproved) },
			func(b *models.BailPayment) { b.ApplyPaid(now) },
		)
		if err != nil {
			return translateStoreErr(err, "bail")
		}
		if _, err := s.suspects.Execute(txCtx, updated.SuspectID,
			func(suspect *suspectsmodels.Suspect) error {
				return suspect.CanChangeStatusTo(suspectsmodels.StatusCleared)
			},
			func(suspect *suspectsmodels.Suspect) {
				suspect.ApplyStatusChange(suspectsmodels.StatusCleared, now)
			},
		); err != nil {
			return translateStoreErr(err, "suspect")
		}
		return s.sink.Notify(txCtx, updated.RequestedBy, notify.KindSuspectReleased, updated.CaseID, map[string]string{
			"bail_id": updated.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementBailPaid()
	return updated, nil
}

// Get returns a bail visible to any police rank.
func (s *Service) Get(ctx context.Context, actor id.ActorID, bailID id.BailID) (*models.BailPayment, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankCadet); err != nil {
		return nil, err
	}
	bail, err := s.store.FindByID(ctx, bailID)
	if err != nil {
		return nil, translateStoreErr(err, "bail")
	}
	return bail, nil
}

// ListBySuspect returns a suspect's bail history.
func (s *Service) ListBySuspect(ctx context.Context, actor id.ActorID, suspectID id.SuspectID) ([]*models.BailPayment, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankCadet); err != nil {
		return nil, err
	}
	bails, err := s.store.ListBySuspect(ctx, suspectID)
	if err != nil {
		return nil, translateStoreErr(err, "bail")
	}
	return bails, nil
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
