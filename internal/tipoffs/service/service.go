package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"

	casesmodels "casefile/internal/cases/models"
	"casefile/internal/notify"
	"casefile/internal/platform/metrics"
	rolesmodels "casefile/internal/roles/models"
	suspectsmodels "casefile/internal/suspects/models"
	"casefile/internal/tipoffs/models"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/platform/sentinel"
	"casefile/pkg/platform/tx"
	"casefile/pkg/requestcontext"
)

// codeAttempts bounds redemption-code collision retries.
const codeAttempts = 5

// Store persists tips. FindByCodeAndSubmitter is the only lookup path that
// touches redemption codes, so a wrong code never reveals anything else.
type Store interface {
	Create(ctx context.Context, tip *models.TipOff) error
	FindByID(ctx context.Context, tipID id.TipOffID) (*models.TipOff, error)
	FindByCodeAndSubmitter(ctx context.Context, code string, submitter id.PersonID) (*models.TipOff, error)
	Execute(ctx context.Context, tipID id.TipOffID, validate func(*models.TipOff) error, mutate func(*models.TipOff)) (*models.TipOff, error)
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.TipOff, error)
}

// SuspectReader looks up the suspect a tip targets.
type SuspectReader interface {
	FindByID(ctx context.Context, suspectID id.SuspectID) (*suspectsmodels.Suspect, error)
}

// CaseReader looks up the case behind a tip for its crime level and its
// assigned detective.
type CaseReader interface {
	FindByID(ctx context.Context, caseID id.CaseID) (*casesmodels.Case, error)
}

// Authority answers capability and rank questions.
type Authority interface {
	RequireMinRank(ctx context.Context, actor id.ActorID, minRank int) (*rolesmodels.Role, error)
	RequireRankBetween(ctx context.Context, actor id.ActorID, minRank, maxRank int) (*rolesmodels.Role, error)
}

// Service owns the citizen tip pipeline: submission, the two review stages
// and the reward redemption handshake.
type Service struct {
	store     Store
	suspects  SuspectReader
	cases     CaseReader
	authority Authority
	sink      notify.Sink
	metrics   *metrics.Metrics
	runner    tx.Runner
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, suspects SuspectReader, cases CaseReader, authority Authority, sink notify.Sink, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		store:     store,
		suspects:  suspects,
		cases:     cases,
		authority: authority,
		sink:      sink,
		runner:    runner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit files a citizen tip against a suspect still at large. No rank is
// required; the submitter is identified by national id.
func (s *Service) Submit(ctx context.Context, submitter id.PersonID, suspectID id.SuspectID, content string) (*models.TipOff, error) {
	suspect, err := s.suspects.FindByID(ctx, suspectID)
	if err != nil {
		return nil, translateStoreErr(err, "suspect")
	}
	if !suspect.AtLarge() {
		return nil, dErrors.Newf(dErrors.CodeConflict, "suspect is %s, tips are only accepted while at large", suspect.Status)
	}

	now := requestcontext.Now(ctx)
	tip, err := models.NewTipOff(id.TipOffID(uuid.New()), suspect.CaseID, suspectID, submitter, content, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, tip); err != nil {
		return nil, translateStoreErr(err, "tip")
	}
	return tip, nil
}

// OfficerReview records the first-stage outcome. Only the cadet-to-officer
// band may act; detective ranks and above are deliberately excluded. An
// approved tip lands on the desk of the case's assigned detective.
func (s *Service) OfficerReview(ctx context.Context, actor id.ActorID, tipID id.TipOffID, approve bool, reason string) (*models.TipOff, error) {
	if _, err := s.authority.RequireRankBetween(ctx, actor, rolesmodels.RankCadet, rolesmodels.RankOfficer); err != nil {
		return nil, err
	}
	if !approve && strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "rejection requires a reason")
	}

	now := requestcontext.Now(ctx)
	var updated *models.TipOff
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		tip, err := s.store.Execute(txCtx, tipID,
			func(t *models.TipOff) error { return t.CanOfficerReview() },
			func(t *models.TipOff) { t.ApplyOfficerReview(actor, approve, reason, now) },
		)
		if err != nil {
			return translateStoreErr(err, "tip")
		}
		updated = tip

		if !approve {
			return nil
		}
		c, err := s.cases.FindByID(txCtx, tip.CaseID)
		if err != nil {
			return translateStoreErr(err, "case")
		}
		if c.AssignedDetective == nil {
			return nil
		}
		return s.sink.Notify(txCtx, *c.AssignedDetective, notify.KindTipReviewed, tip.CaseID, map[string]string{
			"tip_id": tip.ID.String(),
			"stage":  "officer",
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DetectiveReview records the second-stage outcome. Only the case's assigned
// detective may act. Approval issues a redemption code and freezes the
// reward at the suspect's current pricing; rejection never issues a code.
func (s *Service) DetectiveReview(ctx context.Context, actor id.ActorID, tipID id.TipOffID, approve bool, reason string) (*models.TipOff, error) {
	if !approve && strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "rejection requires a reason")
	}

	tip, err := s.store.FindByID(ctx, tipID)
	if err != nil {
		return nil, translateStoreErr(err, "tip")
	}
	c, err := s.cases.FindByID(ctx, tip.CaseID)
	if err != nil {
		return nil, translateStoreErr(err, "case")
	}
	if c.AssignedDetective == nil || *c.AssignedDetective != actor {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the case's assigned detective may review this tip")
	}

	now := requestcontext.Now(ctx)
	if !approve {
		updated, err := s.store.Execute(ctx, tipID,
			func(t *models.TipOff) error { return t.CanDetectiveReview() },
			func(t *models.TipOff) { t.ApplyDetectiveRejection(actor, reason, now) },
		)
		if err != nil {
			return nil, translateStoreErr(err, "tip")
		}
		return updated, nil
	}

	suspect, err := s.suspects.FindByID(ctx, tip.SuspectID)
	if err != nil {
		return nil, translateStoreErr(err, "suspect")
	}
	reward := suspect.RewardAmount(c.CrimeLevel, now)

	// Codes are unique storewide; retry on the rare collision.
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := generateRedemptionCode()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate redemption code")
		}
		updated, err := s.store.Execute(ctx, tipID,
			func(t *models.TipOff) error { return t.CanDetectiveReview() },
			func(t *models.TipOff) { t.ApplyDetectiveApproval(actor, code, reward, now) },
		)
		if errors.Is(err, sentinel.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, translateStoreErr(err, "tip")
		}
		return updated, nil
	}
	return nil, dErrors.New(dErrors.CodeInternal, "could not issue a unique redemption code")
}

// VerifyReward checks a claim without paying it out. The lookup is keyed on
// the code and the claimant's national id together; a miss on either is a
// plain not-found.
func (s *Service) VerifyReward(ctx context.Context, actor id.ActorID, submitter id.PersonID, code string) (*models.TipOff, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankCadet); err != nil {
		return nil, err
	}
	tip, err := s.store.FindByCodeAndSubmitter(ctx, code, submitter)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "reward not found")
		}
		return nil, translateStoreErr(err, "tip")
	}
	if err := tip.CanRedeem(); err != nil {
		return nil, err
	}
	return tip, nil
}

// RedeemReward pays the claim out exactly once. A second attempt fails in
// the status guard under the store lock.
func (s *Service) RedeemReward(ctx context.Context, actor id.ActorID, submitter id.PersonID, code string) (*models.TipOff, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankCadet); err != nil {
		return nil, err
	}
	tip, err := s.store.FindByCodeAndSubmitter(ctx, code, submitter)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "reward not found")
		}
		return nil, translateStoreErr(err, "tip")
	}

	now := requestcontext.Now(ctx)
	var updated *models.TipOff
	err = s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		updated, err = s.store.Execute(txCtx, tip.ID,
			func(t *models.TipOff) error { return t.CanRedeem() },
			func(t *models.TipOff) { t.ApplyRedemption(actor, now) },
		)
		if err != nil {
			return translateStoreErr(err, "tip")
		}
		return s.sink.Notify(txCtx, actor, notify.KindRewardRedeemed, updated.CaseID, map[string]string{
			"tip_id": updated.ID.String(),
			"amount": strconv.FormatInt(updated.RewardAmount, 10),
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementTipsRedeemed()
	return updated, nil
}

// ListByCase returns a case's tips for any police rank.
func (s *Service) ListByCase(ctx context.Context, actor id.ActorID, caseID id.CaseID) ([]*models.TipOff, error) {
	if _, err := s.authority.RequireMinRank(ctx, actor, rolesmodels.RankCadet); err != nil {
		return nil, err
	}
	tips, err := s.store.ListByCase(ctx, caseID)
	if err != nil {
		return nil, translateStoreErr(err, "tip")
	}
	return tips, nil
}

func generateRedemptionCode() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return models.RedemptionCodePrefix + hex.EncodeToString(buf), nil
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
