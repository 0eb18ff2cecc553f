package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	casesmodels "casefile/internal/cases/models"
	casesstore "casefile/internal/cases/store"
	"casefile/internal/notify"
	notifymemory "casefile/internal/notify/memory"
	rolesmodels "casefile/internal/roles/models"
	rolesservice "casefile/internal/roles/service"
	rolesstore "casefile/internal/roles/store"
	suspectsmodels "casefile/internal/suspects/models"
	suspectsstore "casefile/internal/suspects/store"
	"casefile/internal/tipoffs/models"
	"casefile/internal/tipoffs/store"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/platform/tx"
	"casefile/pkg/requestcontext"
)

type TipOffServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	store    *store.InMemory
	cases    *casesstore.InMemory
	suspects *suspectsstore.InMemory
	roles    *rolesservice.Authority
	sink     *notifymemory.Recorder
	service  *Service

	citizen   id.PersonID
	officer   id.ActorID
	detective id.ActorID
	sergeant  id.ActorID
}

func TestTipOffServiceSuite(t *testing.T) {
	suite.Run(t, new(TipOffServiceSuite))
}

func (s *TipOffServiceSuite) SetupTest() {
	s.now = time.Date(2026, 6, 4, 11, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.store = store.NewInMemory()
	s.cases = casesstore.NewInMemory()
	s.suspects = suspectsstore.NewInMemory()
	s.roles = rolesservice.NewAuthority(rolesstore.NewInMemory())
	s.sink = notifymemory.NewRecorder()
	s.service = New(s.store, s.suspects, s.cases, s.roles, s.sink, tx.PassthroughRunner{})

	s.citizen = id.PersonID(uuid.New())
	s.officer = s.grant(rolesmodels.CapabilityOfficer, rolesmodels.RankOfficer)
	s.detective = s.grant(rolesmodels.CapabilityDetective, rolesmodels.RankDetective)
	s.sergeant = s.grant(rolesmodels.CapabilitySergeant, rolesmodels.RankSergeant)
}

func (s *TipOffServiceSuite) grant(capability string, rank int) id.ActorID {
	_, err := s.roles.CreateRole(s.ctx, capability, capability, rank)
	s.Require().NoError(err)
	actor := id.ActorID(uuid.New())
	s.Require().NoError(s.roles.GrantRole(s.ctx, actor, capability))
	return actor
}

// investigatedCase has s.detective assigned, which is who detective-stage
// review is gated on.
func (s *TipOffServiceSuite) investigatedCase() *casesmodels.Case {
	c, err := casesmodels.NewCase(
		id.CaseID(uuid.New()), "jewel heist", "", casesmodels.FormationComplaint,
		casesmodels.CrimeLevel{Level: casesmodels.CrimeLevelMajor, Name: "major"},
		id.ActorID(uuid.New()), s.now,
	)
	s.Require().NoError(err)
	c.ApplySubmit(s.now)
	c.ApplyCadetApproval(id.ActorID(uuid.New()), s.now)
	c.ApplyOfficerApproval(id.ActorID(uuid.New()), s.now)
	c.ApplyInvestigationStart(s.detective, s.now)
	s.Require().NoError(s.cases.Create(s.ctx, c))
	return c
}

// atLargeSuspect backdates identification by ten days so the frozen reward
// is non-zero.
func (s *TipOffServiceSuite) atLargeSuspect(c *casesmodels.Case) *suspectsmodels.Suspect {
	sp, err := suspectsmodels.NewSuspect(
		id.SuspectID(uuid.New()), c.ID, id.PersonID(uuid.New()),
		s.detective, "matches the fence's description", s.now,
	)
	s.Require().NoError(err)
	sp.IdentifiedAt = s.now.AddDate(0, 0, -10)
	s.Require().NoError(s.suspects.Create(s.ctx, sp))
	return sp
}

func (s *TipOffServiceSuite) approvedTip() *models.TipOff {
	c := s.investigatedCase()
	sp := s.atLargeSuspect(c)
	tip, err := s.service.Submit(s.ctx, s.citizen, sp.ID, "spotted boarding the night ferry")
	s.Require().NoError(err)
	_, err = s.service.OfficerReview(s.ctx, s.officer, tip.ID, true, "")
	s.Require().NoError(err)
	approved, err := s.service.DetectiveReview(s.ctx, s.detective, tip.ID, true, "")
	s.Require().NoError(err)
	return approved
}

// =============================================================================
// Submit
// =============================================================================

func (s *TipOffServiceSuite) TestSubmit() {
	s.Run("files a pending tip against an at large suspect", func() {
		c := s.investigatedCase()
		sp := s.atLargeSuspect(c)
		tip, err := s.service.Submit(s.ctx, s.citizen, sp.ID, "seen at the harbor")
		s.Require().NoError(err)
		s.Equal(models.StatusPending, tip.Status)
		s.Equal(c.ID, tip.CaseID)
		s.Equal(s.citizen, tip.SubmittedBy)
	})

	s.Run("refuses a suspect no longer at large", func() {
		c := s.investigatedCase()
		sp := s.atLargeSuspect(c)
		_, err := s.suspects.Execute(s.ctx, sp.ID,
			func(*suspectsmodels.Suspect) error { return nil },
			func(sp *suspectsmodels.Suspect) {
				sp.ApplyStatusChange(suspectsmodels.StatusArrested, s.now)
			},
		)
		s.Require().NoError(err)

		_, err = s.service.Submit(s.ctx, s.citizen, sp.ID, "seen at the harbor")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown suspect is not found", func() {
		_, err := s.service.Submit(s.ctx, s.citizen, id.SuspectID(uuid.New()), "seen at the harbor")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("rejects empty content", func() {
		c := s.investigatedCase()
		sp := s.atLargeSuspect(c)
		_, err := s.service.Submit(s.ctx, s.citizen, sp.ID, "  ")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// OfficerReview
// =============================================================================

func (s *TipOffServiceSuite) TestOfficerReview() {
	s.Run("approval notifies the assigned detective", func() {
		c := s.investigatedCase()
		sp := s.atLargeSuspect(c)
		tip, err := s.service.Submit(s.ctx, s.citizen, sp.ID, "seen at the harbor")
		s.Require().NoError(err)

		updated, err := s.service.OfficerReview(s.ctx, s.officer, tip.ID, true, "")
		s.Require().NoError(err)
		s.Equal(models.StatusOfficerApproved, updated.Status)

		s.NotEmpty(s.sink.SentOfKind(notify.KindTipReviewed))
		s.NotEmpty(s.sink.SentTo(s.detective))
	})

	s.Run("rejection requires a reason", func() {
		c := s.investigatedCase()
		sp := s.atLargeSuspect(c)
		tip, err := s.service.Submit(s.ctx, s.citizen, sp.ID, "seen at the harbor")
		s.Require().NoError(err)

		_, err = s.service.OfficerReview(s.ctx, s.officer, tip.ID, false, "  ")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		updated, err := s.service.OfficerReview(s.ctx, s.officer, tip.ID, false, "suspect was in custody that day")
		s.Require().NoError(err)
		s.Equal(models.StatusOfficerRejected, updated.Status)
	})

	s.Run("detective ranks are excluded from the first stage", func() {
		c := s.investigatedCase()
		sp := s.atLargeSuspect(c)
		tip, err := s.service.Submit(s.ctx, s.citizen, sp.ID, "seen at the harbor")
		s.Require().NoError(err)

		_, err = s.service.OfficerReview(s.ctx, s.detective, tip.ID, true, "")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("a tip takes one first-stage review", func() {
		c := s.investigatedCase()
		sp := s.atLargeSuspect(c)
		tip, err := s.service.Submit(s.ctx, s.citizen, sp.ID, "seen at the harbor")
		s.Require().NoError(err)

		_, err = s.service.OfficerReview(s.ctx, s.officer, tip.ID, true, "")
		s.Require().NoError(err)
		_, err = s.service.OfficerReview(s.ctx, s.officer, tip.ID, true, "")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

// =============================================================================
// DetectiveReview
// =============================================================================

func (s *TipOffServiceSuite) TestDetectiveReview() {
	s.Run("approval issues a code and freezes the reward", func() {
		tip := s.approvedTip()
		s.Equal(models.StatusApproved, tip.Status)
		s.Require().NotNil(tip.RedemptionCode)
		s.True(strings.HasPrefix(*tip.RedemptionCode, models.RedemptionCodePrefix))

		// Ten days at large on a major crime.
		wantDanger := int64(10) * int64(4-casesmodels.CrimeLevelMajor)
		s.Equal(wantDanger*suspectsmodels.RewardPerDangerPoint, tip.RewardAmount)
	})

	s.Run("only the assigned detective may review", func() {
		c := s.investigatedCase()
		sp := s.atLargeSuspect(c)
		tip, err := s.service.Submit(s.ctx, s.citizen, sp.ID, "seen at the harbor")
		s.Require().NoError(err)
		_, err = s.service.OfficerReview(s.ctx, s.officer, tip.ID, true, "")
		s.Require().NoError(err)

		other := s.grant("detective_second", rolesmodels.RankDetective)
		_, err = s.service.DetectiveReview(s.ctx, other, tip.ID, true, "")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("the officer stage must come first", func() {
		c := s.investigatedCase()
		sp := s.atLargeSuspect(c)
		tip, err := s.service.Submit(s.ctx, s.citizen, sp.ID, "seen at the harbor")
		s.Require().NoError(err)

		_, err = s.service.DetectiveReview(s.ctx, s.detective, tip.ID, true, "")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejection requires a reason and issues no code", func() {
		c := s.investigatedCase()
		sp := s.atLargeSuspect(c)
		tip, err := s.service.Submit(s.ctx, s.citizen, sp.ID, "seen at the harbor")
		s.Require().NoError(err)
		_, err = s.service.OfficerReview(s.ctx, s.officer, tip.ID, true, "")
		s.Require().NoError(err)

		_, err = s.service.DetectiveReview(s.ctx, s.detective, tip.ID, false, "")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		updated, err := s.service.DetectiveReview(s.ctx, s.detective, tip.ID, false, "lead already ruled out")
		s.Require().NoError(err)
		s.Equal(models.StatusDetectiveRejected, updated.Status)
		s.Nil(updated.RedemptionCode)
	})
}

// =============================================================================
// VerifyReward / RedeemReward
// =============================================================================

func (s *TipOffServiceSuite) TestRewardRedemption() {
	s.Run("verify checks the claim without paying out", func() {
		tip := s.approvedTip()
		got, err := s.service.VerifyReward(s.ctx, s.officer, s.citizen, *tip.RedemptionCode)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, got.Status)
		s.Equal(tip.RewardAmount, got.RewardAmount)
	})

	s.Run("a wrong submitter looks like a missing reward", func() {
		tip := s.approvedTip()
		_, err := s.service.VerifyReward(s.ctx, s.officer, id.PersonID(uuid.New()), *tip.RedemptionCode)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Contains(err.Error(), "reward not found")
	})

	s.Run("a wrong code looks the same", func() {
		s.approvedTip()
		_, err := s.service.VerifyReward(s.ctx, s.officer, s.citizen, models.RedemptionCodePrefix+"0000000000")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("redeem pays exactly once", func() {
		tip := s.approvedTip()
		redeemed, err := s.service.RedeemReward(s.ctx, s.officer, s.citizen, *tip.RedemptionCode)
		s.Require().NoError(err)
		s.Equal(models.StatusRedeemed, redeemed.Status)
		s.Require().NotNil(redeemed.RedeemedBy)
		s.Equal(s.officer, *redeemed.RedeemedBy)
		s.NotEmpty(s.sink.SentOfKind(notify.KindRewardRedeemed))

		_, err = s.service.RedeemReward(s.ctx, s.officer, s.citizen, *tip.RedemptionCode)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "already been claimed")
	})

	s.Run("requires a police rank", func() {
		tip := s.approvedTip()
		_, err := s.service.RedeemReward(s.ctx, id.ActorID(uuid.New()), s.citizen, *tip.RedemptionCode)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

// =============================================================================
// ListByCase
// =============================================================================

func (s *TipOffServiceSuite) TestListByCase() {
	c := s.investigatedCase()
	sp := s.atLargeSuspect(c)
	for range 2 {
		_, err := s.service.Submit(s.ctx, s.citizen, sp.ID, "seen at the harbor")
		s.Require().NoError(err)
	}

	tips, err := s.service.ListByCase(s.ctx, s.sergeant, c.ID)
	s.Require().NoError(err)
	s.Len(tips, 2)

	_, err = s.service.ListByCase(s.ctx, id.ActorID(uuid.New()), c.ID)
	s.Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}
