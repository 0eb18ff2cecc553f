package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	casesmodels "casefile/internal/cases/models"
	casesstore "casefile/internal/cases/store"
	"casefile/internal/interrogations/models"
	"casefile/internal/interrogations/store"
	"casefile/internal/notify"
	notifymemory "casefile/internal/notify/memory"
	rolesmodels "casefile/internal/roles/models"
	rolesservice "casefile/internal/roles/service"
	rolesstore "casefile/internal/roles/store"
	suspectsmodels "casefile/internal/suspects/models"
	suspectsstore "casefile/internal/suspects/store"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/platform/tx"
	"casefile/pkg/requestcontext"
)

type InterrogationServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	store    *store.InMemory
	cases    *casesstore.InMemory
	suspects *suspectsstore.InMemory
	roles    *rolesservice.Authority
	sink     *notifymemory.Recorder
	service  *Service

	detective id.ActorID
	sergeant  id.ActorID
	captain   id.ActorID
	chief     id.ActorID
}

func TestInterrogationServiceSuite(t *testing.T) {
	suite.Run(t, new(InterrogationServiceSuite))
}

func (s *InterrogationServiceSuite) SetupTest() {
	s.now = time.Date(2026, 6, 3, 14, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.store = store.NewInMemory()
	s.cases = casesstore.NewInMemory()
	s.suspects = suspectsstore.NewInMemory()
	s.roles = rolesservice.NewAuthority(rolesstore.NewInMemory())
	s.sink = notifymemory.NewRecorder()
	s.service = New(s.store, s.cases, s.suspects, s.roles, s.sink, tx.PassthroughRunner{})

	s.detective = s.grant(rolesmodels.CapabilityDetective, rolesmodels.RankDetective)
	s.sergeant = s.grant(rolesmodels.CapabilitySergeant, rolesmodels.RankSergeant)
	s.captain = s.grant(rolesmodels.CapabilityCaptain, rolesmodels.RankCaptain)
	s.chief = s.grant(rolesmodels.CapabilityChief, rolesmodels.RankChief)
}

func (s *InterrogationServiceSuite) grant(capability string, rank int) id.ActorID {
	_, err := s.roles.CreateRole(s.ctx, capability, capability, rank)
	s.Require().NoError(err)
	actor := id.ActorID(uuid.New())
	s.Require().NoError(s.roles.GrantRole(s.ctx, actor, capability))
	return actor
}

func (s *InterrogationServiceSuite) arrestApprovedCase(level int) *casesmodels.Case {
	c, err := casesmodels.NewCase(
		id.CaseID(uuid.New()), "warehouse arson", "", casesmodels.FormationComplaint,
		casesmodels.CrimeLevel{Level: level, Name: "tier"},
		id.ActorID(uuid.New()), s.now,
	)
	s.Require().NoError(err)
	c.ApplySubmit(s.now)
	c.ApplyCadetApproval(id.ActorID(uuid.New()), s.now)
	c.ApplyOfficerApproval(id.ActorID(uuid.New()), s.now)
	c.ApplyInvestigationStart(s.detective, s.now)
	c.ApplySuspectsIdentified(s.now)
	c.ApplyArrestApproved(s.sergeant, s.now)
	s.Require().NoError(s.cases.Create(s.ctx, c))
	return c
}

func (s *InterrogationServiceSuite) warrantedSuspect(c *casesmodels.Case) *suspectsmodels.Suspect {
	sp, err := suspectsmodels.NewSuspect(
		id.SuspectID(uuid.New()), c.ID, id.PersonID(uuid.New()),
		s.detective, "caught on camera", s.now,
	)
	s.Require().NoError(err)
	sp.ApplyArrestApproval(s.sergeant, s.now)
	s.Require().NoError(s.suspects.Create(s.ctx, sp))
	return sp
}

func (s *InterrogationServiceSuite) opened(level int) (*casesmodels.Case, *models.Interrogation) {
	c := s.arrestApprovedCase(level)
	sp := s.warrantedSuspect(c)
	interrogation, err := s.service.Open(s.ctx, s.detective, c.ID, sp.ID, s.detective, s.sergeant)
	s.Require().NoError(err)
	return c, interrogation
}

func (s *InterrogationServiceSuite) submitted(level int) (*casesmodels.Case, *models.Interrogation) {
	c, interrogation := s.opened(level)
	_, err := s.service.SubmitRatings(s.ctx, s.detective, interrogation.ID, SubmitRatingsInput{
		DetectiveGuiltRating: 8,
		SergeantGuiltRating:  7,
		DetectiveNotes:       "contradicted his own alibi twice",
		SergeantNotes:        "broke down when shown the footage",
	})
	s.Require().NoError(err)
	return c, interrogation
}

// =============================================================================
// Open
// =============================================================================

func (s *InterrogationServiceSuite) TestOpen() {
	s.Run("moves the case into interrogation", func() {
		c, interrogation := s.opened(casesmodels.CrimeLevelMajor)
		s.Equal(models.StatusPending, interrogation.Status)
		s.Equal(s.detective, interrogation.DetectiveID)
		s.Equal(s.sergeant, interrogation.SergeantID)

		updated, err := s.cases.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(casesmodels.StatusInterrogation, updated.Status)
	})

	s.Run("requires the detective capability", func() {
		c := s.arrestApprovedCase(casesmodels.CrimeLevelMajor)
		sp := s.warrantedSuspect(c)
		_, err := s.service.Open(s.ctx, s.sergeant, c.ID, sp.ID, s.detective, s.sergeant)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("assigned members must hold their ranks", func() {
		c := s.arrestApprovedCase(casesmodels.CrimeLevelMajor)
		sp := s.warrantedSuspect(c)
		civilian := id.ActorID(uuid.New())

		_, err := s.service.Open(s.ctx, s.detective, c.ID, sp.ID, civilian, s.sergeant)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.Open(s.ctx, s.detective, c.ID, sp.ID, s.detective, s.detective)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("refuses a suspect without a warrant", func() {
		c := s.arrestApprovedCase(casesmodels.CrimeLevelMajor)
		sp, err := suspectsmodels.NewSuspect(
			id.SuspectID(uuid.New()), c.ID, id.PersonID(uuid.New()),
			s.detective, "anonymous tip", s.now,
		)
		s.Require().NoError(err)
		s.Require().NoError(s.suspects.Create(s.ctx, sp))

		_, err = s.service.Open(s.ctx, s.detective, c.ID, sp.ID, s.detective, s.sergeant)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "arrest warrant")
	})

	s.Run("refuses a suspect from another case", func() {
		c := s.arrestApprovedCase(casesmodels.CrimeLevelMajor)
		other := s.arrestApprovedCase(casesmodels.CrimeLevelMajor)
		sp := s.warrantedSuspect(other)

		_, err := s.service.Open(s.ctx, s.detective, c.ID, sp.ID, s.detective, s.sergeant)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// SubmitRatings
// =============================================================================

func (s *InterrogationServiceSuite) TestSubmitRatings() {
	s.Run("records both ratings and notifies captains", func() {
		_, interrogation := s.submitted(casesmodels.CrimeLevelMajor)

		updated, err := s.store.FindInterrogation(s.ctx, interrogation.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusSubmitted, updated.Status)
		s.Require().NotNil(updated.DetectiveGuiltRating)
		s.Equal(8, *updated.DetectiveGuiltRating)
		s.Require().NotNil(updated.SergeantGuiltRating)
		s.Equal(7, *updated.SergeantGuiltRating)

		s.NotEmpty(s.sink.SentOfKind(notify.KindInterrogationSubmitted))
		s.NotEmpty(s.sink.SentTo(s.captain))
	})

	s.Run("only the assigned pair may submit", func() {
		_, interrogation := s.opened(casesmodels.CrimeLevelMajor)
		_, err := s.service.SubmitRatings(s.ctx, s.captain, interrogation.ID, SubmitRatingsInput{
			DetectiveGuiltRating: 5,
			SergeantGuiltRating:  5,
		})
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("ratings land once", func() {
		_, interrogation := s.submitted(casesmodels.CrimeLevelMajor)
		_, err := s.service.SubmitRatings(s.ctx, s.sergeant, interrogation.ID, SubmitRatingsInput{
			DetectiveGuiltRating: 2,
			SergeantGuiltRating:  3,
		})
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown interrogation is not found", func() {
		_, err := s.service.SubmitRatings(s.ctx, s.detective, id.InterrogationID(uuid.New()), SubmitRatingsInput{
			DetectiveGuiltRating: 5,
			SergeantGuiltRating:  5,
		})
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// CaptainDecide
// =============================================================================

func (s *InterrogationServiceSuite) TestCaptainDecide() {
	s.Run("a guilty verdict moves the case toward trial", func() {
		c, interrogation := s.submitted(casesmodels.CrimeLevelMajor)
		decision, err := s.service.CaptainDecide(s.ctx, s.captain, interrogation.ID, models.VerdictGuilty, "confession matches the forensic timeline")
		s.Require().NoError(err)
		s.Equal(models.DecisionCompleted, decision.Status)

		updated, err := s.cases.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(casesmodels.StatusTrialPending, updated.Status)

		s.NotEmpty(s.sink.SentOfKind(notify.KindVerdictIssued))
		s.NotEmpty(s.sink.SentTo(s.detective))
		s.NotEmpty(s.sink.SentTo(s.sergeant))
	})

	s.Run("a critical crime parks the decision for the chief", func() {
		c, interrogation := s.submitted(casesmodels.CrimeLevelCritical)
		decision, err := s.service.CaptainDecide(s.ctx, s.captain, interrogation.ID, models.VerdictGuilty, "premeditation established beyond doubt")
		s.Require().NoError(err)
		s.Equal(models.DecisionAwaitingChief, decision.Status)

		updated, err := s.cases.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(casesmodels.StatusTrialPending, updated.Status)
	})

	s.Run("a not guilty verdict leaves the case in interrogation", func() {
		c, interrogation := s.submitted(casesmodels.CrimeLevelMajor)
		_, err := s.service.CaptainDecide(s.ctx, s.captain, interrogation.ID, models.VerdictNotGuilty, "alibi held up under cross-checking")
		s.Require().NoError(err)

		updated, err := s.cases.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(casesmodels.StatusInterrogation, updated.Status)
	})

	s.Run("requires captain rank", func() {
		_, interrogation := s.submitted(casesmodels.CrimeLevelMajor)
		_, err := s.service.CaptainDecide(s.ctx, s.sergeant, interrogation.ID, models.VerdictGuilty, "confession matches the forensic timeline")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("requires substantive reasoning", func() {
		_, interrogation := s.submitted(casesmodels.CrimeLevelMajor)
		_, err := s.service.CaptainDecide(s.ctx, s.captain, interrogation.ID, models.VerdictGuilty, "guilty")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("an interrogation takes one verdict", func() {
		_, interrogation := s.submitted(casesmodels.CrimeLevelMajor)
		_, err := s.service.CaptainDecide(s.ctx, s.captain, interrogation.ID, models.VerdictGuilty, "confession matches the forensic timeline")
		s.Require().NoError(err)

		_, err = s.service.CaptainDecide(s.ctx, s.captain, interrogation.ID, models.VerdictNotGuilty, "second thoughts about the confession")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("ratings must be in before a verdict", func() {
		_, interrogation := s.opened(casesmodels.CrimeLevelMajor)
		_, err := s.service.CaptainDecide(s.ctx, s.captain, interrogation.ID, models.VerdictGuilty, "confession matches the forensic timeline")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

// =============================================================================
// ChiefDecide
// =============================================================================

func (s *InterrogationServiceSuite) TestChiefDecide() {
	s.Run("completes an awaiting decision", func() {
		_, interrogation := s.submitted(casesmodels.CrimeLevelCritical)
		decision, err := s.service.CaptainDecide(s.ctx, s.captain, interrogation.ID, models.VerdictGuilty, "premeditation established beyond doubt")
		s.Require().NoError(err)

		chiefDecision, err := s.service.ChiefDecide(s.ctx, s.chief, decision.ID, models.ChiefApproved, "verdict is well supported")
		s.Require().NoError(err)
		s.Equal(models.ChiefApproved, chiefDecision.Decision)

		final, err := s.store.FindDecision(s.ctx, decision.ID)
		s.Require().NoError(err)
		s.Equal(models.DecisionCompleted, final.Status)
	})

	s.Run("a rejection still completes the decision", func() {
		_, interrogation := s.submitted(casesmodels.CrimeLevelCritical)
		decision, err := s.service.CaptainDecide(s.ctx, s.captain, interrogation.ID, models.VerdictGuilty, "premeditation established beyond doubt")
		s.Require().NoError(err)

		_, err = s.service.ChiefDecide(s.ctx, s.chief, decision.ID, models.ChiefRejected, "evidence chain has gaps")
		s.Require().NoError(err)

		final, err := s.store.FindDecision(s.ctx, decision.ID)
		s.Require().NoError(err)
		s.Equal(models.DecisionCompleted, final.Status)
	})

	s.Run("requires chief rank", func() {
		_, interrogation := s.submitted(casesmodels.CrimeLevelCritical)
		decision, err := s.service.CaptainDecide(s.ctx, s.captain, interrogation.ID, models.VerdictGuilty, "premeditation established beyond doubt")
		s.Require().NoError(err)

		_, err = s.service.ChiefDecide(s.ctx, s.captain, decision.ID, models.ChiefApproved, "verdict is well supported")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("a decision takes one sign-off", func() {
		_, interrogation := s.submitted(casesmodels.CrimeLevelCritical)
		decision, err := s.service.CaptainDecide(s.ctx, s.captain, interrogation.ID, models.VerdictGuilty, "premeditation established beyond doubt")
		s.Require().NoError(err)

		_, err = s.service.ChiefDecide(s.ctx, s.chief, decision.ID, models.ChiefApproved, "verdict is well supported")
		s.Require().NoError(err)

		_, err = s.service.ChiefDecide(s.ctx, s.chief, decision.ID, models.ChiefRejected, "changed my mind entirely")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("a completed decision needs no sign-off", func() {
		_, interrogation := s.submitted(casesmodels.CrimeLevelMajor)
		decision, err := s.service.CaptainDecide(s.ctx, s.captain, interrogation.ID, models.VerdictGuilty, "confession matches the forensic timeline")
		s.Require().NoError(err)

		_, err = s.service.ChiefDecide(s.ctx, s.chief, decision.ID, models.ChiefApproved, "nothing to add here")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

// =============================================================================
// TrialEligible
// =============================================================================

func (s *InterrogationServiceSuite) TestTrialEligible() {
	s.Run("a finalized guilty verdict makes the case eligible", func() {
		c, interrogation := s.submitted(casesmodels.CrimeLevelMajor)
		_, err := s.service.CaptainDecide(s.ctx, s.captain, interrogation.ID, models.VerdictGuilty, "confession matches the forensic timeline")
		s.Require().NoError(err)

		eligible, err := s.service.TrialEligible(s.ctx, c.ID)
		s.Require().NoError(err)
		s.True(eligible)
	})

	s.Run("an awaiting chief guilty verdict already counts", func() {
		c, interrogation := s.submitted(casesmodels.CrimeLevelCritical)
		_, err := s.service.CaptainDecide(s.ctx, s.captain, interrogation.ID, models.VerdictGuilty, "premeditation established beyond doubt")
		s.Require().NoError(err)

		eligible, err := s.service.TrialEligible(s.ctx, c.ID)
		s.Require().NoError(err)
		s.True(eligible)
	})

	s.Run("not guilty verdicts do not count", func() {
		c, interrogation := s.submitted(casesmodels.CrimeLevelMajor)
		_, err := s.service.CaptainDecide(s.ctx, s.captain, interrogation.ID, models.VerdictNotGuilty, "alibi held up under cross-checking")
		s.Require().NoError(err)

		eligible, err := s.service.TrialEligible(s.ctx, c.ID)
		s.Require().NoError(err)
		s.False(eligible)
	})

	s.Run("an undecided interrogation does not count", func() {
		c, _ := s.submitted(casesmodels.CrimeLevelMajor)
		eligible, err := s.service.TrialEligible(s.ctx, c.ID)
		s.Require().NoError(err)
		s.False(eligible)
	})
}

// =============================================================================
// Reads
// =============================================================================

func (s *InterrogationServiceSuite) TestReads() {
	s.Run("any police rank can read interrogations", func() {
		c, interrogation := s.opened(casesmodels.CrimeLevelMajor)
		cadet := s.grant(rolesmodels.CapabilityCadet, rolesmodels.RankCadet)

		got, err := s.service.Get(s.ctx, cadet, interrogation.ID)
		s.Require().NoError(err)
		s.Equal(interrogation.ID, got.ID)

		list, err := s.service.ListByCase(s.ctx, cadet, c.ID)
		s.Require().NoError(err)
		s.Len(list, 1)
	})

	s.Run("civilians cannot", func() {
		_, interrogation := s.opened(casesmodels.CrimeLevelMajor)
		_, err := s.service.Get(s.ctx, id.ActorID(uuid.New()), interrogation.ID)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("decision lookup surfaces the captain verdict", func() {
		_, interrogation := s.submitted(casesmodels.CrimeLevelMajor)
		decision, err := s.service.CaptainDecide(s.ctx, s.captain, interrogation.ID, models.VerdictGuilty, "confession matches the forensic timeline")
		s.Require().NoError(err)

		got, err := s.service.Decision(s.ctx, s.detective, interrogation.ID)
		s.Require().NoError(err)
		s.Equal(decision.ID, got.ID)
		s.Equal(models.VerdictGuilty, got.Decision)
	})
}
