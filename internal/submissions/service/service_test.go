package service

import (
	"context"
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
	"casefile/internal/submissions/models"
	"casefile/internal/submissions/store"
	suspectsmodels "casefile/internal/suspects/models"
	suspectsstore "casefile/internal/suspects/store"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/platform/tx"
	"casefile/pkg/requestcontext"
)

type SubmissionServiceSuite struct {
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
}

func TestSubmissionServiceSuite(t *testing.T) {
	suite.Run(t, new(SubmissionServiceSuite))
}

func (s *SubmissionServiceSuite) SetupTest() {
	s.now = time.Date(2026, 6, 2, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.store = store.NewInMemory()
	s.cases = casesstore.NewInMemory()
	s.suspects = suspectsstore.NewInMemory()
	s.roles = rolesservice.NewAuthority(rolesstore.NewInMemory())
	s.sink = notifymemory.NewRecorder()
	s.service = New(s.store, s.cases, s.suspects, s.roles, s.sink, tx.PassthroughRunner{})

	s.detective = s.grant(rolesmodels.CapabilityDetective, rolesmodels.RankDetective)
	s.sergeant = s.grant(rolesmodels.CapabilitySergeant, rolesmodels.RankSergeant)
}

func (s *SubmissionServiceSuite) grant(capability string, rank int) id.ActorID {
	_, err := s.roles.CreateRole(s.ctx, capability, capability, rank)
	s.Require().NoError(err)
	actor := id.ActorID(uuid.New())
	s.Require().NoError(s.roles.GrantRole(s.ctx, actor, capability))
	return actor
}

func (s *SubmissionServiceSuite) investigatedCase() *casesmodels.Case {
	c, err := casesmodels.NewCase(
		id.CaseID(uuid.New()), "burglary ring", "", casesmodels.FormationComplaint,
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

func (s *SubmissionServiceSuite) addSuspect(c *casesmodels.Case) *suspectsmodels.Suspect {
	sp, err := suspectsmodels.NewSuspect(
		id.SuspectID(uuid.New()), c.ID, id.PersonID(uuid.New()),
		s.detective, "print match", s.now,
	)
	s.Require().NoError(err)
	s.Require().NoError(s.suspects.Create(s.ctx, sp))
	return sp
}

func (s *SubmissionServiceSuite) filed() (*casesmodels.Case, *suspectsmodels.Suspect, *models.SuspectSubmission) {
	c := s.investigatedCase()
	sp := s.addSuspect(c)
	sub, err := s.service.Submit(s.ctx, s.detective, c.ID, []id.SuspectID{sp.ID}, "prints and testimony line up")
	s.Require().NoError(err)
	return c, sp, sub
}

// =============================================================================
// Submit
// =============================================================================

func (s *SubmissionServiceSuite) TestSubmit() {
	s.Run("moves the case to suspects_identified and notifies sergeants", func() {
		c, _, sub := s.filed()
		s.Equal(models.StatusPending, sub.Status)

		updated, err := s.cases.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(casesmodels.StatusSuspectsIdentified, updated.Status)

		s.NotEmpty(s.sink.SentOfKind(notify.KindSuspectsSubmitted))
		s.NotEmpty(s.sink.SentTo(s.sergeant))
	})

	s.Run("requires the detective capability", func() {
		c := s.investigatedCase()
		sp := s.addSuspect(c)
		_, err := s.service.Submit(s.ctx, s.sergeant, c.ID, []id.SuspectID{sp.ID}, "reasoning")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejects an empty suspect set", func() {
		c := s.investigatedCase()
		_, err := s.service.Submit(s.ctx, s.detective, c.ID, nil, "reasoning")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("every suspect must belong to the case", func() {
		c := s.investigatedCase()
		other := s.investigatedCase()
		foreign := s.addSuspect(other)
		_, err := s.service.Submit(s.ctx, s.detective, c.ID, []id.SuspectID{foreign.ID}, "reasoning")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "does not belong")
	})

	s.Run("a second pending submission conflicts on the case state", func() {
		c := s.investigatedCase()
		sp := s.addSuspect(c)
		_, err := s.service.Submit(s.ctx, s.detective, c.ID, []id.SuspectID{sp.ID}, "first")
		s.Require().NoError(err)
		_, err = s.service.Submit(s.ctx, s.detective, c.ID, []id.SuspectID{sp.ID}, "second")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

// =============================================================================
// Review
// =============================================================================

func (s *SubmissionServiceSuite) TestReview() {
	s.Run("approval issues warrants and advances the case", func() {
		c, sp, sub := s.filed()
		reviewed, err := s.service.Review(s.ctx, s.sergeant, sub.ID, true, "solid work")
		s.NoError(err)
		s.Equal(models.StatusApproved, reviewed.Status)
		s.Equal(s.sergeant, *reviewed.ReviewedBy)

		updatedCase, err := s.cases.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(casesmodels.StatusArrestApproved, updatedCase.Status)
		s.Equal(s.sergeant, *updatedCase.AssignedSergeant)

		updatedSuspect, err := s.suspects.FindByID(s.ctx, sp.ID)
		s.Require().NoError(err)
		s.True(updatedSuspect.ArrestWarrantIssued)
		s.Equal(s.sergeant, *updatedSuspect.ApprovedBySergeant)

		s.NotEmpty(s.sink.SentTo(s.detective))
	})

	s.Run("rejection resumes the investigation", func() {
		c, sp, sub := s.filed()
		reviewed, err := s.service.Review(s.ctx, s.sergeant, sub.ID, false, "not enough evidence")
		s.NoError(err)
		s.Equal(models.StatusRejected, reviewed.Status)

		updatedCase, err := s.cases.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(casesmodels.StatusUnderInvestigation, updatedCase.Status)

		updatedSuspect, err := s.suspects.FindByID(s.ctx, sp.ID)
		s.Require().NoError(err)
		s.False(updatedSuspect.ArrestWarrantIssued)
	})

	s.Run("rejection requires notes", func() {
		_, _, sub := s.filed()
		_, err := s.service.Review(s.ctx, s.sergeant, sub.ID, false, " ")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("requires sergeant rank", func() {
		_, _, sub := s.filed()
		_, err := s.service.Review(s.ctx, s.detective, sub.ID, true, "")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("a reviewed submission cannot be reviewed again", func() {
		_, _, sub := s.filed()
		_, err := s.service.Review(s.ctx, s.sergeant, sub.ID, true, "")
		s.Require().NoError(err)
		_, err = s.service.Review(s.ctx, s.sergeant, sub.ID, false, "changed my mind")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *SubmissionServiceSuite) TestListByCase() {
	c, sp, _ := s.filed()
	_, err := s.service.Review(s.ctx, s.sergeant, s.mustOnly(c.ID).ID, false, "redo")
	s.Require().NoError(err)

	sub2, err := s.service.Submit(s.ctx, s.detective, c.ID, []id.SuspectID{sp.ID}, "second attempt")
	s.Require().NoError(err)

	listed, err := s.service.ListByCase(s.ctx, s.sergeant, c.ID)
	s.NoError(err)
	s.Require().Len(listed, 2)
	s.Equal(sub2.ID, listed[1].ID)
}

func (s *SubmissionServiceSuite) mustOnly(caseID id.CaseID) *models.SuspectSubmission {
	listed, err := s.store.ListByCase(s.ctx, caseID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	return listed[0]
}
