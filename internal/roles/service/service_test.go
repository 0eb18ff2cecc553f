package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"casefile/internal/roles/models"
	"casefile/internal/roles/store"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/requestcontext"
)

type AuthoritySuite struct {
	suite.Suite
	ctx       context.Context
	authority *Authority
}

func TestAuthoritySuite(t *testing.T) {
	suite.Run(t, new(AuthoritySuite))
}

func (s *AuthoritySuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC))
	s.authority = NewAuthority(store.NewInMemory())
}

func (s *AuthoritySuite) actorWith(capability string, rank int) id.ActorID {
	_, err := s.authority.CreateRole(s.ctx, capability, capability, rank)
	s.Require().NoError(err)
	actor := id.ActorID(uuid.New())
	s.Require().NoError(s.authority.GrantRole(s.ctx, actor, capability))
	return actor
}

// =============================================================================
// CreateRole / GrantRole
// =============================================================================

func (s *AuthoritySuite) TestCreateRole() {
	s.Run("the role set is open", func() {
		role, err := s.authority.CreateRole(s.ctx, "Forensics Analyst", "forensics", 3)
		s.Require().NoError(err)
		s.Equal("forensics", role.Capability)
		s.Equal(3, role.Rank)
	})

	s.Run("capabilities are unique", func() {
		_, err := s.authority.CreateRole(s.ctx, "Cadet", models.CapabilityCadet, models.RankCadet)
		s.Require().NoError(err)
		_, err = s.authority.CreateRole(s.ctx, "Cadet Again", models.CapabilityCadet, models.RankCadet)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("invalid roles are rejected", func() {
		_, err := s.authority.CreateRole(s.ctx, "Nameless", "", 1)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("granting an unknown capability fails", func() {
		err := s.authority.GrantRole(s.ctx, id.ActorID(uuid.New()), "astronaut")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Capability and rank questions
// =============================================================================

func (s *AuthoritySuite) TestRequireCapability() {
	detective := s.actorWith(models.CapabilityDetective, models.RankDetective)

	s.NoError(s.authority.RequireCapability(s.ctx, detective, models.CapabilityDetective))

	err := s.authority.RequireCapability(s.ctx, detective, models.CapabilityChief)
	s.Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Contains(err.Error(), "chief capability required")
}

func (s *AuthoritySuite) TestHighestPoliceRank() {
	s.Run("the highest of several grants wins", func() {
		actor := s.actorWith(models.CapabilityCadet, models.RankCadet)
		_, err := s.authority.CreateRole(s.ctx, "Sergeant", models.CapabilitySergeant, models.RankSergeant)
		s.Require().NoError(err)
		s.Require().NoError(s.authority.GrantRole(s.ctx, actor, models.CapabilitySergeant))

		highest, err := s.authority.HighestPoliceRank(s.ctx, actor)
		s.Require().NoError(err)
		s.Require().NotNil(highest)
		s.Equal(models.RankSergeant, highest.Rank)
	})

	s.Run("civilian roles do not count", func() {
		actor := s.actorWith("clerk", 0)
		highest, err := s.authority.HighestPoliceRank(s.ctx, actor)
		s.Require().NoError(err)
		s.Nil(highest)
	})
}

func (s *AuthoritySuite) TestRequireMinRank() {
	sergeant := s.actorWith(models.CapabilitySergeant, models.RankSergeant)

	role, err := s.authority.RequireMinRank(s.ctx, sergeant, models.RankOfficer)
	s.Require().NoError(err)
	s.Equal(models.RankSergeant, role.Rank)

	_, err = s.authority.RequireMinRank(s.ctx, sergeant, models.RankCaptain)
	s.Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.authority.RequireMinRank(s.ctx, id.ActorID(uuid.New()), models.RankCadet)
	s.Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *AuthoritySuite) TestRequireRankBetween() {
	cadet := s.actorWith(models.CapabilityCadet, models.RankCadet)
	officer := s.actorWith(models.CapabilityOfficer, models.RankOfficer)
	detective := s.actorWith(models.CapabilityDetective, models.RankDetective)

	_, err := s.authority.RequireRankBetween(s.ctx, cadet, models.RankCadet, models.RankOfficer)
	s.NoError(err)
	_, err = s.authority.RequireRankBetween(s.ctx, officer, models.RankCadet, models.RankOfficer)
	s.NoError(err)

	// Outranking the band is as ineligible as not reaching it.
	_, err = s.authority.RequireRankBetween(s.ctx, detective, models.RankCadet, models.RankOfficer)
	s.Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *AuthoritySuite) TestActorsWithMinRank() {
	s.actorWith(models.CapabilityCadet, models.RankCadet)
	captain := s.actorWith(models.CapabilityCaptain, models.RankCaptain)
	chief := s.actorWith(models.CapabilityChief, models.RankChief)

	actors, err := s.authority.ActorsWithMinRank(s.ctx, models.RankCaptain)
	s.Require().NoError(err)
	s.ElementsMatch([]id.ActorID{captain, chief}, actors)
}
