package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	casesmodels "casefile/internal/cases/models"
	casesstore "casefile/internal/cases/store"
	rolesmodels "casefile/internal/roles/models"
	rolesservice "casefile/internal/roles/service"
	rolesstore "casefile/internal/roles/store"
	"casefile/internal/suspects/models"
	"casefile/internal/suspects/service"
	"casefile/internal/suspects/store"
	id "casefile/pkg/domain"
	"casefile/pkg/requestcontext"
	"casefile/pkg/testutil"
)

// The handler is tested against the real service on in-memory stores so the
// assertions cover the full request path, status mapping included.
type SuspectHandlerSuite struct {
	suite.Suite
	ctx    context.Context
	now    time.Time
	store  *store.InMemory
	cases  *casesstore.InMemory
	roles  *rolesservice.Authority
	router *chi.Mux

	cadet     id.ActorID
	detective id.ActorID
	civilian  id.ActorID
}

func TestSuspectHandlerSuite(t *testing.T) {
	suite.Run(t, new(SuspectHandlerSuite))
}

func (s *SuspectHandlerSuite) SetupTest() {
	s.now = time.Date(2026, 6, 2, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.store = store.NewInMemory()
	s.cases = casesstore.NewInMemory()
	s.roles = rolesservice.NewAuthority(rolesstore.NewInMemory())

	svc := service.New(s.store, s.roles, s.cases)
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.router = chi.NewRouter()
	h.Register(s.router)
	h.RegisterPublic(s.router)

	s.cadet = s.grant(rolesmodels.CapabilityCadet, rolesmodels.RankCadet)
	s.detective = s.grant(rolesmodels.CapabilityDetective, rolesmodels.RankDetective)
	s.civilian = id.ActorID(uuid.New())
}

func (s *SuspectHandlerSuite) grant(capability string, rank int) id.ActorID {
	_, err := s.roles.CreateRole(s.ctx, capability, capability, rank)
	s.Require().NoError(err)
	actor := id.ActorID(uuid.New())
	s.Require().NoError(s.roles.GrantRole(s.ctx, actor, capability))
	return actor
}

func (s *SuspectHandlerSuite) do(req *http.Request, actor id.ActorID) *httptest.ResponseRecorder {
	req = testutil.WithRequestTime(req, s.now)
	req = testutil.WithActor(req, actor)
	return testutil.DoRequest(s.router, req)
}

// doPublic sends the request without an actor, the way the public router
// group serves anonymous traffic.
func (s *SuspectHandlerSuite) doPublic(req *http.Request) *httptest.ResponseRecorder {
	req = testutil.WithRequestTime(req, s.now)
	return testutil.DoRequest(s.router, req)
}

func (s *SuspectHandlerSuite) investigatedCase(level int) *casesmodels.Case {
	c, err := casesmodels.NewCase(
		id.CaseID(uuid.New()), "robbery", "", casesmodels.FormationComplaint,
		casesmodels.CrimeLevel{Level: level, Name: "tier"},
		id.ActorID(uuid.New()), s.now,
	)
	s.Require().NoError(err)
	c.ApplySubmit(s.now)
	c.ApplyCadetApproval(s.cadet, s.now)
	c.ApplyOfficerApproval(id.ActorID(uuid.New()), s.now)
	c.ApplyInvestigationStart(s.detective, s.now)
	s.Require().NoError(s.cases.Create(s.ctx, c))
	return c
}

func (s *SuspectHandlerSuite) seedSuspect(c *casesmodels.Case, identifiedAt time.Time) *models.Suspect {
	sp, err := models.NewSuspect(
		id.SuspectID(uuid.New()), c.ID, id.PersonID(uuid.New()),
		s.detective, "matched the description", identifiedAt,
	)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, sp))
	return sp
}

// =============================================================================
// Identify
// =============================================================================

func (s *SuspectHandlerSuite) TestIdentify() {
	c := s.investigatedCase(casesmodels.CrimeLevelMajor)

	s.Run("detective files a suspect", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/cases/"+c.ID.String()+"/suspects",
			map[string]string{"person_id": uuid.NewString(), "reason": "seen fleeing the scene"})
		rr := s.do(req, s.detective)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		suspect := testutil.UnmarshalResponse[models.Suspect](s.T(), rr)
		s.Equal(c.ID, suspect.CaseID)
		s.Equal(models.StatusUnderPursuit, suspect.Status)
		s.Equal(s.detective, suspect.IdentifiedBy)
	})

	s.Run("cadet lacks the detective capability", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/cases/"+c.ID.String()+"/suspects",
			map[string]string{"person_id": uuid.NewString(), "reason": "hunch"})
		rr := s.do(req, s.cadet)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("malformed case id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/cases/not-a-case/suspects",
			map[string]string{"person_id": uuid.NewString(), "reason": "hunch"})
		rr := s.do(req, s.detective)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("malformed person id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/cases/"+c.ID.String()+"/suspects",
			map[string]string{"person_id": "nobody", "reason": "hunch"})
		rr := s.do(req, s.detective)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("unparseable body", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/cases/"+c.ID.String()+"/suspects", "{")
		rr := s.do(req, s.detective)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

// =============================================================================
// Status changes
// =============================================================================

func (s *SuspectHandlerSuite) TestChangeStatus() {
	c := s.investigatedCase(casesmodels.CrimeLevelMajor)

	s.Run("detective escalates pursuit early", func() {
		sp := s.seedSuspect(c, s.now)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/suspects/"+sp.ID.String()+"/status",
			map[string]string{"status": string(models.StatusIntensivePursuit)})
		rr := s.do(req, s.detective)

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "status", string(models.StatusIntensivePursuit))
	})

	s.Run("repeating the current status conflicts", func() {
		sp := s.seedSuspect(c, s.now)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/suspects/"+sp.ID.String()+"/status",
			map[string]string{"status": string(models.StatusUnderPursuit)})
		rr := s.do(req, s.detective)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("unknown status is rejected", func() {
		sp := s.seedSuspect(c, s.now)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/suspects/"+sp.ID.String()+"/status",
			map[string]string{"status": "vanished"})
		rr := s.do(req, s.detective)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation")
	})

	s.Run("unknown suspect", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/suspects/"+uuid.NewString()+"/status",
			map[string]string{"status": string(models.StatusArrested)})
		rr := s.do(req, s.detective)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("cadet rank is insufficient", func() {
		sp := s.seedSuspect(c, s.now)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/suspects/"+sp.ID.String()+"/status",
			map[string]string{"status": string(models.StatusArrested)})
		rr := s.do(req, s.cadet)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})
}

// =============================================================================
// Reads
// =============================================================================

func (s *SuspectHandlerSuite) TestGetAndList() {
	c := s.investigatedCase(casesmodels.CrimeLevelMinor)
	sp := s.seedSuspect(c, s.now)

	s.Run("cadet reads a suspect", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/suspects/"+sp.ID.String()), s.cadet)

		testutil.AssertStatusOK(s.T(), rr)
		got := testutil.UnmarshalResponse[models.Suspect](s.T(), rr)
		s.Equal(sp.ID, got.ID)
	})

	s.Run("civilian may not read suspects", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/suspects/"+sp.ID.String()), s.civilian)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("list by case", func() {
		s.seedSuspect(c, s.now)
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/cases/"+c.ID.String()+"/suspects"), s.cadet)

		testutil.AssertStatusOK(s.T(), rr)
		got := testutil.UnmarshalResponse[[]*models.Suspect](s.T(), rr)
		s.Len(*got, 2)
	})

	s.Run("malformed suspect id", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/suspects/whoever"), s.cadet)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

// =============================================================================
// Public wanted list
// =============================================================================

func (s *SuspectHandlerSuite) TestWantedList() {
	c := s.investigatedCase(casesmodels.CrimeLevelMajor)

	s.Run("empty list without at-large suspects", func() {
		rr := s.doPublic(testutil.NewRequest(s.T(), http.MethodGet, "/wanted"))

		testutil.AssertStatusOK(s.T(), rr)
		got := testutil.UnmarshalResponse[[]*models.WantedEntry](s.T(), rr)
		s.Empty(*got)
	})

	s.Run("overdue suspect surfaces without auth", func() {
		sp := s.seedSuspect(c, s.now.AddDate(0, 0, -40))
		rr := s.doPublic(testutil.NewRequest(s.T(), http.MethodGet, "/wanted"))

		testutil.AssertStatusOK(s.T(), rr)
		got := testutil.UnmarshalResponse[[]*models.WantedEntry](s.T(), rr)
		s.Require().Len(*got, 1)
		entry := (*got)[0]
		s.Equal(sp.ID, entry.Suspect.ID)
		s.Equal(models.StatusIntensivePursuit, entry.Suspect.Status)
		s.Equal(int64(40), entry.DaysAtLarge)
		s.Equal(int64(40*(4-casesmodels.CrimeLevelMajor)), entry.DangerScore)
	})
}
