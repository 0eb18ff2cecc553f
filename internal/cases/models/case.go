package models

import (
	"strings"
	"time"

	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
)

// CaseStatus is the lifecycle state of a case.
type CaseStatus string

const (
	StatusDraft               CaseStatus = "draft"
	StatusCadetReview         CaseStatus = "cadet_review"
	StatusOfficerReview       CaseStatus = "officer_review"
	StatusOpen                CaseStatus = "open"
	StatusUnderInvestigation  CaseStatus = "under_investigation"
	StatusSuspectsIdentified  CaseStatus = "suspects_identified"
	StatusArrestApproved      CaseStatus = "arrest_approved"
	StatusInterrogation       CaseStatus = "interrogation"
	StatusTrialPending        CaseStatus = "trial_pending"
	StatusClosed              CaseStatus = "closed"
	StatusRejected            CaseStatus = "rejected"
)

// FormationType records how a case came to exist.
type FormationType string

const (
	FormationComplaint  FormationType = "complaint"
	FormationCrimeScene FormationType = "crime_scene"
)

// MaxRejections is the cadet-stage rejection ceiling. Reaching it terminates
// the case permanently.
const MaxRejections = 3

// CrimeLevel is the severity tier of the crime. Level 0 (critical) is the
// most severe; level 3 (minor) the least.
type CrimeLevel struct {
	Level int    `json:"level"`
	Name  string `json:"name"`
}

const (
	CrimeLevelCritical = 0
	CrimeLevelMajor    = 1
	CrimeLevelMedium   = 2
	CrimeLevelMinor    = 3
)

// IsCritical reports whether this tier triggers mandatory chief escalation.
func (c CrimeLevel) IsCritical() bool { return c.Level == CrimeLevelCritical }

// Validate checks the tier is one of the four known levels.
func (c CrimeLevel) Validate() error {
	if c.Level < CrimeLevelCritical || c.Level > CrimeLevelMinor {
		return dErrors.Newf(dErrors.CodeValidation, "crime level must be between %d and %d", CrimeLevelCritical, CrimeLevelMinor)
	}
	return nil
}

// Case is the aggregate root of the resolution workflow.
//
// Invariants:
//   - RejectionCount is monotonically non-decreasing and only cadet-stage
//     rejections increment it
//   - RejectionCount reaching MaxRejections forces terminal StatusRejected
//   - OpenedAt set exactly once, on the transition into StatusOpen
//   - StatusRejected and StatusClosed are terminal
type Case struct {
	ID            id.CaseID     `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	FormationType FormationType `json:"formation_type"`
	CrimeLevel    CrimeLevel    `json:"crime_level"`
	Status        CaseStatus    `json:"status"`

	RejectionCount int `json:"rejection_count"`

	CreatedBy         id.ActorID  `json:"created_by"`
	AssignedCadet     *id.ActorID `json:"assigned_cadet,omitempty"`
	AssignedOfficer   *id.ActorID `json:"assigned_officer,omitempty"`
	AssignedDetective *id.ActorID `json:"assigned_detective,omitempty"`
	AssignedSergeant  *id.ActorID `json:"assigned_sergeant,omitempty"`

	Complainants []id.PersonID `json:"complainants,omitempty"`
	Witnesses    []id.PersonID `json:"witnesses,omitempty"`

	OpenedAt  *time.Time `json:"opened_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewCase validates and constructs a draft case.
func NewCase(caseID id.CaseID, title, description string, formation FormationType, level CrimeLevel, createdBy id.ActorID, now time.Time) (*Case, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "case title cannot be empty")
	}
	if formation != FormationComplaint && formation != FormationCrimeScene {
		return nil, dErrors.New(dErrors.CodeValidation, "formation type must be complaint or crime_scene")
	}
	if err := level.Validate(); err != nil {
		return nil, err
	}
	return &Case{
		ID:            caseID,
		Title:         title,
		Description:   description,
		FormationType: formation,
		CrimeLevel:    level,
		Status:        StatusDraft,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// RequireStatus returns a conflict error naming the actual current status
// when it differs from the expected pre-state. Every transition calls this
// first; the descriptive message is part of the API contract.
func (c *Case) RequireStatus(expected CaseStatus) error {
	if c.Status != expected {
		return dErrors.Newf(dErrors.CodeConflict, "case is %s, expected %s", c.Status, expected)
	}
	return nil
}

// IsTerminal reports whether no further transitions are possible.
func (c *Case) IsTerminal() bool {
	return c.Status == StatusRejected || c.Status == StatusClosed
}

// CanSubmit checks the draft -> cadet_review transition.
func (c *Case) CanSubmit(actor id.ActorID) error {
	if actor != c.CreatedBy {
		return dErrors.New(dErrors.CodeForbidden, "only the case creator may submit it for review")
	}
	if c.RejectionCount >= MaxRejections {
		return dErrors.New(dErrors.CodeConflict, "case has reached the rejection limit and is permanently rejected")
	}
	return c.RequireStatus(StatusDraft)
}

// ApplySubmit moves the case into cadet review.
func (c *Case) ApplySubmit(now time.Time) {
	c.Status = StatusCadetReview
	c.UpdatedAt = now
}

// CanCadetReview checks the cadet_review pre-state.
func (c *Case) CanCadetReview() error {
	return c.RequireStatus(StatusCadetReview)
}

// ApplyCadetApproval advances to officer review and records the reviewing
// cadet as the case's assigned cadet.
func (c *Case) ApplyCadetApproval(cadet id.ActorID, now time.Time) {
	c.Status = StatusOfficerReview
	c.AssignedCadet = &cadet
	c.UpdatedAt = now
}

// ApplyCadetRejection increments the rejection count; the third rejection is
// terminal, otherwise the case returns to the creator's draft.
func (c *Case) ApplyCadetRejection(now time.Time) {
	c.RejectionCount++
	if c.RejectionCount >= MaxRejections {
		c.Status = StatusRejected
	} else {
		c.Status = StatusDraft
	}
	c.UpdatedAt = now
}

// CanOfficerReview checks the officer_review pre-state.
func (c *Case) CanOfficerReview() error {
	return c.RequireStatus(StatusOfficerReview)
}

// ApplyOfficerApproval opens the case, stamping OpenedAt and assigning the
// reviewing officer.
func (c *Case) ApplyOfficerApproval(officer id.ActorID, now time.Time) {
	c.Status = StatusOpen
	c.AssignedOfficer = &officer
	c.OpenedAt = &now
	c.UpdatedAt = now
}

// ApplyOfficerRejection sends a complaint-formed case back to cadet review
// and a crime-scene-formed case back to draft. The rejection count is not
// touched here; only cadet-stage rejections count toward the limit.
func (c *Case) ApplyOfficerRejection(now time.Time) {
	if c.FormationType == FormationComplaint {
		c.Status = StatusCadetReview
	} else {
		c.Status = StatusDraft
	}
	c.UpdatedAt = now
}

// ApplyAutoOpen opens a crime-scene case immediately, skipping both review
// stages. Only chief-filed crime-scene reports qualify; the reporter becomes
// the assigned officer.
func (c *Case) ApplyAutoOpen(reporter id.ActorID, now time.Time) {
	c.Status = StatusOpen
	c.AssignedOfficer = &reporter
	c.OpenedAt = &now
	c.UpdatedAt = now
}

// CanStartInvestigation checks the open pre-state.
func (c *Case) CanStartInvestigation() error {
	return c.RequireStatus(StatusOpen)
}

// ApplyInvestigationStart assigns the detective and moves the case under
// investigation.
func (c *Case) ApplyInvestigationStart(detective id.ActorID, now time.Time) {
	c.Status = StatusUnderInvestigation
	c.AssignedDetective = &detective
	c.UpdatedAt = now
}

// CanMarkSuspectsIdentified checks the under_investigation pre-state.
func (c *Case) CanMarkSuspectsIdentified() error {
	return c.RequireStatus(StatusUnderInvestigation)
}

// ApplySuspectsIdentified records that a suspect submission is pending
// sergeant review.
func (c *Case) ApplySuspectsIdentified(now time.Time) {
	c.Status = StatusSuspectsIdentified
	c.UpdatedAt = now
}

// CanResolveSubmission checks the suspects_identified pre-state.
func (c *Case) CanResolveSubmission() error {
	return c.RequireStatus(StatusSuspectsIdentified)
}

// ApplyArrestApproved records sergeant approval of the suspect submission
// and stores the reviewing sergeant on the case.
func (c *Case) ApplyArrestApproved(sergeant id.ActorID, now time.Time) {
	c.Status = StatusArrestApproved
	c.AssignedSergeant = &sergeant
	c.UpdatedAt = now
}

// ApplyInvestigationResumed returns a case to under_investigation after a
// rejected suspect submission. The case stays open; rejection of a
// submission never rejects the case.
func (c *Case) ApplyInvestigationResumed(now time.Time) {
	c.Status = StatusUnderInvestigation
	c.UpdatedAt = now
}

// CanStartInterrogation checks the arrest_approved pre-state.
func (c *Case) CanStartInterrogation() error {
	return c.RequireStatus(StatusArrestApproved)
}

// ApplyInterrogationStarted moves the case into the interrogation stage.
func (c *Case) ApplyInterrogationStarted(now time.Time) {
	c.Status = StatusInterrogation
	c.UpdatedAt = now
}

// CanMarkTrialPending checks the interrogation pre-state.
func (c *Case) CanMarkTrialPending() error {
	return c.RequireStatus(StatusInterrogation)
}

// ApplyTrialPending records a guilty captain verdict moving the case toward
// trial.
func (c *Case) ApplyTrialPending(now time.Time) {
	c.Status = StatusTrialPending
	c.UpdatedAt = now
}

// CanClose checks the trial_pending pre-state.
func (c *Case) CanClose() error {
	return c.RequireStatus(StatusTrialPending)
}

// ApplyClose terminates the case after trial.
func (c *Case) ApplyClose(now time.Time) {
	c.Status = StatusClosed
	c.ClosedAt = &now
	c.UpdatedAt = now
}

// IsParticipant reports whether the actor created the case or holds one of
// its assignment references. Participants always see their case regardless
// of role visibility rules.
func (c *Case) IsParticipant(actor id.ActorID) bool {
	if actor == c.CreatedBy {
		return true
	}
	for _, ref := range []*id.ActorID{c.AssignedCadet, c.AssignedOfficer, c.AssignedDetective, c.AssignedSergeant} {
		if ref != nil && *ref == actor {
			return true
		}
	}
	return false
}
