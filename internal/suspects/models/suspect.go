package models

import (
	"strings"
	"time"

	casesmodels "casefile/internal/cases/models"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
)

// SuspectStatus is the pursuit state of a suspect.
type SuspectStatus string

const (
	StatusUnderPursuit     SuspectStatus = "under_pursuit"
	StatusIntensivePursuit SuspectStatus = "intensive_pursuit"
	StatusArrested         SuspectStatus = "arrested"
	StatusCleared          SuspectStatus = "cleared"
)

// IntensivePursuitThreshold is how long a suspect stays at large before
// auto-escalation to intensive pursuit.
const IntensivePursuitThreshold = 30 * 24 * time.Hour

// RewardPerDangerPoint prices one danger point for the public reward.
const RewardPerDangerPoint = int64(20_000_000)

// Suspect ties a person to a case under pursuit.
//
// Invariants:
//   - exactly one suspect per (case, person) pair
//   - ArrestedAt is set only on the transition into arrested
type Suspect struct {
	ID       id.SuspectID  `json:"id"`
	CaseID   id.CaseID     `json:"case_id"`
	PersonID id.PersonID   `json:"person_id"`
	Status   SuspectStatus `json:"status"`

	IdentifiedBy id.ActorID `json:"identified_by"`
	Reason       string     `json:"reason"`

	ApprovedBySergeant  *id.ActorID `json:"approved_by_sergeant,omitempty"`
	ArrestWarrantIssued bool        `json:"arrest_warrant_issued"`

	IdentifiedAt time.Time  `json:"identified_at"`
	ArrestedAt   *time.Time `json:"arrested_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewSuspect validates and constructs a suspect in under_pursuit.
func NewSuspect(suspectID id.SuspectID, caseID id.CaseID, personID id.PersonID, identifiedBy id.ActorID, reason string, now time.Time) (*Suspect, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "identification reason cannot be empty")
	}
	return &Suspect{
		ID:           suspectID,
		CaseID:       caseID,
		PersonID:     personID,
		Status:       StatusUnderPursuit,
		IdentifiedBy: identifiedBy,
		Reason:       reason,
		IdentifiedAt: now,
		UpdatedAt:    now,
	}, nil
}

// AtLarge reports whether the suspect is still being pursued.
func (s *Suspect) AtLarge() bool {
	return s.Status == StatusUnderPursuit || s.Status == StatusIntensivePursuit
}

// IsIntensivePursuit reports whether the suspect qualifies for intensive
// pursuit at the given instant: still at large and past the threshold.
func (s *Suspect) IsIntensivePursuit(now time.Time) bool {
	return s.AtLarge() && now.Sub(s.IdentifiedAt) >= IntensivePursuitThreshold
}

// DaysAtLarge counts full days since identification.
func (s *Suspect) DaysAtLarge(now time.Time) int64 {
	d := now.Sub(s.IdentifiedAt)
	if d < 0 {
		return 0
	}
	return int64(d / (24 * time.Hour))
}

// DangerScore grows with days at large and with crime severity: level 0
// (critical) carries the maximum multiplier 4, level 3 (minor) carries 1.
func (s *Suspect) DangerScore(level casesmodels.CrimeLevel, now time.Time) int64 {
	return s.DaysAtLarge(now) * int64(4-level.Level)
}

// RewardAmount prices the suspect on the public wanted list.
func (s *Suspect) RewardAmount(level casesmodels.CrimeLevel, now time.Time) int64 {
	return s.DangerScore(level, now) * RewardPerDangerPoint
}

// ValidStatus reports whether the string names a known suspect status.
func ValidStatus(status SuspectStatus) bool {
	switch status {
	case StatusUnderPursuit, StatusIntensivePursuit, StatusArrested, StatusCleared:
		return true
	}
	return false
}

// CanChangeStatusTo checks a manual status change. Cleared is terminal and
// repeating the current status is reported as already processed.
func (s *Suspect) CanChangeStatusTo(newStatus SuspectStatus) error {
	if !ValidStatus(newStatus) {
		return dErrors.New(dErrors.CodeValidation, "unknown suspect status")
	}
	if s.Status == newStatus {
		return dErrors.Newf(dErrors.CodeConflict, "suspect is already %s", s.Status)
	}
	if s.Status == StatusCleared {
		return dErrors.New(dErrors.CodeConflict, "suspect is cleared, no further transitions allowed")
	}
	return nil
}

// ApplyStatusChange transitions the suspect, stamping ArrestedAt only on the
// way into arrested.
func (s *Suspect) ApplyStatusChange(newStatus SuspectStatus, now time.Time) {
	if newStatus == StatusArrested && s.Status != StatusArrested {
		s.ArrestedAt = &now
	}
	s.Status = newStatus
	s.UpdatedAt = now
}

// ApplyArrestApproval records sergeant approval and the warrant.
func (s *Suspect) ApplyArrestApproval(sergeant id.ActorID, now time.Time) {
	s.ApprovedBySergeant = &sergeant
	s.ArrestWarrantIssued = true
	s.UpdatedAt = now
}
