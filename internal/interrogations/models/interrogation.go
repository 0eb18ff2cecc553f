package models

import (
	"time"

	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
)

// InterrogationStatus is the rating state of an interrogation.
type InterrogationStatus string

const (
	StatusPending   InterrogationStatus = "pending"
	StatusSubmitted InterrogationStatus = "submitted"
	StatusReviewed  InterrogationStatus = "reviewed"
)

// GuiltRating bounds for detective and sergeant assessments.
const (
	MinGuiltRating = 1
	MaxGuiltRating = 10
)

// Interrogation pairs a detective and a sergeant on one suspect. Their guilt
// ratings land together or not at all.
type Interrogation struct {
	ID        id.InterrogationID `json:"id"`
	CaseID    id.CaseID          `json:"case_id"`
	SuspectID id.SuspectID       `json:"suspect_id"`

	DetectiveID id.ActorID `json:"detective_id"`
	SergeantID  id.ActorID `json:"sergeant_id"`

	DetectiveGuiltRating *int   `json:"detective_guilt_rating,omitempty"`
	SergeantGuiltRating  *int   `json:"sergeant_guilt_rating,omitempty"`
	DetectiveNotes       string `json:"detective_notes,omitempty"`
	SergeantNotes        string `json:"sergeant_notes,omitempty"`

	Status      InterrogationStatus `json:"status"`
	SubmittedAt *time.Time          `json:"submitted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewInterrogation constructs a pending interrogation.
func NewInterrogation(interrogationID id.InterrogationID, caseID id.CaseID, suspectID id.SuspectID, detective, sergeant id.ActorID, now time.Time) *Interrogation {
	return &Interrogation{
		ID:          interrogationID,
		CaseID:      caseID,
		SuspectID:   suspectID,
		DetectiveID: detective,
		SergeantID:  sergeant,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsAssigned reports whether the actor is the interrogation's detective or
// sergeant.
func (i *Interrogation) IsAssigned(actor id.ActorID) bool {
	return actor == i.DetectiveID || actor == i.SergeantID
}

// CanSubmitRatings checks the actor and the current state before ratings
// land.
func (i *Interrogation) CanSubmitRatings(actor id.ActorID, detectiveRating, sergeantRating int) error {
	if !i.IsAssigned(actor) {
		return dErrors.New(dErrors.CodeForbidden, "only the assigned detective or sergeant may submit ratings")
	}
	if i.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeConflict, "interrogation is %s, expected %s", i.Status, StatusPending)
	}
	if !validRating(detectiveRating) || !validRating(sergeantRating) {
		return dErrors.Newf(dErrors.CodeValidation, "guilt ratings must be between %d and %d", MinGuiltRating, MaxGuiltRating)
	}
	return nil
}

// ApplySubmitRatings records both ratings and stamps the submission time.
func (i *Interrogation) ApplySubmitRatings(detectiveRating, sergeantRating int, detectiveNotes, sergeantNotes string, now time.Time) {
	i.DetectiveGuiltRating = &detectiveRating
	i.SergeantGuiltRating = &sergeantRating
	i.DetectiveNotes = detectiveNotes
	i.SergeantNotes = sergeantNotes
	i.Status = StatusSubmitted
	i.SubmittedAt = &now
	i.UpdatedAt = now
}

// CanReview checks that the interrogation awaits a captain verdict.
func (i *Interrogation) CanReview() error {
	if i.Status != StatusSubmitted {
		return dErrors.Newf(dErrors.CodeConflict, "interrogation is %s, expected %s", i.Status, StatusSubmitted)
	}
	return nil
}

// ApplyReviewed marks the interrogation as reviewed by a captain.
func (i *Interrogation) ApplyReviewed(now time.Time) {
	i.Status = StatusReviewed
	i.UpdatedAt = now
}

func validRating(rating int) bool {
	return rating >= MinGuiltRating && rating <= MaxGuiltRating
}
