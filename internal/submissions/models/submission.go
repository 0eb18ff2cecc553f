package models

import (
	"strings"
	"time"

	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
)

// SubmissionStatus is the review state of a suspect submission.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// SuspectSubmission is a detective's request for arrest warrants covering a
// set of suspects on one case, reviewed by a sergeant.
type SuspectSubmission struct {
	ID          id.SubmissionID  `json:"id"`
	CaseID      id.CaseID        `json:"case_id"`
	DetectiveID id.ActorID       `json:"detective_id"`
	SuspectIDs  []id.SuspectID   `json:"suspect_ids"`
	Reasoning   string           `json:"reasoning"`
	Status      SubmissionStatus `json:"status"`

	ReviewedBy  *id.ActorID `json:"reviewed_by,omitempty"`
	ReviewNotes string      `json:"review_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSuspectSubmission validates and constructs a pending submission.
func NewSuspectSubmission(submissionID id.SubmissionID, caseID id.CaseID, detective id.ActorID, suspectIDs []id.SuspectID, reasoning string, now time.Time) (*SuspectSubmission, error) {
	if len(suspectIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "submission must name at least one suspect")
	}
	if strings.TrimSpace(reasoning) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "submission reasoning cannot be empty")
	}
	seen := make(map[id.SuspectID]struct{}, len(suspectIDs))
	for _, suspectID := range suspectIDs {
		if _, dup := seen[suspectID]; dup {
			return nil, dErrors.New(dErrors.CodeValidation, "submission lists the same suspect twice")
		}
		seen[suspectID] = struct{}{}
	}
	return &SuspectSubmission{
		ID:          submissionID,
		CaseID:      caseID,
		DetectiveID: detective,
		SuspectIDs:  suspectIDs,
		Reasoning:   reasoning,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanReview checks that the submission is still pending.
func (s *SuspectSubmission) CanReview() error {
	if s.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeConflict, "submission is %s, expected %s", s.Status, StatusPending)
	}
	return nil
}

// ApplyApproval marks the submission approved by the sergeant.
func (s *SuspectSubmission) ApplyApproval(sergeant id.ActorID, notes string, now time.Time) {
	s.Status = StatusApproved
	s.ReviewedBy = &sergeant
	s.ReviewNotes = notes
	s.UpdatedAt = now
}

// ApplyRejection marks the submission rejected by the sergeant.
func (s *SuspectSubmission) ApplyRejection(sergeant id.ActorID, notes string, now time.Time) {
	s.Status = StatusRejected
	s.ReviewedBy = &sergeant
	s.ReviewNotes = notes
	s.UpdatedAt = now
}
