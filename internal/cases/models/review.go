package models

import (
	"time"

	"github.com/google/uuid"

	id "casefile/pkg/domain"
)

// ReviewDecision is the outcome of one review step.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)

// ReviewStage names which gate produced the review.
type ReviewStage string

const (
	StageCadet   ReviewStage = "cadet"
	StageOfficer ReviewStage = "officer"
)

// CaseReview is an append-only audit record of a review decision. Reviews
// are never updated after the fact; the history is how a rejected-and-
// resubmitted case stays explicable.
type CaseReview struct {
	ID         uuid.UUID      `json:"id"`
	CaseID     id.CaseID      `json:"case_id"`
	Stage      ReviewStage    `json:"stage"`
	ReviewerID id.ActorID     `json:"reviewer_id"`
	Decision   ReviewDecision `json:"decision"`
	Reason     string         `json:"reason,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
