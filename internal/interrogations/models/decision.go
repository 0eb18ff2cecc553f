package models

import (
	"strings"
	"time"

	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
)

// Verdict is the captain's call on a reviewed interrogation.
type Verdict string

const (
	VerdictGuilty            Verdict = "guilty"
	VerdictNotGuilty         Verdict = "not_guilty"
	VerdictNeedsMoreEvidence Verdict = "needs_more_investigation"
)

// DecisionStatus tracks whether a captain decision still waits on the chief.
type DecisionStatus string

const (
	DecisionPending       DecisionStatus = "pending"
	DecisionAwaitingChief DecisionStatus = "awaiting_chief"
	DecisionCompleted     DecisionStatus = "completed"
)

// MinReasoningLength is the shortest acceptable captain reasoning.
const MinReasoningLength = 20

// MinCommentsLength is the shortest acceptable chief comment.
const MinCommentsLength = 10

// CaptainDecision is the one verdict a captain issues per interrogation.
// Critical crimes park it in awaiting_chief until the chief signs off.
type CaptainDecision struct {
	ID              id.DecisionID      `json:"id"`
	InterrogationID id.InterrogationID `json:"interrogation_id"`
	CaptainID       id.ActorID         `json:"captain_id"`
	Decision        Verdict            `json:"decision"`
	Reasoning       string             `json:"reasoning"`
	Status          DecisionStatus     `json:"status"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// NewCaptainDecision validates and constructs a verdict. requiresChief parks
// it in awaiting_chief; otherwise it completes immediately.
func NewCaptainDecision(decisionID id.DecisionID, interrogationID id.InterrogationID, captain id.ActorID, verdict Verdict, reasoning string, requiresChief bool, now time.Time) (*CaptainDecision, error) {
	if !ValidVerdict(verdict) {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown verdict")
	}
	if len(strings.TrimSpace(reasoning)) < MinReasoningLength {
		return nil, dErrors.Newf(dErrors.CodeValidation, "verdict reasoning must be at least %d characters", MinReasoningLength)
	}
	status := DecisionCompleted
	if requiresChief {
		status = DecisionAwaitingChief
	}
	return &CaptainDecision{
		ID:              decisionID,
		InterrogationID: interrogationID,
		CaptainID:       captain,
		Decision:        verdict,
		Reasoning:       reasoning,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ValidVerdict reports whether the string names a known verdict.
func ValidVerdict(verdict Verdict) bool {
	switch verdict {
	case VerdictGuilty, VerdictNotGuilty, VerdictNeedsMoreEvidence:
		return true
	}
	return false
}

// IsFinalized reports whether the verdict counts for trial eligibility. An
// awaiting_chief guilty verdict still counts; the chief gate holds up the
// decision record, not the trial.
func (d *CaptainDecision) IsFinalized() bool {
	return d.Status == DecisionCompleted || d.Status == DecisionAwaitingChief
}

// CanChiefDecide checks that the decision is parked for the chief.
func (d *CaptainDecision) CanChiefDecide() error {
	if d.Status != DecisionAwaitingChief {
		return dErrors.Newf(dErrors.CodeConflict, "captain decision is %s, expected %s", d.Status, DecisionAwaitingChief)
	}
	return nil
}

// ApplyChiefDecided completes the decision regardless of the chief's answer.
func (d *CaptainDecision) ApplyChiefDecided(now time.Time) {
	d.Status = DecisionCompleted
	d.UpdatedAt = now
}

// ChiefAnswer is the chief's sign-off on a captain decision.
type ChiefAnswer string

const (
	ChiefApproved ChiefAnswer = "approved"
	ChiefRejected ChiefAnswer = "rejected"
)

// PoliceChiefDecision is the chief's one sign-off per captain decision.
type PoliceChiefDecision struct {
	ID                id.ChiefDecisionID `json:"id"`
	CaptainDecisionID id.DecisionID      `json:"captain_decision_id"`
	ChiefID           id.ActorID         `json:"chief_id"`
	Decision          ChiefAnswer        `json:"decision"`
	Comments          string             `json:"comments"`
	CreatedAt         time.Time          `json:"created_at"`
}

// NewPoliceChiefDecision validates and constructs a chief sign-off.
func NewPoliceChiefDecision(chiefDecisionID id.ChiefDecisionID, captainDecisionID id.DecisionID, chief id.ActorID, answer ChiefAnswer, comments string, now time.Time) (*PoliceChiefDecision, error) {
	if answer != ChiefApproved && answer != ChiefRejected {
		return nil, dErrors.New(dErrors.CodeValidation, "chief decision must be approved or rejected")
	}
	if len(strings.TrimSpace(comments)) < MinCommentsLength {
		return nil, dErrors.Newf(dErrors.CodeValidation, "chief comments must be at least %d characters", MinCommentsLength)
	}
	return &PoliceChiefDecision{
		ID:                chiefDecisionID,
		CaptainDecisionID: captainDecisionID,
		ChiefID:           chief,
		Decision:          answer,
		Comments:          comments,
		CreatedAt:         now,
	}, nil
}
