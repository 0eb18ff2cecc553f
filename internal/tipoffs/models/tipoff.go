package models

import (
	"strings"
	"time"

	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
)

// TipOffStatus is the review state of a citizen tip.
type TipOffStatus string

const (
	StatusPending           TipOffStatus = "pending"
	StatusOfficerRejected   TipOffStatus = "officer_rejected"
	StatusOfficerApproved   TipOffStatus = "officer_approved"
	StatusDetectiveRejected TipOffStatus = "detective_rejected"
	StatusApproved          TipOffStatus = "approved"
	StatusRedeemed          TipOffStatus = "redeemed"
)

// RedemptionCodePrefix starts every issued reward code.
const RedemptionCodePrefix = "REWARD-"

// TipOff is a citizen's lead on a wanted suspect. It walks a two-stage
// review, earns a redemption code on detective approval and pays out once.
type TipOff struct {
	ID          id.TipOffID  `json:"id"`
	CaseID      id.CaseID    `json:"case_id"`
	SuspectID   id.SuspectID `json:"suspect_id"`
	SubmittedBy id.PersonID  `json:"submitted_by"`
	Content     string       `json:"content"`
	Status      TipOffStatus `json:"status"`

	OfficerID       *id.ActorID `json:"officer_id,omitempty"`
	DetectiveID     *id.ActorID `json:"detective_id,omitempty"`
	RejectionReason string      `json:"rejection_reason,omitempty"`

	RedemptionCode *string     `json:"redemption_code,omitempty"`
	RewardAmount   int64       `json:"reward_amount"`
	ApprovedAt     *time.Time  `json:"approved_at,omitempty"`
	RedeemedBy     *id.ActorID `json:"redeemed_by,omitempty"`
	RedeemedAt     *time.Time  `json:"redeemed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTipOff validates and constructs a pending tip.
func NewTipOff(tipID id.TipOffID, caseID id.CaseID, suspectID id.SuspectID, submitter id.PersonID, content string, now time.Time) (*TipOff, error) {
	if strings.TrimSpace(content) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "tip content cannot be empty")
	}
	return &TipOff{
		ID:          tipID,
		CaseID:      caseID,
		SuspectID:   suspectID,
		SubmittedBy: submitter,
		Content:     content,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanOfficerReview checks that the tip awaits first-stage review.
func (t *TipOff) CanOfficerReview() error {
	if t.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeConflict, "tip is %s, expected %s", t.Status, StatusPending)
	}
	return nil
}

// ApplyOfficerReview records the first-stage outcome.
func (t *TipOff) ApplyOfficerReview(officer id.ActorID, approve bool, reason string, now time.Time) {
	t.OfficerID = &officer
	if approve {
		t.Status = StatusOfficerApproved
	} else {
		t.Status = StatusOfficerRejected
		t.RejectionReason = reason
	}
	t.UpdatedAt = now
}

// CanDetectiveReview checks that the tip cleared the officer stage.
func (t *TipOff) CanDetectiveReview() error {
	if t.Status != StatusOfficerApproved {
		return dErrors.Newf(dErrors.CodeConflict, "tip is %s, expected %s", t.Status, StatusOfficerApproved)
	}
	return nil
}

// ApplyDetectiveApproval issues the code and freezes the reward.
func (t *TipOff) ApplyDetectiveApproval(detective id.ActorID, code string, reward int64, now time.Time) {
	t.DetectiveID = &detective
	t.Status = StatusApproved
	t.RedemptionCode = &code
	t.RewardAmount = reward
	t.ApprovedAt = &now
	t.UpdatedAt = now
}

// ApplyDetectiveRejection records the second-stage rejection. No code is
// ever issued on this path.
func (t *TipOff) ApplyDetectiveRejection(detective id.ActorID, reason string, now time.Time) {
	t.DetectiveID = &detective
	t.Status = StatusDetectiveRejected
	t.RejectionReason = reason
	t.UpdatedAt = now
}

// CanRedeem checks the tip is claimable. Redeemed tips report already
// processed so a double claim is distinguishable from an ineligible one.
func (t *TipOff) CanRedeem() error {
	switch t.Status {
	case StatusApproved:
		return nil
	case StatusRedeemed:
		return dErrors.New(dErrors.CodeConflict, "reward has already been claimed")
	default:
		return dErrors.Newf(dErrors.CodeConflict, "tip is %s, reward is not claimable", t.Status)
	}
}

// ApplyRedemption stamps the payout.
func (t *TipOff) ApplyRedemption(officer id.ActorID, now time.Time) {
	t.Status = StatusRedeemed
	t.RedeemedBy = &officer
	t.RedeemedAt = &now
	t.UpdatedAt = now
}
