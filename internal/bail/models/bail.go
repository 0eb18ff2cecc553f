package models

import (
	"time"

	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
)

// BailStatus is the payment state of a bail request.
type BailStatus string

const (
	StatusPending  BailStatus = "pending"
	StatusApproved BailStatus = "approved"
	StatusPaid     BailStatus = "paid"
	StatusRejected BailStatus = "rejected"
)

// Bail amount bounds.
const (
	MinBailAmount = int64(1_000_000)
	MaxBailAmount = int64(10_000_000_000)
)

// BailPayment tracks a bail request from filing through the payment gateway
// round trip.
//
// Crime levels 2 and 3 are bailable; level 2 is auto-approved at creation.
type BailPayment struct {
	ID        id.BailID    `json:"id"`
	SuspectID id.SuspectID `json:"suspect_id"`
	CaseID    id.CaseID    `json:"case_id"`
	Amount    int64        `json:"amount"`
	Status    BailStatus   `json:"status"`

	RequestedBy        id.ActorID  `json:"requested_by"`
	ApprovedBySergeant *id.ActorID `json:"approved_by_sergeant,omitempty"`
	ApprovedAt         *time.Time  `json:"approved_at,omitempty"`

	GatewayAuthority string     `json:"gateway_authority,omitempty"`
	GatewayRefID     string     `json:"gateway_ref_id,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBailPayment validates and constructs a bail request. Level-2 crimes
// auto-approve; level-3 crimes wait for a sergeant.
func NewBailPayment(bailID id.BailID, suspectID id.SuspectID, caseID id.CaseID, amount int64, crimeLevel int, requestedBy id.ActorID, now time.Time) (*BailPayment, error) {
	if crimeLevel != 2 && crimeLevel != 3 {
		return nil, dErrors.Newf(dErrors.CodeValidation, "crime level %d is not bailable", crimeLevel)
	}
	if amount < MinBailAmount || amount > MaxBailAmount {
		return nil, dErrors.Newf(dErrors.CodeValidation, "bail amount must be between %d and %d", MinBailAmount, MaxBailAmount)
	}
	b := &BailPayment{
		ID:          bailID,
		SuspectID:   suspectID,
		CaseID:      caseID,
		Amount:      amount,
		Status:      StatusPending,
		RequestedBy: requestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if crimeLevel == 2 {
		b.Status = StatusApproved
		b.ApprovedAt = &now
	}
	return b, nil
}

// RequireStatus gates a transition on the current status.
func (b *BailPayment) RequireStatus(expected BailStatus) error {
	if b.Status != expected {
		return dErrors.Newf(dErrors.CodeConflict, "bail is %s, expected %s", b.Status, expected)
	}
	return nil
}

// ApplyApproval records the sergeant's sign-off.
func (b *BailPayment) ApplyApproval(sergeant id.ActorID, now time.Time) {
	b.Status = StatusApproved
	b.ApprovedBySergeant = &sergeant
	b.ApprovedAt = &now
	b.UpdatedAt = now
}

// ApplyRejection turns the request down.
func (b *BailPayment) ApplyRejection(sergeant id.ActorID, now time.Time) {
	b.Status = StatusRejected
	b.ApprovedBySergeant = &sergeant
	b.UpdatedAt = now
}

// ApplyAuthority stores the gateway authority token after a payment request.
// The bail stays approved until verification confirms the money moved.
func (b *BailPayment) ApplyAuthority(authority, refID string, now time.Time) {
	b.GatewayAuthority = authority
	b.GatewayRefID = refID
	b.UpdatedAt = now
}

// ApplyPaid marks the payment verified.
func (b *BailPayment) ApplyPaid(now time.Time) {
	b.Status = StatusPaid
	b.PaidAt = &now
	b.UpdatedAt = now
}
