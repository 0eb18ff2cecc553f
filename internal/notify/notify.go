// Package notify decides nothing; it carries workflow events to recipients.
// The workflow services decide when and to whom, write the notification into
// the outbox inside the transition's transaction, and a background worker
// ships it. Delivery (email, push) is a downstream consumer concern.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "casefile/pkg/domain"
)

// Kind names a workflow event.
type Kind string

const (
	KindCaseSubmitted          Kind = "case_submitted"
	KindCaseReviewed           Kind = "case_reviewed"
	KindSuspectsSubmitted      Kind = "suspects_submitted"
	KindSubmissionReviewed     Kind = "submission_reviewed"
	KindInterrogationSubmitted Kind = "interrogation_submitted"
	KindVerdictIssued          Kind = "verdict_issued"
	KindTipReviewed            Kind = "tip_reviewed"
	KindRewardRedeemed         Kind = "reward_redeemed"
	KindBailApproved           Kind = "bail_approved"
	KindSuspectReleased        Kind = "suspect_released"
)

// Notification is one workflow event addressed to one recipient.
type Notification struct {
	ID        uuid.UUID         `json:"id"`
	Recipient id.ActorID        `json:"recipient"`
	Kind      Kind              `json:"kind"`
	CaseID    id.CaseID         `json:"case_id"`
	Payload   map[string]string `json:"payload,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Sink accepts notifications fire-and-forget. Implementations must not make
// the emitting transition fail on delivery problems; persistence of the
// outbox row is the only step allowed to fail the transaction.
type Sink interface {
	Notify(ctx context.Context, recipient id.ActorID, kind Kind, caseID id.CaseID, payload map[string]string) error
}
