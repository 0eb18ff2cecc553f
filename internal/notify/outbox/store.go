// Package outbox implements the transactional-outbox sink. The notification
// row commits atomically with the workflow transition that produced it; a
// background worker publishes committed rows to Kafka and marks them shipped.
package outbox

import (
	"context"

	"github.com/google/uuid"

	"casefile/internal/notify"
	id "casefile/pkg/domain"
	"casefile/pkg/requestcontext"
)

// Store persists outbox rows.
type Store interface {
	Append(ctx context.Context, n notify.Notification) error
	FetchUnpublished(ctx context.Context, limit int) ([]notify.Notification, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Sink writes notifications to the outbox store. When the emitting context
// carries a transaction, the row joins it.
type Sink struct {
	store Store
}

func NewSink(store Store) *Sink {
	return &Sink{store: store}
}

func (s *Sink) Notify(ctx context.Context, recipient id.ActorID, kind notify.Kind, caseID id.CaseID, payload map[string]string) error {
	return s.store.Append(ctx, notify.Notification{
		ID:        uuid.New(),
		Recipient: recipient,
		Kind:      kind,
		CaseID:    caseID,
		Payload:   payload,
		CreatedAt: requestcontext.Now(ctx),
	})
}
