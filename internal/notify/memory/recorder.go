package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"casefile/internal/notify"
	id "casefile/pkg/domain"
)

// Recorder collects notifications in memory. Tests assert against it; local
// development can run on it when Kafka is not configured.
type Recorder struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(ctx context.Context, recipient id.ActorID, kind notify.Kind, caseID id.CaseID, payload map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, notify.Notification{
		ID:        uuid.New(),
		Recipient: recipient,
		Kind:      kind,
		CaseID:    caseID,
		Payload:   payload,
		CreatedAt: time.Now(),
	})
	return nil
}

// Sent returns a copy of everything recorded so far.
func (r *Recorder) Sent() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// SentTo filters recorded notifications by recipient.
func (r *Recorder) SentTo(recipient id.ActorID) []notify.Notification {
	var out []notify.Notification
	for _, n := range r.Sent() {
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	return out
}

// SentOfKind filters recorded notifications by kind.
func (r *Recorder) SentOfKind(kind notify.Kind) []notify.Notification {
	var out []notify.Notification
	for _, n := range r.Sent() {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}
