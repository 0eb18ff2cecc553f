package outbox

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"casefile/internal/notify"
)

// MemoryStore keeps outbox rows in memory. The worker's unit tests and
// kafka-less local wiring run on it.
type MemoryStore struct {
	mu      sync.Mutex
	entries []entry
}

type entry struct {
	n         notify.Notification
	published bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, n notify.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry{n: n})
	return nil
}

func (s *MemoryStore) FetchUnpublished(ctx context.Context, limit int) ([]notify.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []notify.Notification
	for _, e := range s.entries {
		if e.published {
			continue
		}
		out = append(out, e.n)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mark := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		mark[id] = struct{}{}
	}
	for i := range s.entries {
		if _, ok := mark[s.entries[i].n.ID]; ok {
			s.entries[i].published = true
		}
	}
	return nil
}
