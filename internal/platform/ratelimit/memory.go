package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemory implements Limiter with per-key timestamp windows. Single-process
// only; a multi-replica deployment needs the Redis limiter.
type InMemory struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{windows: make(map[string][]time.Time)}
}

func (l *InMemory) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	kept := l.windows[key][:0]
	for _, ts := range l.windows[key] {
		if now.Sub(ts) < window {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit {
		l.windows[key] = kept
		return Result{
			Allowed: false,
			Limit:   limit,
			ResetAt: kept[0].Add(window),
		}, nil
	}

	kept = append(kept, now)
	l.windows[key] = kept
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(kept),
		ResetAt:   kept[0].Add(window),
	}, nil
}
