// Package ratelimit throttles the unauthenticated public surface. The
// sliding window counts individual request timestamps, so a burst right
// before a window boundary cannot double the effective rate.
package ratelimit

import (
	"context"
	"time"
)

// Result reports one admission decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter admits or rejects one request for a key. Implementations must fail
// open on infrastructure errors; the caller decides whether to enforce.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}
