package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	platformredis "casefile/internal/platform/redis"
	"casefile/internal/suspects/models"
)

const wantedListKey = "casefile:wanted-list"

// WantedList caches the rendered public wanted list in Redis as a single
// JSON blob. A miss or any Redis failure falls back to the store; the TTL
// bounds how stale the cached scores can get.
type WantedList struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewWantedList(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *WantedList {
	return &WantedList{client: client, ttl: ttl, logger: logger}
}

func (c *WantedList) Get(ctx context.Context) ([]*models.WantedEntry, bool) {
	raw, err := c.client.Get(ctx, wantedListKey).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []*models.WantedEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.logger.Warn("wanted list cache corrupt, dropping", "error", err)
		_ = c.client.Del(ctx, wantedListKey).Err()
		return nil, false
	}
	return entries, true
}

func (c *WantedList) Set(ctx context.Context, entries []*models.WantedEntry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		c.logger.Warn("wanted list cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, wantedListKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("wanted list cache write failed", "error", err)
	}
}

func (c *WantedList) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, wantedListKey).Err(); err != nil {
		c.logger.Warn("wanted list cache invalidate failed", "error", err)
	}
}
