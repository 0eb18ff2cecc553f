package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	platformredis "casefile/internal/platform/redis"
)

const keyPrefix = "casefile:ratelimit:"

// Redis implements Limiter with a sorted set per key, scored by request
// time. All replicas share one window.
type Redis struct {
	client *platformredis.Client
}

func NewRedis(client *platformredis.Client) *Redis {
	return &Redis{client: client}
}

func (l *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := time.Now()
	redisKey := keyPrefix + key
	cutoff := now.Add(-window)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(cutoff.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	count := int(countCmd.Val())
	if count >= limit {
		oldest, err := l.client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
		resetAt := now.Add(window)
		if err == nil && len(oldest) > 0 {
			resetAt = time.Unix(0, int64(oldest[0].Score)).Add(window)
		}
		return Result{Allowed: false, Limit: limit, ResetAt: resetAt}, nil
	}

	pipe = l.client.TxPipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count - 1,
		ResetAt:   now.Add(window),
	}, nil
}
