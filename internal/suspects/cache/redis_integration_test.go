//go:build integration

package cache

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	casesmodels "casefile/internal/cases/models"
	platformredis "casefile/internal/platform/redis"
	"casefile/internal/suspects/models"
	id "casefile/pkg/domain"
	"casefile/pkg/testutil/containers"
)

func wantedEntry(t *testing.T, now time.Time) *models.WantedEntry {
	t.Helper()
	sp, err := models.NewSuspect(
		id.SuspectID(uuid.New()), id.CaseID(uuid.New()), id.PersonID(uuid.New()),
		id.ActorID(uuid.New()), "seen fleeing the scene", now.AddDate(0, 0, -12),
	)
	require.NoError(t, err)
	level := casesmodels.CrimeLevel{Level: casesmodels.CrimeLevelMajor, Name: "major"}
	return &models.WantedEntry{
		Suspect:      sp,
		CrimeLevel:   level,
		DaysAtLarge:  sp.DaysAtLarge(now),
		DangerScore:  sp.DangerScore(level, now),
		RewardAmount: sp.RewardAmount(level, now),
	}
}

func TestWantedListCache(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	client := &platformredis.Client{Client: rc.Client}
	logger := slog.New(slog.DiscardHandler)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("set then get round trips", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		c := NewWantedList(client, time.Minute, logger)

		entry := wantedEntry(t, now)
		c.Set(ctx, []*models.WantedEntry{entry})

		got, ok := c.Get(ctx)
		require.True(t, ok)
		require.Len(t, got, 1)
		assert.Equal(t, entry.Suspect.ID, got[0].Suspect.ID)
		assert.Equal(t, entry.DangerScore, got[0].DangerScore)
		assert.Equal(t, entry.RewardAmount, got[0].RewardAmount)
	})

	t.Run("a cold cache misses", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		c := NewWantedList(client, time.Minute, logger)

		_, ok := c.Get(ctx)
		assert.False(t, ok)
	})

	t.Run("invalidate drops the entry", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		c := NewWantedList(client, time.Minute, logger)

		c.Set(ctx, []*models.WantedEntry{wantedEntry(t, now)})
		c.Invalidate(ctx)

		_, ok := c.Get(ctx)
		assert.False(t, ok)
	})

	t.Run("the ttl bounds staleness", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		c := NewWantedList(client, time.Second, logger)

		c.Set(ctx, []*models.WantedEntry{wantedEntry(t, now)})
		time.Sleep(1500 * time.Millisecond)

		_, ok := c.Get(ctx)
		assert.False(t, ok)
	})

	t.Run("a corrupt blob is dropped", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		c := NewWantedList(client, time.Minute, logger)

		require.NoError(t, rc.Client.Set(ctx, "casefile:wanted-list", "{not json", time.Minute).Err())
		_, ok := c.Get(ctx)
		assert.False(t, ok)

		exists, err := rc.Client.Exists(ctx, "casefile:wanted-list").Result()
		require.NoError(t, err)
		assert.Zero(t, exists)
	})
}
