package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "casefile")
	actor := id.ActorID(uuid.New())

	token, err := svc.GenerateAccessToken(actor, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor.String(), claims.ActorID)
}

func TestValidateRejectsBadTokens(t *testing.T) {
	svc := NewService("test-signing-key", "casefile")
	actor := id.ActorID(uuid.New())

	t.Run("expired", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(actor, -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("wrong key", func(t *testing.T) {
		other := NewService("another-key", "casefile")
		token, err := other.GenerateAccessToken(actor, time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
