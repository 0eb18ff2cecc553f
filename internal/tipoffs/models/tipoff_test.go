package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
)

func pendingTip(t *testing.T, now time.Time) *TipOff {
	t.Helper()
	tip, err := NewTipOff(id.TipOffID(uuid.New()), id.CaseID(uuid.New()), id.SuspectID(uuid.New()), id.PersonID(uuid.New()), "seen at the harbor", now)
	require.NoError(t, err)
	return tip
}

func TestNewTipOff(t *testing.T) {
	now := time.Now()

	t.Run("starts pending", func(t *testing.T) {
		tip := pendingTip(t, now)
		assert.Equal(t, StatusPending, tip.Status)
		assert.Nil(t, tip.RedemptionCode)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		_, err := NewTipOff(id.TipOffID(uuid.New()), id.CaseID(uuid.New()), id.SuspectID(uuid.New()), id.PersonID(uuid.New()), "   ", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestReviewStages(t *testing.T) {
	now := time.Now()
	officer := id.ActorID(uuid.New())
	detective := id.ActorID(uuid.New())

	t.Run("officer approval opens the detective stage", func(t *testing.T) {
		tip := pendingTip(t, now)
		require.NoError(t, tip.CanOfficerReview())
		tip.ApplyOfficerReview(officer, true, "", now)
		assert.Equal(t, StatusOfficerApproved, tip.Status)
		require.NoError(t, tip.CanDetectiveReview())
	})

	t.Run("officer rejection is terminal", func(t *testing.T) {
		tip := pendingTip(t, now)
		tip.ApplyOfficerReview(officer, false, "suspect was in custody that day", now)
		assert.Equal(t, StatusOfficerRejected, tip.Status)

		err := tip.CanDetectiveReview()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("detective approval issues the code and freezes the reward", func(t *testing.T) {
		tip := pendingTip(t, now)
		tip.ApplyOfficerReview(officer, true, "", now)
		tip.ApplyDetectiveApproval(detective, RedemptionCodePrefix+"a1b2c3d4e5", 600_000_000, now)

		assert.Equal(t, StatusApproved, tip.Status)
		require.NotNil(t, tip.RedemptionCode)
		assert.True(t, strings.HasPrefix(*tip.RedemptionCode, RedemptionCodePrefix))
		assert.Equal(t, int64(600_000_000), tip.RewardAmount)
		require.NotNil(t, tip.ApprovedAt)
	})

	t.Run("detective rejection issues no code", func(t *testing.T) {
		tip := pendingTip(t, now)
		tip.ApplyOfficerReview(officer, true, "", now)
		tip.ApplyDetectiveRejection(detective, "lead already ruled out", now)
		assert.Equal(t, StatusDetectiveRejected, tip.Status)
		assert.Nil(t, tip.RedemptionCode)
	})
}

func TestCanRedeem(t *testing.T) {
	now := time.Now()
	officer := id.ActorID(uuid.New())
	detective := id.ActorID(uuid.New())

	t.Run("only an approved tip is claimable", func(t *testing.T) {
		tip := pendingTip(t, now)
		err := tip.CanRedeem()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

		tip.ApplyOfficerReview(officer, true, "", now)
		tip.ApplyDetectiveApproval(detective, RedemptionCodePrefix+"deadbeef00", 100, now)
		require.NoError(t, tip.CanRedeem())
	})

	t.Run("a claimed reward reports already processed", func(t *testing.T) {
		tip := pendingTip(t, now)
		tip.ApplyOfficerReview(officer, true, "", now)
		tip.ApplyDetectiveApproval(detective, RedemptionCodePrefix+"deadbeef00", 100, now)
		tip.ApplyRedemption(officer, now)

		err := tip.CanRedeem()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.Contains(t, err.Error(), "already been claimed")
	})
}
