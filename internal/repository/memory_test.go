package repository

import (
	"context"
	"testing"
	"time"

	"kofemeet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateRepository(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	ctx := context.Background()

	t.Run("SetGetClear", func(t *testing.T) {
		state := &models.UserState{
			UserID:      1,
			CurrentStep: models.StateChoosingTime,
			TempData:    map[string]interface{}{"date": "05.09"},
		}
		require.NoError(t, repo.SetState(ctx, state))

		got, err := repo.GetState(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.StateChoosingTime, got.CurrentStep)

		require.NoError(t, repo.ClearState(ctx, 1))
		got, err = repo.GetState(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("GetMissing", func(t *testing.T) {
		got, err := repo.GetState(ctx, 404)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		userID := int64(7)
		for i := 0; i < 3; i++ {
			allowed, err := repo.CheckRateLimit(ctx, userID, 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		allowed, err := repo.CheckRateLimit(ctx, userID, 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("RateLimitWindowReset", func(t *testing.T) {
		userID := int64(8)
		allowed, err := repo.CheckRateLimit(ctx, userID, 1, time.Nanosecond)
		require.NoError(t, err)
		assert.True(t, allowed)

		time.Sleep(2 * time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, userID, 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}
