package database

import (
	"context"
	"testing"
	"time"

	"kofemeet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrUpdateUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{
		TelegramID: 42,
		Username:   "ivan",
		FirstName:  "Иван",
	}
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))

	got, err := db.GetUserByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "ivan", got.Username)
	assert.Equal(t, "Иван", got.FirstName)
	assert.True(t, got.IsActive)
	assert.False(t, got.LastSeen.IsZero())

	// Повторный заход обновляет профиль, не создавая дубликат
	user.Username = "ivan_new"
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))

	got, err = db.GetUserByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "ivan_new", got.Username)

	users, err := db.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUpdateUserActivity(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seedUser(t, db, 7, "user", "Пользователь")

	before, err := db.GetUserByTelegramID(ctx, 7)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, db.UpdateUserActivity(ctx, 7))

	after, err := db.GetUserByTelegramID(ctx, 7)
	require.NoError(t, err)
	assert.True(t, after.LastSeen.After(before.LastSeen) || after.LastSeen.Equal(before.LastSeen))
}

func TestMention(t *testing.T) {
	withUsername := &models.User{Username: "maria", FirstName: "Мария"}
	assert.Equal(t, "@maria", withUsername.Mention())

	withoutUsername := &models.User{FirstName: "Мария"}
	assert.Equal(t, "Мария", withoutUsername.Mention())
}
