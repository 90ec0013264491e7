package config

import (
	"os"
	"path/filepath"
	"testing"

	"kofemeet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
app:
  name: kofemeet
  environment: test
  version: "1.0.0"
telegram:
  bot_token: "123:abc"
database:
  path: /tmp/kofemeet.db
managers:
  - 100
  - 200
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "kofemeet", cfg.App.Name)
	assert.Equal(t, []int64{100, 200}, cfg.Managers)

	// defaults
	assert.Equal(t, models.SweepInterval, cfg.Bot.SweepInterval)
	assert.Equal(t, models.ReminderLookahead, cfg.Bot.ReminderLookahead)
	assert.Equal(t, models.ExpiryMargin, cfg.Bot.ExpiryMargin)
	assert.Equal(t, models.MaxPlanningDays, cfg.Bot.MaxPlanningDays)
	assert.Equal(t, "configs/shops.yaml", cfg.ShopsFile)
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("KOFEMEET_TOKEN", "555:token")

	path := writeConfig(t, `
telegram:
  bot_token: "${KOFEMEET_TOKEN}"
database:
  path: /tmp/kofemeet.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "555:token", cfg.Telegram.BotToken)
}

func TestValidate(t *testing.T) {
	t.Run("MissingToken", func(t *testing.T) {
		cfg := &Config{Database: DatabaseConfig{Path: "/tmp/db"}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("PlaceholderToken", func(t *testing.T) {
		cfg := &Config{
			Telegram: TelegramConfig{BotToken: "YOUR_BOT_TOKEN_HERE"},
			Database: DatabaseConfig{Path: "/tmp/db"},
		}
		assert.Error(t, cfg.Validate())
	})

	t.Run("MissingDatabasePath", func(t *testing.T) {
		cfg := &Config{Telegram: TelegramConfig{BotToken: "123:abc"}}
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadShops(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shops.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
shops:
  - id: 1
    name: "Болтай"
    hours:
      "Ежедневно": "08:00-22:00"
  - id: 2
    name: "Кампус"
    hours:
      "Пн-Пт": "08:00-20:00"
      "Сб-Вс": "10:00-18:00"
`), 0o644))

	shops, err := LoadShops(path)
	require.NoError(t, err)
	require.Len(t, shops, 2)
	assert.Equal(t, "Болтай", shops[0].Name)
	assert.Equal(t, "08:00-20:00", shops[1].Hours["Пн-Пт"])
}

func TestValidateShops(t *testing.T) {
	t.Run("DuplicateID", func(t *testing.T) {
		err := ValidateShops([]models.Shop{
			{ID: 1, Name: "a", Hours: map[string]string{"Ежедневно": "08:00-22:00"}},
			{ID: 1, Name: "b", Hours: map[string]string{"Ежедневно": "08:00-22:00"}},
		})
		assert.Error(t, err)
	})

	t.Run("ZeroID", func(t *testing.T) {
		err := ValidateShops([]models.Shop{{ID: 0, Name: "a"}})
		assert.Error(t, err)
	})

	t.Run("UnknownScheduleKey", func(t *testing.T) {
		err := ValidateShops([]models.Shop{
			{ID: 1, Name: "a", Hours: map[string]string{"Выходные": "08:00-22:00"}},
		})
		assert.Error(t, err)
	})

	t.Run("BadInterval", func(t *testing.T) {
		err := ValidateShops([]models.Shop{
			{ID: 1, Name: "a", Hours: map[string]string{"Ежедневно": "8am-10pm"}},
		})
		assert.Error(t, err)
	})
}
