package config

import (
	"errors"
	"fmt"
	"os"

	"kofemeet/internal/models"
	"kofemeet/internal/schedule"

	"github.com/joho/godotenv"
	yamlv2 "gopkg.in/yaml.v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Bot        BotConfig        `yaml:"bot"`
	Managers   []int64          `yaml:"managers"`
	ShopsFile  string           `yaml:"shops_file"`
	Exports    ExportConfig     `yaml:"exports"`
}

type BotConfig struct {
	SweepInterval      int `yaml:"sweep_interval"`       // секунды между проходами свипов
	ReminderFirstDelay int `yaml:"reminder_first_delay"` // секунды до первого прохода напоминаний
	ExpiryFirstDelay   int `yaml:"expiry_first_delay"`   // секунды до первого прохода истечения
	ReminderLookahead  int `yaml:"reminder_lookahead"`   // окно напоминаний вперёд, секунды
	ExpiryMargin       int `yaml:"expiry_margin"`        // запас до встречи, секунды
	MaxPlanningDays    int `yaml:"max_planning_days"`
	RateLimitMessages  int `yaml:"rate_limit_messages"`
	RateLimitWindow    int `yaml:"rate_limit_window"`
	NotifyRate         int `yaml:"notify_rate"` // сообщений в секунду на рассылку
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
	HealthCheckPort   int  `yaml:"health_check_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// ShopsFileContent описывает YAML со списком кофеен.
type ShopsFileContent struct {
	Shops []models.Shop `yaml:"shops"`
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// LoadShops читает YAML с кофейнями и проверяет расписания.
func LoadShops(path string) ([]models.Shop, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var content ShopsFileContent
	if err := yamlv2.Unmarshal(data, &content); err != nil {
		return nil, err
	}

	if err := ValidateShops(content.Shops); err != nil {
		return nil, err
	}

	return content.Shops, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	return nil
}

func ValidateShops(shops []models.Shop) error {
	shopIDs := make(map[int64]bool)
	for _, shop := range shops {
		if shop.ID == 0 {
			return fmt.Errorf("shop '%s' has invalid ID 0", shop.Name)
		}
		if shopIDs[shop.ID] {
			return fmt.Errorf("duplicate shop ID found: %d", shop.ID)
		}
		shopIDs[shop.ID] = true

		for key, interval := range shop.Hours {
			if len(schedule.Expand(map[string]string{key: interval})) == 0 {
				return fmt.Errorf("shop '%s' has unknown schedule key %q", shop.Name, key)
			}
			if _, _, err := schedule.ParseInterval(interval); err != nil {
				return fmt.Errorf("shop '%s' has invalid hours %q: %w", shop.Name, interval, err)
			}
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.ShopsFile == "" {
		c.ShopsFile = "configs/shops.yaml"
	}

	// Bot defaults
	if c.Bot.SweepInterval == 0 {
		c.Bot.SweepInterval = models.SweepInterval
	}
	if c.Bot.ReminderFirstDelay == 0 {
		c.Bot.ReminderFirstDelay = models.ReminderFirstDelay
	}
	if c.Bot.ExpiryFirstDelay == 0 {
		c.Bot.ExpiryFirstDelay = models.ExpiryFirstDelay
	}
	if c.Bot.ReminderLookahead == 0 {
		c.Bot.ReminderLookahead = models.ReminderLookahead
	}
	if c.Bot.ExpiryMargin == 0 {
		c.Bot.ExpiryMargin = models.ExpiryMargin
	}
	if c.Bot.MaxPlanningDays == 0 {
		c.Bot.MaxPlanningDays = models.MaxPlanningDays
	}
	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = models.RateLimitMessages
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = models.RateLimitWindow
	}
	if c.Bot.NotifyRate == 0 {
		c.Bot.NotifyRate = models.NotifyRatePerSecond
	}
}
