package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"kofemeet/internal/bot"
	"kofemeet/internal/config"
	"kofemeet/internal/database"
	"kofemeet/internal/logging"
	"kofemeet/internal/metrics"
	"kofemeet/internal/models"
	"kofemeet/internal/repository"
	"kofemeet/internal/service"
	"kofemeet/internal/sweep"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, shops, logger, closer, loadErr := loadConfigAndLogger()
	if loadErr != nil {
		return loadErr
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := initDatabase(cfg, shops, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, stateService := initStateService(ctx, cfg, &logger)
	defer func() { _ = repository.Close(redisClient) }()

	// Бизнес-сервисы
	requestService := service.NewRequestService(db, cfg.Bot.MaxPlanningDays, &logger)
	userService := service.NewUserService(db, cfg, &logger)
	shopService := service.NewShopService(db, &logger)

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled {
		go startMonitoringServer(cfg, &logger)
	}

	return startBot(ctx, cfg, stateService, requestService, userService, shopService, db, &logger)
}

func loadConfigAndLogger() (*config.Config, []models.Shop, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	shopsPath := os.Getenv("SHOPS_PATH")
	if shopsPath == "" {
		shopsPath = cfg.ShopsFile
	}
	shops, err := config.LoadShops(shopsPath)
	if err != nil {
		logger.Error().Err(err).Msgf("Ошибка чтения %s", shopsPath)
		return nil, nil, zerolog.Logger{}, closer, err
	}

	return cfg, shops, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if cfg.Exports.Path != "" {
		if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
			logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
			return err
		}
	}
	return nil
}

func initDatabase(cfg *config.Config, shops []models.Shop, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return nil, err
	}

	if err := db.SyncShops(context.Background(), shops); err != nil {
		logger.Error().Err(err).Msg("Ошибка синхронизации кофеен")
	}
	return db, nil
}

func initStateService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *service.StateService) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	primaryRepo := repository.NewRedisStateRepository(redisClient, time.Duration(models.DefaultRedisTTL)*time.Second)
	fallbackRepo := repository.NewMemoryStateRepository(time.Duration(models.DefaultRedisTTL) * time.Second)
	stateRepo := repository.NewFailoverStateRepository(primaryRepo, fallbackRepo, logger)
	return redisClient, service.NewStateService(stateRepo, logger)
}

func startMonitoringServer(cfg *config.Config, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
	logger.Info().Str("addr", addr).Msg("Monitoring server listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("Monitoring server error")
	}
}

func startBot(
	ctx context.Context,
	cfg *config.Config,
	stateService *service.StateService,
	requestService *service.RequestService,
	userService *service.UserService,
	shopService *service.ShopService,
	db *database.DB,
	logger *zerolog.Logger,
) error {
	if cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		logger.Error().Msg("Задайте токен бота в config.yaml")
		return os.ErrInvalid
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	botWrapper := bot.NewBotWrapper(botAPI)
	tgService := service.NewTelegramService(botWrapper)

	telegramBot, err := bot.NewBot(
		tgService, cfg, stateService, requestService,
		userService, shopService, db, logger,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}

	// Фоновые свипы: напоминания и просрочка заявок
	notifier := bot.NewTelegramNotifier(tgService, cfg.Bot.NotifyRate)
	reminderSweep := sweep.NewReminderSweep(
		db, notifier,
		time.Duration(cfg.Bot.SweepInterval)*time.Second,
		time.Duration(cfg.Bot.ReminderFirstDelay)*time.Second,
		time.Duration(cfg.Bot.ReminderLookahead)*time.Second,
		logger,
	)
	expirySweep := sweep.NewExpirySweep(
		db, notifier,
		time.Duration(cfg.Bot.SweepInterval)*time.Second,
		time.Duration(cfg.Bot.ExpiryFirstDelay)*time.Second,
		time.Duration(cfg.Bot.ExpiryMargin)*time.Second,
		logger,
	)
	go reminderSweep.Start(ctx)
	go expirySweep.Start(ctx)

	logger.Info().Msg("Бот запущен...")
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}
