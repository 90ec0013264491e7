package bot

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"kofemeet/internal/config"
	"kofemeet/internal/database"
	"kofemeet/internal/domain"
	"kofemeet/internal/models"
	"kofemeet/internal/repository"
	"kofemeet/internal/schedule"
	"kofemeet/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTelegramService struct {
	domain.TelegramService
	mu          sync.Mutex
	updatesChan chan tgbotapi.Update
	sentTexts   []string
	editedTexts []string
}

func (m *mockTelegramService) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return m.updatesChan
}

func (m *mockTelegramService) record(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentTexts = append(m.sentTexts, text)
}

func (m *mockTelegramService) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		m.record(msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	m.record(text)
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) SendMarkdown(chatID int64, text string) (tgbotapi.Message, error) {
	m.record(text)
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error) {
	m.record(text)
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	m.record(text)
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editedTexts = append(m.editedTexts, text)
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) AnswerCallback(callbackID, text string) error {
	return nil
}

func (m *mockTelegramService) GetSelf() tgbotapi.User {
	return tgbotapi.User{UserName: "test_bot"}
}

func (m *mockTelegramService) StopReceivingUpdates() {}

func (m *mockTelegramService) allSent() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.Join(m.sentTexts, "\n---\n")
}

func (m *mockTelegramService) allEdited() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.Join(m.editedTexts, "\n---\n")
}

type mockUserService struct {
	mu        sync.Mutex
	users     map[int64]*models.User
	managerID int64
}

func (m *mockUserService) IsManager(userID int64) bool {
	return m.managerID != 0 && userID == m.managerID
}

func (m *mockUserService) SaveUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = make(map[int64]*models.User)
	}
	m.users[user.TelegramID] = user
	return nil
}

func (m *mockUserService) UpdateUserActivity(ctx context.Context, telegramID int64) error {
	return nil
}

func (m *mockUserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return nil, nil
}

type mockRequestService struct {
	domain.RequestService
	createdShopID int64
	createdTime   time.Time
	pairResult    bool
	snapshot      *models.RequestView
	open          []models.OpenRequest
}

func (m *mockRequestService) Create(ctx context.Context, creatorID, shopID int64, meetTime time.Time) (int64, error) {
	m.createdShopID = shopID
	m.createdTime = meetTime
	return 1, nil
}

func (m *mockRequestService) Pair(ctx context.Context, requestID, partnerID int64) (bool, error) {
	return m.pairResult, nil
}

func (m *mockRequestService) OpenRequests(ctx context.Context, userID int64) ([]models.OpenRequest, error) {
	return m.open, nil
}

func (m *mockRequestService) Snapshot(ctx context.Context, requestID int64) (*models.RequestView, error) {
	return m.snapshot, nil
}

type mockShopService struct {
	domain.ShopService
	shops       []*models.Shop
	deactivated []int64
}

func (m *mockShopService) ActiveShops(ctx context.Context) ([]*models.Shop, error) {
	return m.shops, nil
}

func (m *mockShopService) Shop(ctx context.Context, id int64) (*models.Shop, error) {
	for _, s := range m.shops {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, database.ErrShopNotFound
}

func (m *mockShopService) Deactivate(ctx context.Context, id int64) error {
	m.deactivated = append(m.deactivated, id)
	return nil
}

func newTestBot(t *testing.T, tg *mockTelegramService, reqSvc domain.RequestService) (*Bot, *service.StateService, *mockUserService) {
	t.Helper()
	logger := zerolog.New(io.Discard)

	cfg := &config.Config{
		Telegram: config.TelegramConfig{BotToken: "test"},
	}
	cfg.Bot.RateLimitMessages = models.RateLimitMessages
	cfg.Bot.RateLimitWindow = models.RateLimitWindow
	cfg.Bot.MaxPlanningDays = models.MaxPlanningDays

	stateSvc := service.NewStateService(repository.NewMemoryStateRepository(time.Hour), &logger)
	userSvc := &mockUserService{users: make(map[int64]*models.User)}
	shopSvc := &mockShopService{shops: []*models.Shop{{ID: 1, Name: "Болтай", IsActive: true}}}

	b, err := NewBot(tg, cfg, stateSvc, reqSvc, userSvc, shopSvc, nil, &logger)
	require.NoError(t, err)
	return b, stateSvc, userSvc
}

func messageUpdate(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: userID, UserName: "testuser", FirstName: "Тест"},
			Chat: &tgbotapi.Chat{ID: userID},
			Text: text,
		},
	}
}

func commandUpdate(userID int64, command string) tgbotapi.Update {
	text := "/" + command
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			From:     &tgbotapi.User{ID: userID, UserName: "testuser", FirstName: "Тест"},
			Chat:     &tgbotapi.Chat{ID: userID},
			Text:     text,
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
		},
	}
}

func callbackUpdate(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb1",
			From: &tgbotapi.User{ID: userID, UserName: "testuser"},
			Data: data,
			Message: &tgbotapi.Message{
				MessageID: 10,
				Chat:      &tgbotapi.Chat{ID: userID},
			},
		},
	}
}

func TestBotStart(t *testing.T) {
	tg := &mockTelegramService{updatesChan: make(chan tgbotapi.Update, 1)}
	b, _, userSvc := newTestBot(t, tg, &mockRequestService{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Start(ctx)

	tg.updatesChan <- commandUpdate(123, "start")

	time.Sleep(100 * time.Millisecond)

	userSvc.mu.Lock()
	defer userSvc.mu.Unlock()
	require.Len(t, userSvc.users, 1)
	assert.Equal(t, "testuser", userSvc.users[123].Username)
	assert.Contains(t, tg.allSent(), "Найти компанию")
}

func TestCreateRequestDialog(t *testing.T) {
	ctx := context.Background()
	tg := &mockTelegramService{updatesChan: make(chan tgbotapi.Update)}
	reqSvc := &mockRequestService{}
	b, stateSvc, _ := newTestBot(t, tg, reqSvc)

	// выбор кофейни через callback
	b.processUpdate(ctx, callbackUpdate(100, "shop_1"))
	state, err := stateSvc.GetUserState(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.StateChoosingDate, state.CurrentStep)

	// неверная дата
	b.processUpdate(ctx, messageUpdate(100, "32.13"))
	assert.Contains(t, tg.allSent(), "Формат даты неверный")

	// валидная дата: завтра
	tomorrow := time.Now().In(schedule.Moscow).AddDate(0, 0, 1)
	b.processUpdate(ctx, messageUpdate(100, tomorrow.Format("02.01")))
	state, err = stateSvc.GetUserState(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.StateChoosingTime, state.CurrentStep)

	// неверное время
	b.processUpdate(ctx, messageUpdate(100, "25:99"))
	assert.Contains(t, tg.allSent(), "не разобрал время")

	// валидное время создает заявку
	b.processUpdate(ctx, messageUpdate(100, "14:30"))
	assert.Equal(t, int64(1), reqSvc.createdShopID)
	assert.Equal(t, 14, reqSvc.createdTime.In(schedule.Moscow).Hour())
	assert.Equal(t, 30, reqSvc.createdTime.In(schedule.Moscow).Minute())
	assert.Contains(t, tg.allSent(), "Твоя заявка в игре")

	// состояние диалога очищено
	state, err = stateSvc.GetUserState(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestAcceptCallback(t *testing.T) {
	ctx := context.Background()

	t.Run("Won", func(t *testing.T) {
		tg := &mockTelegramService{updatesChan: make(chan tgbotapi.Update)}
		partnerID := int64(200)
		reqSvc := &mockRequestService{
			pairResult: true,
			snapshot: &models.RequestView{
				ID:              5,
				Status:          models.StatusMatched,
				MeetTime:        time.Now().Add(time.Hour),
				ShopName:        "Болтай",
				CreatorID:       100,
				CreatorUsername: "anna",
				PartnerID:       &partnerID,
				PartnerUsername: "boris",
			},
		}
		b, _, _ := newTestBot(t, tg, reqSvc)

		b.processUpdate(ctx, callbackUpdate(200, "accept_5"))

		assert.Contains(t, tg.allEdited(), "Вы приняли заявку")
		sent := tg.allSent()
		assert.Contains(t, sent, "@boris")
		assert.Contains(t, sent, "@anna")
	})

	t.Run("Lost", func(t *testing.T) {
		tg := &mockTelegramService{updatesChan: make(chan tgbotapi.Update)}
		reqSvc := &mockRequestService{pairResult: false}
		b, _, _ := newTestBot(t, tg, reqSvc)

		b.processUpdate(ctx, callbackUpdate(200, "accept_5"))

		assert.Contains(t, tg.allEdited(), "уже кто-то принял")
	})
}

func TestAvailableRequestsEmpty(t *testing.T) {
	ctx := context.Background()
	tg := &mockTelegramService{updatesChan: make(chan tgbotapi.Update)}
	b, _, _ := newTestBot(t, tg, &mockRequestService{})

	b.processUpdate(ctx, callbackUpdate(100, "view_available_requests"))

	assert.Contains(t, tg.allEdited(), "свободных заявок нет")
}

func TestAvailableRequestsListed(t *testing.T) {
	ctx := context.Background()
	tg := &mockTelegramService{updatesChan: make(chan tgbotapi.Update)}
	meet := time.Date(2025, 9, 16, 14, 30, 0, 0, schedule.Moscow)
	reqSvc := &mockRequestService{
		open: []models.OpenRequest{{ID: 7, ShopName: "Кампус", MeetTime: meet}},
	}
	b, _, _ := newTestBot(t, tg, reqSvc)

	b.processUpdate(ctx, callbackUpdate(100, "view_available_requests"))

	assert.Contains(t, tg.allEdited(), "доступных заявок")
}

func TestRateLimitBlocksMessages(t *testing.T) {
	ctx := context.Background()
	tg := &mockTelegramService{updatesChan: make(chan tgbotapi.Update)}
	b, _, _ := newTestBot(t, tg, &mockRequestService{})
	b.config.Bot.RateLimitMessages = 1

	b.processUpdate(ctx, messageUpdate(300, "привет"))
	b.processUpdate(ctx, messageUpdate(300, "привет"))

	assert.Contains(t, tg.allSent(), "слишком часто")
}

func commandWithArgsUpdate(userID int64, command, args string) tgbotapi.Update {
	text := "/" + command + " " + args
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			From:     &tgbotapi.User{ID: userID, UserName: "testuser", FirstName: "Тест"},
			Chat:     &tgbotapi.Chat{ID: userID},
			Text:     text,
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command) + 1}},
		},
	}
}

func TestShopOffCommand(t *testing.T) {
	ctx := context.Background()
	tg := &mockTelegramService{updatesChan: make(chan tgbotapi.Update)}
	b, _, userSvc := newTestBot(t, tg, &mockRequestService{})
	userSvc.managerID = 500

	// не менеджер: команда молча игнорируется
	b.processUpdate(ctx, commandWithArgsUpdate(100, "shop_off", "1"))
	assert.NotContains(t, tg.allSent(), "скрыта")

	// менеджер без аргумента получает подсказку
	b.processUpdate(ctx, commandUpdate(500, "shop_off"))
	assert.Contains(t, tg.allSent(), "Укажи id кофейни")

	// несуществующая кофейня
	b.processUpdate(ctx, commandWithArgsUpdate(500, "shop_off", "99"))
	assert.Contains(t, tg.allSent(), "не найдена")

	b.processUpdate(ctx, commandWithArgsUpdate(500, "shop_off", "1"))
	assert.Contains(t, tg.allSent(), "Кофейня «Болтай» скрыта из выдачи")
}
