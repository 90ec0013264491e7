package domain

import (
	"context"
	"time"

	"kofemeet/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Repository interface {
	CreateRequest(ctx context.Context, creatorID, shopID int64, meetTime time.Time) (int64, error)
	PairRequest(ctx context.Context, requestID, partnerID int64) (bool, error)
	UnmatchRequest(ctx context.Context, requestID, partnerID int64) (int64, bool, error)
	CancelPending(ctx context.Context, requestID, creatorID int64) (bool, error)
	CancelMatched(ctx context.Context, requestID, creatorID int64) (int64, bool, error)
	ClaimDueReminders(ctx context.Context, now time.Time, lookahead time.Duration) ([]models.ReminderJob, error)
	ClaimExpiredPending(ctx context.Context, now time.Time, margin time.Duration) ([]models.ExpiryJob, error)
	GetRequest(ctx context.Context, id int64) (*models.Request, error)
	GetRequestSnapshot(ctx context.Context, id int64) (*models.RequestView, error)
	ListOpenRequests(ctx context.Context, userID int64, now time.Time) ([]models.OpenRequest, error)
	ListUserRequests(ctx context.Context, userID int64, now time.Time) ([]models.RequestView, error)
	ListRequestsByPeriod(ctx context.Context, start, end time.Time) ([]models.RequestView, error)
	CountRequestsByStatus(ctx context.Context) (map[string]int, error)

	GetActiveShops(ctx context.Context) ([]*models.Shop, error)
	GetShop(ctx context.Context, id int64) (*models.Shop, error)
	GetShopHours(ctx context.Context, id int64) (map[string]string, error)
	SyncShops(ctx context.Context, shops []models.Shop) error
	DeactivateShop(ctx context.Context, id int64) error

	CreateOrUpdateUser(ctx context.Context, user *models.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	UpdateUserActivity(ctx context.Context, telegramID int64) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)
}

type StateRepository interface {
	GetState(ctx context.Context, userID int64) (*models.UserState, error)
	SetState(ctx context.Context, state *models.UserState) error
	ClearState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type StateManager interface {
	GetUserState(ctx context.Context, userID int64) (*models.UserState, error)
	SetUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) error
	ClearUserState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

// Notifier доставляет текст пользователю. Доставка best-effort: ошибка
// логируется вызывающей стороной и никогда не откатывает уже совершённый
// переход состояния.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

type RequestService interface {
	Create(ctx context.Context, creatorID, shopID int64, meetTime time.Time) (int64, error)
	Pair(ctx context.Context, requestID, partnerID int64) (bool, error)
	Unmatch(ctx context.Context, requestID, partnerID int64) (int64, bool, error)
	CancelPending(ctx context.Context, requestID, creatorID int64) (bool, error)
	CancelMatched(ctx context.Context, requestID, creatorID int64) (int64, bool, error)
	OpenRequests(ctx context.Context, userID int64) ([]models.OpenRequest, error)
	UserRequests(ctx context.Context, userID int64) ([]models.RequestView, error)
	Snapshot(ctx context.Context, requestID int64) (*models.RequestView, error)
}

type UserService interface {
	IsManager(userID int64) bool
	SaveUser(ctx context.Context, user *models.User) error
	UpdateUserActivity(ctx context.Context, telegramID int64) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)
}

type ShopService interface {
	ActiveShops(ctx context.Context) ([]*models.Shop, error)
	Shop(ctx context.Context, id int64) (*models.Shop, error)
	IsOpenAt(ctx context.Context, shopID int64, meetTime time.Time) (bool, error)
	Deactivate(ctx context.Context, id int64) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendMarkdown(chatID int64, text string) (tgbotapi.Message, error)
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}
