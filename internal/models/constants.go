package models

const (
	StatusPending   = "pending"
	StatusMatched   = "matched"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

const (
	ParseModeMarkdown = "Markdown"
)

const (
	StateChoosingAction = "choosing_action"
	StateChoosingShop   = "choosing_shop"
	StateChoosingDate   = "choosing_date"
	StateChoosingTime   = "choosing_time"
)

const (
	// DefaultRedisTTL время жизни состояния пользователя в Redis
	DefaultRedisTTL = 24 * 60 * 60 // 24 часа в секундах

	// MaxPlanningDays максимальная дальность планирования встречи
	MaxPlanningDays = 14

	// SweepInterval период запуска свипов
	SweepInterval = 60 // секунды

	// ReminderFirstDelay задержка первого запуска свипа напоминаний
	ReminderFirstDelay = 10 // секунды

	// ExpiryFirstDelay задержка первого запуска свипа просрочки,
	// смещена относительно напоминаний
	ExpiryFirstDelay = 15 // секунды

	// ReminderLookahead окно напоминаний до встречи
	ReminderLookahead = 20 * 60 // секунды

	// ExpiryMargin заявка снимается чуть раньше номинального времени:
	// принимать её за 5 минут до встречи уже нет смысла
	ExpiryMargin = 5 * 60 // секунды

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах

	// NotifyRatePerSecond глобальный лимит отправки сообщений в Telegram
	NotifyRatePerSecond = 25
)

// Окна отображения терминальных заявок в "Мои заявки".
const (
	// MatchedDisplayDays сколько дней показывать прошедшие встречи
	MatchedDisplayDays = 2

	// CancelledDisplayMinutes сколько минут показывать отменённые заявки
	CancelledDisplayMinutes = 60
)
