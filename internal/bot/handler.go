package bot

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"kofemeet/internal/models"
	"kofemeet/internal/schedule"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	ButtonFindCompany = "☕️ Найти компанию"
	ButtonMyRequests  = "📂 Мои заявки"
	ButtonHelp        = "ℹ️ Гайд"
)

var (
	dateRe = regexp.MustCompile(`^(0[1-9]|[12]\d|3[01])\.(0[1-9]|1[0-2])$`)
	timeRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)
)

func (b *Bot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message

	if msg.IsCommand() {
		b.handleCommand(ctx, update)
		return
	}

	switch msg.Text {
	case ButtonFindCompany:
		b.showFindCompanyMenu(ctx, msg.Chat.ID, 0)
		return
	case ButtonMyRequests:
		b.showMyRequests(ctx, msg.Chat.ID, msg.From.ID)
		return
	case ButtonHelp:
		b.sendHelp(msg.Chat.ID)
		return
	}

	// Не кнопка и не команда: смотрим на состояние диалога
	state, err := b.stateService.GetUserState(ctx, msg.From.ID)
	if err != nil || state == nil {
		b.sendMainMenu(msg.Chat.ID, "Главное меню:")
		return
	}

	switch state.CurrentStep {
	case models.StateChoosingDate:
		b.handleDateInput(ctx, update, state)
	case models.StateChoosingTime:
		b.handleTimeInput(ctx, update, state)
	default:
		b.sendMainMenu(msg.Chat.ID, "Главное меню:")
	}
}

func (b *Bot) handleCommand(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message

	switch msg.Command() {
	case "start":
		b.handleStart(ctx, update)
	case "find":
		b.showFindCompanyMenu(ctx, msg.Chat.ID, 0)
	case "my_coffee_requests":
		b.showMyRequests(ctx, msg.Chat.ID, msg.From.ID)
	case "help":
		b.sendHelp(msg.Chat.ID)
	case "cancel":
		b.handleCancel(ctx, update)
	case "stats":
		b.handleStats(ctx, update)
	case "export":
		b.handleExport(ctx, update)
	case "shop_off":
		b.handleShopOff(ctx, update)
	default:
		b.sendMessage(msg.Chat.ID, "Не знаю такой команды 🤔 Попробуй /help")
	}
}

func (b *Bot) handleStart(ctx context.Context, update tgbotapi.Update) {
	from := update.Message.From
	b.logger.Info().Int64("user_id", from.ID).Str("username", from.UserName).Msg("user started bot")

	user := &models.User{
		TelegramID: from.ID,
		Username:   from.UserName,
		FirstName:  from.FirstName,
	}
	if err := b.userService.SaveUser(ctx, user); err != nil {
		b.logger.Error().Err(err).Int64("user_id", from.ID).Msg("failed to save user")
	}

	b.sendMainMenu(update.Message.Chat.ID,
		"Привет! 👋 Я бот для случайных кофе-митов.\n\nСкорее жми «☕️ Найти компанию»")
}

func (b *Bot) handleCancel(ctx context.Context, update tgbotapi.Update) {
	if err := b.stateService.ClearUserState(ctx, update.Message.From.ID); err != nil {
		b.logger.Error().Err(err).Msg("failed to clear user state")
	}
	b.sendMainMenu(update.Message.Chat.ID,
		"Без проблем, всё отменил. Если надумаешь вернуться — ты знаешь, где меня искать! 👍")
}

func (b *Bot) sendHelp(chatID int64) {
	helpText := "Вот что я умею:\n\n" +
		"«☕️ *Найти компанию*» — здесь можно посмотреть, кто уже ищет компанию, или создать свою заявку на кофе-мит. " +
		"В заявке ты выбираешь место встречи, дату и время.\n\n" +
		"«📂 *Мои заявки*» — тут хранятся все твои кофейные планы. Можно отменить заявку, если планы поменялись.\n\n" +
		"Всё просто! Если что-то пошло не так, команда /cancel всегда прервет любое действие."

	if _, err := b.tgService.SendMarkdown(chatID, helpText); err != nil {
		b.logger.Error().Err(err).Msg("failed to send help")
	}
}

// handleDateInput ждёт дату в формате ДД.ММ.
func (b *Bot) handleDateInput(ctx context.Context, update tgbotapi.Update, state *models.UserState) {
	msg := update.Message

	if !dateRe.MatchString(msg.Text) {
		b.sendMessage(msg.Chat.ID, "Формат даты неверный 😥. Пожалуйста, введи дату как ДД.ММ, например: 01.09")
		return
	}

	var day, month int
	fmt.Sscanf(msg.Text, "%d.%d", &day, &month)

	now := time.Now().In(schedule.Moscow)
	proposed := time.Date(now.Year(), time.Month(month), day, 0, 0, 0, 0, schedule.Moscow)

	// time.Date нормализует несуществующие даты вроде 31.02
	if proposed.Day() != day || proposed.Month() != time.Month(month) {
		b.sendMessage(msg.Chat.ID, "Такой даты не существует (например, 31.02). Пожалуйста, введи корректную дату.")
		return
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, schedule.Moscow)
	if proposed.Before(today) {
		b.sendMessage(msg.Chat.ID, "Эта дата уже в прошлом 🤓! Пожалуйста, выбери сегодня или дату из будущего.")
		return
	}
	if int(proposed.Sub(today).Hours()/24) > b.config.Bot.MaxPlanningDays {
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("Давай не будем планировать так далеко 🤓! Выбери дату в пределах следующих %d дней.", b.config.Bot.MaxPlanningDays))
		return
	}

	data := state.TempData
	if data == nil {
		data = make(map[string]interface{})
	}
	data["chosen_date"] = proposed.Format("2006-01-02")

	if err := b.stateService.SetUserState(ctx, msg.From.ID, models.StateChoosingTime, data); err != nil {
		b.logger.Error().Err(err).Msg("failed to save dialog state")
		return
	}

	b.sendMessage(msg.Chat.ID, "Отлично! ✅\n\nТеперь давай определимся со временем. Напиши, во сколько тебе удобно встретиться (например, 14:30).")
}

// handleTimeInput ждёт время ЧЧ:ММ и завершает создание заявки.
func (b *Bot) handleTimeInput(ctx context.Context, update tgbotapi.Update, state *models.UserState) {
	msg := update.Message

	if !timeRe.MatchString(msg.Text) {
		b.sendMessage(msg.Chat.ID, "Хм, что-то я не разобрал время. 🤔\n\nПопробуй, пожалуйста, в формате ЧЧ:ММ, например: 15:00 или 09:45")
		return
	}

	shopID, okShop := stateInt64(state.TempData, "shop_id")
	dateStr, okDate := stateString(state.TempData, "chosen_date")
	if !okShop || !okDate {
		b.logger.Warn().Int64("user_id", msg.From.ID).Msg("dialog state lost mid-flow")
		b.clearStateAndShowMenu(ctx, msg.Chat.ID, msg.From.ID, "Что-то пошло не так, я забыл, что мы выбирали. 😶‍🌫️\n\nНачнем заново.")
		return
	}

	chosenDate, err := time.ParseInLocation("2006-01-02", dateStr, schedule.Moscow)
	if err != nil {
		b.clearStateAndShowMenu(ctx, msg.Chat.ID, msg.From.ID, "Что-то пошло не так. 😶‍🌫️\n\nНачнем заново.")
		return
	}

	var hour, minute int
	fmt.Sscanf(msg.Text, "%d:%d", &hour, &minute)
	meetTime := time.Date(chosenDate.Year(), chosenDate.Month(), chosenDate.Day(), hour, minute, 0, 0, schedule.Moscow)

	_, err = b.requestService.Create(ctx, msg.From.ID, shopID, meetTime)
	if err != nil {
		text := b.getErrorMessage(err)
		b.sendMessage(msg.Chat.ID, text)
		// при закрытой кофейне остаёмся на шаге выбора времени
		if !isRetryableCreateError(err) {
			b.clearStateAndShowMenu(ctx, msg.Chat.ID, msg.From.ID, "Главное меню:")
		}
		return
	}

	b.clearStateAndShowMenu(ctx, msg.Chat.ID, msg.From.ID,
		"Готово! ✨\n\nТвоя заявка в игре. Как только кто-то откликнется, я пришлю уведомление. 🔔")
}

func (b *Bot) clearStateAndShowMenu(ctx context.Context, chatID, userID int64, text string) {
	if err := b.stateService.ClearUserState(ctx, userID); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to clear user state")
	}
	b.sendMainMenu(chatID, text)
}
