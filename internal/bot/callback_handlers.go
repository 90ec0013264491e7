package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"kofemeet/internal/metrics"
	"kofemeet/internal/models"
	"kofemeet/internal/schedule"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	query := update.CallbackQuery
	data := query.Data
	userID := query.From.ID
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID

	if err := b.tgService.AnswerCallback(query.ID, ""); err != nil {
		b.logger.Error().Err(err).Msg("failed to answer callback")
	}

	switch {
	case data == "main_menu":
		b.editMessage(chatID, messageID, "Главное меню:", nil)
		b.clearStateAndShowMenu(ctx, chatID, userID, "Выбери действие на клавиатуре 👇")

	case data == "view_available_requests":
		b.showAvailableRequests(ctx, chatID, messageID, userID)

	case data == "create_new_request":
		b.startCreateRequest(ctx, chatID, messageID, userID)

	case strings.HasPrefix(data, "shop_"):
		b.handleShopChosen(ctx, chatID, messageID, userID, data)

	case strings.HasPrefix(data, "accept_"):
		b.handleAccept(ctx, chatID, messageID, userID, data)

	case strings.HasPrefix(data, "cancel_matched_"):
		b.handleCancelMatched(ctx, chatID, messageID, userID, data)

	case strings.HasPrefix(data, "cancel_"):
		b.handleCancelPending(ctx, chatID, messageID, userID, data)

	case strings.HasPrefix(data, "unmatch_"):
		b.handleUnmatch(ctx, chatID, messageID, userID, data)

	default:
		b.logger.Warn().Str("data", data).Msg("unknown callback data")
	}
}

func (b *Bot) showFindCompanyMenu(ctx context.Context, chatID int64, messageID int) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👀 Посмотреть доступные заявки", "view_available_requests"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✍️ Создать свою заявку", "create_new_request"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад в главное меню", "main_menu"),
		),
	)

	if messageID != 0 {
		b.editMessage(chatID, messageID, "Выбери действие:", &keyboard)
		return
	}
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, "Выбери действие:", keyboard); err != nil {
		b.logger.Error().Err(err).Msg("failed to send find company menu")
	}
}

func (b *Bot) showAvailableRequests(ctx context.Context, chatID int64, messageID int, userID int64) {
	requests, err := b.requestService.OpenRequests(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to list open requests")
		b.editMessage(chatID, messageID, "❌ Произошла ошибка. Попробуй позже.", nil)
		return
	}

	if len(requests) == 0 {
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Создать свою заявку", "create_new_request"),
			),
		)
		b.editMessage(chatID, messageID,
			"Упс, сейчас свободных заявок нет. Похоже, все уже нашли себе компанию. 😢\n\nМожет, создашь свою и станешь первым?",
			&keyboard)
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, req := range requests {
		local := req.MeetTime.In(schedule.Moscow)
		text := fmt.Sprintf("📍 %s - %s @ %s", req.ShopName, local.Format("02.01"), local.Format("15:04"))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(text, fmt.Sprintf("accept_%d", req.ID)),
		))
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)

	b.editMessage(chatID, messageID,
		"Список доступных заявок. Выбери одну из них или создай свою заявку 😉", &keyboard)
}

func (b *Bot) startCreateRequest(ctx context.Context, chatID int64, messageID int, userID int64) {
	shops, err := b.shopService.ActiveShops(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to list shops")
		b.editMessage(chatID, messageID, "❌ Произошла ошибка. Попробуй позже.", nil)
		return
	}

	if len(shops) == 0 {
		b.editMessage(chatID, messageID, "К сожалению сейчас не нашлись активные кофейни, попробуй позже. 😉", nil)
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, shop := range shops {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📍 "+shop.Name, fmt.Sprintf("shop_%d", shop.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад в главное меню", "main_menu"),
	))
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)

	if err := b.stateService.SetUserState(ctx, userID, models.StateChoosingShop, nil); err != nil {
		b.logger.Error().Err(err).Msg("failed to save dialog state")
	}

	b.editMessage(chatID, messageID,
		"Отлично, поехали! Для начала выбери кофейню, где тебе было бы уютно. 📍", &keyboard)
}

func (b *Bot) handleShopChosen(ctx context.Context, chatID int64, messageID int, userID int64, data string) {
	shopID, err := strconv.ParseInt(strings.TrimPrefix(data, "shop_"), 10, 64)
	if err != nil {
		b.logger.Warn().Str("data", data).Msg("bad shop callback")
		return
	}

	b.logger.Info().Int64("user_id", userID).Int64("shop_id", shopID).Msg("user chose coffee shop")

	tempData := map[string]interface{}{"shop_id": strconv.FormatInt(shopID, 10)}
	if err := b.stateService.SetUserState(ctx, userID, models.StateChoosingDate, tempData); err != nil {
		b.logger.Error().Err(err).Msg("failed to save dialog state")
		return
	}

	b.editMessage(chatID, messageID,
		"Принято! ✅\n\nТеперь давай определимся с датой. Напиши в формате ДД.ММ, в какой день тебе удобно встретиться (например, 25.12).", nil)
}

func (b *Bot) handleAccept(ctx context.Context, chatID int64, messageID int, userID int64, data string) {
	requestID, err := strconv.ParseInt(strings.TrimPrefix(data, "accept_"), 10, 64)
	if err != nil {
		return
	}

	b.logger.Info().Int64("user_id", userID).Int64("request_id", requestID).Msg("user is attempting to accept request")

	paired, err := b.requestService.Pair(ctx, requestID, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("request_id", requestID).Msg("pair failed")
		b.editMessage(chatID, messageID, "❌ Произошла ошибка. Попробуй позже.", nil)
		return
	}

	if !paired {
		b.editMessage(chatID, messageID, "❌ Увы, эту заявку уже кто-то принял.", nil)
		b.sendMainMenu(chatID, "Попробуйте обновить список! Главное меню:")
		return
	}

	metrics.IncTransition("paired")
	b.editMessage(chatID, messageID, "✅ Отлично! Вы приняли заявку.", nil)
	b.notifyAboutPairing(ctx, requestID)
	b.sendMainMenu(chatID, "Я уведомил создателя заявки. Главное меню:")
}

func (b *Bot) handleCancelPending(ctx context.Context, chatID int64, messageID int, userID int64, data string) {
	requestID, err := strconv.ParseInt(strings.TrimPrefix(data, "cancel_"), 10, 64)
	if err != nil {
		return
	}

	ok, err := b.requestService.CancelPending(ctx, requestID, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("request_id", requestID).Msg("cancel failed")
		b.editMessage(chatID, messageID, "❌ Произошла ошибка. Попробуй позже.", nil)
		return
	}

	if ok {
		metrics.IncTransition("cancelled")
		b.editMessage(chatID, messageID, "✅ Заявка успешно отменена.", nil)
	} else {
		b.editMessage(chatID, messageID, "❌ Не удалось отменить заявку. Возможно, она уже была принята или отменена.", nil)
	}
	b.sendMainMenu(chatID, "Главное меню:")
}

func (b *Bot) handleCancelMatched(ctx context.Context, chatID int64, messageID int, userID int64, data string) {
	requestID, err := strconv.ParseInt(strings.TrimPrefix(data, "cancel_matched_"), 10, 64)
	if err != nil {
		return
	}

	// Снимок до отмены: после неё партнёр в строке уже обнулён
	view, viewErr := b.requestService.Snapshot(ctx, requestID)

	partnerID, ok, err := b.requestService.CancelMatched(ctx, requestID, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("request_id", requestID).Msg("cancel matched failed")
		b.editMessage(chatID, messageID, "❌ Произошла ошибка. Попробуй позже.", nil)
		return
	}

	if !ok {
		b.editMessage(chatID, messageID, "❌ Не удалось отменить встречу.", nil)
		b.sendMainMenu(chatID, "Главное меню:")
		return
	}

	metrics.IncTransition("cancelled")
	b.editMessage(chatID, messageID, "✅ Вы успешно отменили встречу.", nil)

	if viewErr == nil && view != nil {
		local := view.MeetTime.In(schedule.Moscow)
		text := fmt.Sprintf(
			"К сожалению, создатель заявки отменил вашу встречу в «%s» (%s в %s). 😔",
			view.ShopName, local.Format("02.01.2006"), local.Format("15:04"),
		)
		if _, err := b.tgService.SendMessage(partnerID, text); err != nil {
			metrics.IncNotifyFailure()
			b.logger.Error().Err(err).Int64("partner_id", partnerID).Msg("failed to notify partner about cancellation")
		}
	}

	b.sendMainMenu(chatID, "Главное меню:")
}

func (b *Bot) handleUnmatch(ctx context.Context, chatID int64, messageID int, userID int64, data string) {
	requestID, err := strconv.ParseInt(strings.TrimPrefix(data, "unmatch_"), 10, 64)
	if err != nil {
		return
	}

	b.logger.Info().Int64("user_id", userID).Int64("request_id", requestID).Msg("user is attempting to unmatch")

	view, viewErr := b.requestService.Snapshot(ctx, requestID)

	creatorID, ok, err := b.requestService.Unmatch(ctx, requestID, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("request_id", requestID).Msg("unmatch failed")
		b.editMessage(chatID, messageID, "❌ Произошла ошибка. Попробуй позже.", nil)
		return
	}

	if !ok {
		b.editMessage(chatID, messageID, "❌ Не удалось отменить участие. Возможно, создатель уже отменил эту встречу.", nil)
		b.sendMainMenu(chatID, "Главное меню:")
		return
	}

	metrics.IncTransition("unmatched")
	b.editMessage(chatID, messageID,
		"✅ Отменил участие в кофе-мите! Заявка снова стала доступна для других.\n\nМожет, создашь новую для встречи в другое время?)", nil)

	if viewErr == nil && view != nil {
		local := view.MeetTime.In(schedule.Moscow)
		text := fmt.Sprintf(
			"К сожалению, ваш партнер по кофе отменил встречу в «%s» (%s в %s). 😔\n\n"+
				"Но не переживайте, ваша заявка снова активна и видна другим пользователям!",
			view.ShopName, local.Format("02.01.2006"), local.Format("15:04"),
		)
		if _, err := b.tgService.SendMessage(creatorID, text); err != nil {
			metrics.IncNotifyFailure()
			b.logger.Error().Err(err).Int64("creator_id", creatorID).Msg("failed to notify creator about unmatch")
		}
	}

	b.sendMainMenu(chatID, "Главное меню:")
}

// notifyAboutPairing уведомляет обе стороны состоявшегося матча.
// Сбой доставки логируется, матч при этом остаётся в силе.
func (b *Bot) notifyAboutPairing(ctx context.Context, requestID int64) {
	view, err := b.requestService.Snapshot(ctx, requestID)
	if err != nil || view == nil || view.PartnerID == nil {
		b.logger.Error().Err(err).Int64("request_id", requestID).Msg("failed to load request for pairing notification")
		return
	}

	creatorMention := mention(view.CreatorUsername, view.CreatorName)
	partnerMention := mention(view.PartnerUsername, view.PartnerName)
	meetTimeStr := view.MeetTime.In(schedule.Moscow).Format("15:04")

	toCreator := fmt.Sprintf(
		"Ура, на твою заявку откликнулись! 🎉\n\n"+
			"Твоя компания на кофе — %s. Кофе-мит в %s в %s.\n\n"+
			"Думаю, это будет интересный перерыв! 😉",
		partnerMention, view.ShopName, meetTimeStr,
	)
	toPartner := fmt.Sprintf(
		"Есть мэтч! 🎉\n\n"+
			"Отлично, ты присоединился к заявке. Кофе-мит с %s состоится в %s в %s.\n\n"+
			"Не опаздывай! Надеюсь, вы классно проведете время. ☕️",
		creatorMention, view.ShopName, meetTimeStr,
	)

	if _, err := b.tgService.SendMessage(view.CreatorID, toCreator); err != nil {
		metrics.IncNotifyFailure()
		b.logger.Error().Err(err).Int64("user_id", view.CreatorID).Msg("failed to notify creator about pairing")
	}
	if _, err := b.tgService.SendMessage(*view.PartnerID, toPartner); err != nil {
		metrics.IncNotifyFailure()
		b.logger.Error().Err(err).Int64("user_id", *view.PartnerID).Msg("failed to notify partner about pairing")
	}
}
