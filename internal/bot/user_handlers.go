package bot

import (
	"context"
	"fmt"
	"strings"

	"kofemeet/internal/models"
	"kofemeet/internal/schedule"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type statusPresentation struct {
	icon     string
	template string // подстановки: кофейня, упоминание партнёра
}

var statusConfig = map[string]statusPresentation{
	models.StatusPending:   {icon: "⏳", template: "*Ожидание* в «%s»"},
	models.StatusMatched:   {icon: "🤝", template: "Кофе-мит с %s в «%s»"},
	models.StatusCancelled: {icon: "❌", template: "*Отменено* в «%s»"},
	models.StatusExpired:   {icon: "📭", template: "*Кофе-мит истёк* в «%s»"},
}

// showMyRequests показывает кофе-миты пользователя с кнопками действий.
func (b *Bot) showMyRequests(ctx context.Context, chatID, userID int64) {
	requests, err := b.requestService.UserRequests(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list user requests")
		b.sendMessage(chatID, "❌ Произошла ошибка. Попробуй позже.")
		return
	}

	var keyboardRows [][]tgbotapi.InlineKeyboardButton
	var messageText string

	if len(requests) == 0 {
		messageText = "У тебя пока нет запланированных или завершенных кофе-митов. Время найти компанию! ☕️"
	} else {
		parts := []string{"*Твои кофе-миты ☕️:*\n"}

		for _, req := range requests {
			cfg, known := statusConfig[req.Status]
			if !known {
				continue
			}

			local := req.MeetTime.In(schedule.Moscow)
			dateStr := local.Format("02.01.2006")
			timeStr := local.Format("15:04")

			var details string
			if req.Status == models.StatusMatched {
				companion := b.companionMention(userID, &req)
				details = fmt.Sprintf(cfg.template, companion, escapeMarkdown(req.ShopName))
			} else {
				details = fmt.Sprintf(cfg.template, escapeMarkdown(req.ShopName))
			}

			parts = append(parts, fmt.Sprintf("%s *%s* в *%s*\n%s", cfg.icon, dateStr, timeStr, details))

			if button := requestButton(userID, &req); button != nil {
				keyboardRows = append(keyboardRows, []tgbotapi.InlineKeyboardButton{*button})
			}
		}

		messageText = strings.Join(parts, "\n\n")
	}

	keyboardRows = append(keyboardRows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад в главное меню", "main_menu"),
	))
	keyboard := tgbotapi.NewInlineKeyboardMarkup(keyboardRows...)

	msg := tgbotapi.NewMessage(chatID, messageText)
	msg.ParseMode = models.ParseModeMarkdown
	msg.ReplyMarkup = keyboard
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send my requests")
	}
}

// companionMention возвращает упоминание второй стороны матча.
func (b *Bot) companionMention(userID int64, req *models.RequestView) string {
	var username string
	if userID == req.CreatorID {
		username = req.PartnerUsername
	} else {
		username = req.CreatorUsername
	}
	if username == "" {
		return "партнером"
	}
	return "@" + escapeMarkdown(username)
}

// requestButton подбирает кнопку действия по статусу и роли пользователя.
func requestButton(userID int64, req *models.RequestView) *tgbotapi.InlineKeyboardButton {
	switch {
	case req.Status == models.StatusPending && userID == req.CreatorID:
		btn := tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("❌ Отменить заявку в «%s»", req.ShopName),
			fmt.Sprintf("cancel_%d", req.ID),
		)
		return &btn
	case req.Status == models.StatusMatched && req.PartnerID != nil && userID == *req.PartnerID:
		btn := tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("❌ Отказаться от встречи в «%s»", req.ShopName),
			fmt.Sprintf("unmatch_%d", req.ID),
		)
		return &btn
	case req.Status == models.StatusMatched && userID == req.CreatorID:
		btn := tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("❌ Отменить встречу в «%s»", req.ShopName),
			fmt.Sprintf("cancel_matched_%d", req.ID),
		)
		return &btn
	}
	return nil
}
