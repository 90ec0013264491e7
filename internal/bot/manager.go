package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kofemeet/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleStats показывает менеджеру сводку по пользователям и заявкам.
func (b *Bot) handleStats(ctx context.Context, update tgbotapi.Update) {
	if !b.userService.IsManager(update.Message.From.ID) {
		return
	}

	allUsers, err := b.userService.GetAllUsers(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Error getting all users")
		b.sendMessage(update.Message.Chat.ID, "Ошибка при получении данных")
		return
	}

	counts, err := b.repo.CountRequestsByStatus(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Error counting requests")
		b.sendMessage(update.Message.Chat.ID, "Ошибка при получении данных")
		return
	}

	var message strings.Builder
	message.WriteString("📊 *Статистика*\n\n")

	message.WriteString("👥 *Пользователи*\n")
	message.WriteString(fmt.Sprintf("Всего: *%d*\n\n", len(allUsers)))

	message.WriteString("☕️ *Заявки*\n")
	message.WriteString(fmt.Sprintf("В ожидании: *%d*\n", counts[models.StatusPending]))
	message.WriteString(fmt.Sprintf("Мэтчей: *%d*\n", counts[models.StatusMatched]))
	message.WriteString(fmt.Sprintf("Отменено: *%d*\n", counts[models.StatusCancelled]))
	message.WriteString(fmt.Sprintf("Истекло: *%d*\n", counts[models.StatusExpired]))

	if _, err := b.tgService.SendMarkdown(update.Message.Chat.ID, message.String()); err != nil {
		b.logger.Error().Err(err).Msg("failed to send stats")
	}
}

// handleShopOff скрывает кофейню из выдачи: /shop_off <id>.
// При следующем запуске синхронизация с конфигурацией вернёт её обратно,
// команда нужна для оперативного скрытия (кофейня закрылась на ремонт).
func (b *Bot) handleShopOff(ctx context.Context, update tgbotapi.Update) {
	if !b.userService.IsManager(update.Message.From.ID) {
		return
	}

	shopID, err := strconv.ParseInt(strings.TrimSpace(update.Message.CommandArguments()), 10, 64)
	if err != nil {
		b.sendMessage(update.Message.Chat.ID, "Укажи id кофейни: /shop_off 5")
		return
	}

	shop, err := b.shopService.Shop(ctx, shopID)
	if err != nil {
		b.sendMessage(update.Message.Chat.ID, "Кофейня с таким id не найдена")
		return
	}

	if err := b.shopService.Deactivate(ctx, shopID); err != nil {
		b.logger.Error().Err(err).Int64("shop_id", shopID).Msg("Error deactivating shop")
		b.sendMessage(update.Message.Chat.ID, "Не получилось скрыть кофейню")
		return
	}
	b.sendMessage(update.Message.Chat.ID, fmt.Sprintf("Кофейня «%s» скрыта из выдачи", shop.Name))
}

// handleExport выгружает менеджеру заявки за последние 30 дней в Excel.
func (b *Bot) handleExport(ctx context.Context, update tgbotapi.Update) {
	if !b.userService.IsManager(update.Message.From.ID) {
		return
	}

	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -30)

	filePath, err := b.exportToExcel(ctx, startDate, endDate)
	if err != nil {
		b.logger.Error().Err(err).Msg("Error exporting to excel")
		b.sendMessage(update.Message.Chat.ID, "Ошибка при формировании выгрузки")
		return
	}

	doc := tgbotapi.NewDocument(update.Message.Chat.ID, tgbotapi.FilePath(filePath))
	doc.Caption = fmt.Sprintf("Заявки за период %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006"))

	if _, err := b.tgService.Send(doc); err != nil {
		b.logger.Error().Err(err).Msg("failed to send export file")
	}
}
