package bot

import (
	"errors"

	"kofemeet/internal/database"
)

func (b *Bot) getErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, database.ErrPastDate) {
		return "⚠️ Эта дата уже в прошлом. Выбери время из будущего."
	}

	if errors.Is(err, database.ErrDateTooFar) {
		return "⚠️ Давай не будем планировать так далеко! Выбери дату поближе."
	}

	if errors.Is(err, database.ErrShopClosed) {
		return "Ой, кажется, эта кофейня в это время уже спит 😴. Давай попробуем другое время?"
	}

	if errors.Is(err, database.ErrShopNotFound) {
		return "⚠️ Эта кофейня больше недоступна. Начни заново и выбери другую."
	}

	return "❌ Произошла ошибка при обработке вашего запроса. Пожалуйста, попробуйте позже."
}

// isRetryableCreateError: при этих ошибках пользователь может просто
// прислать другое время, не начиная диалог заново.
func isRetryableCreateError(err error) bool {
	return errors.Is(err, database.ErrShopClosed) ||
		errors.Is(err, database.ErrPastDate)
}
