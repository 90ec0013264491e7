package bot

import (
	"context"

	"kofemeet/internal/domain"

	"golang.org/x/time/rate"
)

// TelegramNotifier отправляет личные сообщения с глобальным ограничением
// частоты, чтобы рассылки свипов не упирались в лимиты Telegram.
type TelegramNotifier struct {
	tgService domain.TelegramService
	limiter   *rate.Limiter
}

func NewTelegramNotifier(tgService domain.TelegramService, perSecond int) *TelegramNotifier {
	if perSecond <= 0 {
		perSecond = 25
	}
	return &TelegramNotifier{
		tgService: tgService,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

func (n *TelegramNotifier) Notify(ctx context.Context, userID int64, text string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := n.tgService.SendMessage(userID, text)
	return err
}
