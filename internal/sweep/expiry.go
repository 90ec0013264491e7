package sweep

import (
	"context"
	"fmt"
	"time"

	"kofemeet/internal/domain"
	"kofemeet/internal/metrics"
	"kofemeet/internal/schedule"

	"github.com/rs/zerolog"
)

// ExpirySweep закрывает заявки, к которым никто не присоединился:
// если до встречи осталось меньше margin, заявка переводится в expired
// и создателю отправляется уведомление. Переход фиксируется при захвате,
// сбой доставки его не откатывает.
type ExpirySweep struct {
	repo       domain.Repository
	notifier   domain.Notifier
	interval   time.Duration
	firstDelay time.Duration
	margin     time.Duration
	logger     *zerolog.Logger
}

func NewExpirySweep(repo domain.Repository, notifier domain.Notifier, interval, firstDelay, margin time.Duration, logger *zerolog.Logger) *ExpirySweep {
	return &ExpirySweep{
		repo:       repo,
		notifier:   notifier,
		interval:   interval,
		firstDelay: firstDelay,
		margin:     margin,
		logger:     logger,
	}
}

// Start блокируется до отмены ctx.
func (s *ExpirySweep) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Dur("margin", s.margin).
		Msg("expiry sweep started")
	defer s.logger.Info().Msg("expiry sweep stopped")

	select {
	case <-ctx.Done():
		return
	case <-time.After(s.firstDelay):
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce выполняет один проход.
func (s *ExpirySweep) RunOnce(ctx context.Context) {
	jobs, err := s.repo.ClaimExpiredPending(ctx, time.Now(), s.margin)
	if err != nil {
		s.logger.Error().Err(err).Msg("expiry sweep pass failed")
		return
	}
	if len(jobs) == 0 {
		return
	}

	metrics.AddSweepClaims("expiry", len(jobs))
	s.logger.Info().Int("count", len(jobs)).Msg("pending requests expired")

	for _, job := range jobs {
		metrics.IncTransition("expired")

		local := job.MeetTime.In(schedule.Moscow)
		text := fmt.Sprintf(
			"😔 К встрече в «%s» в %s никто не присоединился. Заявка закрыта, попробуйте другое время!",
			job.ShopName, local.Format("15:04"),
		)

		if err := s.notifier.Notify(ctx, job.CreatorID, text); err != nil {
			metrics.IncNotifyFailure()
			s.logger.Error().Err(err).
				Int64("request_id", job.RequestID).
				Int64("user_id", job.CreatorID).
				Msg("failed to deliver expiry notice")
		}
	}
}
