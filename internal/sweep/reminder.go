package sweep

import (
	"context"
	"fmt"
	"time"

	"kofemeet/internal/domain"
	"kofemeet/internal/metrics"
	"kofemeet/internal/models"
	"kofemeet/internal/schedule"

	"github.com/rs/zerolog"
)

// ReminderSweep раз в interval захватывает матчи, до которых осталось
// меньше lookahead, и напоминает обоим участникам. Строка помечается
// отправленной в момент захвата, поэтому повторных напоминаний не бывает
// даже при сбое доставки.
type ReminderSweep struct {
	repo       domain.Repository
	notifier   domain.Notifier
	interval   time.Duration
	firstDelay time.Duration
	lookahead  time.Duration
	logger     *zerolog.Logger
}

func NewReminderSweep(repo domain.Repository, notifier domain.Notifier, interval, firstDelay, lookahead time.Duration, logger *zerolog.Logger) *ReminderSweep {
	return &ReminderSweep{
		repo:       repo,
		notifier:   notifier,
		interval:   interval,
		firstDelay: firstDelay,
		lookahead:  lookahead,
		logger:     logger,
	}
}

// Start блокируется до отмены ctx.
func (s *ReminderSweep) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Dur("lookahead", s.lookahead).
		Msg("reminder sweep started")
	defer s.logger.Info().Msg("reminder sweep stopped")

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

// RunOnce выполняет один проход. Ошибка прохода логируется и не
// останавливает цикл.
func (s *ReminderSweep) RunOnce(ctx context.Context) {
	jobs, err := s.repo.ClaimDueReminders(ctx, time.Now(), s.lookahead)
	if err != nil {
		s.logger.Error().Err(err).Msg("reminder sweep pass failed")
		return
	}
	if len(jobs) == 0 {
		return
	}

	metrics.AddSweepClaims("reminder", len(jobs))
	s.logger.Info().Int("count", len(jobs)).Msg("reminders claimed")

	for _, job := range jobs {
		s.remind(ctx, job.CreatorID, job.PartnerMention(), job)
		s.remind(ctx, job.PartnerID, job.CreatorMention(), job)
		metrics.IncTransition("reminded")
	}
}

func (s *ReminderSweep) remind(ctx context.Context, userID int64, companion string, job models.ReminderJob) {
	local := job.MeetTime.In(schedule.Moscow)
	text := fmt.Sprintf(
		"☕ Напоминание: скоро встреча в «%s» в %s с %s",
		job.ShopName, local.Format("15:04"), companion,
	)

	if err := s.notifier.Notify(ctx, userID, text); err != nil {
		metrics.IncNotifyFailure()
		s.logger.Error().Err(err).
			Int64("request_id", job.RequestID).
			Int64("user_id", userID).
			Msg("failed to deliver reminder")
	}
}
