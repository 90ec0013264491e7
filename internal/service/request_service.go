package service

import (
	"context"
	"time"

	"kofemeet/internal/database"
	"kofemeet/internal/domain"
	"kofemeet/internal/models"
	"kofemeet/internal/schedule"

	"github.com/rs/zerolog"
)

type RequestService struct {
	repo            domain.Repository
	maxPlanningDays int
	logger          *zerolog.Logger
}

func NewRequestService(repo domain.Repository, maxPlanningDays int, logger *zerolog.Logger) *RequestService {
	if maxPlanningDays <= 0 {
		maxPlanningDays = models.MaxPlanningDays
	}
	return &RequestService{
		repo:            repo,
		maxPlanningDays: maxPlanningDays,
		logger:          logger,
	}
}

// ValidateMeetTime проверяет время встречи по московским часам:
// не в прошлом, в пределах окна планирования, кофейня открыта.
func (s *RequestService) ValidateMeetTime(ctx context.Context, shopID int64, meetTime time.Time) error {
	now := time.Now()

	if !schedule.InFuture(now, meetTime) {
		return database.ErrPastDate
	}

	if !schedule.WithinPlanningWindow(now, meetTime, s.maxPlanningDays) {
		return database.ErrDateTooFar
	}

	hours, err := s.repo.GetShopHours(ctx, shopID)
	if err != nil {
		return err
	}

	if !schedule.IsOpenAt(hours, meetTime) {
		return database.ErrShopClosed
	}

	return nil
}

func (s *RequestService) Create(ctx context.Context, creatorID, shopID int64, meetTime time.Time) (int64, error) {
	if err := s.ValidateMeetTime(ctx, shopID, meetTime); err != nil {
		return 0, err
	}

	id, err := s.repo.CreateRequest(ctx, creatorID, shopID, meetTime)
	if err != nil {
		return 0, err
	}

	s.logger.Info().
		Int64("request_id", id).
		Int64("creator_id", creatorID).
		Int64("shop_id", shopID).
		Time("meet_time", meetTime).
		Msg("request created")

	return id, nil
}

// Pair присоединяет partnerID к заявке. false без ошибки значит,
// что заявку уже забрали, отменили или она своя.
func (s *RequestService) Pair(ctx context.Context, requestID, partnerID int64) (bool, error) {
	paired, err := s.repo.PairRequest(ctx, requestID, partnerID)
	if err != nil {
		return false, err
	}
	if paired {
		s.logger.Info().
			Int64("request_id", requestID).
			Int64("partner_id", partnerID).
			Msg("request paired")
	}
	return paired, nil
}

// Unmatch возвращает заявку в поиск. Возвращает id создателя для уведомления.
func (s *RequestService) Unmatch(ctx context.Context, requestID, partnerID int64) (int64, bool, error) {
	creatorID, ok, err := s.repo.UnmatchRequest(ctx, requestID, partnerID)
	if err != nil {
		return 0, false, err
	}
	if ok {
		s.logger.Info().
			Int64("request_id", requestID).
			Int64("partner_id", partnerID).
			Msg("partner left, request reopened")
	}
	return creatorID, ok, nil
}

func (s *RequestService) CancelPending(ctx context.Context, requestID, creatorID int64) (bool, error) {
	ok, err := s.repo.CancelPending(ctx, requestID, creatorID)
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.Info().Int64("request_id", requestID).Msg("pending request cancelled")
	}
	return ok, nil
}

// CancelMatched отменяет состоявшийся матч. Возвращает id партнёра,
// которого нужно уведомить.
func (s *RequestService) CancelMatched(ctx context.Context, requestID, creatorID int64) (int64, bool, error) {
	partnerID, ok, err := s.repo.CancelMatched(ctx, requestID, creatorID)
	if err != nil {
		return 0, false, err
	}
	if ok {
		s.logger.Info().
			Int64("request_id", requestID).
			Int64("partner_id", partnerID).
			Msg("matched request cancelled")
	}
	return partnerID, ok, nil
}

func (s *RequestService) OpenRequests(ctx context.Context, userID int64) ([]models.OpenRequest, error) {
	return s.repo.ListOpenRequests(ctx, userID, time.Now())
}

func (s *RequestService) UserRequests(ctx context.Context, userID int64) ([]models.RequestView, error) {
	return s.repo.ListUserRequests(ctx, userID, time.Now())
}

func (s *RequestService) Snapshot(ctx context.Context, requestID int64) (*models.RequestView, error) {
	return s.repo.GetRequestSnapshot(ctx, requestID)
}
