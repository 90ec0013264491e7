package service

import (
	"context"
	"time"

	"kofemeet/internal/domain"
	"kofemeet/internal/models"
	"kofemeet/internal/schedule"

	"github.com/rs/zerolog"
)

type ShopService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewShopService(repo domain.Repository, logger *zerolog.Logger) *ShopService {
	return &ShopService{
		repo:   repo,
		logger: logger,
	}
}

func (s *ShopService) ActiveShops(ctx context.Context) ([]*models.Shop, error) {
	return s.repo.GetActiveShops(ctx)
}

func (s *ShopService) Shop(ctx context.Context, id int64) (*models.Shop, error) {
	return s.repo.GetShop(ctx, id)
}

func (s *ShopService) IsOpenAt(ctx context.Context, shopID int64, meetTime time.Time) (bool, error) {
	hours, err := s.repo.GetShopHours(ctx, shopID)
	if err != nil {
		return false, err
	}
	return schedule.IsOpenAt(hours, meetTime), nil
}

// Deactivate скрывает кофейню из выдачи, не удаляя её. Уже созданные
// заявки на неё продолжают жить своим циклом.
func (s *ShopService) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.DeactivateShop(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("shop_id", id).Msg("shop deactivated")
	return nil
}

// Sync загружает список кофеен из конфигурации в базу.
// Кофейни, которых нет в списке, деактивируются.
func (s *ShopService) Sync(ctx context.Context, shops []models.Shop) error {
	if err := s.repo.SyncShops(ctx, shops); err != nil {
		return err
	}
	s.logger.Info().Int("count", len(shops)).Msg("shops synced")
	return nil
}
