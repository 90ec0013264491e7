package service

import (
	"context"

	"kofemeet/internal/config"
	"kofemeet/internal/domain"
	"kofemeet/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo        domain.Repository
	logger      *zerolog.Logger
	managersMap map[int64]bool
}

func NewUserService(repo domain.Repository, cfg *config.Config, logger *zerolog.Logger) *UserService {
	managersMap := make(map[int64]bool)
	for _, id := range cfg.Managers {
		managersMap[id] = true
	}

	return &UserService{
		repo:        repo,
		logger:      logger,
		managersMap: managersMap,
	}
}

func (s *UserService) IsManager(userID int64) bool {
	return s.managersMap[userID]
}

func (s *UserService) SaveUser(ctx context.Context, user *models.User) error {
	user.IsManager = s.IsManager(user.TelegramID)
	return s.repo.CreateOrUpdateUser(ctx, user)
}

func (s *UserService) UpdateUserActivity(ctx context.Context, telegramID int64) error {
	return s.repo.UpdateUserActivity(ctx, telegramID)
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAllUsers(ctx)
}
