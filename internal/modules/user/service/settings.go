package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/IMRiesen/avitolike/internal/modules/user/dto"
	"github.com/IMRiesen/avitolike/pkg/apperror"
	"github.com/google/uuid"
)

func (s *authService) GetSettings(ctx context.Context, userID uuid.UUID) (*dto.SettingsResponse, error) {
	setting, err := s.loadSetting(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toSettingsResponse(setting), nil
}

func (s *authService) UpdateSettings(ctx context.Context, userID uuid.UUID, input dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	setting, err := s.loadSetting(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.NotifyMessages != nil {
		setting.NotifyMessages = *input.NotifyMessages
	}
	if input.NotifyFavorites != nil {
		setting.NotifyFavorites = *input.NotifyFavorites
	}
	if input.NotifyReviews != nil {
		setting.NotifyReviews = *input.NotifyReviews
	}
	if input.Theme != nil {
		setting.Theme = *input.Theme
	}

	if err := s.repo.SaveSetting(ctx, setting); err != nil {
		return nil, err
	}
	return toSettingsResponse(setting), nil
}

// loadSetting falls back to defaults for accounts created before settings existed.
func (s *authService) loadSetting(ctx context.Context, userID uuid.UUID) (*entity.UserSetting, error) {
	setting, err := s.repo.FindSetting(ctx, userID)
	if err == nil {
		return setting, nil
	}
	if !errors.Is(apperror.FromDB(err), apperror.ErrNotFound) {
		return nil, err
	}

	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("user not found: %w", apperror.FromDB(err))
	}
	return entity.DefaultSetting(userID), nil
}

func toSettingsResponse(s *entity.UserSetting) *dto.SettingsResponse {
	return &dto.SettingsResponse{
		NotifyMessages:  s.NotifyMessages,
		NotifyFavorites: s.NotifyFavorites,
		NotifyReviews:   s.NotifyReviews,
		Theme:           s.Theme,
	}
}
