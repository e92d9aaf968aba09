package service

import (
	"context"

	"github.com/brightstarts/studyvibe-backend/internal/i18n"
	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/rs/zerolog"
)

// AchievementService awards badges and lists them.
type AchievementService struct {
	repo     *repository.AchievementRepository
	notifier *NotificationService
	log      zerolog.Logger
}

// NewAchievementService creates a new AchievementService.
func NewAchievementService(repo *repository.AchievementRepository, notifier *NotificationService, log zerolog.Logger) *AchievementService {
	return &AchievementService{
		repo:     repo,
		notifier: notifier,
		log:      log.With().Str("component", "achievement_service").Logger(),
	}
}

// Award grants code to userID once. The first award queues an achievement
// notification. Failures are logged, not returned.
func (s *AchievementService) Award(ctx context.Context, userID int, code model.AchievementCode) {
	created, err := s.repo.Award(ctx, userID, code)
	if err != nil {
		s.log.Error().Err(err).Int("user_id", userID).Str("code", string(code)).Msg("Award failed")
		return
	}
	if !created {
		return
	}

	s.log.Info().Int("user_id", userID).Str("code", string(code)).Msg("Achievement awarded")
	err = s.notifier.Enqueue(ctx, model.NotificationJob{
		UserID:        userID,
		Type:          model.NotificationAchievement,
		CatalogParams: map[string]string{"name": "achievements." + string(code)},
		Data:          map[string]interface{}{"code": code},
	})
	if err != nil {
		s.log.Error().Err(err).Int("user_id", userID).Msg("Queue achievement notification failed")
	}
}

// List returns a user's badges with names in lang.
func (s *AchievementService) List(ctx context.Context, userID, limit int, lang i18n.Lang) ([]model.Achievement, error) {
	list, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Name = i18n.T(lang, "achievements."+string(list[i].Code), nil)
	}
	return list, nil
}
