package service

import (
	"context"

	"github.com/brightstarts/studyvibe-backend/internal/i18n"
	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/jonboulle/clockwork"
)

const dashboardListSize = 5

// DashboardService assembles the caller's study overview.
type DashboardService struct {
	repo         *repository.DashboardRepository
	assignments  *repository.AssignmentRepository
	achievements *AchievementService
	clock        clockwork.Clock
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo *repository.DashboardRepository, assignments *repository.AssignmentRepository,
	achievements *AchievementService, clock clockwork.Clock) *DashboardService {
	return &DashboardService{repo: repo, assignments: assignments, achievements: achievements, clock: clock}
}

// GetDashboardData returns summary counts, the next deadlines and the
// latest achievements of userID.
func (s *DashboardService) GetDashboardData(ctx context.Context, userID int, lang i18n.Lang) (*model.DashboardStats, error) {
	now := s.clock.Now()
	stats, err := s.repo.GetSummaryCounts(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.assignments.Upcoming(ctx, userID, now.AddDate(0, 0, maxUpcomingDays), dashboardListSize)
	if err != nil {
		return nil, err
	}
	for i := range upcoming {
		upcoming[i].IsOverdue = IsOverdue(&upcoming[i], now)
	}
	stats.UpcomingDeadlines = upcoming

	achievements, err := s.achievements.List(ctx, userID, dashboardListSize, lang)
	if err != nil {
		return nil, err
	}
	stats.Achievements = achievements

	return stats, nil
}
