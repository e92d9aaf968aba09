package repository

import (
	"context"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardRepository handles the student dashboard aggregates.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// GetSummaryCounts fills the scalar counters of the dashboard in one round trip.
func (r *DashboardRepository) GetSummaryCounts(ctx context.Context, userID int, now time.Time) (*model.DashboardStats, error) {
	s := &model.DashboardStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM flashcard_decks WHERE owner_id = $1),
			(SELECT COUNT(*) FROM flashcards f JOIN flashcard_decks d ON d.id = f.deck_id
			  WHERE d.owner_id = $1 AND f.due_at <= $2),
			(SELECT COUNT(*) FROM quiz_attempts WHERE user_id = $1),
			(SELECT COALESCE(AVG(score), 0)::float8 FROM quiz_attempts WHERE user_id = $1),
			(SELECT COUNT(*) FROM assignments WHERE owner_id = $1 AND status <> 'completed'),
			(SELECT COUNT(*) FROM study_group_members WHERE user_id = $1),
			(SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE)`,
		userID, now,
	).Scan(&s.DeckCount, &s.CardsDue, &s.QuizzesTaken, &s.AverageScore, &s.PendingAssignments,
		&s.GroupCount, &s.UnreadNotifications)
	if err != nil {
		return nil, err
	}
	return s, nil
}
