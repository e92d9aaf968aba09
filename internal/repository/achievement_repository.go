package repository

import (
	"context"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AchievementRepository handles awarded badges.
type AchievementRepository struct {
	pool *pgxpool.Pool
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(pool *pgxpool.Pool) *AchievementRepository {
	return &AchievementRepository{pool: pool}
}

// Award inserts the badge if the user does not have it yet. It reports
// whether this call created it.
func (r *AchievementRepository) Award(ctx context.Context, userID int, code model.AchievementCode) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO achievements (user_id, code) VALUES ($1, $2) ON CONFLICT (user_id, code) DO NOTHING`,
		userID, code)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListByUser returns a user's badges, newest first, up to limit (0 = all).
func (r *AchievementRepository) ListByUser(ctx context.Context, userID, limit int) ([]model.Achievement, error) {
	query := `SELECT id, user_id, code, awarded_at FROM achievements WHERE user_id = $1 ORDER BY awarded_at DESC, id DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Achievement{}
	for rows.Next() {
		var a model.Achievement
		if err := rows.Scan(&a.ID, &a.UserID, &a.Code, &a.AwardedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
