package model

import "time"

// AchievementCode identifies a badge in the catalogue.
type AchievementCode string

const (
	AchievementFirstPost       AchievementCode = "first_post"
	AchievementFirstQuiz       AchievementCode = "first_quiz"
	AchievementPerfectScore    AchievementCode = "perfect_score"
	AchievementGroupJoined     AchievementCode = "group_joined"
	AchievementFlashcardMaster AchievementCode = "flashcard_master"
)

// FlashcardMasterReviews is the review count that earns flashcard_master.
const FlashcardMasterReviews = 50

// Achievement is an awarded badge.
type Achievement struct {
	ID        int             `json:"id"`
	UserID    int             `json:"user_id"`
	Code      AchievementCode `json:"code"`
	Name      string          `json:"name"`
	AwardedAt time.Time       `json:"awarded_at"`
}
