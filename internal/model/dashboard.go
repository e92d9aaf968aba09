package model

// DashboardStats aggregates the caller's study overview.
type DashboardStats struct {
	DeckCount           int           `json:"deck_count"`
	CardsDue            int           `json:"cards_due"`
	QuizzesTaken        int           `json:"quizzes_taken"`
	AverageScore        float64       `json:"average_score"`
	PendingAssignments  int           `json:"pending_assignments"`
	UpcomingDeadlines   []Assignment  `json:"upcoming_deadlines"`
	GroupCount          int           `json:"group_count"`
	UnreadNotifications int           `json:"unread_notifications"`
	Achievements        []Achievement `json:"achievements"`
}
