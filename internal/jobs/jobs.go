package jobs

import (
	"github.com/brightstarts/studyvibe-backend/internal/config"
	"github.com/brightstarts/studyvibe-backend/internal/service"
)

// Job names.
const (
	SuggestionJob       = "post_suggestions"
	DeadlineReminderJob = "deadline_reminders"
)

// RegisterDefaults schedules the suggestion and deadline reminder jobs.
func RegisterDefaults(s *Scheduler, cfg *config.Config, admin *service.AdminService, assignments *service.AssignmentService) error {
	if err := s.AddJob(SuggestionJob, cfg.SuggestionCron, admin.GenerateSuggestions); err != nil {
		return err
	}
	return s.AddJob(DeadlineReminderJob, cfg.DeadlineReminderCron, assignments.SendDueReminders)
}
