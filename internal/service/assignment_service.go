package service

import (
	"context"
	"strings"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/i18n"
	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const (
	defaultUpcomingDays = 7
	maxUpcomingDays     = 90
	upcomingLimit       = 100
	reminderWindow      = 24 * time.Hour
)

// AssignmentService handles assignments, the deadline tracker and reminders.
type AssignmentService struct {
	repo     *repository.AssignmentRepository
	notifier *NotificationService
	clock    clockwork.Clock
	log      zerolog.Logger
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(repo *repository.AssignmentRepository, notifier *NotificationService,
	clock clockwork.Clock, log zerolog.Logger) *AssignmentService {
	return &AssignmentService{
		repo:     repo,
		notifier: notifier,
		clock:    clock,
		log:      log.With().Str("component", "assignment_service").Logger(),
	}
}

// List returns the owner's assignments, optionally filtered by status.
func (s *AssignmentService) List(ctx context.Context, ownerID int, status model.AssignmentStatus) ([]model.Assignment, error) {
	list, err := s.repo.List(ctx, ownerID, status)
	if err != nil {
		return nil, err
	}
	s.markOverdue(list)
	return list, nil
}

// Upcoming returns not-completed assignments due within days, overdue ones
// included.
func (s *AssignmentService) Upcoming(ctx context.Context, ownerID, days int) ([]model.Assignment, error) {
	if days <= 0 {
		days = defaultUpcomingDays
	}
	if days > maxUpcomingDays {
		days = maxUpcomingDays
	}
	until := s.clock.Now().Add(time.Duration(days) * 24 * time.Hour)
	list, err := s.repo.Upcoming(ctx, ownerID, until, upcomingLimit)
	if err != nil {
		return nil, err
	}
	s.markOverdue(list)
	return list, nil
}

// Get returns one of the caller's assignments.
func (s *AssignmentService) Get(ctx context.Context, id, ownerID int) (*model.Assignment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	a.IsOverdue = IsOverdue(a, s.clock.Now())
	return a, nil
}

// Create stores an assignment.
func (s *AssignmentService) Create(ctx context.Context, ownerID int, req model.AssignmentRequest) (*model.Assignment, error) {
	a := &model.Assignment{OwnerID: ownerID, Status: model.StatusPending}
	s.apply(a, req)
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	a.IsOverdue = IsOverdue(a, s.clock.Now())
	return a, nil
}

// Update replaces an assignment's fields.
func (s *AssignmentService) Update(ctx context.Context, id, ownerID int, req model.AssignmentRequest) (*model.Assignment, error) {
	a, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	s.apply(a, req)
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	a.IsOverdue = IsOverdue(a, s.clock.Now())
	return a, nil
}

// SetStatus changes only the status.
func (s *AssignmentService) SetStatus(ctx context.Context, id, ownerID int, status model.AssignmentStatus) (*model.Assignment, error) {
	a, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	s.setStatus(a, status)
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	a.IsOverdue = IsOverdue(a, s.clock.Now())
	return a, nil
}

// Delete removes an assignment.
func (s *AssignmentService) Delete(ctx context.Context, id, ownerID int) error {
	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// SendDueReminders queues one reminder per assignment due within the next
// 24 hours that has not been reminded yet. It returns how many were queued.
func (s *AssignmentService) SendDueReminders(ctx context.Context) (int, error) {
	now := s.clock.Now()
	due, err := s.repo.DueForReminder(ctx, now, now.Add(reminderWindow))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, d := range due {
		claimed, err := s.repo.MarkReminded(ctx, d.ID, now)
		if err != nil {
			s.log.Error().Err(err).Int("assignment_id", d.ID).Msg("Mark reminded failed")
			continue
		}
		if !claimed {
			continue
		}

		err = s.notifier.Enqueue(ctx, model.NotificationJob{
			UserID: d.OwnerID,
			Type:   model.NotificationReminder,
			Params: map[string]string{
				"title": d.Title,
				"due":   FormatDue(d.DueAt, i18n.Resolve(d.OwnerLanguage)),
			},
			Data: map[string]interface{}{"assignment_id": d.ID, "due_at": d.DueAt},
		})
		if err != nil {
			s.log.Error().Err(err).Int("assignment_id", d.ID).Msg("Queue reminder failed")
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *AssignmentService) apply(a *model.Assignment, req model.AssignmentRequest) {
	a.Title = strings.TrimSpace(req.Title)
	a.Description = req.Description
	a.Subject = req.Subject
	a.DueAt = req.DueAt
	a.Priority = req.Priority
	if a.Priority == "" {
		a.Priority = model.PriorityMedium
	}
	if req.Status != "" {
		s.setStatus(a, req.Status)
	}
}

func (s *AssignmentService) setStatus(a *model.Assignment, status model.AssignmentStatus) {
	if status == model.StatusCompleted && a.Status != model.StatusCompleted {
		now := s.clock.Now()
		a.CompletedAt = &now
	}
	if status != model.StatusCompleted {
		a.CompletedAt = nil
	}
	a.Status = status
}

func (s *AssignmentService) markOverdue(list []model.Assignment) {
	now := s.clock.Now()
	for i := range list {
		list[i].IsOverdue = IsOverdue(&list[i], now)
	}
}

// IsOverdue reports whether a not-completed assignment is past its deadline.
func IsOverdue(a *model.Assignment, now time.Time) bool {
	return a.Status != model.StatusCompleted && a.DueAt.Before(now)
}

// FormatDue renders a deadline for a reminder message in lang.
func FormatDue(due time.Time, lang i18n.Lang) string {
	due = due.UTC()
	if lang == i18n.Vietnamese {
		return due.Format("15:04 02/01/2006") + " (UTC)"
	}
	return due.Format("Jan 2, 2006 15:04") + " UTC"
}
