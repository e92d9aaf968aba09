package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brightstarts/studyvibe-backend/internal/config"
	"github.com/brightstarts/studyvibe-backend/internal/i18n"
	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/realtime"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/redis/go-redis/v9"
)

const maxNotificationPage = 100

// NotificationService queues, renders, stores and lists notifications.
type NotificationService struct {
	repo      *repository.NotificationRepository
	userRepo  *repository.UserRepository
	rdb       *redis.Client
	publisher *realtime.Publisher
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo *repository.NotificationRepository, userRepo *repository.UserRepository,
	rdb *redis.Client, publisher *realtime.Publisher) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo, rdb: rdb, publisher: publisher}
}

// Enqueue queues a notification for asynchronous delivery.
func (s *NotificationService) Enqueue(ctx context.Context, job model.NotificationJob) error {
	if !job.Type.Valid() {
		return fmt.Errorf("unknown notification type %q", job.Type)
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal notification job: %w", err)
	}
	return s.rdb.RPush(ctx, config.WorkerKey.NotificationsQueue, payload).Err()
}

// EnqueueMany queues the same job shape for several recipients in one pipeline.
func (s *NotificationService) EnqueueMany(ctx context.Context, userIDs []int, job model.NotificationJob) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	pipe := s.rdb.Pipeline()
	for _, id := range userIDs {
		job.UserID = id
		payload, err := json.Marshal(job)
		if err != nil {
			return 0, fmt.Errorf("marshal notification job: %w", err)
		}
		pipe.RPush(ctx, config.WorkerKey.NotificationsQueue, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(userIDs), nil
}

// Deliver renders a queued job in the recipient's language, stores it and
// pushes it to the recipient's realtime stream.
func (s *NotificationService) Deliver(ctx context.Context, job model.NotificationJob) (*model.Notification, error) {
	lang, err := s.userRepo.GetLanguage(ctx, job.UserID)
	if err != nil {
		return nil, fmt.Errorf("recipient language: %w", err)
	}

	n := RenderNotification(job, i18n.Resolve(lang))
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	// Live push is best effort.
	_ = s.publisher.Publish(ctx, n.UserID, realtime.EventNotification, n)
	return n, nil
}

// RenderNotification builds the stored notification for job in lang.
// Explicit titles and messages win over catalog text.
func RenderNotification(job model.NotificationJob, lang i18n.Lang) *model.Notification {
	params := make(map[string]string, len(job.Params)+len(job.CatalogParams))
	for k, v := range job.Params {
		params[k] = v
	}
	for k, key := range job.CatalogParams {
		params[k] = i18n.T(lang, key, nil)
	}

	title := job.Title
	if title == "" {
		title = i18n.T(lang, "notifications."+string(job.Type)+".title", params)
	}
	message := job.Message
	if message == "" {
		message = i18n.T(lang, "notifications."+string(job.Type)+".message", params)
	}

	data := job.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	return &model.Notification{
		UserID:  job.UserID,
		Type:    job.Type,
		Title:   title,
		Message: message,
		Data:    data,
	}
}

// List returns a user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID int, f model.NotificationFilter) ([]model.Notification, error) {
	if f.Limit <= 0 || f.Limit > maxNotificationPage {
		f.Limit = maxNotificationPage
	}
	return s.repo.ListByUser(ctx, userID, f)
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID int) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead marks one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id int, caller *Claims) (*model.Notification, error) {
	if err := s.checkOwner(ctx, id, caller); err != nil {
		return nil, err
	}
	return s.repo.MarkRead(ctx, id)
}

// MarkAllRead marks every unread notification of userID as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// Delete removes one of the caller's notifications.
func (s *NotificationService) Delete(ctx context.Context, id int, caller *Claims) error {
	if err := s.checkOwner(ctx, id, caller); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *NotificationService) checkOwner(ctx context.Context, id int, caller *Claims) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != caller.UserID && !caller.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
