package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/config"
	"github.com/brightstarts/studyvibe-backend/internal/metrics"
	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	popTimeout        = time.Second
	defaultRetryDelay = 5 * time.Second
)

// Deliverer persists and publishes one notification job.
type Deliverer interface {
	Deliver(ctx context.Context, job model.NotificationJob) (*model.Notification, error)
}

// NotificationWorker consumes notifications_queue and delivers each job.
type NotificationWorker struct {
	rdb        *redis.Client
	deliverer  Deliverer
	metrics    *metrics.AppMetrics
	queue      string
	retryDelay time.Duration
	log        zerolog.Logger
}

// NewNotificationWorker creates a new NotificationWorker.
func NewNotificationWorker(rdb *redis.Client, deliverer Deliverer, m *metrics.AppMetrics, log zerolog.Logger) *NotificationWorker {
	return &NotificationWorker{
		rdb:        rdb,
		deliverer:  deliverer,
		metrics:    m,
		queue:      config.WorkerKey.NotificationsQueue,
		retryDelay: defaultRetryDelay,
		log:        log.With().Str("component", "notification_worker").Logger(),
	}
}

// Start begins the worker loop and blocks until ctx is cancelled, then
// drains what is left in the queue. Call in a goroutine.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.log.Info().Str("queue", w.queue).Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *NotificationWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, popTimeout, w.queue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if err := w.handle(ctx, result[1]); err != nil {
		w.log.Error().Err(err).Msg("Deliver error, retrying")
		w.metrics.NotificationsRetried.Inc()
		w.rdb.RPush(context.Background(), w.queue, result[1])

		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
	}
}

// handle delivers one raw queue entry. Entries that can never succeed are
// dropped; other errors are returned for a retry.
func (w *NotificationWorker) handle(ctx context.Context, raw string) error {
	var job model.NotificationJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error, dropping entry")
		w.metrics.NotificationsFailed.Inc()
		return nil
	}

	n, err := w.deliverer.Deliver(ctx, job)
	if errors.Is(err, repository.ErrNotFound) || repository.IsForeignKeyViolation(err) {
		w.log.Warn().Int("user_id", job.UserID).Str("type", string(job.Type)).Msg("Recipient gone, dropping entry")
		w.metrics.NotificationsFailed.Inc()
		return nil
	}
	if err != nil {
		return err
	}

	w.metrics.NotificationsDelivered.Inc()
	w.log.Debug().Int("notification_id", n.ID).Int("user_id", n.UserID).Str("type", string(n.Type)).Msg("Notification delivered")
	return nil
}

// drain delivers all remaining entries before shutdown.
func (w *NotificationWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, w.queue).Result()
		if err != nil {
			break
		}
		if err := w.handle(ctx, raw); err != nil {
			w.log.Error().Err(err).Msg("Drain deliver error")
			w.rdb.RPush(ctx, w.queue, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
