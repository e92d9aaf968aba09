package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/config"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 100
	BatchTimeout = 5 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ActivityStore persists last-activity timestamps.
type ActivityStore interface {
	BulkTouchLastActive(ctx context.Context, ids []int, at []time.Time) error
}

// ActivityEvent is one queued "user was active" record.
type ActivityEvent struct {
	UserID int   `json:"user_id"`
	At     int64 `json:"at"`
}

// ActivityWorker batches user activity from Redis into last_active_at
// updates.
type ActivityWorker struct {
	rdb   *redis.Client
	store ActivityStore
	clock clockwork.Clock
	queue string
	log   zerolog.Logger
}

// NewActivityWorker creates a new ActivityWorker.
func NewActivityWorker(rdb *redis.Client, store ActivityStore, clock clockwork.Clock, log zerolog.Logger) *ActivityWorker {
	return &ActivityWorker{
		rdb:   rdb,
		store: store,
		clock: clock,
		queue: config.WorkerKey.UserActivityQueue,
		log:   log.With().Str("component", "activity_worker").Logger(),
	}
}

// Start consumes the activity queue until ctx is cancelled, then flushes
// the pending batch. Call in a goroutine.
func (w *ActivityWorker) Start(ctx context.Context) {
	w.log.Info().Str("queue", w.queue).Msg("Worker started")

	buffer := make([]ActivityEvent, 0, BatchSize)
	lastFlush := w.clock.Now()

	for {
		if len(buffer) > 0 && (len(buffer) >= BatchSize || w.clock.Since(lastFlush) >= BatchTimeout) {
			w.flush(ctx, buffer)
			buffer = buffer[:0]
			lastFlush = w.clock.Now()
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, PollTimeout, w.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			select {
			case <-ctx.Done():
			case <-w.clock.After(3 * time.Second):
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var ev ActivityEvent
		if err := json.Unmarshal([]byte(result[1]), &ev); err != nil || ev.UserID <= 0 {
			w.log.Error().Str("data", result[1]).Msg("Discarding malformed activity entry")
			continue
		}
		buffer = append(buffer, ev)
	}
}

// flush writes the batch, collapsing repeats to each user's latest time.
// A failed write pushes the collapsed batch back to the queue.
func (w *ActivityWorker) flush(ctx context.Context, batch []ActivityEvent) {
	ids, at := collapse(batch)
	if err := w.store.BulkTouchLastActive(ctx, ids, at); err != nil {
		w.log.Warn().Err(err).Int("count", len(ids)).Msg("Bulk update failed, requeueing")
		w.requeue(ids, at)
		return
	}
	w.log.Debug().Int("users", len(ids)).Int("events", len(batch)).Msg("Activity flushed")
}

func (w *ActivityWorker) requeue(ids []int, at []time.Time) {
	ctx := context.Background()
	pipe := w.rdb.Pipeline()
	for i, id := range ids {
		data, _ := json.Marshal(ActivityEvent{UserID: id, At: at[i].Unix()})
		pipe.RPush(ctx, w.queue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(ids)).Msg("Failed to requeue activity, entries lost")
	}
}

func (w *ActivityWorker) shutdown(buffer []ActivityEvent) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flush(shutdownCtx, buffer)
	}
	w.log.Info().Msg("Worker stopped")
}

// collapse keeps the latest timestamp per user, preserving first-seen order.
func collapse(batch []ActivityEvent) ([]int, []time.Time) {
	index := make(map[int]int, len(batch))
	ids := make([]int, 0, len(batch))
	at := make([]time.Time, 0, len(batch))
	for _, ev := range batch {
		t := time.Unix(ev.At, 0).UTC()
		if i, ok := index[ev.UserID]; ok {
			if t.After(at[i]) {
				at[i] = t
			}
			continue
		}
		index[ev.UserID] = len(ids)
		ids = append(ids, ev.UserID)
		at = append(at, t)
	}
	return ids, at
}
