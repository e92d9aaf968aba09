package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/brightstarts/studyvibe-backend/internal/metrics"
	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeliverer struct {
	err  error
	jobs []model.NotificationJob
}

func (f *fakeDeliverer) Deliver(_ context.Context, job model.NotificationJob) (*model.Notification, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.jobs = append(f.jobs, job)
	return &model.Notification{ID: len(f.jobs), UserID: job.UserID, Type: job.Type}, nil
}

func newTestWorker(d Deliverer) *NotificationWorker {
	return NewNotificationWorker(nil, d, metrics.NewAppMetrics(prometheus.NewRegistry()), zerolog.New(io.Discard))
}

func TestHandleDelivers(t *testing.T) {
	d := &fakeDeliverer{}
	w := newTestWorker(d)

	raw, err := json.Marshal(model.NotificationJob{UserID: 7, Type: model.NotificationLike, Params: map[string]string{"actor": "An"}})
	require.NoError(t, err)

	require.NoError(t, w.handle(context.Background(), string(raw)))
	require.Len(t, d.jobs, 1)
	assert.Equal(t, 7, d.jobs[0].UserID)
	assert.Equal(t, "An", d.jobs[0].Params["actor"])
	assert.Equal(t, 1.0, testutil.ToFloat64(w.metrics.NotificationsDelivered))
}

func TestHandleDropsUndecodableEntry(t *testing.T) {
	d := &fakeDeliverer{}
	w := newTestWorker(d)

	assert.NoError(t, w.handle(context.Background(), "{not json"))
	assert.Empty(t, d.jobs)
	assert.Equal(t, 1.0, testutil.ToFloat64(w.metrics.NotificationsFailed))
}

func TestHandleDropsMissingRecipient(t *testing.T) {
	w := newTestWorker(&fakeDeliverer{err: fmt.Errorf("recipient language: %w", repository.ErrNotFound)})

	assert.NoError(t, w.handle(context.Background(), `{"user_id":99,"type":"like"}`))
	assert.Equal(t, 1.0, testutil.ToFloat64(w.metrics.NotificationsFailed))
}

func TestHandleDropsRecipientDeletedBeforeInsert(t *testing.T) {
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "notifications_user_id_fkey"}
	w := newTestWorker(&fakeDeliverer{err: fmt.Errorf("insert notification: %w", fk)})

	assert.NoError(t, w.handle(context.Background(), `{"user_id":99,"type":"like"}`))
	assert.Equal(t, 1.0, testutil.ToFloat64(w.metrics.NotificationsFailed))
	assert.Equal(t, 0.0, testutil.ToFloat64(w.metrics.NotificationsDelivered))
}

func TestHandleReturnsTransientErrors(t *testing.T) {
	boom := errors.New("connection reset")
	w := newTestWorker(&fakeDeliverer{err: boom})

	err := w.handle(context.Background(), `{"user_id":1,"type":"like"}`)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0.0, testutil.ToFloat64(w.metrics.NotificationsDelivered))
}
