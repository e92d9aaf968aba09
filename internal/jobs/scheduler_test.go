package jobs

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/brightstarts/studyvibe-backend/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler() *Scheduler {
	return NewScheduler(metrics.NewAppMetrics(prometheus.NewRegistry()), zerolog.New(io.Discard))
}

func noop(context.Context) (int, error) { return 0, nil }

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob("b", "0 */30 * * * *", noop))
	require.NoError(t, s.AddJob("a", "@every 1h", noop))
	require.NoError(t, s.AddJob("disabled", "", noop))

	assert.Equal(t, []string{"a", "b"}, s.JobNames())
	assert.Error(t, s.AddJob("a", "@hourly", noop))
	assert.Error(t, s.AddJob("bad", "not a cron", noop))
}

func TestRunNowRecordsMetrics(t *testing.T) {
	s := newTestScheduler()

	s.RunNow("ok_job", func(context.Context) (int, error) { return 3, nil })
	s.RunNow("bad_job", func(context.Context) (int, error) { return 0, errors.New("boom") })

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.JobRuns.WithLabelValues("ok_job", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.JobRuns.WithLabelValues("bad_job", "error")))
}

func TestRunPassesDeadline(t *testing.T) {
	s := newTestScheduler()

	var hasDeadline bool
	s.RunNow("ctx_job", func(ctx context.Context) (int, error) {
		_, hasDeadline = ctx.Deadline()
		return 0, nil
	})
	assert.True(t, hasDeadline)
}
