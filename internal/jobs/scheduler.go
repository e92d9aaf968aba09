// Package jobs runs scheduled background work (post suggestions and
// deadline reminders) on robfig/cron.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/metrics"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const jobTimeout = 10 * time.Minute

// Func is one run of a scheduled job. It returns how many items it handled.
type Func func(ctx context.Context) (int, error)

// Scheduler manages background jobs using cron scheduling.
type Scheduler struct {
	cron    *cron.Cron
	metrics *metrics.AppMetrics
	log     zerolog.Logger
	mu      sync.Mutex
	jobs    map[string]cron.EntryID
}

// NewScheduler creates a scheduler whose expressions carry a seconds field.
// Overlapping runs of the same job are skipped and panics are recovered.
func NewScheduler(m *metrics.AppMetrics, log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(
			cron.SkipIfStillRunning(cl),
			cron.Recover(cl),
		)),
		metrics: m,
		log:     log,
		jobs:    make(map[string]cron.EntryID),
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.log.Info().Strs("jobs", s.JobNames()).Msg("Starting job scheduler")
	s.cron.Start()
}

// Stop stops scheduling new runs. The returned context is done once
// running jobs have completed.
func (s *Scheduler) Stop() context.Context {
	s.log.Info().Msg("Stopping job scheduler")
	return s.cron.Stop()
}

// AddJob registers job under name with a cron expression such as
// "0 */30 * * * *" or "@every 1h". An empty expression leaves the job
// disabled.
func (s *Scheduler) AddJob(name, expr string, job Func) error {
	if expr == "" {
		s.log.Info().Str("job", name).Msg("Job disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	id, err := s.cron.AddFunc(expr, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}
	s.jobs[name] = id
	s.log.Info().Str("job", name).Str("cron_expr", expr).Msg("Job scheduled")
	return nil
}

// RunNow executes a registered job synchronously, outside the schedule.
func (s *Scheduler) RunNow(name string, job Func) {
	s.run(name, job)
}

func (s *Scheduler) run(name string, job Func) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	timer := time.Now()
	n, err := job(ctx)
	elapsed := time.Since(timer)
	s.metrics.JobDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	if err != nil {
		s.metrics.JobRuns.WithLabelValues(name, "error").Inc()
		s.log.Error().Err(err).Str("job", name).Int("handled", n).Dur("duration", elapsed).Msg("Job failed")
		return
	}
	s.metrics.JobRuns.WithLabelValues(name, "ok").Inc()
	s.log.Info().Str("job", name).Int("handled", n).Dur("duration", elapsed).Msg("Job completed")
}

// JobNames returns the registered job names, sorted.
func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
