package metrics

import "github.com/prometheus/client_golang/prometheus"

// AppMetrics tracks background work and realtime connections.
type AppMetrics struct {
	NotificationsDelivered prometheus.Counter
	NotificationsFailed    prometheus.Counter
	NotificationsRetried   prometheus.Counter
	WSConnections          prometheus.Gauge
	JobRuns                *prometheus.CounterVec
	JobDuration            *prometheus.HistogramVec
}

// NewAppMetrics creates and registers application metrics on reg.
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		NotificationsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "delivered_total",
			Help:      "Notifications stored and published by the worker.",
		}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "dropped_total",
			Help:      "Queue entries dropped because they could not be decoded.",
		}),
		NotificationsRetried: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "retried_total",
			Help:      "Deliveries pushed back to the queue after an error.",
		}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Open realtime WebSocket connections.",
		}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Scheduled job runs by job and result.",
		}, []string{"job", "result"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Duration of scheduled job runs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
	}

	reg.MustRegister(m.NotificationsDelivered, m.NotificationsFailed, m.NotificationsRetried,
		m.WSConnections, m.JobRuns, m.JobDuration)
	return m
}
