package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the console's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	APIRequests   *prometheus.CounterVec
	APIDuration   *prometheus.HistogramVec
	PollTicks     *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	PollSessions  prometheus.Gauge
	SinkErrors    *prometheus.CounterVec
}

// New registers the collectors on reg. Tests pass prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		APIRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restaurant_console",
			Name:      "api_requests_total",
			Help:      "Remote API requests by method and HTTP status (0 = transport failure).",
		}, []string{"method", "status"}),

		APIDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "restaurant_console",
			Name:      "api_request_duration_seconds",
			Help:      "Remote API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		PollTicks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restaurant_console",
			Name:      "poll_ticks_total",
			Help:      "Polling ticks by entity kind and outcome.",
		}, []string{"kind", "result"}),

		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restaurant_console",
			Name:      "notifications_total",
			Help:      "Change notifications emitted by kind and action.",
		}, []string{"kind", "action"}),

		PollSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "restaurant_console",
			Name:      "poll_sessions",
			Help:      "Live polling sessions.",
		}),

		SinkErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restaurant_console",
			Name:      "sink_errors_total",
			Help:      "Notification delivery failures by sink.",
		}, []string{"sink"}),
	}
}

func (m *Metrics) ObserveAPI(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.APIDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) IncPollTick(kind, result string) {
	if m == nil {
		return
	}
	m.PollTicks.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) IncNotification(kind, action string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind, action).Inc()
}

func (m *Metrics) AddPollSessions(delta float64) {
	if m == nil {
		return
	}
	m.PollSessions.Add(delta)
}

func (m *Metrics) IncSinkError(sink string) {
	if m == nil {
		return
	}
	m.SinkErrors.WithLabelValues(sink).Inc()
}
