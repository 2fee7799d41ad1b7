package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ConnectionsCreated    prometheus.Counter
	ConnectionTransitions *prometheus.CounterVec
	VisibilityDecisions   *prometheus.CounterVec
	ProfileEditDecisions  *prometheus.CounterVec
	NotificationsEmitted  *prometheus.CounterVec
	NotificationsDropped  prometheus.Counter
	HTTPDuration          *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return newWith(prometheus.DefaultRegisterer)
}

// NewForTest registers metrics against a private registry so parallel test
// suites don't collide on the default registerer.
func NewForTest() *Metrics {
	return newWith(prometheus.NewRegistry())
}

func newWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "kesher_connections_created_total",
			Help: "Total number of connection requests created.",
		}),
		ConnectionTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kesher_connection_transitions_total",
			Help: "Connection status transitions by resulting status.",
		}, []string{"status"}),
		VisibilityDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kesher_visibility_decisions_total",
			Help: "Photo visibility decisions by resulting state.",
		}, []string{"state"}),
		ProfileEditDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kesher_profile_edit_decisions_total",
			Help: "Profile edit moderation outcomes (approved, rejected).",
		}, []string{"decision"}),
		NotificationsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kesher_notifications_emitted_total",
			Help: "Notification events emitted by kind.",
		}, []string{"kind"}),
		NotificationsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "kesher_notifications_dropped_total",
			Help: "Notification events dropped because the publisher buffer was full.",
		}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kesher_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
}
