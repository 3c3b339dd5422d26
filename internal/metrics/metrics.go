package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sentinel"

// Notification outcomes
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Metrics holds the prometheus collectors exported by the service
type Metrics struct {
	registry *prometheus.Registry

	Ticks         prometheus.Counter
	TickErrors    prometheus.Counter
	TickDuration  prometheus.Histogram
	AlertsCreated *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	Viewers       prometheus.Gauge
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Ticks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_total",
			Help:      "Poll ticks executed.",
		}),
		TickErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_tick_errors_total",
			Help:      "Poll ticks that ended early on an error.",
		}),
		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_tick_duration_seconds",
			Help:      "Wall time of a poll tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		AlertsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_created_total",
			Help:      "Alerts persisted, by origin.",
		}, []string{"origin"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries, by sink and outcome.",
		}, []string{"sink", "outcome"}),
		Viewers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_viewers",
			Help:      "Connected live viewers.",
		}),
	}
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
