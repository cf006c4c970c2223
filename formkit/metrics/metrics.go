// Package metrics exports form engine, session and job activity to
// Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/G-Node/formkit/formkit/form"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "formkit").
	Namespace string

	// Buckets are the histogram buckets for job duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry the collectors are registered with.
	// Default: a new registry owned by the Metrics.
	Registry *prometheus.Registry
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithBuckets sets the job duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Metrics implements form.Observer and worker.Monitor.
type Metrics struct {
	registry *prometheus.Registry

	reevaluations   *prometheus.CounterVec
	reevalDuration  *prometheus.HistogramVec
	predicateFaults *prometheus.CounterVec
	rejections      prometheus.Counter
	rejectedFields  *prometheus.CounterVec
	jobsQueued      prometheus.Counter
	jobsFinished    *prometheus.CounterVec
	jobDuration     prometheus.Histogram
	sessions        prometheus.Gauge
	liveMessages    *prometheus.CounterVec
}

// New creates and registers the collectors.
func New(opts ...Option) *Metrics {
	config := Config{
		Namespace: "formkit",
		Buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		registry: config.Registry,

		reevaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "engine",
			Name:      "reevaluations_total",
			Help:      "Total number of condition re-evaluation passes",
		}, []string{"facet"}),

		reevalDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: "engine",
			Name:      "reevaluation_duration_seconds",
			Help:      "Duration of a condition re-evaluation pass in seconds",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"facet"}),

		predicateFaults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "engine",
			Name:      "predicate_faults_total",
			Help:      "Total number of condition predicates that failed",
		}, []string{"facet", "field"}),

		rejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "engine",
			Name:      "rejections_total",
			Help:      "Total number of rejected value submissions",
		}),

		rejectedFields: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "engine",
			Name:      "rejected_fields_total",
			Help:      "Total number of fields flagged in rejected submissions",
		}, []string{"reason"}),

		jobsQueued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "jobs",
			Name:      "queued_total",
			Help:      "Total number of launched jobs",
		}),

		jobsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "jobs",
			Name:      "finished_total",
			Help:      "Total number of finished jobs",
		}, []string{"status"}),

		jobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Job duration in seconds",
			Buckets:   config.Buckets,
		}),

		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "sessions_active",
			Help:      "Number of browser sessions holding live forms",
		}),

		liveMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "live",
			Name:      "messages_total",
			Help:      "Total number of value change and click messages",
		}, []string{"type", "status"}),
	}
}

// Reevaluated records a re-evaluation pass of a facet.
func (m *Metrics) Reevaluated(facet form.Facet, elapsed time.Duration) {
	m.reevaluations.WithLabelValues(string(facet)).Inc()
	m.reevalDuration.WithLabelValues(string(facet)).Observe(elapsed.Seconds())
}

// PredicateFault records a failed predicate.
func (m *Metrics) PredicateFault(facet form.Facet, field string) {
	m.predicateFaults.WithLabelValues(string(facet), field).Inc()
}

// Rejected records a rejected submission.
func (m *Metrics) Rejected(missing, invalid int) {
	m.rejections.Inc()
	m.rejectedFields.WithLabelValues("missing").Add(float64(missing))
	m.rejectedFields.WithLabelValues("invalid").Add(float64(invalid))
}

// Queued records a launched job.
func (m *Metrics) Queued() {
	m.jobsQueued.Inc()
}

// Finished records the outcome of a job.
func (m *Metrics) Finished(elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.jobsFinished.WithLabelValues(status).Inc()
	m.jobDuration.Observe(elapsed.Seconds())
}

// SessionOpened records a new browser session.
func (m *Metrics) SessionOpened() {
	m.sessions.Inc()
}

// SessionClosed records an expired browser session.
func (m *Metrics) SessionClosed() {
	m.sessions.Dec()
}

// LiveMessage records a message handled on the live channel.
func (m *Metrics) LiveMessage(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.liveMessages.WithLabelValues(kind, status).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var (
	_ form.Observer = (*Metrics)(nil)
)
