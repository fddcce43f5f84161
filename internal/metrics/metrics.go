package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records lookup, submission and validation activity of the form
// controller. It satisfies form.Recorder.
type Metrics struct {
	Lookups            *prometheus.CounterVec
	Submissions        *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := NewWithRegisterer(reg)
	m.gatherer = reg
	return m
}

// NewWithRegisterer registers the collectors on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regform_lookups_total",
			Help: "Zipcode lookups by outcome (ok, failed, stale)",
		}, []string{"outcome"}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regform_submissions_total",
			Help: "Registration submissions by outcome (ok, invalid, rejected, failed)",
		}, []string{"outcome"}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regform_validation_failures_total",
			Help: "Local validation failures by field",
		}, []string{"field"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "regform_request_duration_seconds",
			Help:    "Latency of remote calls issued by the form",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (m *Metrics) LookupCompleted(outcome string, took time.Duration) {
	m.Lookups.WithLabelValues(outcome).Inc()
	if took > 0 {
		m.RequestDuration.WithLabelValues("lookup").Observe(took.Seconds())
	}
}

func (m *Metrics) SubmissionCompleted(outcome string, took time.Duration) {
	m.Submissions.WithLabelValues(outcome).Inc()
	if took > 0 {
		m.RequestDuration.WithLabelValues("submit").Observe(took.Seconds())
	}
}

func (m *Metrics) ValidationFailed(field string) {
	m.ValidationFailures.WithLabelValues(field).Inc()
}

// Handler exposes the registry in the Prometheus text format. It falls back to
// the default gatherer when the metrics were registered elsewhere.
func (m *Metrics) Handler() http.Handler {
	if m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
