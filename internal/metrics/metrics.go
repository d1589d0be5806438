// Package metrics provides Prometheus metrics for bloggen.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bloggen"

// Metrics holds all Prometheus metrics for bloggen.
type Metrics struct {
	// Runner metrics
	RunsTotal         prometheus.Counter
	RunDuration       prometheus.Histogram
	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration prometheus.Histogram

	// Duplicate detection
	ForcedSelectionsTotal   prometheus.Counter
	AdvisoryDuplicatesTotal prometheus.Counter

	// Non-fatal pipeline degradations, by step
	WarningsTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg, or with the default
// registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of runner passes.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Runner pass duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		}),
		ExecutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_total",
			Help:      "Total number of automation executions by outcome.",
		}, []string{"status"}),
		ExecutionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execution_duration_seconds",
			Help:      "Automation execution duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		ForcedSelectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forced_duplicate_selections_total",
			Help:      "Trend selections that had to accept a duplicate.",
		}),
		AdvisoryDuplicatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advisory_duplicate_titles_total",
			Help:      "Generated titles flagged as similar to existing posts.",
		}),
		WarningsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_warnings_total",
			Help:      "Non-fatal pipeline degradations by step.",
		}, []string{"step"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.ExecutionsTotal,
		m.ExecutionDuration,
		m.ForcedSelectionsTotal,
		m.AdvisoryDuplicatesTotal,
		m.WarningsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Handler returns the Prometheus HTTP handler for g, or for the default
// gatherer when g is nil.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordRun records a runner pass.
func (m *Metrics) RecordRun(duration float64) {
	if m == nil {
		return
	}
	m.RunsTotal.Inc()
	m.RunDuration.Observe(duration)
}

// RecordExecution records an execution outcome ("completed" or "failed").
func (m *Metrics) RecordExecution(status string, duration float64) {
	if m == nil {
		return
	}
	m.ExecutionsTotal.WithLabelValues(status).Inc()
	m.ExecutionDuration.Observe(duration)
}

// RecordWarning records a non-fatal degradation of a pipeline step.
func (m *Metrics) RecordWarning(step string) {
	if m == nil {
		return
	}
	m.WarningsTotal.WithLabelValues(step).Inc()
}

// RecordForcedSelection records a trend accepted despite being a duplicate.
func (m *Metrics) RecordForcedSelection() {
	if m == nil {
		return
	}
	m.ForcedSelectionsTotal.Inc()
}

// RecordAdvisoryDuplicate records a generated title similar to history.
func (m *Metrics) RecordAdvisoryDuplicate() {
	if m == nil {
		return
	}
	m.AdvisoryDuplicatesTotal.Inc()
}

// RecordHTTPRequest records an HTTP request metric.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}
