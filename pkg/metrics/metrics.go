package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the instrumentation exported by the service. All
// methods are nil-safe so callers never have to branch on whether
// metrics were wired up.
type Metrics struct {
	registry *prometheus.Registry

	httpDuration       *prometheus.HistogramVec
	pricingResolutions *prometheus.CounterVec
	orderTransitions   *prometheus.CounterVec
	auditMismatches    prometheus.Counter
	jobDuration        *prometheus.HistogramVec
	jobFailures        *prometheus.CounterVec
}

// New registers the full metric set on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	pricingResolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_resolutions_total",
		Help: "Price resolutions performed, by cache outcome.",
	}, []string{"source"})
	orderTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions applied, by target status.",
	}, []string{"to"})
	auditMismatches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audit_total_mismatches_total",
		Help: "Orders whose stored total disagreed with the recomputed total.",
	})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of background jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	jobFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failures_total",
		Help: "Failed background job executions.",
	}, []string{"job"})
	registry.MustRegister(
		httpDuration,
		pricingResolutions,
		orderTransitions,
		auditMismatches,
		jobDuration,
		jobFailures,
	)

	return &Metrics{
		registry:           registry,
		httpDuration:       httpDuration,
		pricingResolutions: pricingResolutions,
		orderTransitions:   orderTransitions,
		auditMismatches:    auditMismatches,
		jobDuration:        jobDuration,
		jobFailures:        jobFailures,
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records a completed request against its route pattern.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil || m.httpDuration == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// IncPricingResolution counts a resolution by its source ("cache" or "computed").
func (m *Metrics) IncPricingResolution(source string) {
	if m == nil || m.pricingResolutions == nil {
		return
	}
	m.pricingResolutions.WithLabelValues(source).Inc()
}

// IncOrderTransition counts a successful transition into the given status.
func (m *Metrics) IncOrderTransition(to string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(to).Inc()
}

// AddAuditMismatches records mismatched orders found by a totals audit pass.
func (m *Metrics) AddAuditMismatches(count int) {
	if m == nil || m.auditMismatches == nil || count <= 0 {
		return
	}
	m.auditMismatches.Add(float64(count))
}

// ObserveJob records one execution of a named background job.
func (m *Metrics) ObserveJob(job string, duration time.Duration, err error) {
	if m == nil || m.jobDuration == nil {
		return
	}
	if job == "" {
		job = "unknown"
	}
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
	if err != nil {
		m.jobFailures.WithLabelValues(job).Inc()
	}
}
