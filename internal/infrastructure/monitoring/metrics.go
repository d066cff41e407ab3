package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway.
//
// Each Metrics instance owns its own registry so tests can construct
// collectors freely without duplicate registration panics.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session issuance metrics
	SessionsIssued  *prometheus.CounterVec
	SessionsCleared prometheus.Counter
	CookiesIssued   prometheus.Counter

	// Upstream metrics
	UpstreamAttempts prometheus.Counter
	UpstreamRetries  prometheus.Counter
	UpstreamDuration prometheus.Histogram

	// Resilience metrics
	BreakerTransitions *prometheus.CounterVec

	startTime time.Time
}

// NewMetrics creates a new metrics collector with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry:  registry,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		SessionsIssued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_sessions_issued_total",
				Help: "Total number of session issuance attempts by outcome",
			},
			[]string{"outcome"},
		),
		SessionsCleared: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_sessions_cleared_total",
				Help: "Total number of session clear requests",
			},
		),
		CookiesIssued: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_identity_cookies_issued_total",
				Help: "Total number of identity cookies minted",
			},
		),

		UpstreamAttempts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_upstream_attempts_total",
				Help: "Total number of upstream request attempts including retries",
			},
		),
		UpstreamRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_upstream_retries_total",
				Help: "Total number of upstream retry attempts",
			},
		),
		UpstreamDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gateway_upstream_duration_seconds",
				Help:    "Upstream call duration in seconds including retries",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),

		BreakerTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_breaker_transitions_total",
				Help: "Total number of circuit breaker state transitions",
			},
			[]string{"from", "to"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "gateway_uptime_seconds",
			Help: "Gateway uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordIssuance records the outcome of a session issuance attempt.
func (m *Metrics) RecordIssuance(outcome string) {
	m.SessionsIssued.WithLabelValues(outcome).Inc()
}

// RecordSessionCleared increments the sessions cleared counter.
func (m *Metrics) RecordSessionCleared() {
	m.SessionsCleared.Inc()
}

// RecordCookieIssued increments the identity cookies issued counter.
func (m *Metrics) RecordCookieIssued() {
	m.CookiesIssued.Inc()
}

// RecordUpstreamAttempt records one upstream attempt. Attempt numbers are
// zero-based; any attempt after the first counts as a retry.
func (m *Metrics) RecordUpstreamAttempt(attempt int) {
	m.UpstreamAttempts.Inc()
	if attempt > 0 {
		m.UpstreamRetries.Inc()
	}
}

// ObserveUpstreamDuration records the total duration of an upstream call.
func (m *Metrics) ObserveUpstreamDuration(duration time.Duration) {
	m.UpstreamDuration.Observe(duration.Seconds())
}

// RecordBreakerTransition records a circuit breaker state change.
func (m *Metrics) RecordBreakerTransition(from, to string) {
	m.BreakerTransitions.WithLabelValues(from, to).Inc()
}
