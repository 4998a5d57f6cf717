// File: internal/metrics/prometheus.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics contains all Prometheus metrics for the outgoing webhook engine
type PrometheusMetrics struct {
	// Trigger execution metrics
	TriggersExecutedTotal    *prometheus.CounterVec
	TriggerExecutionDuration *prometheus.HistogramVec

	// Webhook call metrics
	WebhookCallsTotal   *prometheus.CounterVec
	WebhookCallDuration *prometheus.HistogramVec
	RetriesScheduled    *prometheus.CounterVec

	// Registry metrics
	IntegrationsRegistered prometheus.Gauge
	IntegrationsDisabled   prometheus.Counter

	// Message dispatch metrics
	MessagesDispatchedTotal *prometheus.CounterVec

	// API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Application health metrics
	ApplicationUptime prometheus.Gauge
	ComponentHealth   *prometheus.GaugeVec
	GoroutineCount    prometheus.Gauge
	MemoryUsage       prometheus.Gauge
}

// NewPrometheusMetrics creates and registers all Prometheus metrics
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		TriggersExecutedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_triggers_executed_total",
				Help: "Total number of trigger executions by event kind and outcome",
			},
			[]string{"event", "outcome"},
		),

		TriggerExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webhook_trigger_execution_duration_seconds",
				Help:    "Time spent executing a single trigger URL attempt",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"event"},
		),

		WebhookCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_http_calls_total",
				Help: "Total number of webhook HTTP calls by status class",
			},
			[]string{"status"},
		),

		WebhookCallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webhook_http_call_duration_seconds",
				Help:    "Duration of webhook HTTP calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),

		RetriesScheduled: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_retries_scheduled_total",
				Help: "Total number of retries scheduled by delay strategy",
			},
			[]string{"strategy"},
		),

		IntegrationsRegistered: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "webhook_integrations_registered",
				Help: "Number of integrations currently registered",
			},
		),

		IntegrationsDisabled: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "webhook_integrations_disabled_total",
				Help: "Total number of integrations disabled after a 410 response",
			},
		),

		MessagesDispatchedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_messages_dispatched_total",
				Help: "Total number of messages dispatched by result",
			},
			[]string{"result"},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webhook_api_request_duration_seconds",
				Help:    "Duration of API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		ApplicationUptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "webhook_application_uptime_seconds",
				Help: "Application uptime in seconds",
			},
		),

		ComponentHealth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "webhook_component_health",
				Help: "Health of application components (1 healthy, 0 unhealthy)",
			},
			[]string{"component"},
		),

		GoroutineCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "webhook_goroutines",
				Help: "Number of running goroutines",
			},
		),

		MemoryUsage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "webhook_memory_usage_bytes",
				Help: "Current memory allocation in bytes",
			},
		),
	}
}

// RecordHTTPRequest records an API request
func (pm *PrometheusMetrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	pm.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	pm.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateApplicationUptime updates the uptime gauge
func (pm *PrometheusMetrics) UpdateApplicationUptime(startTime time.Time) {
	pm.ApplicationUptime.Set(time.Since(startTime).Seconds())
}

// UpdateGoroutineCount updates the goroutine gauge
func (pm *PrometheusMetrics) UpdateGoroutineCount(count int) {
	pm.GoroutineCount.Set(float64(count))
}

// UpdateMemoryUsage updates the memory gauge
func (pm *PrometheusMetrics) UpdateMemoryUsage(alloc uint64) {
	pm.MemoryUsage.Set(float64(alloc))
}
