// File: internal/metrics/manager.go
package metrics

import (
	"runtime"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Manager handles all application metrics. A nil manager is valid and
// records nothing, so components can run without metrics wired.
type Manager struct {
	prometheus *PrometheusMetrics
	logger     *logrus.Entry
	startTime  time.Time
}

// NewManager creates a new metrics manager
func NewManager() *Manager {
	return &Manager{
		prometheus: NewPrometheusMetrics(),
		logger:     logrus.WithField("component", "metrics"),
		startTime:  time.Now(),
	}
}

// GetPrometheusMetrics returns the Prometheus metrics instance
func (m *Manager) GetPrometheusMetrics() *PrometheusMetrics {
	if m == nil {
		return nil
	}
	return m.prometheus
}

// UpdateSystemMetrics updates system-level metrics like memory and goroutines
func (m *Manager) UpdateSystemMetrics() {
	if m == nil {
		return
	}
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	m.prometheus.UpdateMemoryUsage(memStats.Alloc)
	m.prometheus.UpdateGoroutineCount(runtime.NumGoroutine())
	m.prometheus.UpdateApplicationUptime(m.startTime)
}

// RecordTriggerExecution records one trigger URL attempt by outcome
func (m *Manager) RecordTriggerExecution(event, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.prometheus.TriggersExecutedTotal.WithLabelValues(event, outcome).Inc()
	m.prometheus.TriggerExecutionDuration.WithLabelValues(event).Observe(duration.Seconds())
}

// RecordWebhookCall records one webhook HTTP call
func (m *Manager) RecordWebhookCall(statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	status := strconv.Itoa(statusCode)
	m.prometheus.WebhookCallsTotal.WithLabelValues(status).Inc()
	m.prometheus.WebhookCallDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordRetryScheduled records one scheduled retry
func (m *Manager) RecordRetryScheduled(strategy string) {
	if m == nil {
		return
	}
	m.prometheus.RetriesScheduled.WithLabelValues(strategy).Inc()
}

// RecordHTTPRequest records one admin API request
func (m *Manager) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.prometheus.RecordHTTPRequest(method, path, strconv.Itoa(statusCode), duration)
}

// RecordMessageDispatched records one message dispatch attempt
func (m *Manager) RecordMessageDispatched(result string) {
	if m == nil {
		return
	}
	m.prometheus.MessagesDispatchedTotal.WithLabelValues(result).Inc()
}

// SetIntegrationsRegistered updates the registered-integration gauge
func (m *Manager) SetIntegrationsRegistered(count int) {
	if m == nil {
		return
	}
	m.prometheus.IntegrationsRegistered.Set(float64(count))
}

// RecordIntegrationDisabled counts one 410-driven disable
func (m *Manager) RecordIntegrationDisabled() {
	if m == nil {
		return
	}
	m.prometheus.IntegrationsDisabled.Inc()
}

// SetComponentHealth updates the health gauge for a component
func (m *Manager) SetComponentHealth(component string, healthy bool) {
	if m == nil {
		return
	}
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.prometheus.ComponentHealth.WithLabelValues(component).Set(value)
}
