// Package metrics provides Prometheus metrics for the shelf achievements service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingest
	activitiesReceived  *prometheus.CounterVec
	activitiesDuplicate prometheus.Counter
	activitiesRejected  *prometheus.CounterVec
	activitiesProcessed *prometheus.CounterVec

	// Achievements
	badgesAwarded     *prometheus.CounterVec
	streakTransitions *prometheus.CounterVec
	trackedUsers      prometheus.Gauge

	// Queue
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// Store
	storeLatency   *prometheus.HistogramVec
	storeConflicts prometheus.Counter

	// Notifications
	notificationsSent *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps default Go collectors out of the exported set.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "shelf",
		subsystem:        "achievements",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.activitiesReceived = auto.NewCounterVec(
		m.counterOpts("activities_received_total", "Reading activities accepted for processing"),
		[]string{"kind"},
	)
	m.activitiesDuplicate = auto.NewCounter(
		m.counterOpts("activities_duplicate_total", "Reading activities dropped as duplicates"),
	)
	m.activitiesRejected = auto.NewCounterVec(
		m.counterOpts("activities_rejected_total", "Reading activities rejected before processing"),
		[]string{"reason"},
	)
	m.activitiesProcessed = auto.NewCounterVec(
		m.counterOpts("activities_processed_total", "Reading activities applied to user state"),
		[]string{"kind"},
	)

	m.badgesAwarded = auto.NewCounterVec(
		m.counterOpts("badges_awarded_total", "Badges materialized by metric and tier"),
		[]string{"metric", "tier"},
	)
	m.streakTransitions = auto.NewCounterVec(
		m.counterOpts("streak_transitions_total", "Streak state machine transitions by kind"),
		[]string{"transition"},
	)
	m.trackedUsers = auto.NewGauge(
		m.gaugeOpts("tracked_users", "Users with persisted achievement state"),
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current activity queue backlog"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Configured activity queue capacity"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Activity workers running"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("worker_processing_latency_milliseconds", "Time to apply one activity"),
	)

	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_latency_milliseconds", "Store operation latency"),
		[]string{"driver", "op"},
	)
	m.storeConflicts = auto.NewCounter(
		m.counterOpts("store_conflicts_total", "Transaction conflicts retried by the store"),
	)

	m.notificationsSent = auto.NewCounterVec(
		m.counterOpts("notifications_total", "Badge earned notifications by channel and outcome"),
		[]string{"channel", "outcome"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_total", "Errors by component and type"),
		[]string{"component", "type"},
	)
}

// RecordActivityReceived counts an activity accepted into the queue.
func RecordActivityReceived(kind string) {
	globalManager.activitiesReceived.WithLabelValues(kind).Inc()
}

// RecordActivityDuplicate counts an activity dropped by deduplication.
func RecordActivityDuplicate() {
	globalManager.activitiesDuplicate.Inc()
}

// RecordActivityRejected counts an activity rejected before it was queued.
func RecordActivityRejected(reason string) {
	globalManager.activitiesRejected.WithLabelValues(reason).Inc()
}

// RecordActivityProcessed counts an activity applied by a worker.
func RecordActivityProcessed(kind string) {
	globalManager.activitiesProcessed.WithLabelValues(kind).Inc()
}

// RecordBadgeAwarded counts a badge created for a metric and tier.
func RecordBadgeAwarded(metric, tier string) {
	globalManager.badgesAwarded.WithLabelValues(metric, tier).Inc()
}

// RecordStreakTransition counts a streak state machine transition.
func RecordStreakTransition(transition string) {
	globalManager.streakTransitions.WithLabelValues(transition).Inc()
}

// UpdateTrackedUsers sets the number of users with persisted state.
func UpdateTrackedUsers(count int) {
	globalManager.trackedUsers.Set(float64(count))
}

// UpdateQueueSize sets the current queue backlog.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency observes the time spent applying one activity.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordStoreLatency observes a store operation.
func RecordStoreLatency(driver, op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(driver, op).Observe(latencyMs)
}

// RecordStoreConflict counts a retried transaction conflict.
func RecordStoreConflict() {
	globalManager.storeConflicts.Inc()
}

// RecordNotification counts a notification attempt for a channel.
func RecordNotification(channel, outcome string) {
	globalManager.notificationsSent.WithLabelValues(channel, outcome).Inc()
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error raised by a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the registry that holds the exported collectors.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
