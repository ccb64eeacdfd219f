package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	IngestionRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestion_runs_total",
			Help: "Total number of ingestion runs (count)",
		},
		[]string{"source_type", "status"},
	)

	IngestionRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestion_records_total",
			Help: "Total number of records processed by outcome (count)",
		},
		[]string{"source_type", "outcome"}, // outcome: inserted, updated, skipped, failed
	)

	IngestionRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingestion_run_duration_ms",
			Help:    "Wall-clock duration of a completed ingestion run in milliseconds",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 30000, 60000},
		},
		[]string{"source_type"},
	)

	AlertFanoutTriggeredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_fanout_triggered_total",
			Help: "Total number of alert_logs rows appended by fan-out (count)",
		},
		[]string{"action_type"},
	)

	AlertRuleQuotaRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_rule_quota_rejections_total",
			Help: "Total number of alert rule creations rejected for exceeding plan quota (count)",
		},
		[]string{"plan"},
	)

	AlertRuleCacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "alert_rule_cache_entries",
			Help: "Number of users currently represented in the alert rule cache (count)",
		},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	StorageQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_queries_total",
			Help: "Total number of storage gateway queries (count)",
		},
		[]string{"operation", "status"},
	)

	StorageQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_query_duration_ms",
			Help:    "Duration of storage gateway queries in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"operation"},
	)

	StorageSlowQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_slow_queries_total",
			Help: "Total number of queries exceeding the slow-query threshold (count)",
		},
		[]string{"operation"},
	)

	StoragePoolTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "storage_pool_connections_total",
			Help: "Total connections in the storage gateway's pool (count)",
		},
	)

	StoragePoolIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "storage_pool_connections_idle",
			Help: "Idle connections in the storage gateway's pool (count)",
		},
	)

	StoragePoolWaiting = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "storage_pool_connections_waiting",
			Help: "Cumulative number of connections waited for on the pool (count)",
		},
	)

	StorageReconnectAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storage_reconnect_attempts_total",
			Help: "Total number of reconnect attempts made by the background reconnect loop (count)",
		},
	)
)

func RegisterIngestionMetrics() {
	prometheus.MustRegister(IngestionRunsTotal)
	prometheus.MustRegister(IngestionRecordsTotal)
	prometheus.MustRegister(IngestionRunDuration)
}

func RegisterAlertMetrics() {
	prometheus.MustRegister(AlertFanoutTriggeredTotal)
	prometheus.MustRegister(AlertRuleQuotaRejectionsTotal)
	prometheus.MustRegister(AlertRuleCacheSize)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func RegisterHTTPMetrics() {
	prometheus.MustRegister(RateLimitRequestsTotal)
}

func RegisterStorageMetrics() {
	prometheus.MustRegister(StorageQueriesTotal)
	prometheus.MustRegister(StorageQueryDuration)
	prometheus.MustRegister(StorageSlowQueriesTotal)
	prometheus.MustRegister(StoragePoolTotal)
	prometheus.MustRegister(StoragePoolIdle)
	prometheus.MustRegister(StoragePoolWaiting)
	prometheus.MustRegister(StorageReconnectAttempts)
}

func ObserveStorageQuery(operation, status string, duration time.Duration) {
	StorageQueriesTotal.WithLabelValues(operation, status).Inc()
	StorageQueryDuration.WithLabelValues(operation).Observe(float64(duration.Milliseconds()))
}

func IncStorageSlowQuery(operation string) {
	StorageSlowQueriesTotal.WithLabelValues(operation).Inc()
}

func SetStoragePoolStats(total, idle, waiting int) {
	StoragePoolTotal.Set(float64(total))
	StoragePoolIdle.Set(float64(idle))
	StoragePoolWaiting.Set(float64(waiting))
}

func IncIngestionRun(sourceType, status string) {
	IngestionRunsTotal.WithLabelValues(sourceType, status).Inc()
}

func AddIngestionRecords(sourceType, outcome string, n int) {
	if n <= 0 {
		return
	}
	IngestionRecordsTotal.WithLabelValues(sourceType, outcome).Add(float64(n))
}

func ObserveIngestionRunDuration(sourceType string, duration time.Duration) {
	IngestionRunDuration.WithLabelValues(sourceType).Observe(float64(duration.Milliseconds()))
}

func IncAlertFanoutTriggered(actionType string, n int) {
	if n <= 0 {
		return
	}
	AlertFanoutTriggeredTotal.WithLabelValues(actionType).Add(float64(n))
}

func IncAlertRuleQuotaRejection(plan string) {
	AlertRuleQuotaRejectionsTotal.WithLabelValues(plan).Inc()
}

func SetAlertRuleCacheSize(n int) {
	AlertRuleCacheSize.Set(float64(n))
}
