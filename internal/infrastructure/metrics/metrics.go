package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Media-janitor metrics
var (
	// Task run counters
	TaskRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "media_janitor",
			Name:      "task_runs_total",
			Help:      "Total scheduled task runs",
		},
		[]string{"task_type", "trigger", "status"},
	)

	// Task run duration
	TaskRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "media_janitor",
			Name:      "task_run_duration_seconds",
			Help:      "Scheduled task run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 30, 60, 300, 1800},
		},
		[]string{"task_type"},
	)

	// Ticks that failed or were skipped because the previous tick was still running
	SchedulerTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "media_janitor",
			Name:      "scheduler_ticks_total",
			Help:      "Scheduler ticks by outcome",
		},
		[]string{"outcome"},
	)

	// Records force-failed by the watchdog
	StuckTasksRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "media_janitor",
			Name:      "stuck_tasks_recovered_total",
			Help:      "Task records moved from running to failed by the watchdog",
		},
	)

	// GC object outcomes
	GCObjectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "media_janitor",
			Name:      "gc_objects_total",
			Help:      "Media objects processed by the orphan collector",
		},
		[]string{"outcome"},
	)

	// Bytes reclaimed by GC
	GCReclaimedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "media_janitor",
			Name:      "gc_reclaimed_bytes_total",
			Help:      "Bytes reclaimed by deleting orphaned media objects",
		},
	)

	// Cascade deletions
	CascadeDeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "media_janitor",
			Name:      "cascade_deletes_total",
			Help:      "Entities and media removed by cascade deletes",
		},
		[]string{"kind", "status"},
	)

	// Blob store operations
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "media_janitor",
			Name:      "storage_operations_total",
			Help:      "Total blob storage operations",
		},
		[]string{"backend", "operation", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "media_janitor",
			Name:      "http_requests_total",
			Help:      "Admin HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "media_janitor",
			Name:      "http_request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	StorageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "media_janitor",
			Name:      "storage_duration_seconds",
			Help:      "Blob storage operation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"backend", "operation"},
	)
)

// RecordTaskRun records one finished task run
func RecordTaskRun(taskType, trigger string, success bool, durationSec float64) {
	TaskRunsTotal.WithLabelValues(taskType, trigger, statusLabel(success)).Inc()
	TaskRunDuration.WithLabelValues(taskType).Observe(durationSec)
}

// RecordTick records a scheduler tick outcome: "ok", "skipped" or "error"
func RecordTick(outcome string) {
	SchedulerTicksTotal.WithLabelValues(outcome).Inc()
}

// RecordGCObject records one collector decision: "deleted", "skipped", "kept" or "error"
func RecordGCObject(outcome string, bytes int64) {
	GCObjectsTotal.WithLabelValues(outcome).Inc()
	if outcome == "deleted" && bytes > 0 {
		GCReclaimedBytesTotal.Add(float64(bytes))
	}
}

// RecordCascade records entities removed by a cascade delete
func RecordCascade(kind string, success bool, count int) {
	if count <= 0 {
		return
	}
	CascadeDeletesTotal.WithLabelValues(kind, statusLabel(success)).Add(float64(count))
}

// RecordStorageOperation records a blob storage operation
func RecordStorageOperation(backend, operation string, err error, durationSec float64) {
	StorageOperationsTotal.WithLabelValues(backend, operation, statusLabel(err == nil)).Inc()
	StorageDuration.WithLabelValues(backend, operation).Observe(durationSec)
}

// RecordRequest records one admin HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
