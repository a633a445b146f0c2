package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements ports.MetricsCollector using Prometheus.
type Collector struct {
	graphsSubmitted     *prometheus.CounterVec
	executionsStarted   prometheus.Counter
	executionsCompleted *prometheus.CounterVec
	tasksExecuted       *prometheus.CounterVec
	executionDuration   prometheus.Histogram
	taskDuration        prometheus.Histogram
	activeExecutions    prometheus.Gauge
	queueDepth          prometheus.Gauge
	workerPoolIdle      prometheus.Gauge
	workerPoolBusy      prometheus.Gauge
	workerPoolStopped   prometheus.Gauge
}

// NewCollector creates a Prometheus metrics collector and registers its
// metrics with the default registry.
func NewCollector() *Collector {
	return &Collector{
		graphsSubmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dagforge_graphs_submitted_total",
				Help: "Total number of graph definitions submitted",
			},
			[]string{"status"},
		),
		executionsStarted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "dagforge_executions_started_total",
				Help: "Total number of executions started",
			},
		),
		executionsCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dagforge_executions_completed_total",
				Help: "Total number of executions finished, by terminal status",
			},
			[]string{"status"},
		),
		tasksExecuted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dagforge_tasks_executed_total",
				Help: "Total number of tasks executed",
			},
			[]string{"status"},
		),
		executionDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dagforge_execution_duration_seconds",
				Help:    "Graph execution duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		taskDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dagforge_task_duration_seconds",
				Help:    "Task execution duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
		),
		activeExecutions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "dagforge_active_executions",
				Help: "Number of currently active executions",
			},
		),
		queueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "dagforge_queue_depth",
				Help: "Current depth of the execution job queue",
			},
		),
		workerPoolIdle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "dagforge_worker_pool_idle",
				Help: "Number of idle workers",
			},
		),
		workerPoolBusy: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "dagforge_worker_pool_busy",
				Help: "Number of busy workers",
			},
		),
		workerPoolStopped: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "dagforge_worker_pool_stopped",
				Help: "Number of stopped workers",
			},
		),
	}
}

// RecordGraphSubmitted records a graph submission outcome.
func (c *Collector) RecordGraphSubmitted(status string) {
	c.graphsSubmitted.WithLabelValues(status).Inc()
}

// RecordExecutionStarted records the start of an execution.
func (c *Collector) RecordExecutionStarted() {
	c.executionsStarted.Inc()
}

// RecordExecutionCompleted records an execution reaching a terminal
// status.
func (c *Collector) RecordExecutionCompleted(status string, duration time.Duration) {
	c.executionsCompleted.WithLabelValues(status).Inc()
	c.executionDuration.Observe(duration.Seconds())
}

// RecordTaskExecuted records a task execution.
func (c *Collector) RecordTaskExecuted(status string, duration time.Duration) {
	c.tasksExecuted.WithLabelValues(status).Inc()
	c.taskDuration.Observe(duration.Seconds())
}

// SetActiveExecutions sets the number of currently active executions.
func (c *Collector) SetActiveExecutions(count int) {
	c.activeExecutions.Set(float64(count))
}

// SetQueueDepth sets the current depth of the execution job queue.
func (c *Collector) SetQueueDepth(depth int) {
	c.queueDepth.Set(float64(depth))
}

// RecordWorkerPoolStatus records worker pool occupancy.
func (c *Collector) RecordWorkerPoolStatus(idle, busy, stopped int) {
	c.workerPoolIdle.Set(float64(idle))
	c.workerPoolBusy.Set(float64(busy))
	c.workerPoolStopped.Set(float64(stopped))
}
