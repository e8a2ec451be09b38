// Package metrics provides Prometheus instrumentation for stealpool components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for stealpool components.
type Registry struct {
	// Pool metrics
	TasksSubmitted   *prometheus.CounterVec
	TasksExecuted    *prometheus.CounterVec
	TasksCompleted   *prometheus.CounterVec
	TasksFailed      *prometheus.CounterVec
	TasksStolen      *prometheus.CounterVec
	TasksAbandoned   *prometheus.CounterVec
	TaskDuration     *prometheus.HistogramVec
	PoolSize         *prometheus.GaugeVec
	PoolActive       *prometheus.GaugeVec
	SharedQueueDepth *prometheus.GaugeVec

	// Scheduler metrics
	SchedulerRuns         *prometheus.CounterVec
	SchedulerSubmitErrors *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by stealpool components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithConfig(Config{Registry: reg})
}

// NewRegistryWithConfig creates a registry honouring the namespace and
// constant labels of cfg. A nil cfg.Registry means prometheus.DefaultRegisterer.
func NewRegistryWithConfig(cfg Config) *Registry {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	factory := promauto.With(reg)

	counter := func(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.Labels,
		}, labels)
	}
	gauge := func(subsystem, name, help string, labels ...string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.Labels,
		}, labels)
	}

	return &Registry{
		TasksSubmitted: counter("pool", "tasks_submitted_total",
			"Total number of tasks submitted, by queue they were routed to", "pool_name", "route"),
		TasksExecuted: counter("pool", "tasks_executed_total",
			"Total number of tasks executed", "pool_name"),
		TasksCompleted: counter("pool", "tasks_completed_total",
			"Total number of tasks completed successfully", "pool_name"),
		TasksFailed: counter("pool", "tasks_failed_total",
			"Total number of tasks whose callable failed or panicked", "pool_name"),
		TasksStolen: counter("pool", "tasks_stolen_total",
			"Total number of tasks taken from another worker's deque", "pool_name"),
		TasksAbandoned: counter("pool", "tasks_abandoned_total",
			"Total number of queued tasks failed because the pool stopped", "pool_name"),

		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "pool",
				Name:        "task_duration_seconds",
				Help:        "Time spent executing tasks",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: cfg.Labels,
			},
			[]string{"pool_name"},
		),

		PoolSize: gauge("pool", "size",
			"Number of workers in the pool", "pool_name"),
		PoolActive: gauge("pool", "active_workers",
			"Number of workers currently executing a task", "pool_name"),
		SharedQueueDepth: gauge("pool", "shared_queue_depth",
			"Number of tasks waiting in the shared queue", "pool_name"),

		SchedulerRuns: counter("scheduler", "runs_total",
			"Total number of scheduled entries submitted to the pool", "scheduler_name"),
		SchedulerSubmitErrors: counter("scheduler", "submit_errors_total",
			"Total number of scheduled entries the pool rejected", "scheduler_name"),
	}
}
