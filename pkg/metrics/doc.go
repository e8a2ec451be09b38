// Package metrics provides Prometheus instrumentation for stealpool components.
//
// # Quick Start
//
// Pass a Registry to a pool through its configuration:
//
//	reg := metrics.NewRegistry(prometheus.NewRegistry())
//	pool, err := stealpool.NewWithConfig(stealpool.Config{
//		WorkerCount: 8,
//		Name:        "ingest",
//		Metrics:     reg,
//	})
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # Available Metrics
//
// Pool metrics, labelled by pool_name:
//
//   - stealpool_pool_tasks_submitted_total{route="local"|"shared"}
//   - stealpool_pool_tasks_executed_total
//   - stealpool_pool_tasks_completed_total
//   - stealpool_pool_tasks_failed_total
//   - stealpool_pool_tasks_stolen_total
//   - stealpool_pool_tasks_abandoned_total
//   - stealpool_pool_task_duration_seconds
//   - stealpool_pool_size
//   - stealpool_pool_active_workers
//   - stealpool_pool_shared_queue_depth
//
// Scheduler metrics, labelled by scheduler_name:
//
//   - stealpool_scheduler_runs_total
//   - stealpool_scheduler_submit_errors_total
//
// DefaultRegistry registers against prometheus.DefaultRegisterer at init.
// Tests and programs running several pools with the same name should create
// their own Registry over a fresh prometheus.Registry.
package metrics
