/*
Package stealpool is a Go library for running CPU-bound work on a fixed set
of workers that balance load by work stealing.

Task Execution (pkg/scheduling):
  - stealpool: work-stealing pool with typed futures
  - scheduler: one-shot, interval and cron submission into a pool

Containers (pkg/container):
  - queue: blocking FIFO queue and LIFO stack
  - deque: double-ended queue with owner and thief ends

Observability (pkg/metrics):
  - Prometheus collectors for pools and schedulers

Example usage:

	import "github.com/vnykmshr/stealpool/pkg/scheduling/stealpool"

	pool := stealpool.New(4)
	if err := pool.Start(); err != nil {
		return err
	}
	defer pool.JoinAll()

	fut := stealpool.Call(ctx, pool, func() int { return 10 + 20 })
	sum, err := fut.Get(ctx)

See the examples directory and cmd/stealpool for complete programs.
*/
package stealpool
