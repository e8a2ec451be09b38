// Package demo holds the workloads run by the stealpool command.
package demo

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/stealpool/pkg/scheduling/stealpool"
)

// SleepersConfig describes the sleeper workload.
type SleepersConfig struct {
	Tasks int           // tasks submitted before Start
	Steps int           // sleeps per task
	Step  time.Duration // length of one sleep
	Wait  time.Duration // pause between Start and the late task
}

// Sleepers queues cfg.Tasks sleeping tasks on the stopped pool p, starts it,
// waits cfg.Wait, submits one late task and joins the pool. It returns how
// many tasks ran to completion. With StopDrain every task completes.
func Sleepers(ctx context.Context, p *stealpool.Pool, cfg SleepersConfig, logger *zap.Logger) (int64, error) {
	var completed atomic.Int64

	sleeper := func(id int) func() {
		return func() {
			for step := 0; step < cfg.Steps; step++ {
				time.Sleep(cfg.Step)
			}
			completed.Add(1)
			logger.Debug("task finished", zap.Int("task", id))
		}
	}

	for i := 0; i < cfg.Tasks; i++ {
		stealpool.Go(ctx, p, sleeper(i))
	}

	if err := p.Start(); err != nil {
		return 0, err
	}
	logger.Info("pool started", zap.Int("workers", p.Size()), zap.Int("queued", cfg.Tasks))

	select {
	case <-time.After(cfg.Wait):
	case <-ctx.Done():
		p.JoinAll()
		return completed.Load(), ctx.Err()
	}

	stealpool.Go(ctx, p, sleeper(cfg.Tasks))
	p.JoinAll()

	logger.Info("pool joined",
		zap.Int64("completed", completed.Load()),
		zap.Int("pending", p.Pending()))
	return completed.Load(), nil
}

// Sums submits n tasks computing 10 + 20 to the running pool p and returns
// their results in submission order.
func Sums(ctx context.Context, p *stealpool.Pool, n int) ([]int, error) {
	futures := make([]*stealpool.Future[int], n)
	for i := range futures {
		futures[i] = stealpool.Call(ctx, p, func() int { return 10 + 20 })
	}

	sums := make([]int, 0, n)
	for i, f := range futures {
		v, err := f.Get(ctx)
		if err != nil {
			return sums, fmt.Errorf("task %d: %w", i, err)
		}
		sums = append(sums, v)
	}
	return sums, nil
}
