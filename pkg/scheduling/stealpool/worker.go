package stealpool

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	sperrors "github.com/vnykmshr/stealpool/pkg/common/errors"
	"github.com/vnykmshr/stealpool/pkg/container/deque"
)

// worker is the identity of one pool goroutine: its index and its deque.
// It is created with the pool and reused across Start/JoinAll cycles.
type worker struct {
	id    int
	pool  *Pool
	local *deque.Deque[*Task]
	idle  *backoff.ExponentialBackOff
}

type workerKey struct{}

func newWorker(id int, p *Pool) *worker {
	idle := &backoff.ExponentialBackOff{
		InitialInterval:     min(minIdleSleep, p.config.MaxIdleSleep),
		RandomizationFactor: 0.5,
		Multiplier:          2,
		MaxInterval:         p.config.MaxIdleSleep,
	}
	idle.Reset()

	return &worker{
		id:    id,
		pool:  p,
		local: deque.New[*Task](),
		idle:  idle,
	}
}

// withWorker returns a context identifying w as the running worker.
func withWorker(ctx context.Context, w *worker) context.Context {
	return context.WithValue(ctx, workerKey{}, w)
}

func workerFromContext(ctx context.Context) *worker {
	w, _ := ctx.Value(workerKey{}).(*worker)
	return w
}

// WorkerID reports the index of the pool worker running the task that
// received ctx. The second result is false outside a pool task.
func WorkerID(ctx context.Context) (int, bool) {
	if ctx == nil {
		return 0, false
	}
	if w := workerFromContext(ctx); w != nil {
		return w.id, true
	}
	return 0, false
}

// run is the main loop for a worker.
func (w *worker) run() {
	p := w.pool
	defer p.wg.Done()

	if p.config.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	if p.config.OnWorkerStart != nil {
		p.config.OnWorkerStart(w.id)
	}
	if p.config.OnWorkerStop != nil {
		defer p.config.OnWorkerStop(w.id)
	}

	p.logger.Debug("worker started", zap.Int("worker", w.id))
	defer p.logger.Debug("worker stopped", zap.Int("worker", w.id))

	spins := 0
	for p.running.Load() {
		if task, stolen, ok := w.next(); ok {
			w.execute(task, stolen)
			spins = 0
			w.idle.Reset()
			continue
		}
		w.idleWait(&spins)
	}

	if p.config.StopPolicy == StopDrain {
		for {
			task, stolen, ok := w.next()
			if !ok {
				return
			}
			w.execute(task, stolen)
		}
	}
}

// next acquires a task: own deque first, then the shared queue, then the
// other workers' deques starting after this one.
func (w *worker) next() (task *Task, stolen bool, ok bool) {
	if task, ok = w.local.TryPop(); ok {
		return task, false, true
	}
	if task, ok = w.pool.shared.TryPop(); ok {
		return task, false, true
	}

	workers := w.pool.workers
	n := len(workers)
	for i := 1; i < n; i++ {
		victim := workers[(w.id+i)%n]
		if task, ok = victim.local.TrySteal(); ok {
			return task, true, true
		}
	}
	return nil, false, false
}

// idleWait yields for the first IdleSpins idle iterations, then sleeps with
// exponentially growing intervals capped at MaxIdleSleep.
func (w *worker) idleWait(spins *int) {
	if *spins < w.pool.config.IdleSpins {
		*spins++
		runtime.Gosched()
		return
	}

	d := w.idle.NextBackOff()
	if d <= 0 {
		runtime.Gosched()
		return
	}
	time.Sleep(d)
}

// execute runs one task. Failures stay with the task's future; nothing a
// task does can stop the worker loop.
func (w *worker) execute(task *Task, stolen bool) {
	p := w.pool

	p.active.Add(1)
	p.observeActive()
	defer func() {
		p.active.Add(-1)
		p.observeActive()
	}()

	if p.config.OnTaskStart != nil {
		p.config.OnTaskStart(w.id, task)
	}

	start := time.Now()
	err := task.Execute(withWorker(task.submitContext(), w))
	duration := time.Since(start)

	p.executed.Add(1)
	if stolen {
		p.stolen.Add(1)
	}
	if err != nil {
		p.failed.Add(1)
		w.reportFailure(task, err)
	}
	p.observeExecution(duration, err, stolen)

	if p.config.OnTaskComplete != nil {
		p.config.OnTaskComplete(w.id, Result{
			TaskID:   task.ID(),
			Error:    err,
			Duration: duration,
			WorkerID: w.id,
			Stolen:   stolen,
		})
	}
}

func (w *worker) reportFailure(task *Task, err error) {
	p := w.pool

	var perr *sperrors.PanicError
	if !errors.As(err, &perr) {
		p.logger.Debug("task failed",
			zap.Int("worker", w.id),
			zap.Uint64("task", task.ID()),
			zap.Error(err))
		return
	}

	p.logger.Error("task panicked",
		zap.Int("worker", w.id),
		zap.Uint64("task", task.ID()),
		zap.Any("value", perr.Value),
		zap.String("stack", perr.Stack))

	if p.config.PanicHandler != nil {
		p.config.PanicHandler(task, perr.Value)
	}
}

// RunPendingTask runs one queued task on the calling worker, if ctx belongs
// to a task of p and any task is available. It reports whether a task ran.
func (p *Pool) RunPendingTask(ctx context.Context) bool {
	w := workerFromContext(ctx)
	if w == nil || w.pool != p {
		return false
	}
	task, stolen, ok := w.next()
	if !ok {
		return false
	}
	w.execute(task, stolen)
	return true
}

// Await waits for fut. Called from inside a task of p, it keeps the worker
// busy with other queued tasks instead of blocking, so tasks can wait on the
// subtasks they spawned without starving the pool. Once the pool is
// stopping it only runs tasks from the caller's own deque. Elsewhere it is
// fut.Get(ctx).
func Await[T any](ctx context.Context, p *Pool, fut *Future[T]) (T, error) {
	w := workerFromContext(ctx)
	if w == nil || w.pool != p {
		return fut.Get(ctx)
	}

	for !fut.Ready() {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		if !p.running.Load() {
			// Stopping: only finish this worker's own subtasks.
			if task, ok := w.local.TryPop(); ok {
				w.execute(task, false)
				continue
			}
			return fut.Get(ctx)
		}
		if p.RunPendingTask(ctx) {
			continue
		}
		runtime.Gosched()
	}
	return fut.Get(ctx)
}
