package stealpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	sperrors "github.com/vnykmshr/stealpool/pkg/common/errors"
	"github.com/vnykmshr/stealpool/pkg/container/queue"
)

// Pool is a fixed-size work-stealing worker pool. Every worker owns a local
// deque; submissions made from inside a running task go to that worker's
// deque, all other submissions go to the shared queue. Idle workers steal
// from their siblings.
//
// A Pool is created stopped. Tasks may be submitted before Start and wait in
// the queues until a worker picks them up.
type Pool struct {
	config  Config
	logger  *zap.Logger
	shared  *queue.Queue[*Task]
	workers []*worker

	// mu serializes Start and JoinAll
	mu      sync.Mutex
	running atomic.Bool
	wg      sync.WaitGroup

	active    atomic.Int64
	submitted atomic.Int64
	executed  atomic.Int64
	failed    atomic.Int64
	stolen    atomic.Int64
	abandoned atomic.Int64
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Submitted int64
	Executed  int64
	Failed    int64
	Stolen    int64
	Abandoned int64
}

// New creates a stopped pool with workerCount workers. Zero selects the
// hardware parallelism hint. It panics if workerCount is negative.
func New(workerCount int) *Pool {
	p, err := NewWithConfig(Config{WorkerCount: workerCount})
	if err != nil {
		panic(err)
	}
	return p
}

// NewWithConfig creates a stopped pool with the specified configuration.
func NewWithConfig(config Config) (*Pool, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()

	p := &Pool{
		config: config,
		logger: config.Logger.Named(moduleName).With(zap.String("pool", config.Name)),
		shared: queue.New[*Task](),
	}

	p.workers = make([]*worker, config.WorkerCount)
	for i := range p.workers {
		p.workers[i] = newWorker(i, p)
	}

	p.observeSize()
	return p, nil
}

// Start spawns one goroutine per worker. It returns errors.ErrPoolRunning if
// the pool is already running.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running.Load() {
		return sperrors.ErrPoolRunning
	}

	p.running.Store(true)
	p.wg.Add(len(p.workers))
	for _, w := range p.workers {
		go w.run()
	}

	p.logger.Debug("pool started", zap.Int("workers", len(p.workers)))
	return nil
}

// JoinAll stops the pool and blocks until every worker has exited. Workers
// finish the task they are running; what happens to queued tasks depends on
// Config.StopPolicy. The pool may be started again afterwards. On a stopped
// pool JoinAll only applies StopFailPending to tasks queued since.
func (p *Pool) JoinAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running.Load() {
		p.failPendingIfConfigured()
		return
	}

	p.running.Store(false)
	p.wg.Wait()

	p.failPendingIfConfigured()
	p.observeQueue()

	p.logger.Debug("pool stopped",
		zap.Stringer("policy", p.config.StopPolicy),
		zap.Int("pending", p.Pending()))
}

// Close stops the pool like JoinAll. It always returns nil.
func (p *Pool) Close() error {
	p.JoinAll()
	return nil
}

// SubmitTask queues a prebuilt task. It returns errors.ErrInvalidTask for an
// empty task or a task that was already submitted.
func (p *Pool) SubmitTask(ctx context.Context, task *Task) error {
	if task == nil || task.impl == nil {
		return sperrors.ErrInvalidTask
	}
	if !task.queued.CompareAndSwap(false, true) {
		return fmt.Errorf("task %d submitted twice: %w", task.id, sperrors.ErrInvalidTask)
	}
	p.enqueue(ctx, task)
	return nil
}

// enqueue routes task to the calling worker's deque when ctx was handed out
// by one of this pool's workers, and to the shared queue otherwise.
func (p *Pool) enqueue(ctx context.Context, task *Task) {
	if ctx == nil {
		ctx = context.Background()
	}
	task.queued.Store(true)
	// Keep values such as trace IDs but never let the submitter cancel a
	// queued task.
	task.ctx = context.WithoutCancel(ctx)

	p.submitted.Add(1)
	if w := workerFromContext(ctx); w != nil && w.pool == p {
		w.local.Push(task)
		p.observeSubmit(routeLocal)
		return
	}
	p.shared.Push(task)
	p.observeSubmit(routeShared)
}

func (p *Pool) failPendingIfConfigured() {
	if p.config.StopPolicy != StopFailPending {
		return
	}
	if n := p.failPending(); n > 0 {
		p.logger.Debug("failed pending tasks", zap.Int("count", n))
	}
}

// failPending removes every queued task and fails its future with
// errors.ErrPoolStopped. Workers must be stopped.
func (p *Pool) failPending() int {
	pending := p.shared.Drain()
	for _, w := range p.workers {
		pending = append(pending, w.local.Drain()...)
	}

	n := 0
	for _, t := range pending {
		if t.abandon(sperrors.ErrPoolStopped) {
			n++
		}
	}
	p.abandoned.Add(int64(n))
	p.observeAbandoned(n)
	return n
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Name returns the configured pool name.
func (p *Pool) Name() string {
	return p.config.Name
}

// Running reports whether the pool has been started and not yet joined.
func (p *Pool) Running() bool {
	return p.running.Load()
}

// Pending returns the approximate number of queued tasks across the shared
// queue and every local deque.
func (p *Pool) Pending() int {
	n := p.shared.Len()
	for _, w := range p.workers {
		n += w.local.Len()
	}
	return n
}

// ActiveWorkers returns the number of workers currently executing a task.
func (p *Pool) ActiveWorkers() int {
	return int(p.active.Load())
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.submitted.Load(),
		Executed:  p.executed.Load(),
		Failed:    p.failed.Load(),
		Stolen:    p.stolen.Load(),
		Abandoned: p.abandoned.Load(),
	}
}

// Submit wraps work in a task bound to a fresh Future and queues it on p.
// It never blocks. Pass the context received by a running Work to keep
// subtasks on the same worker.
func Submit[T any](ctx context.Context, p *Pool, work Work[T]) *Future[T] {
	fut := newFuture[T]()
	if work == nil {
		var zero T
		fut.complete(zero, sperrors.ErrInvalidTask)
		return fut
	}
	p.enqueue(ctx, newTask(&boundWork[T]{work: work, fut: fut}))
	return fut
}

// Call submits a plain nullary function and delivers its return value.
func Call[T any](ctx context.Context, p *Pool, fn func() T) *Future[T] {
	if fn == nil {
		return Submit[T](ctx, p, nil)
	}
	return Submit(ctx, p, func(context.Context) (T, error) {
		return fn(), nil
	})
}

// Go submits a function without a result. The future reports only whether
// it panicked.
func Go(ctx context.Context, p *Pool, fn func()) *Future[struct{}] {
	if fn == nil {
		return Submit[struct{}](ctx, p, nil)
	}
	return Submit(ctx, p, func(context.Context) (struct{}, error) {
		fn()
		return struct{}{}, nil
	})
}
