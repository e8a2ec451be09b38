package stealpool

import (
	"context"
	"fmt"
	"sync/atomic"

	sperrors "github.com/vnykmshr/stealpool/pkg/common/errors"
)

var taskIDs atomic.Uint64

// runnable is the type-erased body of a Task.
type runnable interface {
	// run invokes the callable once, converting panics into errors.
	run(ctx context.Context) error

	// abandon settles any completion handle without running the callable.
	abandon(err error)
}

// Task is a single-shot unit of work. It is created by NewTask or by the
// Submit family, handed to exactly one queue and executed at most once.
// The zero Task is empty and cannot be executed.
type Task struct {
	id     uint64
	impl   runnable
	ctx    context.Context
	queued atomic.Bool
	used   atomic.Bool
}

func newTask(impl runnable) *Task {
	return &Task{
		id:   taskIDs.Add(1),
		impl: impl,
	}
}

// NewTask wraps fn in a Task for SubmitTask. A nil fn yields an empty task.
func NewTask(fn func(ctx context.Context) error) *Task {
	if fn == nil {
		return &Task{}
	}
	return newTask(funcRunnable(fn))
}

// ID returns the process-unique task identifier, or 0 for an empty task.
func (t *Task) ID() uint64 {
	if t == nil {
		return 0
	}
	return t.id
}

// Execute runs the wrapped callable. Failures returned or raised by the
// callable come back as errors matching errors.ErrCallableFailure; a panic
// is reported as *errors.PanicError. Executing an empty task, or a task
// that already ran, returns errors.ErrInvalidTask.
func (t *Task) Execute(ctx context.Context) error {
	if t == nil || t.impl == nil {
		return sperrors.ErrInvalidTask
	}
	if !t.used.CompareAndSwap(false, true) {
		return fmt.Errorf("task %d already executed: %w", t.id, sperrors.ErrInvalidTask)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return t.impl.run(ctx)
}

// abandon consumes the task without running it. It reports false if the
// task had already been consumed.
func (t *Task) abandon(err error) bool {
	if t == nil || t.impl == nil || !t.used.CompareAndSwap(false, true) {
		return false
	}
	t.impl.abandon(err)
	return true
}

// submitContext returns the context captured at submission, stripped of its
// cancellation.
func (t *Task) submitContext() context.Context {
	if t.ctx == nil {
		return context.Background()
	}
	return t.ctx
}

type funcRunnable func(ctx context.Context) error

func (f funcRunnable) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = sperrors.NewPanicError(r)
		}
	}()
	return sperrors.CallableFailure(f(ctx))
}

func (funcRunnable) abandon(error) {}

// boundWork pairs a Work with the Future it fulfills.
type boundWork[T any] struct {
	work Work[T]
	fut  *Future[T]
}

func (b *boundWork[T]) run(ctx context.Context) (err error) {
	var v T
	defer func() {
		if r := recover(); r != nil {
			err = sperrors.NewPanicError(r)
		}
		b.fut.complete(v, err)
	}()

	v, err = b.work(ctx)
	return sperrors.CallableFailure(err)
}

func (b *boundWork[T]) abandon(err error) {
	var zero T
	b.fut.complete(zero, err)
}
