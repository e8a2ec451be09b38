package stealpool

import (
	"context"
	"sync"
)

// Work is a callable whose result is delivered through a Future.
// The context carries the submitter's values and the identity of the worker
// running it; pass it to Submit to spawn subtasks on the same worker.
type Work[T any] func(ctx context.Context) (T, error)

// Future is the read side of a task's completion handle. It is fulfilled
// exactly once, by the worker that runs the task or by the pool when a
// pending task is failed at stop time.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// complete fulfills the future. Only the first call has an effect.
func (f *Future[T]) complete(v T, err error) bool {
	fulfilled := false
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
		fulfilled = true
	})
	return fulfilled
}

// Done returns a channel closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Ready reports whether the result is available.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get blocks until the result is available or ctx is done. The error is the
// callable's failure, errors.ErrPoolStopped for a task failed at stop time,
// or ctx.Err().
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}

	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryGet returns the result without blocking. ok is false while the future
// is still pending.
func (f *Future[T]) TryGet() (v T, ok bool, err error) {
	select {
	case <-f.done:
		return f.value, true, f.err
	default:
		return v, false, nil
	}
}

// Wait blocks until the result is available.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}
