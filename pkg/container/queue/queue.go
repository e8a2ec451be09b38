package queue

import (
	"context"
	"sync"

	sperrors "github.com/vnykmshr/stealpool/pkg/common/errors"
)

// Queue is a thread-safe FIFO queue guarded by a single mutex and a single
// wait condition. The zero value is not usable; create queues with New.
type Queue[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items items[T]
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{items: newItems[T]()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends item and wakes one goroutine blocked in WaitAndPop.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items.pushBack(item)
	q.mu.Unlock()
	q.cond.Signal()
}

// WaitAndPop blocks until the queue is non-empty, then removes and returns
// the front element. It returns ctx.Err() if ctx is done first.
func (q *Queue[T]) WaitAndPop(ctx context.Context) (T, error) {
	stop := context.AfterFunc(ctx, func() {
		// Taking the lock orders the broadcast after the waiter's ctx check.
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.len() == 0 {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		q.cond.Wait()
	}
	return q.items.popFront(), nil
}

// TryPop removes and returns the front element without blocking. The second
// result is false if the queue was empty.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.len() == 0 {
		var zero T
		return zero, false
	}
	return q.items.popFront(), true
}

// Empty reports whether the queue held no elements at the time of the call.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Len returns the number of queued elements at the time of the call.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.len()
}

// Erase removes the element at index, counted from the front.
// It returns ErrNotFound if index is out of range.
func (q *Queue[T]) Erase(index int) (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= q.items.len() {
		var zero T
		return zero, sperrors.ErrNotFound
	}
	return q.items.removeAt(index), nil
}

// FindAndErase removes and returns the first element, in FIFO order, for
// which pred returns true. It returns ErrNotFound if nothing matches.
// The scan is O(n) and runs under the queue lock; pred must not call back
// into the queue.
func (q *Queue[T]) FindAndErase(pred func(T) bool) (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.items.index(pred)
	if i < 0 {
		var zero T
		return zero, sperrors.ErrNotFound
	}
	return q.items.removeAt(i), nil
}

// Clear discards every element.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	q.items.reset()
	q.mu.Unlock()
}

// Drain removes every element and returns them in FIFO order.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.takeAll()
}
