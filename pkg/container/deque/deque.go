// Package deque provides the per-worker work-stealing deque used by
// stealpool.
//
// The owning worker pushes and pops at the front, so it sees its own work
// in LIFO order and runs the most recently spawned task first. Other workers
// steal from the back and therefore take the oldest, usually coarsest, work.
// Every operation is guarded by one mutex and none of them blocks: an empty
// deque is reported immediately.
package deque

import "sync"

const minCap = 16

// Deque is a thread-safe double-ended queue backed by a growable ring buffer.
// The zero value is an empty deque ready to use.
type Deque[T any] struct {
	mu   sync.Mutex
	buf  []T
	head int // index of the front element
	n    int
}

// New creates an empty deque.
func New[T any]() *Deque[T] {
	return &Deque[T]{buf: make([]T, minCap)}
}

// Push inserts item at the front (owner end).
func (d *Deque[T]) Push(item T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.n == len(d.buf) {
		d.grow()
	}
	d.head = d.wrap(d.head - 1)
	d.buf[d.head] = item
	d.n++
}

// TryPop removes and returns the front element. Only the owning worker
// should call it. The second result is false if the deque was empty.
func (d *Deque[T]) TryPop() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero T
	if d.n == 0 {
		return zero, false
	}
	v := d.buf[d.head]
	d.buf[d.head] = zero
	d.head = d.wrap(d.head + 1)
	d.n--
	return v, true
}

// TrySteal removes and returns the back element. It is meant for workers
// other than the owner. The second result is false if the deque was empty.
func (d *Deque[T]) TrySteal() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero T
	if d.n == 0 {
		return zero, false
	}
	tail := d.wrap(d.head + d.n - 1)
	v := d.buf[tail]
	d.buf[tail] = zero
	d.n--
	return v, true
}

// Len returns the number of elements at the time of the call.
func (d *Deque[T]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.n
}

// Empty reports whether the deque held no elements at the time of the call.
func (d *Deque[T]) Empty() bool {
	return d.Len() == 0
}

// Drain removes every element and returns them front to back.
func (d *Deque[T]) Drain() []T {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]T, d.n)
	for i := range out {
		out[i] = d.buf[d.wrap(d.head+i)]
	}
	d.buf = make([]T, minCap)
	d.head, d.n = 0, 0
	return out
}

func (d *Deque[T]) wrap(i int) int {
	c := len(d.buf)
	return ((i % c) + c) % c
}

// grow doubles the ring, unrolling it so the front lands at index 0.
func (d *Deque[T]) grow() {
	size := len(d.buf) * 2
	if size == 0 {
		size = minCap
	}
	next := make([]T, size)
	for i := 0; i < d.n; i++ {
		next[i] = d.buf[d.wrap(d.head+i)]
	}
	d.buf = next
	d.head = 0
}
