/*
Package queue provides a mutex-guarded, thread-safe FIFO queue and a LIFO
stack built on the same storage.

Queue is the pool-wide overflow queue of stealpool, but it is a general
purpose primitive and can be used on its own:

	q := queue.New[string]()
	q.Push("a")
	q.Push("b")

	v, ok := q.TryPop()         // "a", true
	v, err := q.WaitAndPop(ctx) // blocks until an item arrives or ctx is done

Besides push and pop, Queue supports out-of-band removal:

	_, err := q.FindAndErase(func(s string) bool { return s == "b" })
	if errors.Is(err, sperrors.ErrNotFound) {
		// nothing matched
	}

Empty and Len return snapshots that are stale as soon as they return when
other goroutines mutate the queue. Use them as hints only.

Stack rejects Pop and Top on an empty stack with errors.ErrEmptyStack.
*/
package queue
