package queue

import (
	"sync"

	sperrors "github.com/vnykmshr/stealpool/pkg/common/errors"
)

// Stack is a thread-safe LIFO stack sharing the queue's storage. Pop and Top
// on an empty stack fail with ErrEmptyStack.
type Stack[T any] struct {
	mu    sync.Mutex
	items items[T]
}

// NewStack creates an empty stack.
func NewStack[T any]() *Stack[T] {
	return &Stack[T]{items: newItems[T]()}
}

// Push puts item on top of the stack.
func (s *Stack[T]) Push(item T) {
	s.mu.Lock()
	s.items.pushBack(item)
	s.mu.Unlock()
}

// Pop removes and returns the top item.
func (s *Stack[T]) Pop() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.items.len() == 0 {
		var zero T
		return zero, sperrors.ErrEmptyStack
	}
	return s.items.popBack(), nil
}

// Top returns the top item without removing it.
func (s *Stack[T]) Top() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.items.len() == 0 {
		var zero T
		return zero, sperrors.ErrEmptyStack
	}
	return s.items.back(), nil
}

// Len returns the number of items at the time of the call.
func (s *Stack[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.len()
}

// Empty reports whether the stack held no items at the time of the call.
func (s *Stack[T]) Empty() bool {
	return s.Len() == 0
}
