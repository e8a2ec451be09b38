package queue

const (
	defaultCap          = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// items is the unguarded sequence shared by Queue and Stack. Callers hold
// the owning structure's lock.
type items[T any] struct {
	buf []T
}

func newItems[T any]() items[T] {
	return items[T]{buf: make([]T, 0, defaultCap)}
}

func (s *items[T]) len() int { return len(s.buf) }

func (s *items[T]) pushBack(v T) {
	s.buf = append(s.buf, v)
}

func (s *items[T]) popFront() T {
	var zero T
	v := s.buf[0]
	// Zero out the slot so the backing array does not retain it
	s.buf[0] = zero
	s.buf = s.buf[1:]
	s.maybeCompact()
	return v
}

func (s *items[T]) popBack() T {
	var zero T
	last := len(s.buf) - 1
	v := s.buf[last]
	s.buf[last] = zero
	s.buf = s.buf[:last]
	return v
}

func (s *items[T]) back() T {
	return s.buf[len(s.buf)-1]
}

func (s *items[T]) removeAt(i int) T {
	var zero T
	v := s.buf[i]
	copy(s.buf[i:], s.buf[i+1:])
	s.buf[len(s.buf)-1] = zero
	s.buf = s.buf[:len(s.buf)-1]
	s.maybeCompact()
	return v
}

func (s *items[T]) index(pred func(T) bool) int {
	for i, v := range s.buf {
		if pred(v) {
			return i
		}
	}
	return -1
}

func (s *items[T]) takeAll() []T {
	out := s.buf
	s.buf = make([]T, 0, defaultCap)
	return out
}

func (s *items[T]) reset() {
	s.buf = make([]T, 0, defaultCap)
}

// maybeCompact reallocates when the live window is a small fraction of the
// backing array, which happens after many front pops.
func (s *items[T]) maybeCompact() {
	c := cap(s.buf)
	if c < compactMinCap || len(s.buf) >= c/compactShrinkFactor {
		return
	}
	next := make([]T, len(s.buf), max(defaultCap, len(s.buf)*2))
	copy(next, s.buf)
	s.buf = next
}
