package benchmark

import (
	"sync"
	"testing"

	"github.com/vnykmshr/stealpool/pkg/container/deque"
	"github.com/vnykmshr/stealpool/pkg/container/queue"
)

// BenchmarkDequeOwner measures uncontended owner push/pop.
func BenchmarkDequeOwner(b *testing.B) {
	d := deque.New[int]()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Push(i)
		d.TryPop()
	}
}

// BenchmarkDequeOwnerWithThieves measures owner throughput while other
// goroutines steal.
func BenchmarkDequeOwnerWithThieves(b *testing.B) {
	d := deque.New[int]()
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					d.TrySteal()
				}
			}
		}()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Push(i)
		d.TryPop()
	}
	b.StopTimer()

	close(stop)
	wg.Wait()
}

// BenchmarkQueuePushPop measures the shared queue under parallel producers
// and consumers.
func BenchmarkQueuePushPop(b *testing.B) {
	q := queue.New[int]()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			q.Push(i)
			q.TryPop()
			i++
		}
	})
}
