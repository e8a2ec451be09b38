package scheduler_test

import (
	"context"
	"fmt"
	"time"

	"github.com/vnykmshr/stealpool/pkg/scheduling/scheduler"
	"github.com/vnykmshr/stealpool/pkg/scheduling/stealpool"
)

func Example() {
	pool := stealpool.New(2)
	_ = pool.Start()
	defer pool.JoinAll()

	s, err := scheduler.NewWithConfig(scheduler.Config{
		Pool:         pool,
		TickInterval: 10 * time.Millisecond,
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	_ = s.Start()
	defer func() { <-s.Stop() }()

	done := make(chan struct{})
	_ = s.ScheduleAfter("hello", func(context.Context) error {
		fmt.Println("hello from the pool")
		close(done)
		return nil
	}, 20*time.Millisecond)

	<-done
	// Output: hello from the pool
}

func ExampleDescribeCron() {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	desc, err := scheduler.DescribeCron("0 30 9 * * MON-FRI", from, time.UTC, 2)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, t := range desc.NextRuns {
		fmt.Println(t.Format(time.RFC1123))
	}
	// Output:
	// Mon, 01 Jan 2024 09:30:00 UTC
	// Tue, 02 Jan 2024 09:30:00 UTC
}
