/*
Package scheduling groups the task execution packages of stealpool.

  - stealpool: fixed-size work-stealing worker pool with typed futures
  - scheduler: time-based and cron submission into a stealpool.Pool

Work-stealing pool:

	pool := stealpool.New(0) // one worker per GOMAXPROCS
	_ = pool.Start()
	defer pool.JoinAll()

	fut := stealpool.Call(ctx, pool, func() int { return 10 + 20 })
	v, err := fut.Get(ctx)

Scheduler:

	s, _ := scheduler.NewWithConfig(scheduler.Config{Pool: pool})
	_ = s.Start()
	defer func() { <-s.Stop() }()

	_ = s.ScheduleCron("report", "0 0 9 * * MON-FRI", report)
*/
package scheduling
