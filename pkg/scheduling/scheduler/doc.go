/*
Package scheduler fires jobs into a stealpool.Pool at points in time.

Entries are one-shot (Schedule, ScheduleAfter), fixed-interval
(ScheduleRepeating) or cron driven (ScheduleCron). A ticker checks for due
entries every Config.TickInterval and submits each run as a fresh
stealpool.Task, so runs of the same entry may execute concurrently on
different workers.

Basic Usage:

	pool := stealpool.New(4)
	_ = pool.Start()
	defer pool.JoinAll()

	s, err := scheduler.NewWithConfig(scheduler.Config{Pool: pool})
	if err != nil {
		return err
	}
	_ = s.Start()
	defer func() { <-s.Stop() }()

	_ = s.ScheduleAfter("warmup", warmup, time.Second)
	_ = s.ScheduleRepeating("flush", flush, 30*time.Second)
	_ = s.ScheduleCron("report", "0 0 9 * * MON-FRI", report)

Cron expressions carry a seconds field and accept descriptors such as
@hourly and @every 90s.

Retries:

Retry wraps a job in exponential backoff. The retries happen inside one pool
task:

	job := scheduler.Retry(upload, scheduler.RetryOptions{MaxTries: 5})

Without Config.Pool the scheduler creates its own pool, starts it with
Start and joins it when Stop completes.
*/
package scheduler
