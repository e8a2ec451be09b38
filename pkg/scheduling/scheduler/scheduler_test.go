package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/stealpool/internal/testutil"
	sperrors "github.com/vnykmshr/stealpool/pkg/common/errors"
	"github.com/vnykmshr/stealpool/pkg/metrics"
	"github.com/vnykmshr/stealpool/pkg/scheduling/stealpool"
)

func newTestScheduler(t *testing.T, cfg Config) Scheduler {
	t.Helper()
	if cfg.Pool == nil {
		pool := stealpool.New(2)
		testutil.AssertNoError(t, pool.Start())
		t.Cleanup(pool.JoinAll)
		cfg.Pool = pool
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = 5 * time.Millisecond
	}

	s, err := NewWithConfig(cfg)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s.Start())
	t.Cleanup(func() { <-s.Stop() })
	return s
}

func counting(n *atomic.Int64) Job {
	return func(context.Context) error {
		n.Add(1)
		return nil
	}
}

func TestNewWithConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative tick", Config{TickInterval: -time.Second}},
		{"negative max tasks", Config{MaxTasks: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWithConfig(tt.cfg)
			testutil.AssertErrorIs(t, err, sperrors.ErrInvalidConfiguration)
		})
	}
}

func TestScheduleValidation(t *testing.T) {
	s, err := NewWithConfig(Config{Pool: stealpool.New(1)})
	testutil.AssertNoError(t, err)
	noop := func(context.Context) error { return nil }

	tests := []struct {
		name string
		call func() error
		is   error
	}{
		{"empty id", func() error { return s.Schedule("", noop, time.Now()) }, sperrors.ErrInvalidConfiguration},
		{"long id", func() error { return s.Schedule(strings.Repeat("x", 256), noop, time.Now()) }, sperrors.ErrInvalidConfiguration},
		{"nil job", func() error { return s.Schedule("a", nil, time.Now()) }, sperrors.ErrInvalidTask},
		{"zero time", func() error { return s.Schedule("a", noop, time.Time{}) }, sperrors.ErrInvalidConfiguration},
		{"zero interval", func() error { return s.ScheduleRepeating("a", noop, 0) }, sperrors.ErrInvalidConfiguration},
		{"empty cron", func() error { return s.ScheduleCron("a", "", noop) }, sperrors.ErrInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertErrorIs(t, tt.call(), tt.is)
		})
	}

	err = s.ScheduleCron("a", "not a cron", noop)
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, len(s.List()), 0)
}

func TestScheduleDuplicateAndLimit(t *testing.T) {
	s, err := NewWithConfig(Config{Pool: stealpool.New(1), MaxTasks: 2})
	testutil.AssertNoError(t, err)
	noop := func(context.Context) error { return nil }

	testutil.AssertNoError(t, s.ScheduleAfter("a", noop, time.Hour))
	testutil.AssertErrorIs(t, s.ScheduleAfter("a", noop, time.Hour), ErrTaskExists)
	testutil.AssertNoError(t, s.ScheduleRepeating("b", noop, time.Hour))
	testutil.AssertErrorIs(t, s.ScheduleAfter("c", noop, time.Hour), ErrTooManyTasks)

	testutil.AssertEqual(t, s.Cancel("a"), true)
	testutil.AssertEqual(t, s.Cancel("a"), false)
	testutil.AssertNoError(t, s.ScheduleAfter("c", noop, time.Hour))

	s.CancelAll()
	testutil.AssertEqual(t, len(s.List()), 0)
}

func TestListOrderedByRunTime(t *testing.T) {
	s, err := NewWithConfig(Config{Pool: stealpool.New(1)})
	testutil.AssertNoError(t, err)
	noop := func(context.Context) error { return nil }

	testutil.AssertNoError(t, s.ScheduleAfter("late", noop, 2*time.Hour))
	testutil.AssertNoError(t, s.ScheduleAfter("early", noop, time.Minute))
	testutil.AssertNoError(t, s.ScheduleCron("cron", "0 0 0 1 1 *", noop))

	list := s.List()
	testutil.AssertEqual(t, len(list), 3)
	testutil.AssertEqual(t, list[0].ID, "early")
	testutil.AssertEqual(t, list[1].ID, "late")
	testutil.AssertEqual(t, list[2].ID, "cron")
	testutil.AssertEqual(t, list[2].Cron, "0 0 0 1 1 *")
}

func TestOneShotRunsOnce(t *testing.T) {
	s := newTestScheduler(t, Config{})

	var runs atomic.Int64
	testutil.AssertNoError(t, s.ScheduleAfter("once", counting(&runs), 10*time.Millisecond))

	testutil.WaitForInt64(t, &runs, 1, time.Second)
	time.Sleep(30 * time.Millisecond)
	testutil.AssertEqual(t, runs.Load(), int64(1))
	testutil.AssertEqual(t, len(s.List()), 0)
}

func TestRepeatingRunsUntilCancelled(t *testing.T) {
	s := newTestScheduler(t, Config{})

	var runs atomic.Int64
	testutil.AssertNoError(t, s.ScheduleRepeating("tick", counting(&runs), 10*time.Millisecond))

	testutil.AssertEventually(t, func() bool { return runs.Load() >= 3 })
	testutil.AssertEqual(t, s.Cancel("tick"), true)

	// Let any run already submitted finish.
	time.Sleep(30 * time.Millisecond)
	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	testutil.AssertEqual(t, runs.Load(), after)
}

func TestCronFires(t *testing.T) {
	s := newTestScheduler(t, Config{})

	var runs atomic.Int64
	testutil.AssertNoError(t, s.ScheduleCron("every-second", "* * * * * *", counting(&runs)))

	testutil.WaitForInt64(t, &runs, 1, 3*time.Second)
	list := s.List()
	testutil.AssertEqual(t, len(list), 1)
	if list[0].Runs < 1 {
		t.Errorf("Runs = %d, want >= 1", list[0].Runs)
	}
}

func TestRunsExecuteOnPoolWorkers(t *testing.T) {
	s := newTestScheduler(t, Config{})

	onWorker := make(chan bool, 1)
	testutil.AssertNoError(t, s.ScheduleAfter("where", func(ctx context.Context) error {
		_, ok := stealpool.WorkerID(ctx)
		onWorker <- ok
		return nil
	}, 0))

	select {
	case ok := <-onWorker:
		testutil.AssertEqual(t, ok, true)
	case <-time.After(time.Second):
		t.Fatal("job never ran")
	}
}

func TestFailingJobKeepsScheduling(t *testing.T) {
	s := newTestScheduler(t, Config{})

	var runs atomic.Int64
	testutil.AssertNoError(t, s.ScheduleRepeating("flaky", func(context.Context) error {
		if runs.Add(1) == 1 {
			panic("first run")
		}
		return errors.New("still failing")
	}, 5*time.Millisecond))

	testutil.AssertEventually(t, func() bool { return runs.Load() >= 3 })
}

func TestStartStop(t *testing.T) {
	pool := stealpool.New(1)
	s, err := NewWithConfig(Config{Pool: pool})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, s.Start())
	testutil.AssertErrorIs(t, s.Start(), sperrors.ErrPoolRunning)
	<-s.Stop()
	<-s.Stop()

	// A shared pool is not started or joined by the scheduler.
	testutil.AssertEqual(t, pool.Running(), false)

	testutil.AssertNoError(t, s.Start())
	<-s.Stop()
}

func TestOwnPool(t *testing.T) {
	s, err := NewWithConfig(Config{TickInterval: 5 * time.Millisecond})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s.Start())

	done := make(chan struct{})
	testutil.AssertNoError(t, s.ScheduleAfter("own", func(context.Context) error {
		close(done)
		return nil
	}, 0))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job never ran")
	}

	select {
	case <-s.Stop():
	case <-time.After(time.Second):
		t.Fatal("Stop did not complete")
	}
}

func TestContextValuesReachJobs(t *testing.T) {
	type key struct{}
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "nightly"))
	cancel()

	s := newTestScheduler(t, Config{Context: ctx})

	got := make(chan string, 1)
	testutil.AssertNoError(t, s.ScheduleAfter("ctx", func(ctx context.Context) error {
		v, _ := ctx.Value(key{}).(string)
		got <- v
		return ctx.Err()
	}, 0))

	select {
	case v := <-got:
		testutil.AssertEqual(t, v, "nightly")
	case <-time.After(time.Second):
		t.Fatal("job never ran")
	}
}

func TestSchedulerMetrics(t *testing.T) {
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	s := newTestScheduler(t, Config{Name: "metered", Metrics: reg})

	var runs atomic.Int64
	for _, id := range []string{"a", "b", "c"} {
		testutil.AssertNoError(t, s.ScheduleAfter(id, counting(&runs), 0))
	}

	testutil.WaitForInt64(t, &runs, 3, time.Second)
	testutil.AssertEventually(t, func() bool {
		return promtest.ToFloat64(reg.SchedulerRuns.WithLabelValues("metered")) == 3
	})
	testutil.AssertEqual(t, promtest.ToFloat64(reg.SchedulerSubmitErrors.WithLabelValues("metered")), float64(0))
}

func TestProcessReadyTasksReschedules(t *testing.T) {
	pool := stealpool.New(1)
	sched, err := NewWithConfig(Config{Pool: pool, Location: time.UTC})
	testutil.AssertNoError(t, err)
	s := sched.(*scheduler)
	noop := func(context.Context) error { return nil }

	testutil.AssertNoError(t, s.ScheduleRepeating("rep", noop, time.Minute))
	testutil.AssertNoError(t, s.ScheduleCron("cron", "0 * * * * *", noop))
	testutil.AssertNoError(t, s.ScheduleAfter("once", noop, 0))

	now := time.Now().Add(2 * time.Minute)
	s.processReadyTasks(now)

	// All three fired; the pool is stopped, so the runs are queued.
	testutil.AssertEqual(t, pool.Pending(), 3)

	list := s.List()
	testutil.AssertEqual(t, len(list), 2)
	for _, task := range list {
		if !task.RunAt.After(now) {
			t.Errorf("%s: RunAt %v not after %v", task.ID, task.RunAt, now)
		}
		testutil.AssertEqual(t, task.Runs, 1)
	}
}

func TestSubmitFailureIsOperationError(t *testing.T) {
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	pool := stealpool.New(1)
	sched, err := NewWithConfig(Config{Pool: pool, Name: "rejecting", Metrics: reg})
	testutil.AssertNoError(t, err)
	s := sched.(*scheduler)

	// A run without a job becomes an empty task, which the pool rejects.
	err = s.submit(&scheduledTask{id: "broken", runs: 2})

	var operr *sperrors.OperationError
	if !errors.As(err, &operr) {
		t.Fatalf("err = %v, want *OperationError", err)
	}
	testutil.AssertEqual(t, operr.Module, "scheduler")
	testutil.AssertEqual(t, operr.Operation, "submit")
	testutil.AssertErrorIs(t, err, sperrors.ErrInvalidTask)
	testutil.AssertEqual(t, err.Error(), `scheduler.submit failed: invalid task (task "broken" run 2)`)

	testutil.AssertEqual(t, pool.Pending(), 0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.SchedulerSubmitErrors.WithLabelValues("rejecting")), float64(1))
	testutil.AssertEqual(t, promtest.ToFloat64(reg.SchedulerRuns.WithLabelValues("rejecting")), float64(0))
}

func TestScheduleRepeatingRejectsNonPositiveInterval(t *testing.T) {
	s, err := NewWithConfig(Config{Pool: stealpool.New(1)})
	testutil.AssertNoError(t, err)
	noop := func(context.Context) error { return nil }

	for _, interval := range []time.Duration{0, -time.Second} {
		err := s.ScheduleRepeating("rep", noop, interval)
		if !sperrors.IsValidationError(err) {
			t.Errorf("interval %v: err = %v, want ValidationError", interval, err)
		}
	}
}
