package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	sperrors "github.com/vnykmshr/stealpool/pkg/common/errors"
	"github.com/vnykmshr/stealpool/pkg/common/validation"
	"github.com/vnykmshr/stealpool/pkg/metrics"
	"github.com/vnykmshr/stealpool/pkg/scheduling/stealpool"
)

const (
	moduleName = "scheduler"

	defaultName         = "scheduler"
	defaultTickInterval = 50 * time.Millisecond
	defaultMaxTasks     = 10000
	maxIDLength         = 255
)

var (
	// ErrTaskExists is returned when scheduling an ID that is already in use.
	ErrTaskExists = errors.New("task already scheduled")

	// ErrTooManyTasks is returned when Config.MaxTasks entries are scheduled.
	ErrTooManyTasks = errors.New("maximum number of scheduled tasks reached")
)

// Job is the unit of work a scheduler fires. Every run is submitted to the
// pool as a fresh task.
type Job func(ctx context.Context) error

// Task describes a scheduled entry.
type Task struct {
	ID       string
	RunAt    time.Time
	Interval time.Duration // Zero for one-time and cron tasks
	Cron     string        // Empty unless scheduled with ScheduleCron
	Created  time.Time
	Runs     int
}

// Scheduler submits jobs to a stealpool.Pool at points in time.
type Scheduler interface {
	// Basic scheduling
	Schedule(id string, job Job, runAt time.Time) error
	ScheduleAfter(id string, job Job, delay time.Duration) error
	ScheduleRepeating(id string, job Job, interval time.Duration) error

	// Cron scheduling
	ScheduleCron(id string, cronExpr string, job Job) error

	// Task management
	Cancel(id string) bool
	CancelAll()
	List() []Task

	// Lifecycle
	Start() error
	Stop() <-chan struct{}
}

// Config holds scheduler configuration.
type Config struct {
	// Pool receives every run. When nil the scheduler creates its own pool
	// with stealpool.DefaultWorkerCount workers, started by Start and joined
	// by Stop.
	Pool *stealpool.Pool

	// Name labels log lines and metrics. Defaults to "scheduler".
	Name string

	Location     *time.Location // For cron scheduling
	TickInterval time.Duration  // How often to check for ready tasks (default: 50ms)
	MaxTasks     int            // Maximum number of scheduled tasks (default: 10000)

	// Context is handed to submitted runs. Its values reach the job; its
	// cancellation does not. Defaults to context.Background().
	Context context.Context

	Logger  *zap.Logger
	Metrics *metrics.Registry
}

type scheduledTask struct {
	id           string
	job          Job
	runAt        time.Time
	interval     time.Duration
	cronExpr     string
	cronSchedule cron.Schedule
	created      time.Time
	runs         int
}

type scheduler struct {
	pool         *stealpool.Pool
	ownPool      bool
	name         string
	location     *time.Location
	tickInterval time.Duration
	maxTasks     int
	ctx          context.Context
	logger       *zap.Logger
	metrics      *metrics.Registry
	cronParser   cron.Parser

	mu      sync.RWMutex
	tasks   map[string]*scheduledTask
	done    chan struct{}
	loop    sync.WaitGroup
	running bool
}

// New creates a scheduler with default configuration.
func New() Scheduler {
	s, err := NewWithConfig(Config{})
	if err != nil {
		panic(err)
	}
	return s
}

// NewWithConfig creates a scheduler with custom configuration.
func NewWithConfig(cfg Config) (Scheduler, error) {
	if err := validation.ValidateNonNegativeDuration(moduleName, "TickInterval", cfg.TickInterval); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative(moduleName, "MaxTasks", cfg.MaxTasks); err != nil {
		return nil, err
	}

	pool := cfg.Pool
	ownPool := false
	if pool == nil {
		var err error
		pool, err = stealpool.NewWithConfig(stealpool.Config{
			Name:    cfg.Name,
			Logger:  cfg.Logger,
			Metrics: cfg.Metrics,
		})
		if err != nil {
			return nil, err
		}
		ownPool = true
	}

	name := cfg.Name
	if name == "" {
		name = defaultName
	}

	location := cfg.Location
	if location == nil {
		location = time.Local
	}

	tickInterval := cfg.TickInterval
	if tickInterval == 0 {
		tickInterval = defaultTickInterval
	}

	maxTasks := cfg.MaxTasks
	if maxTasks == 0 {
		maxTasks = defaultMaxTasks
	}

	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &scheduler{
		pool:         pool,
		ownPool:      ownPool,
		name:         name,
		location:     location,
		tickInterval: tickInterval,
		maxTasks:     maxTasks,
		ctx:          ctx,
		logger:       logger.Named(moduleName).With(zap.String("scheduler", name)),
		metrics:      cfg.Metrics,
		cronParser:   newCronParser(),
		tasks:        make(map[string]*scheduledTask),
	}, nil
}

func validateEntry(id string, job Job) error {
	if err := validation.ValidateNotEmpty(moduleName, "id", id); err != nil {
		return err
	}
	if err := validation.ValidateMaxLen(moduleName, "id", id, maxIDLength); err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("task %q has no job: %w", id, sperrors.ErrInvalidTask)
	}
	return nil
}

// add stores t unless its ID is taken or the scheduler is full.
func (s *scheduler) add(t *scheduledTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[t.id]; exists {
		return fmt.Errorf("%w: %q, cancel it first", ErrTaskExists, t.id)
	}
	if len(s.tasks) >= s.maxTasks {
		return fmt.Errorf("%w (%d)", ErrTooManyTasks, s.maxTasks)
	}

	t.created = time.Now()
	s.tasks[t.id] = t
	return nil
}

func (s *scheduler) Schedule(id string, job Job, runAt time.Time) error {
	if err := validateEntry(id, job); err != nil {
		return err
	}
	if runAt.IsZero() {
		return sperrors.NewValidationError(moduleName, "runAt", runAt, "cannot be zero")
	}
	return s.add(&scheduledTask{id: id, job: job, runAt: runAt})
}

func (s *scheduler) ScheduleAfter(id string, job Job, delay time.Duration) error {
	return s.Schedule(id, job, time.Now().Add(delay))
}

// ScheduleRepeating runs job immediately and then every interval.
func (s *scheduler) ScheduleRepeating(id string, job Job, interval time.Duration) error {
	if err := validateEntry(id, job); err != nil {
		return err
	}
	if err := validation.ValidatePositive(moduleName, "interval", interval); err != nil {
		return err
	}
	return s.add(&scheduledTask{id: id, job: job, runAt: time.Now(), interval: interval})
}

func (s *scheduler) ScheduleCron(id string, cronExpr string, job Job) error {
	if err := validateEntry(id, job); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty(moduleName, "cron", cronExpr); err != nil {
		return err
	}

	schedule, err := s.cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	return s.add(&scheduledTask{
		id:           id,
		job:          job,
		runAt:        schedule.Next(time.Now().In(s.location)),
		cronExpr:     cronExpr,
		cronSchedule: schedule,
	})
}

func (s *scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; exists {
		delete(s.tasks, id)
		return true
	}
	return false
}

func (s *scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]*scheduledTask)
}

// List returns the scheduled entries ordered by next run time.
func (s *scheduler) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, Task{
			ID:       t.id,
			RunAt:    t.runAt,
			Interval: t.interval,
			Cron:     t.cronExpr,
			Created:  t.created,
			Runs:     t.runs,
		})
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].RunAt.Before(tasks[j].RunAt)
	})

	return tasks
}

func (s *scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler %q: %w", s.name, sperrors.ErrPoolRunning)
	}

	if s.ownPool {
		if err := s.pool.Start(); err != nil && !errors.Is(err, sperrors.ErrPoolRunning) {
			return err
		}
	}

	s.running = true
	s.done = make(chan struct{})
	s.loop.Add(1)
	go s.run(s.done)

	s.logger.Debug("scheduler started", zap.Duration("tick", s.tickInterval))
	return nil
}

// Stop halts the tick loop. The returned channel closes once the loop has
// exited and, for a scheduler that owns its pool, the pool has been joined.
func (s *scheduler) Stop() <-chan struct{} {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.done)
	}
	s.mu.Unlock()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		s.loop.Wait()
		if s.ownPool {
			s.pool.JoinAll()
		}
		s.logger.Debug("scheduler stopped")
	}()

	return stopped
}

func (s *scheduler) run(done <-chan struct{}) {
	defer s.loop.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.processReadyTasks(time.Now())
		}
	}
}

// processReadyTasks submits every entry due at now and reschedules or
// removes it.
func (s *scheduler) processReadyTasks(now time.Time) {
	s.mu.Lock()
	if len(s.tasks) == 0 {
		s.mu.Unlock()
		return
	}

	ready := make([]*scheduledTask, 0, len(s.tasks))
	for id, t := range s.tasks {
		if now.Before(t.runAt) {
			continue
		}
		ready = append(ready, t)
		t.runs++

		switch {
		case t.interval > 0:
			t.runAt = now.Add(t.interval)
		case t.cronSchedule != nil:
			t.runAt = t.cronSchedule.Next(now.In(s.location))
		default:
			delete(s.tasks, id)
		}
	}
	s.mu.Unlock()

	for _, t := range ready {
		if err := s.submit(t); err != nil {
			s.logger.Warn("submit failed", zap.Error(err))
		}
	}
}

// submit hands one run of t to the pool as a fresh task.
func (s *scheduler) submit(t *scheduledTask) error {
	if err := s.pool.SubmitTask(s.ctx, stealpool.NewTask(t.job)); err != nil {
		if s.metrics != nil {
			s.metrics.SchedulerSubmitErrors.WithLabelValues(s.name).Inc()
		}
		return sperrors.NewOperationError(moduleName, "submit", err).
			WithContext(fmt.Sprintf("task %q run %d", t.id, t.runs))
	}
	if s.metrics != nil {
		s.metrics.SchedulerRuns.WithLabelValues(s.name).Inc()
	}
	return nil
}
