package stealpool

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/stealpool/pkg/common/validation"
	"github.com/vnykmshr/stealpool/pkg/metrics"
)

const (
	moduleName = "stealpool"

	defaultName         = "default"
	defaultIdleSpins    = 64
	defaultMaxIdleSleep = time.Millisecond
	minIdleSleep        = 10 * time.Microsecond
)

// StopPolicy decides what JoinAll does with tasks still queued when the
// workers stop.
type StopPolicy int

const (
	// StopAbandon leaves queued tasks in place. Their futures stay
	// unfulfilled; they run if the pool is started again.
	StopAbandon StopPolicy = iota

	// StopFailPending removes queued tasks and fails their futures with
	// errors.ErrPoolStopped. This includes tasks queued on a pool that was
	// never started.
	StopFailPending

	// StopDrain keeps workers running until every queue is empty.
	StopDrain
)

func (s StopPolicy) String() string {
	switch s {
	case StopAbandon:
		return "abandon"
	case StopFailPending:
		return "fail-pending"
	case StopDrain:
		return "drain"
	default:
		return "unknown"
	}
}

// ParseStopPolicy converts the String form of a policy back to its value.
func ParseStopPolicy(s string) (StopPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abandon":
		return StopAbandon, nil
	case "fail-pending":
		return StopFailPending, nil
	case "drain":
		return StopDrain, nil
	}
	return 0, fmt.Errorf("unknown stop policy %q", s)
}

// Result describes one task execution. It is passed to OnTaskComplete.
type Result struct {
	// TaskID identifies the executed task
	TaskID uint64

	// Error is the task's failure, if any
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// WorkerID identifies which worker executed the task
	WorkerID int

	// Stolen is true if the worker took the task from a sibling's deque
	Stolen bool
}

// Config holds configuration options for creating a pool.
type Config struct {
	// WorkerCount is the number of workers. Zero selects
	// runtime.GOMAXPROCS(0), with a minimum of 1.
	WorkerCount int

	// Name labels log lines and metrics. Defaults to "default".
	Name string

	// StopPolicy decides the fate of queued tasks at JoinAll.
	StopPolicy StopPolicy

	// IdleSpins is how many empty loop iterations a worker yields with
	// runtime.Gosched before it starts sleeping. Zero selects 64.
	IdleSpins int

	// MaxIdleSleep caps the exponential idle sleep of a worker that found
	// no work. It also bounds how long JoinAll waits for an idle worker.
	// Zero selects 1ms.
	MaxIdleSleep time.Duration

	// LockOSThread pins every worker goroutine to its own OS thread.
	LockOSThread bool

	// Logger receives pool diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger

	// Metrics enables Prometheus instrumentation when non-nil.
	Metrics *metrics.Registry

	// PanicHandler is called when a task panics, after the panic has been
	// converted into the task's error.
	PanicHandler func(task *Task, recovered interface{})

	// OnWorkerStart is called on the worker goroutine when it starts.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called on the worker goroutine when it exits.
	OnWorkerStop func(workerID int)

	// OnTaskStart is called before a task begins execution.
	OnTaskStart func(workerID int, task *Task)

	// OnTaskComplete is called after a task completes (success or failure).
	OnTaskComplete func(workerID int, result Result)
}

// DefaultWorkerCount returns the hardware parallelism hint, at least 1.
func DefaultWorkerCount() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 1
}

func (c Config) validate() error {
	if err := validation.ValidateNonNegative(moduleName, "WorkerCount", c.WorkerCount); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative(moduleName, "IdleSpins", c.IdleSpins); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeDuration(moduleName, "MaxIdleSleep", c.MaxIdleSleep); err != nil {
		return err
	}
	return validation.ValidateInRange(moduleName, "StopPolicy", int(c.StopPolicy), int(StopAbandon), int(StopDrain))
}

func (c Config) withDefaults() Config {
	if c.WorkerCount == 0 {
		c.WorkerCount = DefaultWorkerCount()
	}
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.IdleSpins == 0 {
		c.IdleSpins = defaultIdleSpins
	}
	if c.MaxIdleSleep == 0 {
		c.MaxIdleSleep = defaultMaxIdleSleep
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}
