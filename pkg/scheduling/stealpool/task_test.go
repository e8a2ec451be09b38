package stealpool

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/vnykmshr/stealpool/internal/testutil"
	sperrors "github.com/vnykmshr/stealpool/pkg/common/errors"
)

func TestTaskExecutesOnce(t *testing.T) {
	var calls atomic.Int32
	task := NewTask(func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	testutil.AssertNoError(t, task.Execute(context.Background()))
	testutil.AssertErrorIs(t, task.Execute(context.Background()), sperrors.ErrInvalidTask)
	testutil.AssertEqual(t, calls.Load(), int32(1))
}

func TestEmptyTask(t *testing.T) {
	tests := []struct {
		name string
		task *Task
	}{
		{"zero value", &Task{}},
		{"nil pointer", nil},
		{"nil func", NewTask(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertErrorIs(t, tt.task.Execute(context.Background()), sperrors.ErrInvalidTask)
			testutil.AssertEqual(t, tt.task.ID(), uint64(0))
		})
	}
}

func TestTaskPropagatesFailure(t *testing.T) {
	boom := errors.New("boom")
	err := NewTask(func(ctx context.Context) error { return boom }).Execute(context.Background())

	testutil.AssertErrorIs(t, err, boom)
	testutil.AssertErrorIs(t, err, sperrors.ErrCallableFailure)
}

func TestTaskRecoversPanic(t *testing.T) {
	err := NewTask(func(ctx context.Context) error { panic("test panic") }).Execute(context.Background())

	var perr *sperrors.PanicError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *PanicError", err)
	}
	testutil.AssertEqual(t, perr.Value, interface{}("test panic"))
	testutil.AssertErrorIs(t, err, sperrors.ErrCallableFailure)
	if !strings.Contains(perr.Stack, "TestTaskRecoversPanic") {
		t.Errorf("stack should include the panicking test, got:\n%s", perr.Stack)
	}
}

func TestTaskIDsAreUnique(t *testing.T) {
	a := NewTask(func(context.Context) error { return nil })
	b := NewTask(func(context.Context) error { return nil })

	testutil.AssertNotEqual(t, a.ID(), uint64(0))
	testutil.AssertNotEqual(t, a.ID(), b.ID())
}

func TestBoundTaskFulfillsFuture(t *testing.T) {
	fut := newFuture[int]()
	task := newTask(&boundWork[int]{
		work: func(ctx context.Context) (int, error) { return 30, nil },
		fut:  fut,
	})

	testutil.AssertNoError(t, task.Execute(context.Background()))
	v, err := fut.Wait()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 30)
}

func TestAbandonedTaskFailsFuture(t *testing.T) {
	fut := newFuture[string]()
	task := newTask(&boundWork[string]{
		work: func(ctx context.Context) (string, error) { return "ran", nil },
		fut:  fut,
	})

	testutil.AssertEqual(t, task.abandon(sperrors.ErrPoolStopped), true)
	testutil.AssertEqual(t, task.abandon(sperrors.ErrPoolStopped), false)
	testutil.AssertErrorIs(t, task.Execute(context.Background()), sperrors.ErrInvalidTask)

	_, err := fut.Wait()
	testutil.AssertErrorIs(t, err, sperrors.ErrPoolStopped)
}
