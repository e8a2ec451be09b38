package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// Common error types used across the stealpool library

var (
	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidTask indicates execution of an empty or already consumed task
	ErrInvalidTask = errors.New("invalid task")

	// ErrNotFound indicates that a lookup or predicate removal matched nothing
	ErrNotFound = errors.New("not found")

	// ErrEmptyStack indicates an operation that requires a non-empty stack
	ErrEmptyStack = errors.New("empty stack")

	// ErrCallableFailure marks a failure raised by a user-supplied callable
	ErrCallableFailure = errors.New("callable failed")

	// ErrPoolStopped indicates a task abandoned because its pool stopped
	ErrPoolStopped = errors.New("pool stopped")

	// ErrPoolRunning indicates Start on a pool that is already running
	ErrPoolRunning = errors.New("pool already running")
)

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation. Timeouts and stopped pools are
// retryable; validation errors, invalid tasks and panics are not. Any other
// error is treated as transient.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrPoolStopped):
		return true
	case IsValidationError(err), errors.Is(err, ErrInvalidTask):
		return false
	}
	var perr *PanicError
	return !errors.As(err, &perr)
}

// IsValidationError reports whether err is, or wraps, a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// ValidationError describes a rejected configuration value.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError without a hint.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint sets the hint and returns the same error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap returns ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// OperationError describes a failed operation of a module.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError wrapping cause.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext sets extra context and returns the same error for chaining.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// PanicError wraps a value recovered from a panicking callable together with
// the stack of the goroutine that panicked.
type PanicError struct {
	// Value is the original value passed to panic().
	Value interface{}

	// Stack is the goroutine stack trace at the point of panic.
	Stack string
}

// NewPanicError captures the current goroutine stack. Call it from the
// deferred function that recovered v.
func NewPanicError(v interface{}) *PanicError {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{
		Value: v,
		Stack: string(buf[:n]),
	}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Value, e.Stack)
}

// Is makes every PanicError match ErrCallableFailure.
func (e *PanicError) Is(target error) bool {
	return target == ErrCallableFailure
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// CallableFailure marks err as raised by a user callable. The original error
// stays reachable through errors.Is and errors.As. Panics are returned as-is
// since *PanicError already matches ErrCallableFailure.
func CallableFailure(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCallableFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCallableFailure, err)
}
