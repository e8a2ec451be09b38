//go:build !stealpool_multi

package stealpool

import (
	"context"
	"sync"
)

// The process-wide pool is compiled in unless the stealpool_multi build tag
// is set. Programs running several independent pools should build with
// -tags stealpool_multi and pass *Pool values explicitly.

var (
	currentMu sync.Mutex
	current   *Pool
)

// Current returns the process-wide pool, creating and starting one with
// DefaultWorkerCount workers on first use.
func Current() *Pool {
	currentMu.Lock()
	defer currentMu.Unlock()

	if current == nil {
		current = New(0)
		if err := current.Start(); err != nil {
			panic(err)
		}
	}
	return current
}

// SetCurrent installs p as the process-wide pool and returns the previous
// one, which the caller is responsible for joining. A nil p resets the
// accessor so the next Current call builds a fresh pool.
func SetCurrent(p *Pool) *Pool {
	currentMu.Lock()
	defer currentMu.Unlock()

	prev := current
	current = p
	return prev
}

// Post submits work to the process-wide pool.
func Post[T any](ctx context.Context, work Work[T]) *Future[T] {
	return Submit(ctx, Current(), work)
}
