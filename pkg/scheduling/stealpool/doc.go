/*
Package stealpool provides a fixed-size worker pool that balances load by
work stealing.

Each worker owns a local deque. A task submitted from inside a running task
is pushed onto the submitting worker's deque; every other submission goes to
a shared FIFO queue. A worker looks for work in this order:

 1. its own deque, newest task first
 2. the shared queue
 3. the other workers' deques, oldest task first, starting with the next
    worker index and wrapping around once

and backs off when all three are empty: a few runtime.Gosched yields, then
short exponential sleeps capped at Config.MaxIdleSleep.

Basic usage:

	pool := stealpool.New(4)
	if err := pool.Start(); err != nil {
		return err
	}
	defer pool.JoinAll()

	fut := stealpool.Submit(ctx, pool, func(ctx context.Context) (int, error) {
		return 10 + 20, nil
	})
	sum, err := fut.Get(ctx)

Subtasks:

The context handed to a Work identifies the worker running it. Passing it
on keeps spawned subtasks in that worker's deque, where they run depth
first unless an idle sibling steals them:

	func fib(pool *stealpool.Pool, n int) stealpool.Work[int] {
		return func(ctx context.Context) (int, error) {
			if n < 2 {
				return n, nil
			}
			left := stealpool.Submit(ctx, pool, fib(pool, n-1))
			right, _ := fib(pool, n-2)(ctx)
			l, err := stealpool.Await(ctx, pool, left)
			return l + right, err
		}
	}

Await runs other queued tasks on the waiting worker until the future is
ready. Plain Future.Get blocks the worker instead.

Failures:

A callable's returned error or panic never escapes its worker. It is
delivered through the future and matches errors.ErrCallableFailure; panics
arrive as *errors.PanicError with the stack attached. A submitter that never
reads the future never observes the failure.

Stopping:

JoinAll flips the running flag and waits for every worker. Workers finish
the task in hand; Config.StopPolicy decides what happens to queued tasks:

  - StopAbandon (default): they stay queued and their futures stay pending
  - StopFailPending: their futures fail with errors.ErrPoolStopped
  - StopDrain: workers run them all before exiting

A joined pool can be started again.

Process-wide pool:

Unless built with the stealpool_multi tag, the package offers Current,
SetCurrent and Post for programs that use a single pool.
*/
package stealpool
