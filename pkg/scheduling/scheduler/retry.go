package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	sperrors "github.com/vnykmshr/stealpool/pkg/common/errors"
)

// RetryOptions configures Retry. Zero values fall back to the
// backoff.ExponentialBackOff defaults.
type RetryOptions struct {
	// MaxTries bounds the number of attempts. Zero means no limit.
	MaxTries uint

	InitialInterval time.Duration
	MaxInterval     time.Duration

	// MaxElapsedTime bounds the total time spent retrying.
	MaxElapsedTime time.Duration

	// AttemptTimeout bounds a single attempt. An attempt that runs out of
	// time fails with errors.ErrTimeout and is retried.
	AttemptTimeout time.Duration

	// OnRetry is called after each failed attempt with the delay before the
	// next one.
	OnRetry func(err error, next time.Duration)
}

// Retry wraps job so that a failed run is retried with exponential backoff
// inside the same pool task. Failures that errors.IsRetryable rejects stop
// the retries at once, as does backoff.Permanent(err) returned from job.
// Retrying stops when ctx is done.
func Retry(job Job, opts RetryOptions) Job {
	return func(ctx context.Context) error {
		b := backoff.NewExponentialBackOff()
		if opts.InitialInterval > 0 {
			b.InitialInterval = opts.InitialInterval
		}
		if opts.MaxInterval > 0 {
			b.MaxInterval = opts.MaxInterval
		}

		retryOpts := []backoff.RetryOption{backoff.WithBackOff(b)}
		if opts.MaxTries > 0 {
			retryOpts = append(retryOpts, backoff.WithMaxTries(opts.MaxTries))
		}
		if opts.MaxElapsedTime > 0 {
			retryOpts = append(retryOpts, backoff.WithMaxElapsedTime(opts.MaxElapsedTime))
		}
		if opts.OnRetry != nil {
			retryOpts = append(retryOpts, backoff.WithNotify(opts.OnRetry))
		}

		_, err := backoff.Retry(ctx, func() (struct{}, error) {
			err := attempt(ctx, job, opts.AttemptTimeout)
			if err != nil && !sperrors.IsRetryable(err) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}, retryOpts...)
		return err
	}
}

func attempt(ctx context.Context, job Job, timeout time.Duration) error {
	if timeout <= 0 {
		return job(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := job(attemptCtx)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("attempt exceeded %v: %w: %w", timeout, sperrors.ErrTimeout, err)
	}
	return err
}
