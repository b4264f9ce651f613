// Package retry runs an operation under a bounded number of attempts, each
// raced against its own timeout.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	hclog "github.com/hashicorp/go-hclog"
)

var ErrTimeout = errors.New("operation timeout")

type Policy struct {
	MaxAttempts       int
	PerAttemptTimeout time.Duration
	InterAttemptDelay time.Duration
}

func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.PerAttemptTimeout <= 0 {
		return fmt.Errorf("per-attempt timeout must be positive, got %s", p.PerAttemptTimeout)
	}
	if p.InterAttemptDelay < 0 {
		return fmt.Errorf("inter-attempt delay must not be negative, got %s", p.InterAttemptDelay)
	}
	return nil
}

// ExhaustedError is returned once every attempt has failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Do returns the result of the first attempt that succeeds. A timed-out
// attempt is abandoned: its context is cancelled and anything it produces
// later is discarded.
func Do[T any](ctx context.Context, policy Policy, logger hclog.Logger, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := policy.Validate(); err != nil {
		return zero, err
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	var (
		result   T
		attempts int
		last     error
	)
	schedule := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.InterAttemptDelay), uint64(policy.MaxAttempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempts++
		value, err := attempt(ctx, policy.PerAttemptTimeout, op)
		if err != nil {
			last = err
			return err
		}
		result = value
		return nil
	}, schedule, func(err error, next time.Duration) {
		logger.Debug("attempt failed", "attempt", attempts, "max_attempts", policy.MaxAttempts, "retry_in", next, "error", err)
	})
	if err == nil {
		return result, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, fmt.Errorf("retry aborted after %d attempts: %w", attempts, ctxErr)
	}
	if last == nil {
		last = err
	}
	return zero, &ExhaustedError{Attempts: attempts, Last: last}
}

type outcome[T any] struct {
	value T
	err   error
}

func attempt[T any](ctx context.Context, timeout time.Duration, op func(context.Context) (T, error)) (T, error) {
	var zero T
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so an abandoned attempt can still finish without blocking.
	done := make(chan outcome[T], 1)
	go func() {
		value, err := op(attemptCtx)
		done <- outcome[T]{value: value, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case out := <-done:
		return out.value, out.err
	case <-timer.C:
		return zero, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
