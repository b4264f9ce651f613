package retry_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"hostbridge/internal/platform/retry"
)

func TestDoAlwaysFailingRunsExactlyMaxAttempts(t *testing.T) {
	t.Parallel()
	for _, n := range []int{1, 2, 4} {
		var calls atomic.Int32
		policy := retry.Policy{MaxAttempts: n, PerAttemptTimeout: time.Second, InterAttemptDelay: time.Millisecond}
		_, err := retry.Do(context.Background(), policy, nil, func(context.Context) (int, error) {
			calls.Add(1)
			return 0, errors.New("boom")
		})
		if int(calls.Load()) != n {
			t.Fatalf("max=%d: expected %d calls, got %d", n, n, calls.Load())
		}
		var exhausted *retry.ExhaustedError
		if !errors.As(err, &exhausted) {
			t.Fatalf("max=%d: expected exhausted error, got %v", n, err)
		}
		if exhausted.Attempts != n {
			t.Fatalf("max=%d: expected attempts %d, got %d", n, n, exhausted.Attempts)
		}
		msg := err.Error()
		if !strings.Contains(msg, "after "+strconv.Itoa(n)+" attempts") || !strings.Contains(msg, "boom") {
			t.Fatalf("max=%d: unexpected message %q", n, msg)
		}
	}
}

func TestDoReturnsFirstSuccessAndStops(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	policy := retry.Policy{MaxAttempts: 5, PerAttemptTimeout: time.Second, InterAttemptDelay: time.Millisecond}
	got, err := retry.Do(context.Background(), policy, nil, func(context.Context) (string, error) {
		n := calls.Add(1)
		if n < 3 {
			return "", errors.New("transient")
		}
		return "attempt-" + strconv.Itoa(int(n)), nil
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if got != "attempt-3" {
		t.Fatalf("expected result of attempt 3, got %q", got)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected no attempt after success, got %d calls", calls.Load())
	}
}

func TestDoTimedOutAttemptCountsAsFailureAndLateResultIsIgnored(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	release := make(chan struct{})
	policy := retry.Policy{MaxAttempts: 2, PerAttemptTimeout: 30 * time.Millisecond, InterAttemptDelay: 0}
	got, err := retry.Do(context.Background(), policy, nil, func(context.Context) (string, error) {
		n := calls.Add(1)
		if n == 1 {
			// Ignores cancellation and resolves after losing the race.
			<-release
			return "late", nil
		}
		return "second", nil
	})
	close(release)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if got != "second" {
		t.Fatalf("late completion must not win, got %q", got)
	}
}

func TestDoSingleAttemptTimeout(t *testing.T) {
	t.Parallel()
	policy := retry.Policy{MaxAttempts: 1, PerAttemptTimeout: 20 * time.Millisecond}
	_, err := retry.Do(context.Background(), policy, nil, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if !errors.Is(err, retry.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if !strings.Contains(err.Error(), "after 1 attempts") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestDoScenarioElapsedTime(t *testing.T) {
	t.Parallel()
	policy := retry.Policy{MaxAttempts: 3, PerAttemptTimeout: 100 * time.Millisecond, InterAttemptDelay: 500 * time.Millisecond}
	var calls atomic.Int32
	start := time.Now()
	_, err := retry.Do(context.Background(), policy, nil, func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-ctx.Done()
		return 0, errors.New("x")
	})
	elapsed := time.Since(start)
	if err == nil || !strings.Contains(err.Error(), "after 3 attempts") {
		t.Fatalf("unexpected error %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if elapsed < 3*100*time.Millisecond+2*500*time.Millisecond {
		t.Fatalf("finished too early: %s", elapsed)
	}
}

func TestDoRaisingScenarioReportsLastMessage(t *testing.T) {
	t.Parallel()
	policy := retry.Policy{MaxAttempts: 3, PerAttemptTimeout: 100 * time.Millisecond, InterAttemptDelay: 5 * time.Millisecond}
	_, err := retry.Do(context.Background(), policy, nil, func(context.Context) (int, error) {
		return 0, errors.New("x")
	})
	if err == nil || err.Error() != "operation failed after 3 attempts: x" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestDoStopsWhenContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	policy := retry.Policy{MaxAttempts: 10, PerAttemptTimeout: time.Second, InterAttemptDelay: 50 * time.Millisecond}
	_, err := retry.Do(ctx, policy, nil, func(context.Context) (int, error) {
		if calls.Add(1) == 2 {
			cancel()
		}
		return 0, errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if calls.Load() > 2 {
		t.Fatalf("expected no attempts after cancel, got %d", calls.Load())
	}
}

func TestDoRejectsInvalidPolicy(t *testing.T) {
	t.Parallel()
	_, err := retry.Do(context.Background(), retry.Policy{MaxAttempts: 0, PerAttemptTimeout: time.Second}, nil, func(context.Context) (int, error) {
		t.Fatalf("operation must not run")
		return 0, nil
	})
	if err == nil {
		t.Fatalf("expected policy error")
	}
}
