package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryPolicy retries a failing call with a doubling delay and no jitter.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	// Sleep waits between attempts; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy is 3 attempts starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialDelay: time.Second}
}

// RetryError is returned after every attempt has failed.
type RetryError struct {
	Attempts int
	Last     error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("failed %d times: %v", e.Attempts, e.Last)
}

func (e *RetryError) Unwrap() error { return e.Last }

// Do runs op until it succeeds or the attempts are used up.
// The delay before attempt k+1 is InitialDelay * 2^(k-1).
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) (string, error)) (string, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var last error
	for i := 0; i < attempts; i++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		last = err
		if i == attempts-1 {
			break
		}
		delay := p.InitialDelay * time.Duration(1<<i)
		slog.WarnContext(ctx, "extraction attempt failed, retrying",
			"attempt", i+1, "max_attempts", attempts, "delay", delay, "error", err)
		if err := sleep(ctx, delay); err != nil {
			return "", &RetryError{Attempts: i + 1, Last: err}
		}
	}
	return "", &RetryError{Attempts: attempts, Last: last}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
