package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// DefaultMaxAttempts is the number of consecutive throttled attempts allowed
// before an operation is reported as a terminal failure.
const DefaultMaxAttempts = 3

// DefaultSchedule is the escalating sleep applied after each throttled
// attempt: 30s after the first, 60s after the second, 120s after the third.
var DefaultSchedule = []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second}

// ExhaustedError reports that an operation kept hitting throttling signals
// for the full retry budget. Callers treat it as "skip this video, continue
// the batch".
type ExhaustedError struct {
	// Attempts is the number of throttled attempts made.
	Attempts int
	// Err is the throttling error from the final attempt.
	Err error
}

// Error returns a string representation of the exhausted error.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d rate-limited attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *ExhaustedError) Unwrap() error { return e.Err }

// Backoff retries an operation only when it fails with a throttling signal.
// Every other error propagates immediately after the first attempt: retry
// policy here is specific to rate limiting, not general faults.
type Backoff struct {
	// MaxAttempts is the retry budget. Defaults to DefaultMaxAttempts.
	MaxAttempts int

	// Schedule holds the sleep durations applied after throttled attempts
	// 1, 2, ... . The last entry repeats when attempts outnumber entries.
	// Defaults to DefaultSchedule.
	Schedule []time.Duration

	// IsThrottle classifies errors as throttling signals. Required.
	IsThrottle func(error) bool

	// sleep is injectable for tests.
	sleep func(context.Context, time.Duration) error
}

// NewBackoff creates a backoff controller with the default 30s/60s/120s
// schedule using the given throttle classifier.
func NewBackoff(isThrottle func(error) bool) *Backoff {
	return &Backoff{
		MaxAttempts: DefaultMaxAttempts,
		Schedule:    DefaultSchedule,
		IsThrottle:  isThrottle,
		sleep:       sleepCtx,
	}
}

// Do invokes op, sleeping and retrying on throttling signals. On success it
// returns nil. When the retry budget is exhausted it returns an
// *ExhaustedError wrapping the last throttling error.
func (b *Backoff) Do(ctx context.Context, op func(context.Context) error) error {
	maxAttempts := b.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	schedule := b.Schedule
	if len(schedule) == 0 {
		schedule = DefaultSchedule
	}
	sleep := b.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if b.IsThrottle == nil || !b.IsThrottle(err) {
			return err
		}
		lastErr = err

		idx := attempt - 1
		if idx >= len(schedule) {
			idx = len(schedule) - 1
		}
		if err := sleep(ctx, schedule[idx]); err != nil {
			return err
		}
	}

	return &ExhaustedError{Attempts: maxAttempts, Err: lastErr}
}
