package guard

import (
	"context"
	"fmt"
	"time"
)

// TimeoutError reports a task that exceeded its deadline, carrying whatever
// partial measurements the caller supplied. Recoverable: the caller decides
// pass/fail policy.
type TimeoutError struct {
	Task    string
	Suite   string
	Timeout time.Duration
	Partial *Partial
}

func (e *TimeoutError) Error() string {
	if e.Suite != "" {
		return fmt.Sprintf("task %q in suite %q timed out after %s", e.Task, e.Suite, e.Timeout)
	}
	return fmt.Sprintf("task %q timed out after %s", e.Task, e.Timeout)
}

// WithTimeout races fn against a deadline. A timeout <= 0 disables the race
// and fn is awaited directly. The deadline cancels fn's context, so a
// cooperative fn stops shortly after; a fn that ignores its context keeps
// running in the background, which the caller should treat as a leak.
// partial, if non-nil, supplies the measurements attached to the
// TimeoutError when the deadline fires first.
func WithTimeout(ctx context.Context, timeout time.Duration, taskName, suiteName string, fn func(ctx context.Context) error, partial func() *Partial) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(runCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-runCtx.Done():
		if ctx.Err() != nil {
			// The parent was cancelled, not our deadline.
			return ctx.Err()
		}
		terr := &TimeoutError{Task: taskName, Suite: suiteName, Timeout: timeout}
		if partial != nil {
			terr.Partial = partial()
		}
		return terr
	}
}
