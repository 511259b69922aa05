package scheduler

import (
	"fmt"

	"github.com/pkg/errors"
)

// FatalError is raised to the AddFrame caller for the fatal
// conditions in spec §7: a task factory panicking, or a task's
// Execute returning a non-nil error. It carries a stack trace (via
// github.com/pkg/errors) for diagnostics, and the frame id of the
// task that failed. The Scheduler remains fully usable for the next
// AddFrame call after a FatalError is returned - only the frame/task
// that caused it is considered observably partial (spec §9).
type FatalError struct {
	FrameID uint64
	cause   error
}

func newFatalError(frameID uint64, cause error) *FatalError {
	return &FatalError{FrameID: frameID, cause: errors.WithStack(cause)}
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal error processing frame %d: %v", e.FrameID, e.cause)
}

func (e *FatalError) Unwrap() error { return e.cause }

// newPanicError converts a recovered panic value into a plain error,
// used by Scheduler.safeExecute to turn a misbehaving task's panic
// into the same fatal path as a returned error (spec §7).
func newPanicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("task execute panicked: %w", err)
	}
	return fmt.Errorf("task execute panicked: %v", r)
}
