package translate

import (
	"errors"
	"fmt"
)

// ErrPoolClosed is returned by Submit once Shutdown has begun.
var ErrPoolClosed = errors.New("translate: pool is shut down")

// InvalidArgumentError reports a malformed submission: an empty batch or an
// Options value that violates its own invariants. It is returned
// synchronously and never reaches a worker.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return "translate: invalid argument: " + e.Reason
}

// EngineLoadError reports a failed engine initialization during pool
// construction. Construction is all-or-nothing: every engine loaded before
// the failure is closed and no partial worker set is left running.
type EngineLoadError struct {
	Device      string
	DeviceIndex int
	Worker      int
	Err         error
}

func (e *EngineLoadError) Error() string {
	return fmt.Sprintf("translate: loading engine for worker %d on %s:%d: %v",
		e.Worker, e.Device, e.DeviceIndex, e.Err)
}

func (e *EngineLoadError) Unwrap() error { return e.Err }

// InferenceError reports a failure while executing one batch. It is attached
// to that job's future only; sibling jobs, the worker and the pool keep
// running.
type InferenceError struct {
	JobID string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("translate: job %s: %v", e.JobID, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
