package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize is returned by New when the requested worker count is not positive.
	ErrInvalidSize = errors.New("pool size must be greater than zero")

	// ErrPoolClosed is returned by Submit once Shutdown has begun.
	ErrPoolClosed = errors.New("pool is shut down")

	// ErrQueueClosed is returned by the queue when a job is pushed after close.
	ErrQueueClosed = errors.New("queue is closed")

	// ErrNilJob is returned when a nil job is submitted.
	ErrNilJob = errors.New("cannot submit nil job")

	// ErrJobExited is delivered for a job that ended its goroutine with
	// runtime.Goexit instead of returning.
	ErrJobExited = errors.New("job exited without returning")
)

// PanicError describes a job that panicked while a worker was executing it.
type PanicError struct {
	WorkerID int
	Value    any
	Stack    []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job panicked on worker %d: %v", e.WorkerID, e.Value)
}

// Unwrap exposes the panic value when the job panicked with an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
