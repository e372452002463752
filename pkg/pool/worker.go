package pool

import (
	"runtime/debug"
	"sync/atomic"
	"time"
)

// WorkerState is the lifecycle state of a single worker.
type WorkerState int32

const (
	WorkerIdle WorkerState = iota
	WorkerExecuting
	WorkerTerminated
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "IDLE"
	case WorkerExecuting:
		return "EXECUTING"
	case WorkerTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

type worker struct {
	id    int
	pool  *Pool
	state atomic.Int32
	done  chan struct{}
}

func newWorker(id int, p *Pool) *worker {
	return &worker{
		id:   id,
		pool: p,
		done: make(chan struct{}),
	}
}

func (w *worker) start() {
	go w.run()
}

func (w *worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

// run serves tasks until the queue is closed and drained. That is the only
// way a worker ends: a job that exits its goroutine is handed over to a
// replacement goroutine by process.
func (w *worker) run() {
	for {
		t, ok := w.pool.queue.dequeue()
		if !ok {
			w.pool.workerExited(w)
			close(w.done)
			return
		}
		w.process(t)
	}
}

func (w *worker) process(t task) {
	w.state.Store(int32(WorkerExecuting))
	w.pool.jobStarted(w)

	var (
		start    = time.Now()
		executed bool
		finished bool
		jobErr   error
	)
	defer func() {
		if finished {
			return
		}
		// The job, or the panic handler, called runtime.Goexit.
		if !executed {
			w.pool.jobExited(w, time.Since(start))
			jobErr = ErrJobExited
		}
		w.complete(t, jobErr)
		go w.run()
	}()

	perr := w.execute(t.job)
	executed = true
	if perr != nil {
		jobErr = perr
	}

	w.pool.jobFinished(w, time.Since(start), perr)
	w.complete(t, jobErr)
	finished = true
}

// complete delivers the outcome of t and marks the worker idle again.
func (w *worker) complete(t task, err error) {
	if t.result != nil {
		if err != nil {
			t.result <- err
		}
		close(t.result)
	}
	w.state.Store(int32(WorkerIdle))
}

// execute runs job and converts a panic into a PanicError so the worker
// loop keeps going.
func (w *worker) execute(job Job) (perr *PanicError) {
	defer func() {
		if r := recover(); r != nil {
			perr = &PanicError{
				WorkerID: w.id,
				Value:    r,
				Stack:    debug.Stack(),
			}
		}
	}()

	job()
	return nil
}
