// Package pool runs jobs on a fixed number of worker goroutines fed by a
// shared FIFO queue.
package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Job is a unit of work. It owns whatever state it closes over and runs
// exactly once on exactly one worker.
type Job func()

// Stats is a point-in-time snapshot of a pool.
type Stats struct {
	Size      int    `json:"size"`
	Workers   int    `json:"workers"`
	Idle      int    `json:"idle"`
	Executing int    `json:"executing"`
	Pending   int    `json:"pending"`
	Submitted uint64 `json:"submitted"`
	Completed uint64 `json:"completed"`
	Panicked  uint64 `json:"panicked"`
	Exited    uint64 `json:"exited"`
	Closed    bool   `json:"closed"`
}

// Pool is a fixed set of workers consuming one shared queue. Workers start
// in New and run until Close or Shutdown drains the queue. A Pool is safe
// for concurrent use.
type Pool struct {
	queue   *queue
	workers []*worker

	logger       Logger
	metrics      *Metrics
	panicHandler func(*PanicError)

	alive     atomic.Int32
	submitted atomic.Uint64
	completed atomic.Uint64
	panicked  atomic.Uint64
	exited    atomic.Uint64

	shutdownOnce sync.Once
	stopped      chan struct{}
}

// New starts a pool with size workers. It returns ErrInvalidSize when size
// is not positive; a pool without workers could never make progress.
func New(size int, opts ...Option) (*Pool, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	o := options{logger: nopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool{
		queue:        newQueue(o.queueCapacity),
		workers:      make([]*worker, 0, size),
		logger:       o.logger,
		metrics:      o.metrics,
		panicHandler: o.panicHandler,
		stopped:      make(chan struct{}),
	}

	p.queue.onEnqueue = p.jobQueued

	for id := range size {
		w := newWorker(id, p)
		p.workers = append(p.workers, w)
		p.alive.Add(1)
	}
	if p.metrics != nil {
		p.metrics.WorkersAlive.Set(float64(size))
	}
	for _, w := range p.workers {
		w.start()
	}

	p.logger.Info("Pool started", "workers", size, "queue_capacity", o.queueCapacity)
	return p, nil
}

// MustNew is like New but panics when size is not positive.
func MustNew(size int, opts ...Option) *Pool {
	p, err := New(size, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Submit queues job for execution and returns without waiting for it.
// After Shutdown has begun it returns ErrPoolClosed.
func (p *Pool) Submit(job Job) error {
	return p.submit(task{job: job})
}

// SubmitWithResult queues job and returns a channel that yields nil when
// the job returns, a *PanicError when it panics, or ErrJobExited when it
// calls runtime.Goexit. The channel is closed after that single value.
func (p *Pool) SubmitWithResult(job Job) (<-chan error, error) {
	result := make(chan error, 1)
	if err := p.submit(task{job: job, result: result}); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Pool) submit(t task) error {
	if err := p.queue.enqueue(t); err != nil {
		if errors.Is(err, ErrQueueClosed) {
			if p.metrics != nil {
				p.metrics.JobsRejected.Inc()
			}
			return ErrPoolClosed
		}
		return err
	}
	return nil
}

// jobQueued runs under the queue lock, before any worker can see the job.
func (p *Pool) jobQueued() {
	p.submitted.Add(1)
	if p.metrics != nil {
		p.metrics.JobsSubmitted.Inc()
		p.metrics.JobsPending.Inc()
	}
}

// Close stops accepting jobs and returns without waiting. Workers keep
// draining the queue in the background and Done is closed once every one
// of them has exited. Unlike Shutdown it may be called from inside a job or
// the panic handler.
func (p *Pool) Close() {
	p.shutdownOnce.Do(func() {
		p.logger.Info("Shutting down pool", "workers", len(p.workers), "pending", p.queue.len())
		p.queue.close()
		go p.join()
	})
}

// join waits for the workers in id order.
func (p *Pool) join() {
	for _, w := range p.workers {
		p.logger.Debug("Shutting down worker", "worker_id", w.id)
		<-w.done
	}

	p.logger.Info("Pool stopped",
		"completed", p.completed.Load(),
		"panicked", p.panicked.Load(),
		"exited", p.exited.Load(),
	)
	close(p.stopped)
}

// Shutdown stops accepting jobs, lets the workers drain every job queued
// so far, and waits for all of them to exit in id order. Repeated and
// concurrent calls wait for the same shutdown. A job must use Close or
// ShutdownContext instead, since Shutdown would wait for its own worker.
func (p *Pool) Shutdown() {
	p.Close()
	<-p.stopped
}

// ShutdownContext is Shutdown bounded by ctx. When ctx ends first the pool
// is already closed to new jobs and keeps draining in the background.
func (p *Pool) ShutdownContext(ctx context.Context) error {
	p.Close()

	select {
	case <-p.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel that is closed once every worker has exited after
// Close or Shutdown.
func (p *Pool) Done() <-chan struct{} {
	return p.stopped
}

// Closed reports whether the pool stopped accepting jobs.
func (p *Pool) Closed() bool {
	return p.queue.isClosed()
}

// Size returns the number of workers the pool was created with.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Stats returns a snapshot of worker states and job counters. Fields are
// read one by one, so a snapshot taken while jobs run may be slightly skewed.
func (p *Pool) Stats() Stats {
	s := Stats{
		Size:      len(p.workers),
		Workers:   int(p.alive.Load()),
		Pending:   p.queue.len(),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
		Exited:    p.exited.Load(),
		Closed:    p.queue.isClosed(),
	}
	for _, w := range p.workers {
		switch w.State() {
		case WorkerIdle:
			s.Idle++
		case WorkerExecuting:
			s.Executing++
		}
	}
	return s
}

func (p *Pool) jobStarted(w *worker) {
	p.logger.Debug("Worker got a job, executing", "worker_id", w.id)
	if p.metrics != nil {
		p.metrics.JobsPending.Dec()
	}
}

func (p *Pool) jobFinished(w *worker, elapsed time.Duration, perr *PanicError) {
	if p.metrics != nil {
		p.metrics.JobDuration.Observe(elapsed.Seconds())
	}

	if perr == nil {
		p.completed.Add(1)
		if p.metrics != nil {
			p.metrics.JobsCompleted.Inc()
		}
		return
	}

	p.panicked.Add(1)
	if p.metrics != nil {
		p.metrics.JobsPanicked.Inc()
	}
	p.logger.Error("Job panicked",
		"worker_id", w.id,
		"panic", perr.Value,
		"stack", string(perr.Stack),
	)
	if p.panicHandler != nil {
		p.callPanicHandler(w, perr)
	}
}

func (p *Pool) jobExited(w *worker, elapsed time.Duration) {
	p.exited.Add(1)
	if p.metrics != nil {
		p.metrics.JobDuration.Observe(elapsed.Seconds())
		p.metrics.JobsExited.Inc()
	}
	p.logger.Error("Job exited without returning, replacing worker goroutine", "worker_id", w.id)
}

func (p *Pool) callPanicHandler(w *worker, perr *PanicError) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Panic handler panicked", "worker_id", w.id, "panic", r)
		}
	}()
	p.panicHandler(perr)
}

func (p *Pool) workerExited(w *worker) {
	w.state.Store(int32(WorkerTerminated))
	p.alive.Add(-1)
	if p.metrics != nil {
		p.metrics.WorkersAlive.Dec()
	}
	p.logger.Debug("Worker terminated", "worker_id", w.id)
}
