package pool

import "sync"

// task is a queued job plus an optional completion channel.
type task struct {
	job    Job
	result chan<- error
}

// queue is a FIFO shared by all workers of a pool. Producers never block
// unless a capacity is set. Consumers hold the lock only while removing
// the head, never while the job runs.
type queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	tasks    []task
	capacity int
	closed   bool

	onEnqueue func()
}

func newQueue(capacity int) *queue {
	q := &queue{capacity: max(capacity, 0)}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// enqueue appends t at the tail. With a capacity it waits for room, and
// gives up with ErrQueueClosed if the queue closes meanwhile.
func (q *queue) enqueue(t task) error {
	if t.job == nil {
		return ErrNilJob
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && q.capacity > 0 && len(q.tasks) >= q.capacity {
		q.notFull.Wait()
	}
	if q.closed {
		return ErrQueueClosed
	}

	q.tasks = append(q.tasks, t)
	if q.onEnqueue != nil {
		q.onEnqueue()
	}
	q.notEmpty.Signal()
	return nil
}

// dequeue removes the head task, blocking until one is available. The
// second result is false only when the queue is closed and drained.
func (q *queue) dequeue() (task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.tasks) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if len(q.tasks) == 0 {
		return task{}, false
	}

	t := q.tasks[0]
	q.tasks[0] = task{}
	q.tasks = q.tasks[1:]
	if len(q.tasks) == 0 {
		q.tasks = nil
	}
	if q.capacity > 0 {
		q.notFull.Signal()
	}
	return t, true
}

// close marks the queue closed and wakes every waiter. It reports whether
// this call performed the transition.
func (q *queue) close() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
	return true
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *queue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
