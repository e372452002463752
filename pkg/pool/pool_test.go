package pool

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		p, err := New(size)
		require.ErrorIs(t, err, ErrInvalidSize)
		require.Nil(t, p)
	}

	require.Panics(t, func() { MustNew(0) })
}

func TestNew_StartsAndJoinsAllWorkers(t *testing.T) {
	for _, size := range []int{1, 4, 16} {
		p := MustNew(size)
		require.Equal(t, size, p.Size())
		require.Equal(t, size, p.Stats().Workers)

		p.Shutdown()

		stats := p.Stats()
		require.Equal(t, 0, stats.Workers)
		require.True(t, stats.Closed)
		for _, w := range p.workers {
			require.Equal(t, WorkerTerminated, w.State())
		}
	}
}

func TestPool_TaskExecution(t *testing.T) {
	p := MustNew(2)

	var called int32
	require.NoError(t, p.Submit(func() { atomic.AddInt32(&called, 1) }))
	require.NoError(t, p.Submit(func() { atomic.AddInt32(&called, 1) }))

	// shutdown drains the queue before returning
	p.Shutdown()
	require.Equal(t, int32(2), atomic.LoadInt32(&called))
}

func TestPool_CounterReachesJobCount(t *testing.T) {
	const jobs = 10_000
	p := MustNew(8)

	var counter atomic.Int64
	for range jobs {
		require.NoError(t, p.Submit(func() { counter.Add(1) }))
	}
	p.Shutdown()

	require.Equal(t, int64(jobs), counter.Load())
	require.Equal(t, uint64(jobs), p.Stats().Completed)
}

func TestPool_EveryJobRunsExactlyOnce(t *testing.T) {
	const jobs = 500
	p := MustNew(4)

	runs := make([]atomic.Int32, jobs)
	for i := range jobs {
		require.NoError(t, p.Submit(func() {
			if i%50 == 0 {
				time.Sleep(time.Millisecond)
			}
			runs[i].Add(1)
		}))
	}
	p.Shutdown()

	for i := range runs {
		require.Equal(t, int32(1), runs[i].Load(), "job %d", i)
	}
}

func TestPool_NoSubmittedIndexIsLost(t *testing.T) {
	const jobs = 1000
	p := MustNew(8)

	var (
		mu  sync.Mutex
		log []int
	)
	want := make([]int, 0, jobs)
	for i := range jobs {
		want = append(want, i)
		require.NoError(t, p.Submit(func() {
			mu.Lock()
			defer mu.Unlock()
			log = append(log, i)
		}))
	}
	p.Shutdown()

	require.ElementsMatch(t, want, log)
}

func TestPool_SingleWorkerPreservesSubmissionOrder(t *testing.T) {
	p := MustNew(1)

	var order []int
	for i := range 100 {
		require.NoError(t, p.Submit(func() { order = append(order, i) }))
	}
	p.Shutdown()

	require.Len(t, order, 100)
	for i, v := range order {
		require.Equal(t, i, v)
	}
}

func TestPool_JobsRunInParallel(t *testing.T) {
	const size = 4
	p := MustNew(size)
	defer p.Shutdown()

	var started sync.WaitGroup
	started.Add(size)
	release := make(chan struct{})
	defer close(release)
	allRunning := make(chan struct{})

	for range size {
		require.NoError(t, p.Submit(func() {
			started.Done()
			<-release
		}))
	}

	go func() {
		started.Wait()
		close(allRunning)
	}()

	select {
	case <-allRunning:
	case <-time.After(time.Second):
		t.Fatal("jobs did not run concurrently")
	}
	require.Equal(t, size, p.Stats().Executing)
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	p := MustNew(1)
	p.Shutdown()

	err := p.Submit(func() {})
	require.ErrorIs(t, err, ErrPoolClosed)

	ch, err := p.SubmitWithResult(func() {})
	require.ErrorIs(t, err, ErrPoolClosed)
	require.Nil(t, ch)
}

func TestPool_SubmitNilJob(t *testing.T) {
	p := MustNew(1)
	defer p.Shutdown()

	require.ErrorIs(t, p.Submit(nil), ErrNilJob)
	require.Equal(t, uint64(0), p.Stats().Submitted)
}

func TestPool_ShutdownEmptyPoolIsPrompt(t *testing.T) {
	p := MustNew(8)

	done := make(chan struct{})
	go func() {
		p.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("shutdown of idle pool did not return")
	}
}

func TestPool_ShutdownIsIdempotent(t *testing.T) {
	p := MustNew(4)

	var ran atomic.Int32
	for range 20 {
		require.NoError(t, p.Submit(func() {
			time.Sleep(time.Millisecond)
			ran.Add(1)
		}))
	}

	var wg sync.WaitGroup
	for range 5 {
		wg.Go(p.Shutdown)
	}
	wg.Wait()
	p.Shutdown()

	require.Equal(t, int32(20), ran.Load())
	select {
	case <-p.Done():
	default:
		t.Fatal("Done channel not closed after shutdown")
	}
}

func TestPool_CloseWaitsForLongTask(t *testing.T) {
	p := MustNew(1)

	var done int32
	require.NoError(t, p.Submit(func() {
		time.Sleep(50 * time.Millisecond)
		atomic.StoreInt32(&done, 1)
	}))

	// Shutdown should wait for the running task to finish
	p.Shutdown()
	require.Equal(t, int32(1), atomic.LoadInt32(&done))
}

func TestPool_ShutdownContextTimesOut(t *testing.T) {
	p := MustNew(1)

	release := make(chan struct{})
	require.NoError(t, p.Submit(func() { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.ShutdownContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.True(t, p.Closed())
	require.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)

	close(release)
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("pool did not finish draining")
	}
}

func TestPool_PanicDoesNotShrinkPool(t *testing.T) {
	var handled atomic.Int32
	p := MustNew(1, WithPanicHandler(func(perr *PanicError) {
		handled.Add(1)
	}))

	require.NoError(t, p.Submit(func() { panic("boom") }))

	var ran atomic.Bool
	require.NoError(t, p.Submit(func() { ran.Store(true) }))
	p.Shutdown()

	require.True(t, ran.Load())
	require.Equal(t, int32(1), handled.Load())

	stats := p.Stats()
	require.Equal(t, uint64(1), stats.Panicked)
	require.Equal(t, uint64(1), stats.Completed)
}

func TestPool_WorkerCountSurvivesRepeatedPanics(t *testing.T) {
	p := MustNew(3)
	defer p.Shutdown()

	for range 30 {
		require.NoError(t, p.Submit(func() { panic(errors.New("job failed")) }))
	}

	ch, err := p.SubmitWithResult(func() {})
	require.NoError(t, err)
	require.NoError(t, <-ch)

	require.Eventually(t, func() bool {
		return p.Stats().Panicked == 30
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, 3, p.Stats().Workers)
}

func TestPool_PanickingHandlerIsContained(t *testing.T) {
	p := MustNew(1, WithPanicHandler(func(*PanicError) { panic("handler") }))

	require.NoError(t, p.Submit(func() { panic("job") }))
	ch, err := p.SubmitWithResult(func() {})
	require.NoError(t, err)
	require.NoError(t, <-ch)

	p.Shutdown()
	require.Equal(t, uint64(1), p.Stats().Panicked)
}

func TestPool_GoexitDoesNotLoseQueuedJobs(t *testing.T) {
	p := MustNew(1)

	require.NoError(t, p.Submit(func() { runtime.Goexit() }))

	var ran atomic.Int32
	for range 3 {
		require.NoError(t, p.Submit(func() { ran.Add(1) }))
	}
	p.Shutdown()

	require.Equal(t, int32(3), ran.Load())
	stats := p.Stats()
	require.Equal(t, uint64(1), stats.Exited)
	require.Equal(t, uint64(3), stats.Completed)
	require.Zero(t, stats.Pending)
	require.Equal(t, WorkerTerminated, p.workers[0].State())
}

func TestPool_GoexitReportsResultAndKeepsWorkers(t *testing.T) {
	p := MustNew(2)
	defer p.Shutdown()

	ch, err := p.SubmitWithResult(func() { runtime.Goexit() })
	require.NoError(t, err)

	select {
	case jobErr := <-ch:
		require.ErrorIs(t, jobErr, ErrJobExited)
	case <-time.After(time.Second):
		t.Fatal("result not delivered for exited job")
	}
	_, open := <-ch
	require.False(t, open)

	require.Equal(t, 2, p.Stats().Workers)

	ch, err = p.SubmitWithResult(func() {})
	require.NoError(t, err)
	require.NoError(t, <-ch)
}

func TestPool_GoexitInPanicHandler(t *testing.T) {
	p := MustNew(1, WithPanicHandler(func(*PanicError) { runtime.Goexit() }))
	defer p.Shutdown()

	ch, err := p.SubmitWithResult(func() { panic("job") })
	require.NoError(t, err)

	var perr *PanicError
	require.ErrorAs(t, <-ch, &perr)

	ch, err = p.SubmitWithResult(func() {})
	require.NoError(t, err)
	require.NoError(t, <-ch)

	stats := p.Stats()
	require.Equal(t, 1, stats.Workers)
	require.Equal(t, uint64(1), stats.Panicked)
	require.Zero(t, stats.Exited)
}

func TestPool_CloseFromInsideJob(t *testing.T) {
	p := MustNew(2)

	var ran atomic.Int32
	release := make(chan struct{})
	require.NoError(t, p.Submit(func() { <-release }))
	require.NoError(t, p.Submit(func() {
		p.Close()
		ran.Add(1)
	}))

	require.Eventually(t, p.Closed, time.Second, 5*time.Millisecond)
	require.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)

	close(release)
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("pool did not stop after Close from a job")
	}

	p.Shutdown()
	require.Equal(t, int32(1), ran.Load())
}

func TestPool_SubmitWithResult(t *testing.T) {
	p := MustNew(2)
	defer p.Shutdown()

	t.Run("nil on success", func(t *testing.T) {
		var value int
		ch, err := p.SubmitWithResult(func() { value = 42 })
		require.NoError(t, err)

		require.NoError(t, <-ch)
		require.Equal(t, 42, value)

		_, open := <-ch
		require.False(t, open)
	})

	t.Run("panic error on panic", func(t *testing.T) {
		cause := errors.New("broken invariant")
		ch, err := p.SubmitWithResult(func() { panic(cause) })
		require.NoError(t, err)

		jobErr := <-ch
		var perr *PanicError
		require.ErrorAs(t, jobErr, &perr)
		require.ErrorIs(t, jobErr, cause)
		require.Equal(t, cause, perr.Value)
		require.NotEmpty(t, perr.Stack)
		require.Contains(t, perr.Error(), "broken invariant")
	})

	t.Run("non error panic value", func(t *testing.T) {
		ch, err := p.SubmitWithResult(func() { panic(7) })
		require.NoError(t, err)

		var perr *PanicError
		require.ErrorAs(t, <-ch, &perr)
		require.Nil(t, perr.Unwrap())
		require.Equal(t, 7, perr.Value)
	})
}

func TestPool_BoundedQueueBlocksSubmit(t *testing.T) {
	p := MustNew(1, WithQueueCapacity(1))

	release := make(chan struct{})
	running := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		close(running)
		<-release
	}))
	<-running

	// fills the single queue slot
	require.NoError(t, p.Submit(func() {}))

	submitted := make(chan error, 1)
	go func() {
		submitted <- p.Submit(func() {})
	}()

	select {
	case err := <-submitted:
		t.Fatalf("submit returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-submitted:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("submit stayed blocked after queue drained")
	}

	p.Shutdown()
	require.Equal(t, uint64(3), p.Stats().Completed)
}

func TestPool_BoundedQueueRejectsBlockedSubmitOnShutdown(t *testing.T) {
	p := MustNew(1, WithQueueCapacity(1))

	release := make(chan struct{})
	running := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		close(running)
		<-release
	}))
	<-running
	require.NoError(t, p.Submit(func() {}))

	submitted := make(chan error, 1)
	go func() {
		submitted <- p.Submit(func() {})
	}()
	time.Sleep(20 * time.Millisecond)

	go p.Shutdown()

	select {
	case err := <-submitted:
		require.ErrorIs(t, err, ErrPoolClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked submit was not released by shutdown")
	}

	close(release)
	<-p.Done()
	require.Equal(t, uint64(2), p.Stats().Completed)
}

func TestPool_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test")
	p := MustNew(2, WithMetrics(m))

	require.Equal(t, float64(2), testutil.ToFloat64(m.WorkersAlive))

	for range 5 {
		require.NoError(t, p.Submit(func() {}))
	}
	require.NoError(t, p.Submit(func() { panic("boom") }))
	require.NoError(t, p.Submit(func() { runtime.Goexit() }))
	p.Shutdown()
	require.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)

	require.Equal(t, float64(7), testutil.ToFloat64(m.JobsSubmitted))
	require.Equal(t, float64(1), testutil.ToFloat64(m.JobsExited))
	require.Equal(t, float64(5), testutil.ToFloat64(m.JobsCompleted))
	require.Equal(t, float64(1), testutil.ToFloat64(m.JobsPanicked))
	require.Equal(t, float64(1), testutil.ToFloat64(m.JobsRejected))
	require.Equal(t, float64(0), testutil.ToFloat64(m.JobsPending))
	require.Equal(t, float64(0), testutil.ToFloat64(m.WorkersAlive))
	require.Equal(t, 1, testutil.CollectAndCount(m.JobDuration))
}

type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.record(msg) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record(msg) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record(msg) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record(msg) }

func TestPool_LogsLifecycle(t *testing.T) {
	logger := &recordingLogger{}
	p := MustNew(2, WithLogger(logger))

	require.NoError(t, p.Submit(func() { panic("boom") }))
	p.Shutdown()

	logger.mu.Lock()
	defer logger.mu.Unlock()
	require.Contains(t, logger.messages, "Pool started")
	require.Contains(t, logger.messages, "Job panicked")
	require.Contains(t, logger.messages, "Shutting down worker")
	require.Contains(t, logger.messages, "Pool stopped")
}
