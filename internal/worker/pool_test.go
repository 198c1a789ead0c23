package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countJob struct {
	counter *atomic.Int32
	fail    bool
}

type countResult struct {
	err error
}

func (r *countResult) GetError() error { return r.err }

func (j *countJob) Execute(context.Context) Result {
	j.counter.Add(1)
	if j.fail {
		return &countResult{err: errors.New("job failed")}
	}
	return &countResult{}
}

func TestPool_ExecutesAllJobs(t *testing.T) {
	pool := NewPool(3)
	pool.Start(context.Background())

	var counter atomic.Int32
	for i := 0; i < 10; i++ {
		pool.Submit(context.Background(), &countJob{counter: &counter})
	}

	results := pool.Wait()

	if counter.Load() != 10 {
		t.Errorf("Expected 10 executions, got %d", counter.Load())
	}
	if len(results) != 10 {
		t.Errorf("Expected 10 results, got %d", len(results))
	}
}

func TestPool_CollectsErrors(t *testing.T) {
	pool := NewPool(2)
	pool.Start(context.Background())

	var counter atomic.Int32
	pool.Submit(context.Background(), &countJob{counter: &counter})
	pool.Submit(context.Background(), &countJob{counter: &counter, fail: true})

	results := pool.Wait()

	failures := 0
	for _, r := range results {
		if r.GetError() != nil {
			failures++
		}
	}
	if failures != 1 {
		t.Errorf("Expected 1 failed result, got %d", failures)
	}
}

func TestPool_ZeroWorkersDefaultsToOne(t *testing.T) {
	pool := NewPool(0)
	pool.Start(context.Background())

	var counter atomic.Int32
	pool.Submit(context.Background(), &countJob{counter: &counter})
	pool.Wait()

	if counter.Load() != 1 {
		t.Errorf("Expected job executed on single fallback worker, got %d", counter.Load())
	}
}

func TestPool_ManyJobsSubmittedBeforeWait(t *testing.T) {
	// Far more jobs than the queue and result buffers hold together: results
	// must be drained while submission is still running or Submit wedges.
	const jobs = 50
	pool := NewPool(2)
	pool.Start(context.Background())

	var counter atomic.Int32
	done := make(chan []Result, 1)
	go func() {
		for i := 0; i < jobs; i++ {
			pool.Submit(context.Background(), &countJob{counter: &counter})
		}
		done <- pool.Wait()
	}()

	select {
	case results := <-done:
		if len(results) != jobs {
			t.Errorf("Expected %d results, got %d", jobs, len(results))
		}
		if counter.Load() != jobs {
			t.Errorf("Expected %d executions, got %d", jobs, counter.Load())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Expected all jobs to finish, submission stalled")
	}
}

type slowJob struct {
	dur time.Duration
}

func (j *slowJob) Execute(ctx context.Context) Result {
	select {
	case <-time.After(j.dur):
	case <-ctx.Done():
	}
	return &countResult{}
}

func TestPool_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(1)
	pool.Start(ctx)

	pool.Submit(ctx, &slowJob{dur: 10 * time.Second})
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected Wait to return promptly after cancellation")
	}
}
