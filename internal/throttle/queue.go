// Package throttle runs tasks through a bounded queue with periodic pauses,
// keeping load on rate-limited providers predictable.
package throttle

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Policy configures a Queue.
type Policy struct {
	// Concurrency is the number of tasks allowed to run at once. Values below 1 mean 1.
	Concurrency int
	// PauseEvery inserts a pause after every N completed tasks. Zero disables pausing.
	PauseEvery int
	// Pause is the length of each pause.
	Pause time.Duration
}

// DefaultPolicy runs tasks one at a time and pauses 100ms after every third task.
func DefaultPolicy() Policy {
	return Policy{Concurrency: 1, PauseEvery: 3, Pause: 100 * time.Millisecond}
}

// Queue gates task execution behind a weighted semaphore.
type Queue struct {
	sem    *semaphore.Weighted
	policy Policy
	sleep  func(ctx context.Context, d time.Duration) error

	mu        sync.Mutex
	completed int
}

// New creates a Queue for policy.
func New(policy Policy) *Queue {
	if policy.Concurrency < 1 {
		policy.Concurrency = 1
	}
	return &Queue{
		sem:    semaphore.NewWeighted(int64(policy.Concurrency)),
		policy: policy,
		sleep:  sleepContext,
	}
}

// Do waits for a free slot, runs fn and applies the pause policy.
// The error of fn is returned as is. If ctx ends while waiting for a slot,
// fn is not run and the context error is returned.
func (q *Queue) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := q.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer q.sem.Release(1)

	err := fn(ctx)

	q.mu.Lock()
	q.completed++
	pause := q.policy.PauseEvery > 0 && q.policy.Pause > 0 && q.completed%q.policy.PauseEvery == 0
	q.mu.Unlock()

	if pause {
		// a cancelled pause just ends early; fn's result still stands
		_ = q.sleep(ctx, q.policy.Pause)
	}
	return err
}

// Completed returns the number of tasks that have run.
func (q *Queue) Completed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.completed
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
