// Package schedule runs a game instance's work on one cooperative thread.
// Executors serialize posted functions; the Scheduler turns clock timers into
// cancelable tasks delivered through an executor, so every state mutation of
// a game happens in one place, one step at a time.
package schedule

import (
	"context"
	"sync"
)

// Executor runs posted functions one at a time, in posting order, on the
// goroutine that owns the game state.
type Executor interface {
	Post(fn func())
}

// Queue is an Executor drained explicitly by its owner.
// Post is safe from any goroutine; Drain must only be called by the owner.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	notify  func()
}

// NewQueue creates a queue. notify, when non-nil, is invoked after every Post
// and must not block.
func NewQueue(notify func()) *Queue {
	return &Queue{notify: notify}
}

// NewWakeQueue creates a queue that signals a one-slot channel whenever work
// is posted. Bubble Tea models wait on the channel and drain on wake.
func NewWakeQueue() (*Queue, <-chan struct{}) {
	wake := make(chan struct{}, 1)
	q := NewQueue(func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	return q, wake
}

// Post appends fn to the queue.
func (q *Queue) Post(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	notify := q.notify
	q.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Drain runs queued functions, including those posted while draining, until
// the queue is empty. It returns how many functions ran.
func (q *Queue) Drain() int {
	ran := 0
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return ran
		}
		fn := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		fn()
		ran++
	}
}

// Len returns the number of functions waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Loop is a goroutine-backed Executor for headless game instances.
type Loop struct {
	queue *Queue
	wake  <-chan struct{}
}

// NewLoop creates a loop. Nothing runs until Run is called.
func NewLoop() *Loop {
	q, wake := NewWakeQueue()
	return &Loop{queue: q, wake: wake}
}

// Post schedules fn on the loop goroutine.
func (l *Loop) Post(fn func()) {
	l.queue.Post(fn)
}

// Run executes posted functions until ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.queue.Drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Do posts fn and blocks until it has run or ctx is done.
// It must not be called from the loop goroutine itself.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
