package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) (*Scheduler, *quartz.Mock, *Queue) {
	t.Helper()
	clock := quartz.NewMock(t)
	q := NewQueue(nil)
	return New(clock, q), clock, q
}

func advance(t *testing.T, clock *quartz.Mock, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock.Advance(d).MustWait(ctx)
}

func TestSchedulerRunsTaskThroughExecutor(t *testing.T) {
	s, clock, q := newTestScheduler(t)

	ran := 0
	task := s.After(100*time.Millisecond, func() { ran++ })
	require.True(t, task.Pending())

	advance(t, clock, 50*time.Millisecond)
	q.Drain()
	assert.Equal(t, 0, ran, "task must not run before its deadline")

	advance(t, clock, 50*time.Millisecond)
	assert.Equal(t, 0, ran, "task runs only when the executor drains")

	q.Drain()
	assert.Equal(t, 1, ran)
	assert.False(t, task.Pending())
	assert.False(t, task.Stop(), "stopping a task that ran reports false")
}

func TestSchedulerStopBeforeDeadline(t *testing.T) {
	s, clock, q := newTestScheduler(t)

	ran := false
	task := s.After(40*time.Millisecond, func() { ran = true })
	require.True(t, task.Stop())
	assert.False(t, task.Stop(), "second stop is a no-op")

	advance(t, clock, 40*time.Millisecond)
	q.Drain()
	assert.False(t, ran)
}

func TestSchedulerStopAfterTimerFiredBeforeRun(t *testing.T) {
	s, clock, q := newTestScheduler(t)

	ran := false
	task := s.After(10*time.Millisecond, func() { ran = true })
	advance(t, clock, 10*time.Millisecond)
	require.Equal(t, 1, q.Len(), "fired timer posts to the executor")

	require.True(t, task.Stop(), "a fired but unrun task can still be canceled")
	q.Drain()
	assert.False(t, ran)
}

func TestSchedulerZeroDelayKeepsOrder(t *testing.T) {
	s, _, q := newTestScheduler(t)

	var order []int
	for i := 0; i < 5; i++ {
		s.After(0, func() { order = append(order, i) })
	}
	assert.Empty(t, order, "zero delay still defers to the executor")

	q.Drain()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestSchedulerSameDeadlineRunsInSchedulingOrder(t *testing.T) {
	s, clock, q := newTestScheduler(t)

	var order []string
	s.After(20*time.Millisecond, func() { order = append(order, "a") })
	s.After(20*time.Millisecond, func() { order = append(order, "b") })
	s.After(20*time.Millisecond, func() { order = append(order, "c") })

	advance(t, clock, 20*time.Millisecond)
	q.Drain()
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestSchedulerTaskStoppedByEarlierTaskInSameBatch(t *testing.T) {
	s, clock, q := newTestScheduler(t)

	var second *Task
	secondRan := false
	s.After(5*time.Millisecond, func() { second.Stop() })
	second = s.After(5*time.Millisecond, func() { secondRan = true })

	advance(t, clock, 5*time.Millisecond)
	q.Drain()
	assert.False(t, secondRan)
}

func TestGroupStop(t *testing.T) {
	s, clock, q := newTestScheduler(t)
	g := s.NewGroup()

	ran := 0
	for i := 1; i <= 3; i++ {
		g.After(time.Duration(i)*10*time.Millisecond, func() { ran++ })
	}
	require.Equal(t, 3, g.Len())

	advance(t, clock, 10*time.Millisecond)
	q.Drain()
	assert.Equal(t, 1, ran)
	assert.Equal(t, 2, g.Len())

	assert.Equal(t, 2, g.Stop())
	assert.Equal(t, 0, g.Len())

	advance(t, clock, 10*time.Millisecond)
	advance(t, clock, 10*time.Millisecond)
	q.Drain()
	assert.Equal(t, 1, ran)
}

func TestQueueDrainRunsNestedPosts(t *testing.T) {
	q := NewQueue(nil)

	var order []string
	q.Post(func() {
		order = append(order, "outer")
		q.Post(func() { order = append(order, "inner") })
	})
	q.Post(func() { order = append(order, "second") })

	assert.Equal(t, 3, q.Drain())
	assert.Equal(t, []string{"outer", "second", "inner"}, order)
	assert.Equal(t, 0, q.Len())
}

func TestWakeQueueSignals(t *testing.T) {
	q, wake := NewWakeQueue()

	q.Post(func() {})
	q.Post(func() {})

	select {
	case <-wake:
	default:
		t.Fatal("expected a wake signal")
	}
	assert.Equal(t, 2, q.Drain())
}

func TestLoopRunAndDo(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	counter := 0
	for i := 0; i < 10; i++ {
		l.Post(func() { counter++ })
	}

	var seen int
	require.NoError(t, l.Do(context.Background(), func() { seen = counter }))
	assert.Equal(t, 10, seen)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
}
