package schedule

import (
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Scheduler delivers delayed tasks through an Executor. Tasks that become due
// together run in deadline order, ties broken by scheduling order.
type Scheduler struct {
	clock quartz.Clock
	exec  Executor

	mu  sync.Mutex
	seq uint64
	due []*Task
}

// New creates a scheduler. A nil clock uses the real wall clock.
func New(clock quartz.Clock, exec Executor) *Scheduler {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Scheduler{clock: clock, exec: exec}
}

// Clock returns the clock tasks are measured against.
func (s *Scheduler) Clock() quartz.Clock {
	return s.clock
}

// Post runs fn on the executor as soon as possible.
func (s *Scheduler) Post(fn func()) {
	s.exec.Post(fn)
}

// After runs fn on the executor once d has elapsed. A non-positive delay
// still defers fn to a later executor step.
func (s *Scheduler) After(d time.Duration, fn func()) *Task {
	return s.schedule(d, fn, nil)
}

func (s *Scheduler) schedule(d time.Duration, fn func(), g *Group) *Task {
	s.mu.Lock()
	s.seq++
	t := &Task{s: s, seq: s.seq, at: s.clock.Now().Add(d), fn: fn, group: g}
	s.mu.Unlock()

	if g != nil {
		g.add(t)
	}
	if d <= 0 {
		s.markDue(t)
		return t
	}

	timer := s.clock.AfterFunc(d, func() { s.markDue(t) })
	s.mu.Lock()
	t.timer = timer
	s.mu.Unlock()
	return t
}

func (s *Scheduler) markDue(t *Task) {
	s.mu.Lock()
	if t.stopped || t.fired {
		s.mu.Unlock()
		return
	}
	s.due = append(s.due, t)
	s.mu.Unlock()

	s.exec.Post(s.runDue)
}

func (s *Scheduler) runDue() {
	s.mu.Lock()
	batch := s.due
	s.due = nil
	s.mu.Unlock()

	sort.SliceStable(batch, func(i, j int) bool {
		if !batch[i].at.Equal(batch[j].at) {
			return batch[i].at.Before(batch[j].at)
		}
		return batch[i].seq < batch[j].seq
	})

	for _, t := range batch {
		s.mu.Lock()
		if t.stopped || t.fired {
			s.mu.Unlock()
			continue
		}
		t.fired = true
		s.mu.Unlock()

		if t.group != nil {
			t.group.remove(t)
		}
		t.fn()
	}
}

// Task is a scheduled function that can be canceled until it runs.
type Task struct {
	s     *Scheduler
	seq   uint64
	at    time.Time
	fn    func()
	group *Group

	// guarded by s.mu
	timer   *quartz.Timer
	stopped bool
	fired   bool
}

// Stop cancels the task. It reports false when the task already ran or was
// stopped. A task whose timer fired but which has not run yet is canceled.
func (t *Task) Stop() bool {
	if t == nil {
		return false
	}
	s := t.s
	s.mu.Lock()
	if t.stopped || t.fired {
		s.mu.Unlock()
		return false
	}
	t.stopped = true
	timer := t.timer
	s.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if t.group != nil {
		t.group.remove(t)
	}
	return true
}

// Pending reports whether the task is still waiting to run.
func (t *Task) Pending() bool {
	if t == nil {
		return false
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return !t.stopped && !t.fired
}

// Group tracks a set of tasks that are canceled together.
type Group struct {
	s     *Scheduler
	mu    sync.Mutex
	tasks map[*Task]struct{}
}

// NewGroup creates an empty task group on the scheduler.
func (s *Scheduler) NewGroup() *Group {
	return &Group{s: s, tasks: make(map[*Task]struct{})}
}

// After schedules fn like Scheduler.After and tracks it in the group.
func (g *Group) After(d time.Duration, fn func()) *Task {
	return g.s.schedule(d, fn, g)
}

// Len returns the number of tasks in the group that have not run.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tasks)
}

// Stop cancels every pending task in the group and returns how many were canceled.
func (g *Group) Stop() int {
	g.mu.Lock()
	tasks := make([]*Task, 0, len(g.tasks))
	for t := range g.tasks {
		tasks = append(tasks, t)
	}
	g.mu.Unlock()

	stopped := 0
	for _, t := range tasks {
		if t.Stop() {
			stopped++
		}
	}
	return stopped
}

func (g *Group) add(t *Task) {
	g.mu.Lock()
	g.tasks[t] = struct{}{}
	g.mu.Unlock()
}

func (g *Group) remove(t *Task) {
	g.mu.Lock()
	delete(g.tasks, t)
	g.mu.Unlock()
}
