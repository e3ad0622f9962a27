package scheduler

import (
	"context"
	"sync"
	"time"

	"harmonia/internal/logging"
)

// Task is one periodic unit of work. Errors are logged and swallowed;
// the trigger keeps firing on schedule.
type Task func(ctx context.Context) error

// Scheduler runs named tasks on independent intervals. Triggers fire
// independently and may interleave; callers serialize their own state.
type Scheduler struct {
	mu      sync.Mutex
	clock   Clock
	tasks   map[string]chan struct{}
	wg      sync.WaitGroup
	stopped bool
}

// New creates a scheduler on the given clock. A nil clock means wall
// clock.
func New(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	return &Scheduler{
		clock: clock,
		tasks: make(map[string]chan struct{}),
	}
}

// Every registers a task to run every interval. Duplicate names replace
// the prior registration.
func (s *Scheduler) Every(name string, interval time.Duration, task Task) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		logging.SchedulerError("cannot register %q: scheduler stopped", name)
		return
	}
	if prior, ok := s.tasks[name]; ok {
		close(prior)
	}
	stopCh := make(chan struct{})
	s.tasks[name] = stopCh
	s.wg.Add(1)
	s.mu.Unlock()

	logging.Scheduler("registered task %q every %v", name, interval)

	go s.loop(name, interval, task, stopCh)
}

func (s *Scheduler) loop(name string, interval time.Duration, task Task, stopCh chan struct{}) {
	defer s.wg.Done()

	for {
		select {
		case <-stopCh:
			return
		case <-s.clock.After(interval):
			s.runOne(name, task)
		}
	}
}

// runOne executes a single firing, isolating panics and errors so one
// bad cycle never stops the trigger or its siblings.
func (s *Scheduler) runOne(name string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			logging.SchedulerError("task %q panicked: %v", name, r)
		}
	}()

	if err := task(context.Background()); err != nil {
		logging.SchedulerError("task %q failed: %v", name, err)
	}
}

// TaskCount returns how many tasks are registered.
func (s *Scheduler) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Stop halts all tasks and waits for in-flight runs to finish.
// The scheduler cannot be reused afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for _, stopCh := range s.tasks {
		close(stopCh)
	}
	s.tasks = make(map[string]chan struct{})
	s.mu.Unlock()

	s.wg.Wait()
	logging.Scheduler("scheduler stopped")
}
