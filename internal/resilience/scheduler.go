package resilience

import (
	"sync"
	"time"
)

// Clock abstracts time so delayed tasks can be tested without real sleeps.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns a Clock backed by the system clock.
func RealClock() Clock { return realClock{} }

// Scheduler runs tasks after a delay. Each task runs on its own goroutine,
// so tasks scheduled concurrently never block one another.
type Scheduler struct {
	clock Clock
	wg    sync.WaitGroup
}

// NewScheduler creates a scheduler using the given clock. A nil clock means
// the system clock.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = realClock{}
	}
	return &Scheduler{clock: clock}
}

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Schedule runs task after delay. A zero or negative delay still goes
// through the clock so tests observe every scheduled step.
func (s *Scheduler) Schedule(delay time.Duration, task func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-s.clock.After(delay)
		task()
	}()
}

// Wait blocks until all scheduled tasks have completed. Intended for tests
// and shutdown paths.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
