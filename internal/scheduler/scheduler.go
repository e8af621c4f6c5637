// Package scheduler runs recurring work off an injectable clock so tests can
// drive time with a fake clock.
package scheduler

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cancel stops a registration. Once it returns, the callback will not run
// again. It must not be called from inside the callback.
type Cancel func()

// Scheduler registers callbacks that fire at a fixed interval.
type Scheduler interface {
	Every(interval time.Duration, fn func(now time.Time)) Cancel
}

// ClockScheduler is a Scheduler backed by a clockwork clock.
type ClockScheduler struct {
	clock clockwork.Clock
}

// New returns a ClockScheduler. A nil clock means the real clock.
func New(clock clockwork.Clock) *ClockScheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ClockScheduler{clock: clock}
}

// Clock returns the clock ticks are read from.
func (s *ClockScheduler) Clock() clockwork.Clock {
	return s.clock
}

// Every calls fn with the tick time every interval until the returned Cancel is called.
func (s *ClockScheduler) Every(interval time.Duration, fn func(now time.Time)) Cancel {
	ticker := s.clock.NewTicker(interval)
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		for {
			select {
			case <-done:
				return
			case now := <-ticker.Chan():
				// a tick racing with Cancel loses
				select {
				case <-done:
					return
				default:
				}
				fn(now)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
			<-stopped
		})
	}
}

var _ Scheduler = (*ClockScheduler)(nil)
