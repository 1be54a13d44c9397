package fetchcache

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultCleanupInterval is the background sweep period used when no
	// other interval is configured.
	DefaultCleanupInterval = 10 * time.Second

	// MinCleanupInterval is the smallest accepted sweep period.
	MinCleanupInterval = time.Millisecond
)

// ErrInvalidInterval is returned when a cleanup interval below
// MinCleanupInterval is requested. The running schedule is left untouched.
var ErrInvalidInterval = errors.New("fetchcache: invalid cleanup interval")

// sweeper drives the recurring store sweep on a dedicated goroutine.
//
// There is at most one schedule alive at any time: rescheduling cancels
// the previous goroutine before starting the next, under the same lock.
// A pass already running when its schedule is cancelled finishes on its
// own; the sweeping mutex keeps a tick from a newer schedule from
// starting a second pass alongside it, so sweep passes never overlap.
type sweeper struct {
	mu       sync.Mutex
	interval time.Duration
	halt     chan struct{}

	sweeping sync.Mutex
}

// start begins the schedule. It must only be called once, at construction;
// use reschedule afterwards.
func (s *sweeper) start(sweep func(), interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked(sweep, interval)
}

func (s *sweeper) startLocked(sweep func(), interval time.Duration) {
	halt := make(chan struct{})
	s.halt = halt
	s.interval = interval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-halt:
				return
			case <-ticker.C:
				s.sweeping.Lock()
				sweep()
				s.sweeping.Unlock()
			}
		}
	}()
}

// reschedule atomically replaces the current schedule with a new interval.
// Invalid intervals are rejected without disturbing the running schedule.
func (s *sweeper) reschedule(sweep func(), interval time.Duration) error {
	if interval < MinCleanupInterval {
		return fmt.Errorf("%w: %v (minimum %v)", ErrInvalidInterval, interval, MinCleanupInterval)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.halt != nil {
		close(s.halt)
		s.halt = nil
	}
	s.startLocked(sweep, interval)
	return nil
}

// stop cancels the schedule. Safe to call more than once.
func (s *sweeper) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.halt != nil {
		close(s.halt)
		s.halt = nil
	}
}

func (s *sweeper) currentInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}
