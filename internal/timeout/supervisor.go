// Package timeout force-closes a session after a bounded inactivity
// window.
package timeout

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Supervisor schedules a single-shot timer measured from the most
// recent activity. Rearming cancels the prior timer; timers never
// accumulate, so at most one exists per session.
type Supervisor struct {
	window time.Duration
	fireFn func()

	mu    sync.Mutex
	timer *time.Timer
}

func New(window time.Duration, fireFn func()) (*Supervisor, error) {
	if window <= 0 {
		return nil, errors.New("window must be > 0")
	}
	if fireFn == nil {
		return nil, errors.New("fireFn must not be nil")
	}
	return &Supervisor{window: window, fireFn: fireFn}, nil
}

// Reset restarts the window from now. Also used to arm the timer the
// first time.
func (s *Supervisor) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.window, s.safeFire)
}

// Stop cancels any pending timer. Returns false if none was pending.
func (s *Supervisor) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer == nil {
		return false
	}
	stopped := s.timer.Stop()
	s.timer = nil
	return stopped
}

// Window reports the configured inactivity window.
func (s *Supervisor) Window() time.Duration {
	return s.window
}

func (s *Supervisor) safeFire() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("timeout fire panic recovered", "panic", r)
		}
	}()

	s.mu.Lock()
	s.timer = nil
	s.mu.Unlock()

	s.fireFn()
}
