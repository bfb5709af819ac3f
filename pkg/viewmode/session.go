package viewmode

import "sync"

// Session tracks the active strategy of one viewer and runs lifecycle hooks
// on switches. It is safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	current Strategy
}

// NewSession starts a session in initial, calling its enter hook.
func NewSession(initial Strategy) *Session {
	initial.OnViewModeEnter("")
	return &Session{current: initial}
}

// Current returns the active strategy.
func (s *Session) Current() Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Switch activates next and returns the previous strategy. Switching to the
// active mode is a no-op and runs no hooks.
func (s *Session) Switch(next Strategy) Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.current
	if prev.Mode() == next.Mode() {
		return prev
	}
	prev.OnViewModeExit(next.Mode())
	next.OnViewModeEnter(prev.Mode())
	s.current = next
	return prev
}
