package session

import "sync"

// State describes the current authentication state of the storefront session.
type State struct {
	Authenticated bool
	UserID        string
}

// Signal holds the current session state and notifies subscribers on change.
// The auth subsystem owns writes; the synchronization engines subscribe to
// drive their guest/authenticated mode transitions.
type Signal struct {
	mu    sync.Mutex
	state State
	subs  map[int]func(State)
	next  int
}

// NewSignal creates a signal starting in the given state.
func NewSignal(initial State) *Signal {
	return &Signal{
		state: initial,
		subs:  make(map[int]func(State)),
	}
}

// Current returns the current session state.
func (s *Signal) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Set updates the state and notifies subscribers if it changed. Subscribers
// are invoked synchronously, one at a time, in no particular order; a
// subscriber must not call Set from its callback.
func (s *Signal) Set(state State) {
	s.mu.Lock()
	if s.state == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// Subscribe registers a change callback and returns an unsubscribe function.
func (s *Signal) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
