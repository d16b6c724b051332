// Package sandbox provisions disposable sandbox environments: an isolated
// namespace on the sandbox backend populated with sampled copies of the
// target database's tables, with guaranteed teardown.
package sandbox

import (
	"fmt"
	"sync"
)

// State is a sandbox session lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateCreating
	StateImporting
	StateReady
	StateExecuting
	StateTearingDown
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCreating:
		return "creating"
	case StateImporting:
		return "importing"
	case StateReady:
		return "ready"
	case StateExecuting:
		return "executing"
	case StateTearingDown:
		return "tearing_down"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// validTransitions lists the allowed next states from each state.
var validTransitions = map[State][]State{
	StateUninitialized: {StateCreating},
	StateCreating:      {StateImporting, StateFailed, StateTearingDown},
	StateImporting:     {StateReady, StateFailed, StateTearingDown},
	StateReady:         {StateExecuting, StateImporting, StateTearingDown},
	StateExecuting:     {StateReady, StateFailed, StateTearingDown},
	StateFailed:        {StateTearingDown},
	StateTearingDown:   {StateClosed},
	StateClosed:        {},
}

// StateError reports an operation attempted in a state that does not
// permit it.
type StateError struct {
	From State
	To   State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("invalid sandbox state transition %s -> %s", e.From, e.To)
}

// Session tracks the lifecycle state of one sandbox. All transitions are
// checked; an illegal transition returns a StateError and leaves the
// state unchanged.
type Session struct {
	mu    sync.Mutex
	state State
}

// NewSession returns a session in the uninitialized state.
func NewSession() *Session {
	return &Session{state: StateUninitialized}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transition moves the session to the given state if the transition is
// allowed from the current state.
func (s *Session) Transition(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, allowed := range validTransitions[s.state] {
		if allowed == to {
			s.state = to
			return nil
		}
	}
	return &StateError{From: s.state, To: to}
}
