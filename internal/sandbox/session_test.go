package sandbox

import (
	"errors"
	"testing"
)

func TestSessionHappyPath(t *testing.T) {
	s := NewSession()
	if s.State() != StateUninitialized {
		t.Fatalf("expected uninitialized, got %s", s.State())
	}

	steps := []State{
		StateCreating, StateImporting, StateReady,
		StateExecuting, StateReady,
		StateTearingDown, StateClosed,
	}
	for _, to := range steps {
		if err := s.Transition(to); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}
}

func TestSessionRejectsInvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		path []State
		to   State
	}{
		{"uninitialized cannot execute", nil, StateExecuting},
		{"uninitialized cannot be ready", nil, StateReady},
		{"creating cannot execute", []State{StateCreating}, StateExecuting},
		{"closed is terminal", []State{StateCreating, StateTearingDown, StateClosed}, StateCreating},
		{"failed only tears down", []State{StateCreating, StateFailed}, StateReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession()
			for _, st := range tt.path {
				if err := s.Transition(st); err != nil {
					t.Fatalf("setup transition to %s: %v", st, err)
				}
			}

			err := s.Transition(tt.to)
			if err == nil {
				t.Fatalf("expected transition to %s to fail", tt.to)
			}
			var stateErr *StateError
			if !errors.As(err, &stateErr) {
				t.Fatalf("expected StateError, got %T", err)
			}
			if len(tt.path) > 0 && s.State() != tt.path[len(tt.path)-1] {
				t.Fatalf("state changed on rejected transition: %s", s.State())
			}
		})
	}
}

func TestSessionFailureAbsorbsFromAnyActivePhase(t *testing.T) {
	for _, from := range []State{StateCreating, StateImporting, StateExecuting} {
		s := NewSession()
		_ = s.Transition(StateCreating)
		if from != StateCreating {
			_ = s.Transition(StateImporting)
		}
		if from == StateExecuting {
			_ = s.Transition(StateReady)
			_ = s.Transition(StateExecuting)
		}

		if err := s.Transition(StateFailed); err != nil {
			t.Fatalf("failure from %s: %v", from, err)
		}
		if err := s.Transition(StateTearingDown); err != nil {
			t.Fatalf("teardown after failure from %s: %v", from, err)
		}
	}
}
