package domain

import (
	"errors"
	"testing"
)

func TestStatus_Transitions(t *testing.T) {
	all := []Status{StatusPending, StatusCompleted, StatusFailed, StatusCancelled}

	for _, from := range all {
		for _, to := range all {
			want := from == StatusPending && to != StatusPending
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s -> %s: expected %v, got %v", from, to, want, got)
			}
		}
	}
}

func TestStatus_TerminalStatesAreImmutable(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusFailed, StatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
		if err := s.ValidateTransition(StatusPending); !errors.Is(err, ErrInvalidStatusTransition) {
			t.Errorf("expected ErrInvalidStatusTransition from %s, got %v", s, err)
		}
	}

	if StatusPending.IsTerminal() {
		t.Error("pending must not be terminal")
	}
	if Status("settled").IsValid() {
		t.Error("unknown status must be invalid")
	}
}
