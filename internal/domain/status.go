package domain

import "fmt"

// Status is the lifecycle state shared by transactions and bill payments.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// pending is the only state with outgoing edges.
var statusTransitions = map[Status][]Status{
	StatusPending: {StatusCompleted, StatusFailed, StatusCancelled},
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether s can no longer change.
func (s Status) IsTerminal() bool {
	return s.IsValid() && len(statusTransitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidStatusTransition when s cannot move to next.
func (s Status) ValidateTransition(next Status) error {
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, s, next)
	}
	return nil
}
