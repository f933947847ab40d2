package ihstatus

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is the sentinel behind InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid IH status transition")

	// ErrStaleState means another actor changed the status first. Reload and retry.
	ErrStaleState = errors.New("IH status changed concurrently")
)

// InvalidTransitionError names the precondition that was not met.
type InvalidTransitionError struct {
	From    Status
	To      Status
	Missing string
}

func NewInvalidTransitionError(from, to Status, missing string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to, Missing: missing}
}

func (e *InvalidTransitionError) Error() string {
	from := e.From.String()
	if from == "" {
		from = "UNSET"
	}
	return fmt.Sprintf("%s: %s -> %s: %s", ErrInvalidTransition, from, e.To, e.Missing)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}
