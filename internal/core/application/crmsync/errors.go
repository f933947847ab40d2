package crmsync

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/core/ports"
)

var (
	// ErrCRMSyncTransient marks failures worth retrying later.
	ErrCRMSyncTransient = errors.New("crm sync transient failure")

	// ErrCRMSyncPermanent marks failures that need a human.
	ErrCRMSyncPermanent = errors.New("crm sync permanent failure")
)

// TransientError wraps a CRM failure that the retry queue should absorb.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCRMSyncTransient, e.Op, e.Err)
}

func (e *TransientError) Unwrap() []error {
	return []error{ErrCRMSyncTransient, e.Err}
}

// PermanentError wraps a CRM failure that retrying cannot fix.
type PermanentError struct {
	Op  string
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCRMSyncPermanent, e.Op, e.Err)
}

func (e *PermanentError) Unwrap() []error {
	return []error{ErrCRMSyncPermanent, e.Err}
}

// classify turns a raw client error into a TransientError or PermanentError.
// Already classified errors pass through.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCRMSyncTransient) || errors.Is(err, ErrCRMSyncPermanent) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{Op: op, Err: err}
	}
	switch ports.CRMErrorKindOf(err) {
	case ports.CRMValidation, ports.CRMDuplicate:
		return &PermanentError{Op: op, Err: err}
	default:
		return &TransientError{Op: op, Err: err}
	}
}

// IsPermanent reports whether err was classified as permanent.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrCRMSyncPermanent)
}
