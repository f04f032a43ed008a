package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Workbook-level errors: these fail the whole batch
	ErrEmptyWorkbook   = errors.New("workbook contains no sheets")
	ErrCorruptWorkbook = errors.New("workbook bytes could not be opened")
	ErrEmptySheet      = errors.New("sheet contains no rows")

	// Classification errors
	ErrClassifierUnavailable = errors.New("semantic classifier unavailable")

	// Orchestration errors
	ErrSheetNotFound     = errors.New("sheet not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrRetryPrecondition = errors.New("retry precondition failed")
	ErrBlobNotFound      = errors.New("stored workbook bytes not found")
	ErrPersistenceFailed = errors.New("persistence collaborator reported failure")
)

// NewRetryPreconditionError wraps ErrRetryPrecondition with a reason
func NewRetryPreconditionError(reason string) error {
	return fmt.Errorf("%w: %s", ErrRetryPrecondition, reason)
}

// NewSheetNotFoundError reports a sheet missing from a fresh listing
func NewSheetNotFoundError(name string) error {
	return fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}

// IsRetryPrecondition checks for retry precondition failures
func IsRetryPrecondition(err error) bool {
	return errors.Is(err, ErrRetryPrecondition)
}

// IsFatalWorkbook reports whether the error condemns the whole batch
func IsFatalWorkbook(err error) bool {
	return errors.Is(err, ErrEmptyWorkbook) || errors.Is(err, ErrCorruptWorkbook)
}
