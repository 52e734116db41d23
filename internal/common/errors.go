// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("pattern store unavailable")

	// Input validation errors.
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidCorrection  = errors.New("invalid correction")
	ErrNoCorrections      = errors.New("no valid corrections submitted")
	ErrNoTransactions     = errors.New("no transactions to categorize")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsValidationError reports whether an error is a per-record input
// validation failure. Validation failures skip the offending record; they
// never abort a whole batch.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidTransaction) || errors.Is(err, ErrInvalidCorrection)
}
