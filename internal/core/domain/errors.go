package domain

import (
	"errors"
	"fmt"
)

// Caller-facing validation errors. The executor re-checks and can return any
// of these even after the snapshot validation passed.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountNotActive  = errors.New("account is not active")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCurrencyMismatch  = errors.New("currency mismatch")
	ErrSameAccount       = errors.New("source and destination accounts are the same")
	ErrInvalidAmount     = errors.New("transfer amount must be positive")
)

// ErrContention is returned when the atomic unit could not acquire both
// account locks in time or lost a serialization race. Transient; the caller
// may retry the whole operation, no partial state persists.
var ErrContention = errors.New("transfer contention")

var ErrTransactionNotFound = errors.New("transaction not found")

// PersistenceError wraps a failure to durably commit the atomic unit. Fatal
// for the request; everything has been rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
