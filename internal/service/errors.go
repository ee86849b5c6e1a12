package service

import (
	"errors"
	"fmt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError rejects malformed input before any state changes
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// OverAllocationError is returned when a user limit would push the total
// assigned above the assignable pool.
type OverAllocationError struct {
	Requested     int
	MaxAssignable int
}

func (e *OverAllocationError) Error() string {
	return fmt.Sprintf("daily limit %d exceeds maximum assignable %d", e.Requested, e.MaxAssignable)
}

// PoolUnderAllocationError is returned when a config change would shrink the
// assignable pool below what is already promised to users.
type PoolUnderAllocationError struct {
	Key           string
	Value         int
	NewPool       int
	TotalAssigned int64
}

func (e *PoolUnderAllocationError) Error() string {
	return fmt.Sprintf("setting %s to %d gives an assignable pool of %d, below the %d already assigned",
		e.Key, e.Value, e.NewPool, e.TotalAssigned)
}

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// InternalLedgerError wraps a storage failure hit while evaluating admission
type InternalLedgerError struct {
	Op  string
	Err error
}

func (e *InternalLedgerError) Error() string {
	return fmt.Sprintf("usage ledger %s: %v", e.Op, e.Err)
}

func (e *InternalLedgerError) Unwrap() error {
	return e.Err
}
