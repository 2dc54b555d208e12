// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrFlowNotFound indicates a flow was not found by the given identifier.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrStoreUnavailable indicates the flow store could not be read.
	ErrStoreUnavailable = errors.New("flow store unavailable")
)

// FlowError wraps flow-related errors with additional context.
type FlowError struct {
	Op      string // Operation being performed (e.g., "FlowByID", "Save", "Delete")
	FlowID  string
	Err     error
	Message string
}

func (e *FlowError) Error() string {
	target := e.FlowID
	if target == "" {
		target = "<all>"
	}

	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for flow %s: %s (%v)", e.Op, target, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for flow %s: %v", e.Op, target, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

func (e *FlowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewFlowError creates a new flow error with context.
func NewFlowError(op, flowID string, err error) *FlowError {
	return &FlowError{
		Op:     op,
		FlowID: flowID,
		Err:    err,
	}
}

// Unavailable marks a read failure as ErrStoreUnavailable while keeping the cause.
func Unavailable(op string, err error) error {
	return &FlowError{Op: op, Err: fmt.Errorf("%w: %w", ErrStoreUnavailable, err)}
}

// IsFlowNotFound checks if an error indicates a flow was not found.
func IsFlowNotFound(err error) bool {
	return errors.Is(err, ErrFlowNotFound)
}

// IsStoreUnavailable checks if an error indicates the store could not be read.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
