// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/instaflow/pkg/persistence"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest      = errors.New("invalid request")
	ErrFlowNil             = errors.New("flow cannot be nil")
	ErrNodesRequired       = errors.New("flow must have at least one node")
	ErrTriggerNodeRequired = errors.New("flow must have exactly one trigger node")
	ErrMultipleTriggers    = errors.New("flow has more than one trigger node")
	ErrDuplicateNodeID     = errors.New("duplicate node id")
	ErrInvalidEdge         = errors.New("edge references an unknown node")
	ErrEdgeIntoTrigger     = errors.New("edge cannot target the trigger node")
	ErrCycleDetected       = errors.New("flow graph contains a cycle")
	ErrInvalidNode         = errors.New("invalid node")

	// ErrFlowNotFound is returned when a flow is not found.
	ErrFlowNotFound = persistence.ErrFlowNotFound
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrFlowNil) ||
		errors.Is(err, ErrNodesRequired) ||
		errors.Is(err, ErrTriggerNodeRequired) ||
		errors.Is(err, ErrMultipleTriggers) ||
		errors.Is(err, ErrDuplicateNodeID) ||
		errors.Is(err, ErrInvalidEdge) ||
		errors.Is(err, ErrEdgeIntoTrigger) ||
		errors.Is(err, ErrCycleDetected) ||
		errors.Is(err, ErrInvalidNode)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
