// Package persistence provides standardized error types for persistence
// operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrPolicyNotFound indicates a policy was not found by id.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrTimerNotFound indicates a timer was not found by id.
	ErrTimerNotFound = errors.New("timer not found")

	// ErrWorkflowNotFound indicates a workflow was not found by id.
	ErrWorkflowNotFound = errors.New("workflow not found")
)

// StoreError wraps persistence errors with operation context.
type StoreError struct {
	Op     string // operation being performed (e.g. "ByID", "Save")
	Entity string // entity kind (e.g. "workflow", "timer")
	ID     string // entity id if applicable
	Err    error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
	}

	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for store errors.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a new store error with context.
func NewStoreError(op, entity, id string, err error) *StoreError {
	return &StoreError{Op: op, Entity: entity, ID: id, Err: err}
}

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPolicyNotFound) ||
		errors.Is(err, ErrTimerNotFound) ||
		errors.Is(err, ErrWorkflowNotFound)
}
