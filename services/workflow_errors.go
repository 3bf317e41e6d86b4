package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies workflow failures so controllers can pick an HTTP
// status without string matching.
type ErrorKind string

const (
	ErrKindNotFound          ErrorKind = "not_found"
	ErrKindInvalidTransition ErrorKind = "invalid_transition"
	ErrKindForbidden         ErrorKind = "forbidden"
	ErrKindConflict          ErrorKind = "conflict"
	ErrKindPersistence       ErrorKind = "persistence_failure"
)

// WorkflowError is the error surface of the workflow engine. CurrentStatus
// and RequestedStatus are populated for transition and gate failures so the
// caller can render a useful message.
type WorkflowError struct {
	Kind            ErrorKind
	Message         string
	CurrentStatus   string
	RequestedStatus string
	Err             error
}

func (e *WorkflowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *WorkflowError) Unwrap() error { return e.Err }

func notFoundError(applicationID int) *WorkflowError {
	return &WorkflowError{
		Kind:    ErrKindNotFound,
		Message: fmt.Sprintf("application %d not found", applicationID),
	}
}

func invalidTransitionError(current, requested string) *WorkflowError {
	return &WorkflowError{
		Kind:            ErrKindInvalidTransition,
		Message:         fmt.Sprintf("cannot change status from '%s' to '%s'", current, requested),
		CurrentStatus:   current,
		RequestedStatus: requested,
	}
}

func forbiddenError(action, current string) *WorkflowError {
	return &WorkflowError{
		Kind:          ErrKindForbidden,
		Message:       fmt.Sprintf("application cannot be %s while status is '%s'", action, current),
		CurrentStatus: current,
	}
}

func conflictError(current, requested string) *WorkflowError {
	return &WorkflowError{
		Kind:            ErrKindConflict,
		Message:         "application was modified by another request, please retry",
		CurrentStatus:   current,
		RequestedStatus: requested,
	}
}

func persistenceError(op string, err error) *WorkflowError {
	return &WorkflowError{
		Kind:    ErrKindPersistence,
		Message: "failed to " + op,
		Err:     err,
	}
}

// AsWorkflowError unwraps err into a *WorkflowError when possible.
func AsWorkflowError(err error) (*WorkflowError, bool) {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}
