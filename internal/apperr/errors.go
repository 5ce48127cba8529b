// Package apperr defines the closed set of error variants the API layer maps
// onto HTTP statuses. Components return these instead of free-form errors so
// handlers can switch on the kind with errors.As rather than matching message
// text.
package apperr

import "fmt"

// ValidationError reports a malformed or empty client input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NotFoundError reports a lookup for a resource that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// GenerationError reports a failure of the model provider. Message is the
// user-facing text to surface; Err keeps the provider error for logs.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *GenerationError) Unwrap() error { return e.Err }

// StoreFault reports an unexpected storage failure.
type StoreFault struct {
	Op  string
	Err error
}

func (e *StoreFault) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreFault) Unwrap() error { return e.Err }
