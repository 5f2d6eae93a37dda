package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is wrapped by RemoteQueryError when a single-row lookup matches nothing.
var ErrNotFound = errors.New("not found")

// AuthError carries the credential store's rejection message verbatim.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// ValidationError reports a missing or inconsistent field in a draft. It is
// raised before any remote command is issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// RemoteQueryError wraps a rejected fetch.
type RemoteQueryError struct {
	Table string
	Err   error
}

func (e *RemoteQueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Table, e.Err)
}

func (e *RemoteQueryError) Unwrap() error { return e.Err }

// RemoteCommandError wraps a rejected insert, update or delete.
type RemoteCommandError struct {
	Op    string
	Table string
	Err   error
}

func (e *RemoteCommandError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *RemoteCommandError) Unwrap() error { return e.Err }

// PartialWriteError means a multi-step write failed and at least one
// compensating undo also failed, so the store holds the listed leftovers.
type PartialWriteError struct {
	Failed    string
	Err       error
	Leftovers []string
	UndoErrs  []error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("step %q failed (%v); could not undo: %s", e.Failed, e.Err, strings.Join(e.Leftovers, ", "))
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsAuth(err error) bool {
	var a *AuthError
	return errors.As(err, &a)
}
