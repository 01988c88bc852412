// Package errors provides custom error types for the complaint register.
//
// Two families of errors exist:
//   - ValidationError: user-correctable input problems, raised before any
//     file I/O and shown next to the form
//   - StoreError: environmental problems with the backing spreadsheet,
//     fatal to the current operation and never retried automatically
package errors

import (
	stderrors "errors"
	"fmt"
)

// ValidationKind identifies which form check rejected a submission.
type ValidationKind string

const (
	MissingRequiredField ValidationKind = "MissingRequiredField"
	InvalidEmail         ValidationKind = "InvalidEmail"
	InvalidPhone         ValidationKind = "InvalidPhone"
	InvalidOption        ValidationKind = "InvalidOption"
	InvalidDate          ValidationKind = "InvalidDate"
	FieldTooLong         ValidationKind = "FieldTooLong"
)

// StoreKind identifies what went wrong with the backing file.
type StoreKind string

const (
	StoreUnreadable  StoreKind = "StoreUnreadable"
	StoreWriteFailed StoreKind = "StoreWriteFailed"
	StoreCorrupted   StoreKind = "StoreCorrupted"
)

// ValidationError is returned when a form submission fails one of the checks.
//
// Only the first failing check is reported. Message is the text shown to the
// user; Field names the offending form field.
type ValidationError struct {
	Kind    ValidationKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Kind, e.Field)
}

// NewValidationError creates a new validation error with context
func NewValidationError(kind ValidationKind, field, msg string) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: msg}
}

// StoreError wraps failures reading or writing the backing spreadsheet.
//
// Recovery strategy: none. The user is shown a generic notice and may try
// again once the file is closed in other programs or the disk is fixed.
type StoreError struct {
	Kind    StoreKind
	Path    string
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Message)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new store error with context
func NewStoreError(kind StoreKind, path, msg string, err error) *StoreError {
	return &StoreError{Kind: kind, Path: path, Message: msg, Err: err}
}

// IsValidation checks if the error chain contains a ValidationError
func IsValidation(err error) bool {
	_, ok := AsValidation(err)
	return ok
}

// AsValidation returns the ValidationError in err's chain, if any.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := stderrors.As(err, &ve)
	return ve, ok
}

// KindOf returns the validation kind carried by err, or "" when err is not a
// validation error.
func KindOf(err error) ValidationKind {
	if ve, ok := AsValidation(err); ok {
		return ve.Kind
	}
	return ""
}

// StoreKindOf returns the store kind carried by err, or "" when err is not a
// store error.
func StoreKindOf(err error) StoreKind {
	var se *StoreError
	if stderrors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsStoreUnreadable checks if the error is a StoreUnreadable store error
func IsStoreUnreadable(err error) bool {
	return StoreKindOf(err) == StoreUnreadable
}

// IsStoreWriteFailed checks if the error is a StoreWriteFailed store error
func IsStoreWriteFailed(err error) bool {
	return StoreKindOf(err) == StoreWriteFailed
}

// IsStoreCorrupted checks if the error is a StoreCorrupted store error
func IsStoreCorrupted(err error) bool {
	return StoreKindOf(err) == StoreCorrupted
}

// IsStore checks if the error chain contains any StoreError
func IsStore(err error) bool {
	return StoreKindOf(err) != ""
}
