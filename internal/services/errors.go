package services

import (
	"errors"
	"strings"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("Report not found")
	ErrSelfVerification      = errors.New("Cannot verify your own report")
	ErrDuplicateVerification = errors.New("You have already verified this report")
	ErrAlreadyVerified       = errors.New("Report is already verified")
	ErrConflict              = errors.New("Report is being updated by another request, please retry")
	ErrStorage               = errors.New("storage failure")
)

// ValidationError lists the missing fields, or carries a reason for malformed input.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return "Missing required fields: " + strings.Join(e.Fields, ", ")
	}
	return e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func missingFields(fields ...string) error {
	return &ValidationError{Fields: fields}
}

func invalid(reason string) error {
	return &ValidationError{Reason: reason}
}

// storageError keeps the underlying cause while matching ErrStorage.
type storageError struct {
	op  string
	err error
}

func (e *storageError) Error() string {
	return e.op + ": " + e.err.Error()
}

func (e *storageError) Unwrap() []error {
	return []error{ErrStorage, e.err}
}

func wrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &storageError{op: op, err: err}
}
