// Package domain defines core types, interfaces, and errors for the access service.
package domain

import (
	"errors"
	"fmt"
)

// Error kinds carried by ConflictError and ValidationError. Match them with errors.Is.
var (
	ErrDuplicateGrant     = errors.New("duplicate active grant")
	ErrInvalidRole        = errors.New("role not permitted for entity type")
	ErrDuplicateGroupName = errors.New("duplicate group name")
	ErrAlreadyMember      = errors.New("already a member")
	ErrAlreadyRevoked     = errors.New("grant already revoked")
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// AccessDeniedError indicates the caller does not hold the required role.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// UnauthenticatedError indicates no resolvable identity was presented.
type UnauthenticatedError struct {
	Message string
}

func (e *UnauthenticatedError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
	Kind    error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Kind }

// ConflictError indicates a conflict with existing state (duplicate or terminal).
type ConflictError struct {
	Message string
	Kind    error
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return e.Kind }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrAccessDenied creates an AccessDeniedError with a formatted message.
func ErrAccessDenied(format string, args ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ErrUnauthenticated creates an UnauthenticatedError with a formatted message.
func ErrUnauthenticated(format string, args ...interface{}) *UnauthenticatedError {
	return &UnauthenticatedError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// NewValidation creates a ValidationError of the given kind.
func NewValidation(kind error, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...), Kind: kind}
}

// NewConflict creates a ConflictError of the given kind.
func NewConflict(kind error, format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...), Kind: kind}
}
