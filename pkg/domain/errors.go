// Package domain holds the error taxonomy and small shared value types used
// across the booking service.
package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an AppError. Transports map codes to status codes.
type ErrorCode string

const (
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeConflict          ErrorCode = "CONFLICT"
	CodeInvalidState      ErrorCode = "INVALID_STATE"
	CodeInvalidRole       ErrorCode = "INVALID_ROLE"
	CodeDriverUnavailable ErrorCode = "DRIVER_UNAVAILABLE"
	CodeValidation        ErrorCode = "VALIDATION_ERROR"
	CodeForbidden         ErrorCode = "FORBIDDEN"
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// AppError is a typed error carrying a code and a caller-facing message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Sentinels for errors.Is. Any AppError with the same code matches.
var (
	ErrNotFound          = &AppError{Code: CodeNotFound, Message: "resource not found"}
	ErrConflict          = &AppError{Code: CodeConflict, Message: "conflict"}
	ErrInvalidState      = &AppError{Code: CodeInvalidState, Message: "invalid state"}
	ErrInvalidRole       = &AppError{Code: CodeInvalidRole, Message: "invalid role"}
	ErrDriverUnavailable = &AppError{Code: CodeDriverUnavailable, Message: "driver unavailable"}
	ErrValidation        = &AppError{Code: CodeValidation, Message: "validation failed"}
	ErrForbidden         = &AppError{Code: CodeForbidden, Message: "forbidden"}
	ErrInternal          = &AppError{Code: CodeInternal, Message: "internal error"}
)

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewNotFoundError reports that an entity with the given identifier does not exist.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s not found: %s", entity, id)}
}

// NewConflictError reports a reservation overlap, an unavailable vehicle or a concurrent modification.
func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

// NewConflictErrorWithCause wraps a storage-level cause as a conflict.
func NewConflictErrorWithCause(message string, cause error) *AppError {
	return &AppError{Code: CodeConflict, Message: message, Err: cause}
}

// NewInvalidStateError reports an illegal transition between two states.
func NewInvalidStateError(from, to string) *AppError {
	return &AppError{
		Code:    CodeInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewInvalidStateMessage reports an illegal operation for the current state.
func NewInvalidStateMessage(message string) *AppError {
	return &AppError{Code: CodeInvalidState, Message: message}
}

// NewInvalidRoleError reports that a user does not have the role an operation requires.
func NewInvalidRoleError(userID, role string) *AppError {
	return &AppError{
		Code:    CodeInvalidRole,
		Message: fmt.Sprintf("user %s has role %s", userID, role),
	}
}

// NewDriverUnavailableError reports that a driver is already committed to an active booking.
func NewDriverUnavailableError(driverID string) *AppError {
	return &AppError{
		Code:    CodeDriverUnavailable,
		Message: fmt.Sprintf("driver %s is not available", driverID),
	}
}

// NewValidationError reports malformed or missing input.
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewForbiddenError reports that the caller may not act on a resource.
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

// CodeOf returns the code of the first AppError in err's chain, or CodeInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
