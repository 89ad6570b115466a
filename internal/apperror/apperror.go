// Package apperror defines the error kinds shared by the service and
// handler layers.
//
// Services return *AppError values wrapping one of the sentinel errors
// below. Handlers map the sentinel to an HTTP status with errors.Is and
// show Message to the visitor.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

// AppError is a categorised error with a message safe to show visitors.
type AppError struct {
	Err     error  // sentinel kind
	Message string // human-readable message
	Field   string // form field the error refers to, if any
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel, which is what makes
// errors.Is(err, ErrNotFound) work through fmt.Errorf("...: %w", appErr).
func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// SignInRequired is returned for operations that need a signed-in workspace.
func SignInRequired() *AppError {
	return Forbidden("sign in to manage advertisements")
}
