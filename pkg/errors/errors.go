package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error code to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrConflict
)

func Validation(message string) *AppError {
	return &AppError{Code: ErrValidation, Message: message}
}

// FieldRequired reports a missing required field.
func FieldRequired(field string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: fmt.Sprintf("%s is required", field),
		Field:   field,
	}
}

// InvalidField reports a malformed field.
func InvalidField(field, message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: fmt.Sprintf("%s %s", field, message),
		Field:   field,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Conflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{
		Code:    ErrUnauthorized,
		Message: message,
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return &AppError{Code: ErrForbidden, Message: message}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// As extracts an *AppError from err, if present.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// StatusCode returns the HTTP status for any error; unknown errors are 500.
func StatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.StatusCode()
	}
	return http.StatusInternalServerError
}
