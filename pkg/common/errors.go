package common

import (
	"errors"
	"net/http"
)

// Common error types
var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrInternalServer   = errors.New("internal server error")
	ErrConflict         = errors.New("resource conflict")
	ErrValidation       = errors.New("validation error")
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the wrapped error to errors.Is / errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError reports a missing or malformed identifier or filter value
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
		Err:     ErrValidation,
	}
}

// NewNotFoundError reports a referenced record that does not exist
func NewNotFoundError(message string, err error) *AppError {
	if err == nil {
		err = ErrNotFound
	}
	return &AppError{
		Code:    http.StatusNotFound,
		Message: message,
		Err:     err,
	}
}

// NewConflictError reports a write against a stale version
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Message: message,
		Err:     ErrConflict,
	}
}

// NewStoreUnavailableError reports a failed snapshot fetch or persist.
// The underlying error is kept for logging but never shown to clients.
func NewStoreUnavailableError(err error) *AppError {
	if err == nil {
		err = ErrStoreUnavailable
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: ErrStoreUnavailable.Error(),
		Err:     err,
	}
}

// NewUnauthorizedError reports a missing, malformed or expired credential
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Message: message,
		Err:     ErrUnauthorized,
	}
}

// NewInternalError wraps an unexpected failure. Only message reaches the client.
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: message,
		Err:     err,
	}
}

// IsClientError reports whether err maps to a 4xx response
func IsClientError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code >= 400 && appErr.Code < 500
	}
	return false
}
