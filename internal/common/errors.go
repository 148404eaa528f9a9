package common

import "net/http"

// Error codes shared by the HTTP surfaces.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeTooLarge   = "PAYLOAD_TOO_LARGE"
	CodeUpstream   = "UPSTREAM_ERROR"
	CodeConfig     = "CONFIG_UNAVAILABLE"
	CodeNotFound   = "NOT_FOUND"
	CodeInternal   = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// ValidationError reports every violated constraint at once.
func ValidationError(details []string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    "Datos inválidos",
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}
