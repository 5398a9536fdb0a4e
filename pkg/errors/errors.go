package errors

import (
	"fmt"
	"net/http"
)

// Code is a standardized, stable error identifier.
type Code string

const (
	CodeNotFound         Code = "NOT_FOUND"
	CodeAlreadyExists    Code = "ALREADY_EXISTS"
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeConflict         Code = "CONFLICT"
	CodeUnavailable      Code = "UNAVAILABLE"
	CodeInternal         Code = "INTERNAL"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodePermissionDenied Code = "PERMISSION_DENIED"
)

// AppError is the system-wide error type. Every package that needs a typed
// error builds it on top of AppError rather than inventing its own.
type AppError struct {
	Code    Code
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error code to the status the admin façade should return.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict:
		return http.StatusConflict
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New builds an AppError with an explicit code.
func New(code Code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Wrap attaches context to an error without losing its code, if it already
// carries one, and defaults to CodeInternal for plain errors.
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AppError); ok {
		return &AppError{Code: ae.Code, Message: message, Err: ae}
	}
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

// NotFound builds a CodeNotFound error.
func NotFound(message string, err error) *AppError {
	return New(CodeNotFound, message, err)
}

// AlreadyExists builds a CodeAlreadyExists error.
func AlreadyExists(message string, err error) *AppError {
	return New(CodeAlreadyExists, message, err)
}

// Conflict builds a CodeConflict error.
func Conflict(message string, err error) *AppError {
	return New(CodeConflict, message, err)
}

// Internal builds a CodeInternal error.
func Internal(message string, err error) *AppError {
	return New(CodeInternal, message, err)
}

// InvalidArgument builds a CodeInvalidArgument error.
func InvalidArgument(message string, err error) *AppError {
	return New(CodeInvalidArgument, message, err)
}

// Unavailable builds a CodeUnavailable error.
func Unavailable(message string, err error) *AppError {
	return New(CodeUnavailable, message, err)
}

// CodeOf extracts the Code from err, defaulting to CodeInternal for errors
// that were never wrapped in an AppError.
func CodeOf(err error) Code {
	if ae, ok := err.(*AppError); ok {
		return ae.Code
	}
	return CodeInternal
}
