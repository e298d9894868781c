package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies application errors. Each kind maps to exactly one
// HTTP status and a stable error_type string at the transport boundary.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindAuthentication ErrorKind = "authentication"
	KindAuthorization  ErrorKind = "authorization"
	KindSiteContext    ErrorKind = "site_context"
	KindNotFound       ErrorKind = "not_found"
	KindConflict       ErrorKind = "conflict"
	KindInternal       ErrorKind = "internal"
)

// AppError is the single error type services return. Raw persistence
// errors are wrapped as KindInternal and their message never reaches
// the client.
type AppError struct {
	Kind    ErrorKind
	Message string
	// Fields carries field -> messages details for validation errors.
	Fields map[string][]string
	// Details carries optional non-field context.
	Details map[string]any
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func NewValidationError(fields map[string][]string) *AppError {
	return &AppError{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

func NewAuthenticationError(message string) *AppError {
	return &AppError{Kind: KindAuthentication, Message: message}
}

func NewAuthorizationError(message string) *AppError {
	return &AppError{Kind: KindAuthorization, Message: message}
}

func NewSiteContextError(message string) *AppError {
	return &AppError{Kind: KindSiteContext, Message: message}
}

// NewNotFoundError is used both for missing records and for records that
// exist under another site. Callers cannot tell the two apart.
func NewNotFoundError(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: resource + " not found"}
}

func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func NewInternalError(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "internal server error", cause: err}
}

// AsAppError extracts an *AppError from err, wrapping unknown errors as
// internal so that nothing leaks past the boundary.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}
