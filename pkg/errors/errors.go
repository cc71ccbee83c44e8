// Package errors defines the error taxonomy surfaced by the API. Every
// failure carries one of a small set of codes and the HTTP status it maps to.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Codes understood by clients. Callers switch on the code, never on the message.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeValidation   = "VALIDATION_ERROR"
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL_SERVER_ERROR"
)

var statusByCode = map[string]int{
	CodeNotFound:     http.StatusNotFound,
	CodeForbidden:    http.StatusForbidden,
	CodeConflict:     http.StatusConflict,
	CodeValidation:   http.StatusUnprocessableEntity,
	CodeBadRequest:   http.StatusBadRequest,
	CodeUnauthorized: http.StatusUnauthorized,
	CodeInternal:     http.StatusInternalServerError,
}

// AppError is an API-facing failure. Internal is logged but never rendered.
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
	StatusCode int               `json:"-"`
	Internal   error             `json:"-"`
}

func newError(code, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Code: code, Message: message, StatusCode: status}
}

func (e *AppError) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Internal != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	default:
		return e.Message
	}
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

func (e *AppError) clone(mutate func(*AppError)) *AppError {
	if e == nil {
		return nil
	}
	cpy := *e
	mutate(&cpy)
	return &cpy
}

// WithInternal returns a copy carrying err as the cause.
func (e *AppError) WithInternal(err error) *AppError {
	return e.clone(func(c *AppError) { c.Internal = err })
}

// WithFields returns a copy carrying per-field rejection reasons.
func (e *AppError) WithFields(fields map[string]string) *AppError {
	return e.clone(func(c *AppError) { c.Fields = fields })
}

var (
	ErrUnauthorized     = newError(CodeUnauthorized, "Authentication required")
	ErrForbidden        = newError(CodeForbidden, "You do not have permission to perform this action.")
	ErrNotFound         = newError(CodeNotFound, "Resource not found")
	ErrInternalServer   = newError(CodeInternal, "Internal server error")
	ErrConcurrentUpdate = newError(CodeConflict, "Resource was modified concurrently.")
)

// Wrap reports err as an internal failure described by message.
func Wrap(err error, message string) *AppError {
	return newError(CodeInternal, message).WithInternal(err)
}

// FromError returns the AppError inside err, or wraps err as an internal error.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.WithInternal(err)
}

func NewBadRequest(message string) *AppError { return newError(CodeBadRequest, message) }
func NewNotFound(message string) *AppError   { return newError(CodeNotFound, message) }
func NewForbidden(message string) *AppError  { return newError(CodeForbidden, message) }

// NewConflict reports a rejected state transition. The message names the exact reason.
func NewConflict(message string) *AppError { return newError(CodeConflict, message) }

// NewValidation reports malformed input such as an invalid capability payload.
func NewValidation(message string) *AppError { return newError(CodeValidation, message) }

// CodeOf returns the code carried by err, or "" for errors outside the taxonomy.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Code
	}
	return ""
}

func IsNotFound(err error) bool     { return CodeOf(err) == CodeNotFound }
func IsForbidden(err error) bool    { return CodeOf(err) == CodeForbidden }
func IsConflict(err error) bool     { return CodeOf(err) == CodeConflict }
func IsValidation(err error) bool   { return CodeOf(err) == CodeValidation }
func IsUnauthorized(err error) bool { return CodeOf(err) == CodeUnauthorized }
