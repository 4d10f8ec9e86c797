// Package apperr is the error taxonomy shared by middleware, services and
// handlers. Every failure response is rendered from an AppError.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the machine-checkable failure category.
type Kind string

const (
	KindAuthenticationRequired Kind = "authentication_required"
	KindInvalidCredential      Kind = "invalid_credential"
	KindNotFound               Kind = "resource_not_found"
	KindPolicyDenied           Kind = "policy_denied"
	KindValidation             Kind = "validation_failed"
	KindUpstream               Kind = "upstream_failure"
	KindRateLimited            Kind = "rate_limited"
	KindInternal               Kind = "internal"
)

// AppError carries everything needed to render a failure envelope.
// Cause is for logs only and never leaves the process.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	Details map[string]any
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithStatus overrides the default HTTP status of the kind.
func (e *AppError) WithStatus(status int) *AppError {
	e.Status = status
	return e
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func newError(kind Kind, status int, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message, Status: status}
}

func AuthenticationRequired(code, message string) *AppError {
	return newError(KindAuthenticationRequired, http.StatusUnauthorized, code, message)
}

func InvalidCredential(code, message string) *AppError {
	return newError(KindInvalidCredential, http.StatusUnauthorized, code, message)
}

func NotFound(code, message string) *AppError {
	return newError(KindNotFound, http.StatusNotFound, code, message)
}

func PolicyDenied(code, message string) *AppError {
	return newError(KindPolicyDenied, http.StatusForbidden, code, message)
}

func Validation(code, message string) *AppError {
	return newError(KindValidation, http.StatusBadRequest, code, message)
}

// Conflict is a validation failure caused by a uniqueness constraint.
func Conflict(code, message string) *AppError {
	return newError(KindValidation, http.StatusConflict, code, message)
}

func Upstream(code, message string, cause error) *AppError {
	return newError(KindUpstream, http.StatusBadGateway, code, message).WithCause(cause)
}

func RateLimited(message string) *AppError {
	return newError(KindRateLimited, http.StatusTooManyRequests, "RATE_LIMITED", message)
}

// Internal wraps an unexpected error. The message is always generic.
func Internal(cause error) *AppError {
	return newError(KindInternal, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error").WithCause(cause)
}

// As extracts an AppError from err's chain, or nil.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// From returns err as an AppError, wrapping unknown errors as Internal.
func From(err error) *AppError {
	if ae := As(err); ae != nil {
		return ae
	}
	return Internal(err)
}
