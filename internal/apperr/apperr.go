// Package apperr is the error taxonomy shared by the training service and
// the HTTP API. Every error a client can see carries a stable Kind.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable discriminator rendered as the "error" field.
type Kind string

const (
	KindBadRequest        Kind = "BadRequest"
	KindUnauthorized      Kind = "Unauthorized"
	KindNotFound          Kind = "NotFound"
	KindConflict          Kind = "Conflict"
	KindValidation        Kind = "ValidationError"
	KindRateLimitExceeded Kind = "RateLimitExceeded"
	KindInternal          Kind = "InternalServerError"
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string

	// Details maps a field path or question id to a message.
	Details map[string]string

	// RetryAfter is set for KindRateLimitExceeded, in seconds.
	RetryAfter int

	// Err is the underlying cause. It is never rendered to clients.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error.
func (e *Error) Status() int {
	return e.Kind.Status()
}

// WithDetail adds a detail entry and returns e.
func (e *Error) WithDetail(key, msg string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = msg
	return e
}

func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Validation builds a 422 error from field path → message pairs.
func Validation(msg string, details map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Details: details}
}

func RateLimited(retryAfter int) *Error {
	return &Error{
		Kind:       KindRateLimitExceeded,
		Message:    fmt.Sprintf("rate limit exceeded, retry after %d seconds", retryAfter),
		RetryAfter: retryAfter,
	}
}

// Internal wraps an unexpected failure. msg is safe to show to clients.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal when unclassified.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
