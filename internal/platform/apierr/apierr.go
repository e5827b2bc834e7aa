package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinels identify the error kind through errors.Is regardless of wrapping.
var (
	ErrUnauthenticated = errors.New("unauthorized")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrUpstream        = errors.New("upstream service unavailable")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

const (
	CodeUnauthorized = "unauthorized"
	CodeRateLimited  = "rate_limited"
	CodeQuota        = "quota_exceeded"
	CodeInvalid      = "invalid_request"
	CodeUpstream     = "upstream_unavailable"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeInternal     = "internal"
)

type Error struct {
	Status int
	Code   string
	Err    error
	// RetryAfter is only set for rate limiting.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Unauthenticated carries no detail. Callers must not be able to tell a
// missing key from a revoked or mismatched one.
func Unauthenticated() *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, ErrUnauthenticated)
}

func RateLimited(retryAfter time.Duration) *Error {
	e := New(http.StatusTooManyRequests, CodeRateLimited, ErrRateLimited)
	e.RetryAfter = retryAfter
	return e
}

func QuotaExceeded(retryAfter time.Duration) *Error {
	e := New(http.StatusTooManyRequests, CodeQuota, fmt.Errorf("%w: monthly request quota exhausted", ErrRateLimited))
	e.RetryAfter = retryAfter
	return e
}

func Invalid(format string, args ...any) *Error {
	return New(http.StatusBadRequest, CodeInvalid, fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...)))
}

func Upstream(cause error) *Error {
	if cause == nil {
		return New(http.StatusServiceUnavailable, CodeUpstream, ErrUpstream)
	}
	return New(http.StatusServiceUnavailable, CodeUpstream, fmt.Errorf("%w: %w", ErrUpstream, cause))
}

func NotFound(what string) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf("%s %w", what, ErrNotFound))
}

func Conflict(format string, args ...any) *Error {
	return New(http.StatusConflict, CodeConflict, fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...)))
}

// Classify maps an arbitrary error onto the taxonomy. Typed errors pass
// through; deadlines become upstream failures; anything else is internal.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return Unauthenticated()
	case errors.Is(err, ErrNotFound):
		return New(http.StatusNotFound, CodeNotFound, err)
	case errors.Is(err, ErrInvalidRequest):
		return New(http.StatusBadRequest, CodeInvalid, err)
	case errors.Is(err, ErrUpstream), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return Upstream(err)
	}
	return New(http.StatusInternalServerError, CodeInternal, err)
}

// PublicMessage is the text safe to return to a client.
func (e *Error) PublicMessage() string {
	if e == nil {
		return ""
	}
	switch e.Code {
	case CodeUnauthorized:
		return "unauthorized"
	case CodeUpstream:
		return "a backing service is unavailable, retry later"
	case CodeInternal:
		return "internal error"
	}
	return e.Error()
}
