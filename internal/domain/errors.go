package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
	Reason() string
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string { return e.Message }
func (e *ValidationError) Error() string { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }

func (e *NotFoundError) Reason() string { return ReasonNotFound }
func (e *ValidationError) Reason() string { return ReasonValidation }
func (e *UnauthorizedError) Reason() string { return ReasonUnauthorized }

// Is allows errors.Is() to match the typed errors against their sentinels
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBlobNotFound is returned by blob stores when nothing exists at a path.
	// It is an expected outcome, not a failure.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrRevisionConflict is returned by blob stores when the supplied revision
	// does not match the stored one. The write coordinator retries on it.
	ErrRevisionConflict = errors.New("revision conflict")
)

// Stable machine-readable reasons included in error responses
const (
	ReasonValidation   = "validation_failed"
	ReasonNotFound     = "not_found"
	ReasonUnauthorized = "unauthorized"
	ReasonTransport    = "transport_error"
	ReasonCodec        = "codec_error"
	ReasonWriteFailed  = "write_failed"
	ReasonInternal     = "internal_error"
)

// TransportError is a failed exchange with a remote store or service:
// network failure, timeout, auth failure or an unexpected status.
type TransportError struct {
	Op     string // e.g. "fetch", "write", "list"
	Status int    // remote HTTP status, 0 when no response was received
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) StatusCode() int { return http.StatusInternalServerError }
func (e *TransportError) Reason() string { return ReasonTransport }

// CodecError indicates stored content that cannot be decoded into records
type CodecError struct {
	Message string
	Err     error
}

func (e *CodecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("codec: %s: %v", e.Message, e.Err)
	}
	return "codec: " + e.Message
}

func (e *CodecError) Unwrap() error { return e.Err }
func (e *CodecError) StatusCode() int { return http.StatusInternalServerError }
func (e *CodecError) Reason() string { return ReasonCodec }

// WriteFailedError is returned when an optimistic write could not be
// committed, either because retries ran out or a non-retryable error occurred.
// Err holds the last underlying error.
type WriteFailedError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *WriteFailedError) Error() string {
	return fmt.Sprintf("write %s failed after %d attempt(s): %v", e.Path, e.Attempts, e.Err)
}

func (e *WriteFailedError) Unwrap() error { return e.Err }
func (e *WriteFailedError) StatusCode() int { return http.StatusInternalServerError }
func (e *WriteFailedError) Reason() string { return ReasonWriteFailed }
