// Package hmserr defines the error taxonomy shared by the billing and
// sequencing services. Every failure carries a kind plus the offending
// field or record id so callers can react without string matching.
package hmserr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrKind classifies an error for callers and for HTTP mapping.
type ErrKind string

const (
	KindValidation  ErrKind = "validation"
	KindConflict    ErrKind = "conflict"
	KindForbidden   ErrKind = "forbidden"
	KindNotFound    ErrKind = "not_found"
	KindUnavailable ErrKind = "unavailable"
)

// Error is the concrete error type returned by the core services.
type Error struct {
	ErrKind  ErrKind `json:"kind"`
	Field    string  `json:"field,omitempty"`
	RecordID string  `json:"record_id,omitempty"`
	Msg      string  `json:"message"`
	cause    error
}

func (e *Error) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s: %s: %s", e.ErrKind, e.Field, e.Msg)
	case e.RecordID != "":
		return fmt.Sprintf("%s: %s: %s", e.ErrKind, e.RecordID, e.Msg)
	default:
		return fmt.Sprintf("%s: %s", e.ErrKind, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// Validation reports bad input shape or range on a named field.
func Validation(field, msg string) *Error {
	return &Error{ErrKind: KindValidation, Field: field, Msg: msg}
}

// Conflict reports a state collision (bed taken, serial race, double
// discharge) for a record.
func Conflict(recordID, msg string) *Error {
	return &Error{ErrKind: KindConflict, RecordID: recordID, Msg: msg}
}

// Forbidden reports a privilege check failure.
func Forbidden(msg string) *Error {
	return &Error{ErrKind: KindForbidden, Msg: msg}
}

// NotFound reports a missing record.
func NotFound(recordID, msg string) *Error {
	return &Error{ErrKind: KindNotFound, RecordID: recordID, Msg: msg}
}

// Unavailable reports an infrastructure failure that callers should retry
// with backoff. The underlying cause is preserved for logging.
func Unavailable(msg string, cause error) *Error {
	return &Error{ErrKind: KindUnavailable, Msg: msg, cause: cause}
}

// Kind returns the classification of err, or "" for foreign errors.
func Kind(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrKind
	}
	return ""
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrKind) bool {
	return Kind(err) == kind
}

// HTTPStatus maps an error to the status code handlers should return.
// Foreign errors map to 500.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
