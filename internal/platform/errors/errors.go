// Package errors provides the structured error type used across the retention engine
package errors

// Always import the project errors package as perr (platform/errors)

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies failures so callers can decide between abort, retry and ack
// Values are stable for wire compatibility; append only
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodePanic is for panics recovered by middleware or consumers
	ErrorCodePanic

	// ErrorCodeUnavailable is for transient dependency failures where retry may succeed
	ErrorCodeUnavailable

	// ErrorCodeConflict is for state conflicts beyond duplicate key
	ErrorCodeConflict

	// ErrorCodeInvalidArgument is for malformed parameters
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is for rejected input such as an invalid deletion window
	ErrorCodeValidation

	// ErrorCodeJSON is for payload decoding errors
	ErrorCodeJSON

	// ErrorCodeNotFound is for missing rows, including stale check results
	ErrorCodeNotFound

	// ErrorCodeDuplicateKey is for unique constraint violations
	ErrorCodeDuplicateKey

	// ErrorCodeDB is for general database errors
	ErrorCodeDB

	// ErrorCodePrecondition is for operations attempted from the wrong state,
	// such as scheduling while the previous batch is still open
	ErrorCodePrecondition

	// ErrorCodeIntegrity is for broken cross references, such as a similarity
	// match that points at an image nobody uploaded
	ErrorCodeIntegrity

	// ErrorCodePublish is for message channel failures
	ErrorCodePublish
)

var codeNames = map[ErrorCode]string{
	ErrorCodeUnknown:         "unknown",
	ErrorCodePanic:           "panic",
	ErrorCodeUnavailable:     "unavailable",
	ErrorCodeConflict:        "conflict",
	ErrorCodeInvalidArgument: "invalid_argument",
	ErrorCodeValidation:      "validation",
	ErrorCodeJSON:            "json",
	ErrorCodeNotFound:        "not_found",
	ErrorCodeDuplicateKey:    "duplicate_key",
	ErrorCodeDB:              "db",
	ErrorCodePrecondition:    "precondition",
	ErrorCodeIntegrity:       "integrity",
	ErrorCodePublish:         "publish",
}

// String returns the metric/log label for the code
func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("code_%d", uint16(c))
}

// HTTPStatusCode turns an ErrorCode into an http status code
func HTTPStatusCode(c ErrorCode) int {
	switch c {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeInvalidArgument:
		return http.StatusUnprocessableEntity
	case ErrorCodeDuplicateKey, ErrorCodeConflict:
		return http.StatusConflict
	case ErrorCodePrecondition:
		return http.StatusPreconditionFailed
	case ErrorCodeValidation, ErrorCodeJSON:
		return http.StatusBadRequest
	case ErrorCodeUnavailable, ErrorCodePublish:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrNotFound is a sentinel not found error for convenience
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error carries a machine code, a developer message, an optional offending
// field and the wrapped cause
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
}

// Wire is the JSON-serializable form returned by the ops API
type Wire struct {
	Code    ErrorCode `json:"code"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending field, if any
func (e *Error) Field() string { return e.field }

// ToWire converts an *Error to a Wire payload
func (e *Error) ToWire() Wire {
	return Wire{Code: e.code, Kind: e.code.String(), Message: e.msg, Field: e.field}
}

// WireFrom converts any error into a Wire payload with best-effort mapping
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return e.ToWire()
	}
	return Wire{Code: ErrorCodeUnknown, Kind: ErrorCodeUnknown.String(), Message: err.Error()}
}

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf extracts the outermost ErrorCode from any error, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus returns the mapped HTTP status for any error
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// WithField attaches a field to an *Error (copy-on-write). Foreign errors are returned unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// New returns a new *Error with the given code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns a new *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig with code and message
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf returns a new *Error that wraps orig with code and formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// Validationf returns a validation error
func Validationf(format string, a ...any) error { return Newf(ErrorCodeValidation, format, a...) }

// Preconditionf returns a precondition error
func Preconditionf(format string, a ...any) error { return Newf(ErrorCodePrecondition, format, a...) }

// Integrityf returns an integrity error
func Integrityf(format string, a ...any) error { return Newf(ErrorCodeIntegrity, format, a...) }

// Conflictf returns a conflict error
func Conflictf(format string, a ...any) error { return Newf(ErrorCodeConflict, format, a...) }

// Unavailablef returns an unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// PanicErrf returns a panic error
func PanicErrf(format string, a ...any) error { return Newf(ErrorCodePanic, format, a...) }

// JSONErrf returns a JSON error
func JSONErrf(format string, a ...any) error { return Newf(ErrorCodeJSON, format, a...) }

// HTTP bundles status and wire in one shot for handlers
func HTTP(err error) (int, Wire) {
	if err == nil {
		return http.StatusOK, Wire{}
	}
	return HTTPStatus(err), WireFrom(err)
}

// Terminal reports whether redelivering the same input can never succeed.
// Consumers ack terminal failures instead of looping on them
func Terminal(err error) bool {
	switch CodeOf(err) {
	case ErrorCodeValidation, ErrorCodePrecondition, ErrorCodeNotFound,
		ErrorCodeInvalidArgument, ErrorCodeJSON:
		return true
	}
	return false
}
