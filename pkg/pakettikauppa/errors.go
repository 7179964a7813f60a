package pakettikauppa

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindInput         Kind = "input"
	KindMissingField  Kind = "missing_field"
	KindTooFewFields  Kind = "too_few_fields"
	KindInvalidField  Kind = "invalid_field"
	KindInvalidCode   Kind = "invalid_code"
	KindTransport     Kind = "transport"
	KindParse         Kind = "parse"
)

// Sentinel errors, one per Kind. Every *Error matches the sentinel of its kind
// through errors.Is.
var (
	// ErrConfiguration indicates missing or unusable credentials.
	ErrConfiguration = errors.New("configuration error")

	// ErrInput indicates a missing or empty mandatory call argument.
	ErrInput = errors.New("input error")

	// ErrMissingField indicates a required key or value is absent from a request.
	ErrMissingField = errors.New("missing field")

	// ErrTooFewFields indicates a request that must carry a complete key set does not.
	ErrTooFewFields = errors.New("too few fields")

	// ErrInvalidField indicates a key outside the whitelist of its structure.
	ErrInvalidField = errors.New("invalid field")

	// ErrInvalidCode indicates an enumerated code outside its closed set.
	ErrInvalidCode = errors.New("invalid code")

	// ErrTransport indicates the provider answered with a non-success status
	// or could not be reached.
	ErrTransport = errors.New("transport error")

	// ErrParse indicates a response body that could not be decoded.
	ErrParse = errors.New("parse error")
)

var kindSentinels = map[Kind]error{
	KindConfiguration: ErrConfiguration,
	KindInput:         ErrInput,
	KindMissingField:  ErrMissingField,
	KindTooFewFields:  ErrTooFewFields,
	KindInvalidField:  ErrInvalidField,
	KindInvalidCode:   ErrInvalidCode,
	KindTransport:     ErrTransport,
	KindParse:         ErrParse,
}

// Error is the error type returned by every operation of this module.
type Error struct {
	Kind       Kind
	Field      string
	Message    string
	StatusCode int
	Body       string
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("pakettikauppa %s error: %s", e.Kind, e.Message)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %q)", e.Field)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel of the error's kind, or another *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return kindSentinels[e.Kind] == target
}

// NewError creates a new Error.
func NewError(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

// Errorf creates a new Error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return NewError(kind, fmt.Sprintf(format, args...))
}

// WithField names the offending field or key.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *Error) WithStatusCode(code int) *Error {
	e.StatusCode = code
	return e
}

// WithBody attaches the raw provider response text.
func (e *Error) WithBody(body string) *Error {
	e.Body = body
	return e
}

// KindOf returns the kind of err, or an empty Kind when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MissingField reports an absent required key or value.
func MissingField(field string) *Error {
	return Errorf(KindMissingField, "missing %s", field).WithField(field)
}

// InvalidField reports a key outside the whitelist of its structure.
func InvalidField(field string) *Error {
	return Errorf(KindInvalidField, "unrecognized key %s", field).WithField(field)
}

// InvalidCode reports an enumerated value outside its allowed set.
func InvalidCode(field, value string, allowed []string) *Error {
	return Errorf(KindInvalidCode, "invalid %s %q, allowed values: %v", field, value, allowed).WithField(field)
}
