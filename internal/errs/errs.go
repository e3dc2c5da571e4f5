// Package errs classifies the failures of a conversion run. Every kind is fatal;
// the classification only decides how the failure is reported.
package errs

import (
	"errors"
	"fmt"
)

// Kind represents the classification of an error
type Kind int

const (
	// KindSource is an I/O failure while reading the raw input
	KindSource Kind = iota
	// KindDecode means the input bytes are not well-formed JSON
	KindDecode
	// KindMalformed means a well-formed record violates the timeline schema
	KindMalformed
	// KindConfig is an invalid option, reported before any processing
	KindConfig
	// KindSink means the SVG output could not be written
	KindSink
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindDecode:
		return "decode"
	case KindMalformed:
		return "malformed"
	case KindConfig:
		return "config"
	case KindSink:
		return "sink"
	default:
		return "unknown"
	}
}

// Sentinel causes, usable with errors.Is through any wrapping.
var (
	ErrMalformed      = errors.New("malformed record")
	ErrUnmatchedEnd   = errors.New("end record without matching begin")
	ErrOpenInterval   = errors.New("interval still open at end of stream")
	ErrInvertedWindow = errors.New("from_ms is greater than to_ms")
	ErrMissingInput   = errors.New("input file not specified")
	ErrMissingOutput  = errors.New("output file not specified")
	ErrFinalized      = errors.New("timeline graph already finalized")
)

// Error wraps a cause with its kind and the operation that failed
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error in %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Source wraps a read failure
func Source(op string, err error) error {
	return New(KindSource, op, err)
}

// Decode wraps a JSON syntax failure
func Decode(op string, err error) error {
	return New(KindDecode, op, err)
}

// Config wraps an invalid option
func Config(op string, err error) error {
	return New(KindConfig, op, err)
}

// Sink wraps an output write failure
func Sink(op string, err error) error {
	return New(KindSink, op, err)
}

// Malformed reports a schema violation. The returned error matches ErrMalformed.
func Malformed(op, format string, args ...interface{}) error {
	return New(KindMalformed, op, fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...)))
}

// MalformedCause reports a schema violation with a more specific sentinel cause.
// The returned error matches both ErrMalformed and cause.
func MalformedCause(op string, cause error, format string, args ...interface{}) error {
	return New(KindMalformed, op, fmt.Errorf("%w: %w: %s", ErrMalformed, cause, fmt.Sprintf(format, args...)))
}

// Is reports whether err carries the given kind anywhere in its chain
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or false when err is unclassified
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
