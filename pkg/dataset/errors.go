package dataset

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is.
var (
	ErrFormat          = errors.New("dataset format error")
	ErrUnsupported     = errors.New("operation not supported")
	ErrInvalidArgument = errors.New("invalid argument")
)

// FormatError indicates a malformed header, an out-of-range decoded value or
// a short read or write.
type FormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := "format error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFormat}
	}
	return []error{ErrFormat, e.Err}
}

// UnsupportedOperationError indicates an operation a dataset kind does not
// implement.
type UnsupportedOperationError struct {
	Kind      Kind
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s datasets do not support %s", e.Kind, e.Operation)
}

func (e *UnsupportedOperationError) Unwrap() error {
	return ErrUnsupported
}

// ArgumentError indicates a caller contract violation.
type ArgumentError struct {
	Name   string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Name, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

func unsupported(k Kind, op string) error {
	return &UnsupportedOperationError{Kind: k, Operation: op}
}
