package xdr

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is.
var (
	// ErrShort is returned when the stream ends (or refuses bytes) before a
	// whole array or header line has been transferred.
	ErrShort = errors.New("short transfer")

	// ErrRange is returned when a value falls outside the caller supplied
	// [min, max] interval, is NaN, or cannot be narrowed to the on-disk width.
	ErrRange = errors.New("value out of range")

	// ErrHeader is returned for malformed ASCII header lines.
	ErrHeader = errors.New("malformed header")
)

// Error describes a failed codec operation.
type Error struct {
	Op    string // "read" or "write"
	Type  Type   // on-disk element type
	Index int    // element index, -1 when the failure is not element specific
	Value float64
	Min   float64
	Max   float64
	Err   error
}

func (e *Error) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("xdr %s %s: %v", e.Op, e.Type, e.Err)
	}
	if errors.Is(e.Err, ErrRange) {
		return fmt.Sprintf("xdr %s %s[%d]: %v: %g not in [%g, %g]",
			e.Op, e.Type, e.Index, e.Err, e.Value, e.Min, e.Max)
	}
	return fmt.Sprintf("xdr %s %s[%d]: %v", e.Op, e.Type, e.Index, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HeaderError reports a header line that does not match the expected layout.
type HeaderError struct {
	Line     int
	Expected string
	Got      string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("xdr header line %d: expected %s, got %q", e.Line, e.Expected, e.Got)
}

func (e *HeaderError) Unwrap() error {
	return ErrHeader
}
