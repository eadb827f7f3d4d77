package xdr

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Writer encodes ASCII header lines and big-endian arrays to a stream.
//
// Writer does not remove partially written output; callers that create
// files own that cleanup.
type Writer struct {
	w       *bufio.Writer
	offset  int64
	workers int
}

// NewWriter creates a Writer over w. Flush must be called when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, 256*1024)}
}

// SetWorkers limits the number of goroutines used to convert large arrays.
func (w *Writer) SetWorkers(n int) {
	w.workers = n
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int64 {
	return w.offset
}

func (w *Writer) write(t Type, b []byte) error {
	n, err := w.w.Write(b)
	w.offset += int64(n)
	if err != nil {
		if errors.Is(err, io.ErrShortWrite) {
			err = ErrShort
		}
		return &Error{Op: "write", Type: t, Index: -1, Err: err}
	}
	return nil
}

// WriteLine writes one header line. A trailing newline is added.
func (w *Writer) WriteLine(format string, args ...any) error {
	line := fmt.Sprintf(format, args...)
	if strings.ContainsRune(line, '\n') {
		return &HeaderError{Expected: "single line", Got: line}
	}
	return w.write(Int32, []byte(line+"\n"))
}

// WriteFields writes values separated by single blanks.
func (w *Writer) WriteFields(values ...string) error {
	return w.WriteLine("%s", strings.Join(values, " "))
}

// WriteFloatLine writes numbers in shortest round-trip form.
func (w *Writer) WriteFloatLine(values ...float64) error {
	words := make([]string, len(values))
	for i, v := range values {
		words[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return w.WriteFields(words...)
}

// WriteIntLine writes integers separated by blanks.
func (w *Writer) WriteIntLine(values ...int64) error {
	words := make([]string, len(values))
	for i, v := range values {
		words[i] = strconv.FormatInt(v, 10)
	}
	return w.WriteFields(words...)
}

// WriteFloats validates every element of values against [min, max], narrows
// it to type t and writes the array. Nothing is written if any element fails.
func (w *Writer) WriteFloats(t Type, values []float64, min, max float64) error {
	if len(values) == 0 {
		return nil
	}
	size := t.Size()
	raw := make([]byte, len(values)*size)
	bad := forChunks(len(values), w.workers, func(lo, hi int) int {
		for i := lo; i < hi; i++ {
			v := values[i]
			if !inRange(v, min, max) || !encodeFloat(t, v, raw[i*size:]) {
				return i
			}
		}
		return -1
	})
	if bad >= 0 {
		return &Error{Op: "write", Type: t, Index: bad, Value: values[bad], Min: min, Max: max, Err: ErrRange}
	}
	return w.write(t, raw)
}

// WriteInts validates and writes integer values as type t.
func (w *Writer) WriteInts(t Type, values []int64, min, max int64) error {
	if len(values) == 0 {
		return nil
	}
	size := t.Size()
	raw := make([]byte, len(values)*size)
	bad := forChunks(len(values), w.workers, func(lo, hi int) int {
		for i := lo; i < hi; i++ {
			v := values[i]
			if v < min || v > max || !encodeInt(t, v, raw[i*size:]) {
				return i
			}
		}
		return -1
	})
	if bad >= 0 {
		return &Error{Op: "write", Type: t, Index: bad, Value: float64(values[bad]),
			Min: float64(min), Max: float64(max), Err: ErrRange}
	}
	return w.write(t, raw)
}

// WriteAxes writes one array per axis, in order, validating each against
// its axis range.
func (w *Writer) WriteAxes(t Type, values [][]float64, axes ...Axis) error {
	if len(values) != len(axes) {
		return fmt.Errorf("xdr: %d axes but %d arrays", len(axes), len(values))
	}
	for i, axis := range axes {
		if err := w.WriteFloats(t, values[i], axis.Min, axis.Max); err != nil {
			return fmt.Errorf("%s: %w", axis.Name, err)
		}
	}
	return nil
}

// WriteStrings writes fixed-width, blank padded text fields. Values longer
// than width are truncated.
func (w *Writer) WriteStrings(values []string, width int) error {
	raw := make([]byte, len(values)*width)
	for i := range raw {
		raw[i] = ' '
	}
	for i, s := range values {
		copy(raw[i*width:(i+1)*width], s)
	}
	return w.write(Int32, raw)
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		if errors.Is(err, io.ErrShortWrite) {
			err = ErrShort
		}
		return &Error{Op: "write", Index: -1, Err: err}
	}
	return nil
}
