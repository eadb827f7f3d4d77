package xdr

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// maxLine bounds the length of one ASCII header line.
const maxLine = 64 * 1024

// readChunk bounds the memory committed ahead of bytes actually read from a
// stream of unknown length.
const readChunk = 1 << 20

// Reader decodes ASCII header lines and big-endian arrays from a stream.
type Reader struct {
	r       *bufio.Reader
	offset  int64
	limit   int64
	line    int
	workers int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 256*1024), limit: -1}
}

// SetLimit declares that the stream holds n bytes in total. Array reads that
// would run past n fail with ErrShort before any buffer is allocated. A
// negative n means the length is unknown.
func (r *Reader) SetLimit(n int64) {
	r.limit = n
}

// SetWorkers limits the number of goroutines used to convert large arrays.
// Zero means GOMAXPROCS; one disables parallel conversion.
func (r *Reader) SetWorkers(n int) {
	r.workers = n
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Line returns the number of header lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// ReadLine reads one '\n' terminated line and returns it without the line
// terminator.
func (r *Reader) ReadLine() (string, error) {
	var buf []byte
	for {
		chunk, err := r.r.ReadSlice('\n')
		buf = append(buf, chunk...)
		r.offset += int64(len(chunk))
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) && len(buf) < maxLine {
			continue
		}
		if errors.Is(err, io.EOF) {
			return "", &Error{Op: "read", Index: -1, Err: fmt.Errorf("header line %d: %w", r.line+1, ErrShort)}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			return "", &HeaderError{Line: r.line + 1, Expected: "line shorter than 64KiB", Got: string(buf[:32])}
		}
		return "", err
	}
	r.line++
	return strings.TrimRight(string(buf), "\r\n"), nil
}

// ExpectComment reads a '#' comment line and checks that it starts with
// prefix (after the '#' and any blanks).
func (r *Reader) ExpectComment(prefix string) (string, error) {
	line, err := r.ReadLine()
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	if !strings.HasPrefix(line, "#") || !strings.HasPrefix(text, prefix) {
		return "", &HeaderError{Line: r.line, Expected: "# " + prefix, Got: line}
	}
	return text, nil
}

// ReadWords reads a line and splits it on blanks. If n >= 0 the line must
// hold exactly n words.
func (r *Reader) ReadWords(n int) ([]string, error) {
	line, err := r.ReadLine()
	if err != nil {
		return nil, err
	}
	words := strings.Fields(line)
	if n >= 0 && len(words) != n {
		return nil, &HeaderError{Line: r.line, Expected: fmt.Sprintf("%d words", n), Got: line}
	}
	return words, nil
}

// ReadIntLine reads a line of n integers, each within [min, max].
func (r *Reader) ReadIntLine(n int, min, max int64) ([]int64, error) {
	words, err := r.ReadWords(n)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(words))
	for i, w := range words {
		v, err := strconv.ParseInt(w, 10, 64)
		if err != nil || v < min || v > max {
			return nil, &HeaderError{Line: r.line, Expected: fmt.Sprintf("integer in [%d, %d]", min, max), Got: w}
		}
		out[i] = v
	}
	return out, nil
}

// ReadFloatLine reads a line of n numbers, each within [min, max].
func (r *Reader) ReadFloatLine(n int, min, max float64) ([]float64, error) {
	words, err := r.ReadWords(n)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(words))
	for i, w := range words {
		v, err := strconv.ParseFloat(w, 64)
		if err != nil || !inRange(v, min, max) {
			return nil, &HeaderError{Line: r.line, Expected: fmt.Sprintf("number in [%g, %g]", min, max), Got: w}
		}
		out[i] = v
	}
	return out, nil
}

// readRaw reads exactly n bytes.
func (r *Reader) readRaw(t Type, n int) ([]byte, error) {
	if r.limit >= 0 && int64(n) > r.limit-r.offset {
		have := max(r.limit-r.offset, 0)
		return nil, &Error{Op: "read", Type: t, Index: int(have) / t.Size(),
			Err: fmt.Errorf("%d bytes declared, %d remain: %w", n, have, ErrShort)}
	}
	if r.limit >= 0 || n <= readChunk {
		buf := make([]byte, n)
		got, err := io.ReadFull(r.r, buf)
		r.offset += int64(got)
		if err != nil {
			return nil, r.readError(t, got, err)
		}
		return buf, nil
	}

	// Unknown length: grow with the data so that a bogus count cannot
	// allocate more than the stream delivers.
	buf := make([]byte, 0, readChunk)
	for len(buf) < n {
		k := min(n-len(buf), readChunk)
		buf = slices.Grow(buf, k)
		got, err := io.ReadFull(r.r, buf[len(buf):len(buf)+k])
		buf = buf[:len(buf)+got]
		r.offset += int64(got)
		if err != nil {
			return nil, r.readError(t, len(buf), err)
		}
	}
	return buf, nil
}

func (r *Reader) readError(t Type, got int, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &Error{Op: "read", Type: t, Index: got / t.Size(), Err: ErrShort}
	}
	return &Error{Op: "read", Type: t, Index: -1, Err: err}
}

// ReadFloats reads n elements of type t, converting them to float64 and
// checking each against [min, max].
func (r *Reader) ReadFloats(t Type, n int, min, max float64) ([]float64, error) {
	if n == 0 {
		return []float64{}, nil
	}
	size := t.Size()
	raw, err := r.readRaw(t, n*size)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	bad := forChunks(n, r.workers, func(lo, hi int) int {
		for i := lo; i < hi; i++ {
			v := decodeFloat(t, raw[i*size:])
			if !inRange(v, min, max) {
				return i
			}
			out[i] = v
		}
		return -1
	})
	if bad >= 0 {
		return nil, &Error{Op: "read", Type: t, Index: bad, Value: decodeFloat(t, raw[bad*size:]), Min: min, Max: max, Err: ErrRange}
	}
	return out, nil
}

// ReadInts reads n integer elements of type t, checking each against
// [min, max].
func (r *Reader) ReadInts(t Type, n int, min, max int64) ([]int64, error) {
	if n == 0 {
		return []int64{}, nil
	}
	size := t.Size()
	raw, err := r.readRaw(t, n*size)
	if err != nil {
		return nil, err
	}
	out := make([]int64, n)
	bad := forChunks(n, r.workers, func(lo, hi int) int {
		for i := lo; i < hi; i++ {
			v := decodeInt(t, raw[i*size:])
			if v < min || v > max {
				return i
			}
			out[i] = v
		}
		return -1
	})
	if bad >= 0 {
		return nil, &Error{Op: "read", Type: t, Index: bad, Value: float64(decodeInt(t, raw[bad*size:])),
			Min: float64(min), Max: float64(max), Err: ErrRange}
	}
	return out, nil
}

// ReadAxes reads one array of n elements per axis, in the order given, and
// validates each against the axis range. Nothing is returned unless every
// axis decoded cleanly.
func (r *Reader) ReadAxes(t Type, n int, axes ...Axis) ([][]float64, error) {
	out := make([][]float64, len(axes))
	for i, axis := range axes {
		values, err := r.ReadFloats(t, n, axis.Min, axis.Max)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", axis.Name, err)
		}
		out[i] = values
	}
	return out, nil
}

// ReadStrings reads n fixed-width, NUL or blank padded text fields.
func (r *Reader) ReadStrings(n, width int) ([]string, error) {
	raw, err := r.readRaw(Int32, n*width)
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		field := raw[i*width : (i+1)*width]
		if end := bytes.IndexByte(field, 0); end >= 0 {
			field = field[:end]
		}
		out[i] = strings.TrimRight(string(field), " ")
	}
	return out, nil
}

// Skip discards n bytes.
func (r *Reader) Skip(n int64) error {
	got, err := r.r.Discard(int(n))
	r.offset += int64(got)
	if err != nil {
		return &Error{Op: "read", Index: -1, Err: ErrShort}
	}
	return nil
}
