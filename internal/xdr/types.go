// Package xdr implements the big-endian binary codec used by the native
// dataset format.
//
// Every numeric value on disk is stored most-significant byte first. Arrays
// are transferred as a whole: each element is checked against a caller
// supplied [min, max] interval and the destination slice is handed back only
// after every element decoded and validated. A short stream or a single bad
// value aborts the whole transfer with an *Error.
//
// In memory, floating point arrays are always []float64 and integer arrays
// []int64; the Type argument selects the on-disk width and the codec widens
// or narrows as needed, refusing narrowing that would lose the value.
package xdr

import (
	"encoding/binary"
	"math"
)

// Type is the on-disk element type of an array.
type Type int

const (
	Int32 Type = iota
	Int64
	Float32
	Float64
)

// Size returns the encoded size of one element in bytes.
func (t Type) Size() int {
	switch t {
	case Int32, Float32:
		return 4
	default:
		return 8
	}
}

func (t Type) String() string {
	switch t {
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// IsFloat reports whether t is an IEEE-754 type.
func (t Type) IsFloat() bool {
	return t == Float32 || t == Float64
}

// Axis is a named coordinate axis with its physical range.
type Axis struct {
	Name string
	Min  float64
	Max  float64
}

// Physical ranges of the coordinate axes stored by the native format.
var (
	Longitude = Axis{Name: "longitude", Min: -180, Max: 180}
	Latitude  = Axis{Name: "latitude", Min: -90, Max: 90}
	Elevation = Axis{Name: "elevation", Min: -500, Max: 1e5}
)

// FloatRange is the widest interval accepted for 32-bit data values.
const FloatRange = math.MaxFloat32

var order = binary.BigEndian

// decodeFloat decodes one element of type t from b.
func decodeFloat(t Type, b []byte) float64 {
	switch t {
	case Float32:
		return float64(math.Float32frombits(order.Uint32(b)))
	case Float64:
		return math.Float64frombits(order.Uint64(b))
	case Int32:
		return float64(int32(order.Uint32(b)))
	default:
		return float64(int64(order.Uint64(b)))
	}
}

// decodeInt decodes one integer element of type t from b.
func decodeInt(t Type, b []byte) int64 {
	switch t {
	case Int32:
		return int64(int32(order.Uint32(b)))
	case Int64:
		return int64(order.Uint64(b))
	case Float32:
		return int64(math.Float32frombits(order.Uint32(b)))
	default:
		return int64(math.Float64frombits(order.Uint64(b)))
	}
}

// encodeFloat encodes v as type t into b and reports whether the conversion
// preserved the value's magnitude.
func encodeFloat(t Type, v float64, b []byte) bool {
	switch t {
	case Float32:
		if math.Abs(v) > math.MaxFloat32 {
			return false
		}
		order.PutUint32(b, math.Float32bits(float32(v)))
	case Float64:
		order.PutUint64(b, math.Float64bits(v))
	case Int32:
		i := int32(v)
		if float64(i) != v {
			return false
		}
		order.PutUint32(b, uint32(i))
	default:
		i := int64(v)
		if float64(i) != v {
			return false
		}
		order.PutUint64(b, uint64(i))
	}
	return true
}

// encodeInt encodes v as type t into b and reports whether it was lossless.
func encodeInt(t Type, v int64, b []byte) bool {
	switch t {
	case Int32:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return false
		}
		order.PutUint32(b, uint32(int32(v)))
	case Int64:
		order.PutUint64(b, uint64(v))
	case Float32:
		f := float32(v)
		if int64(f) != v {
			return false
		}
		order.PutUint32(b, math.Float32bits(f))
	default:
		f := float64(v)
		if int64(f) != v {
			return false
		}
		order.PutUint64(b, math.Float64bits(f))
	}
	return true
}

// inRange reports whether v lies in [min, max]. NaN never does.
func inRange(v, min, max float64) bool {
	return v >= min && v <= max
}
