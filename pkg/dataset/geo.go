package dataset

import (
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"
)

// Physical ranges of geographic coordinates. Elevation is metres above mean
// sea level.
const (
	MinElevation = -500.0
	MaxElevation = 1e5
)

// Point is a geographic location.
type Point struct {
	Longitude float64
	Latitude  float64
	Elevation float64
}

// NewPoint returns a validated Point.
func NewPoint(lon, lat, elevation float64) (Point, error) {
	p := Point{Longitude: lon, Latitude: lat, Elevation: elevation}
	if !p.Valid() {
		return Point{}, &ArgumentError{Name: "point", Reason: fmt.Sprintf("(%g, %g, %g) out of range", lon, lat, elevation)}
	}
	return p, nil
}

// Valid reports whether every coordinate is within its physical range.
func (p Point) Valid() bool {
	return p.Longitude >= -180 && p.Longitude <= 180 &&
		p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Elevation >= MinElevation && p.Elevation <= MaxElevation
}

// Bounds represents a geographic bounding box in degrees.
type Bounds struct {
	West  float64
	East  float64
	South float64
	North float64
}

// emptyBounds is the identity for Extend and Union.
func emptyBounds() Bounds {
	return Bounds{West: math.Inf(1), East: math.Inf(-1), South: math.Inf(1), North: math.Inf(-1)}
}

// Valid reports whether b is a non-empty box within the lon-lat ranges.
func (b Bounds) Valid() bool {
	return b.West >= -180 && b.East <= 180 && b.South >= -90 && b.North <= 90 &&
		b.West <= b.East && b.South <= b.North
}

// Contains reports whether (lon, lat) lies inside b, edges included.
func (b Bounds) Contains(lon, lat float64) bool {
	return lon >= b.West && lon <= b.East && lat >= b.South && lat <= b.North
}

// Intersects reports whether b and o overlap.
func (b Bounds) Intersects(o Bounds) bool {
	return !(b.East < o.West || b.West > o.East || b.North < o.South || b.South > o.North)
}

// Union returns the smallest box containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		West:  math.Min(b.West, o.West),
		East:  math.Max(b.East, o.East),
		South: math.Min(b.South, o.South),
		North: math.Max(b.North, o.North),
	}
}

// Extend returns the smallest box containing b and p.
func (b Bounds) Extend(p Point) Bounds {
	return b.extend(p.Longitude, p.Latitude)
}

func (b Bounds) extend(lon, lat float64) Bounds {
	return Bounds{
		West:  math.Min(b.West, lon),
		East:  math.Max(b.East, lon),
		South: math.Min(b.South, lat),
		North: math.Max(b.North, lat),
	}
}

// rect converts b to an R-tree rectangle, padded so that degenerate boxes
// and shared edges still intersect.
func (b Bounds) rect() rtreego.Rect {
	const pad = 1e-9
	r, _ := rtreego.NewRectFromPoints(
		rtreego.Point{b.West - pad, b.South - pad},
		rtreego.Point{b.East + pad, b.North + pad})
	return r
}

// boundsOf returns the box around parallel coordinate slices.
func boundsOf(lons, lats []float64) Bounds {
	b := emptyBounds()
	for i := range lons {
		b = b.extend(lons[i], lats[i])
	}
	return b
}
