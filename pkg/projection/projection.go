// Package projection implements the map projections used to compute and
// verify cell geometry: Lambert conformal conic, Albers equal-area conic,
// stereographic, Mercator and the identity lon-lat projection.
//
// All projections are ellipsoidal (a sphere is an ellipsoid whose semiaxes
// are equal). Constructors validate their parameters and compute the derived
// constants once; Project and Unproject are pure functions of those
// constants and never fail. Inputs within a small epsilon of ±180° longitude
// or ±90° latitude are nudged inward first and outputs are always wrapped or
// clamped to valid longitude and latitude ranges.
//
// Example:
//
//	p, err := projection.NewLambert(projection.Sphere(6370000), 33, 45, 40, -97)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	x, y := p.Project(-90, 35)
//	lon, lat := p.Unproject(x, y)
package projection

import (
	"fmt"
	"math"
)

// Projection converts between geographic longitude-latitude (degrees) and
// projected x-y coordinates (metres, or degrees for LonLat).
type Projection interface {
	// Project maps a longitude-latitude pair to projected coordinates.
	Project(lon, lat float64) (x, y float64)

	// Unproject maps projected coordinates back to longitude-latitude.
	Unproject(x, y float64) (lon, lat float64)

	// Name is the short identifier used in native file headers
	// ("lonlat", "lcc", "albers", "stereographic", "mercator").
	Name() string

	// Ellipsoid returns the spheroid the projection was built on.
	Ellipsoid() Ellipsoid

	// ParameterNames and Parameters describe the construction parameters in
	// header order, semiaxes last.
	ParameterNames() []string
	Parameters() []float64
}

// Ellipsoid is a spheroid given by its semiaxes in metres.
type Ellipsoid struct {
	Major float64
	Minor float64
}

// Sphere returns a spherical Ellipsoid of the given radius.
func Sphere(radius float64) Ellipsoid {
	return Ellipsoid{Major: radius, Minor: radius}
}

// WGS84 is the WGS 84 reference ellipsoid.
var WGS84 = Ellipsoid{Major: 6378137, Minor: 6356752.314245179}

// Validate checks 0 < Minor <= Major.
func (e Ellipsoid) Validate() error {
	if !(e.Minor > 0) || !(e.Major >= e.Minor) || math.IsInf(e.Major, 0) {
		return &ParameterError{Name: "semiaxes", Value: e.Major,
			Reason: fmt.Sprintf("need 0 < minor (%g) <= major (%g)", e.Minor, e.Major)}
	}
	return nil
}

// eccentricity returns e, the first eccentricity.
func (e Ellipsoid) eccentricity() float64 {
	return math.Sqrt(1 - (e.Minor*e.Minor)/(e.Major*e.Major))
}

// ParameterError reports an invalid construction parameter.
type ParameterError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid projection parameter %s=%g: %s", e.Name, e.Value, e.Reason)
}

// Equal reports whether two projections have the same type and parameters.
func Equal(a, b Projection) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name() != b.Name() {
		return false
	}
	pa, pb := a.Parameters(), b.Parameters()
	if len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if math.Abs(pa[i]-pb[i]) > 1e-10*math.Max(1, math.Abs(pa[i])) {
			return false
		}
	}
	return true
}

// New builds a projection from its header name and parameter values, in the
// order reported by ParameterNames.
func New(name string, params []float64) (Projection, error) {
	need := map[string]int{"lonlat": 2, "lcc": 6, "albers": 6, "stereographic": 5, "mercator": 3}
	n, ok := need[name]
	if !ok {
		return nil, fmt.Errorf("unknown projection %q", name)
	}
	if len(params) != n {
		return nil, fmt.Errorf("projection %s: got %d parameters, want %d", name, len(params), n)
	}
	e := Ellipsoid{Major: params[n-2], Minor: params[n-1]}
	switch name {
	case "lonlat":
		return NewLonLat(e)
	case "lcc":
		return NewLambert(e, params[0], params[1], params[2], params[3])
	case "albers":
		return NewAlbers(e, params[0], params[1], params[2], params[3])
	case "stereographic":
		return NewStereographic(e, params[0], params[1], params[2])
	default:
		return NewMercator(e, params[0])
	}
}

const (
	// nudge is how far (degrees) inputs on ±180° / ±90° are moved inward.
	nudge = 1e-8

	// tolerance and maxIterations bound every inverse-latitude solve.
	tolerance     = 1e-12
	maxIterations = 15
)

func toRad(d float64) float64 { return d * math.Pi / 180 }
func toDeg(r float64) float64 { return r * 180 / math.Pi }

// nudgeInput moves lon/lat off the ±180 / ±90 singular lines and clamps
// anything beyond them.
func nudgeInput(lon, lat float64) (float64, float64) {
	lon = wrapLongitude(lon)
	if lon > 180-nudge {
		lon = 180 - nudge
	} else if lon < -180+nudge {
		lon = -180 + nudge
	}
	if lat > 90-nudge {
		lat = 90 - nudge
	} else if lat < -90+nudge {
		lat = -90 + nudge
	}
	return lon, lat
}

// wrapLongitude maps any longitude into [-180, 180].
func wrapLongitude(lon float64) float64 {
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return 0
	}
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// clampOutput wraps longitude and clamps latitude.
func clampOutput(lon, lat float64) (float64, float64) {
	lon = wrapLongitude(lon)
	switch {
	case math.IsNaN(lat):
		lat = 0
	case lat > 90:
		lat = 90
	case lat < -90:
		lat = -90
	}
	return lon, lat
}

// wrapRadians maps an angle difference into [-π, π].
func wrapRadians(a float64) float64 {
	if a >= -math.Pi && a <= math.Pi {
		return a
	}
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

func checkLatitude(name string, v float64) error {
	if !(v >= -90 && v <= 90) {
		return &ParameterError{Name: name, Value: v, Reason: "latitude must be in [-90, 90]"}
	}
	return nil
}

func checkLongitude(name string, v float64) error {
	if !(v >= -180 && v <= 180) {
		return &ParameterError{Name: name, Value: v, Reason: "longitude must be in [-180, 180]"}
	}
	return nil
}

// msfn is m = cos φ / sqrt(1 - e² sin² φ).
func msfn(e, phi float64) float64 {
	s := e * math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-s*s)
}

// tsfn is t = tan(π/4 - φ/2) / ((1 - e sin φ)/(1 + e sin φ))^(e/2).
func tsfn(e, phi float64) float64 {
	s := e * math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-s)/(1+s), e/2)
}

// phi2 inverts tsfn by fixed-point iteration. If it does not converge within
// maxIterations the latest estimate is returned.
func phi2(e, ts float64) float64 {
	phi := math.Pi/2 - 2*math.Atan(ts)
	for i := 0; i < maxIterations; i++ {
		s := e * math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(ts*math.Pow((1-s)/(1+s), e/2))
		delta := next - phi
		phi = next
		if math.Abs(delta) < tolerance {
			break
		}
	}
	return phi
}

// qsfn is the authalic q function of Snyder (3-12).
func qsfn(e, phi float64) float64 {
	sinPhi := math.Sin(phi)
	if e < 1e-10 {
		return 2 * sinPhi
	}
	s := e * sinPhi
	return (1 - e*e) * (sinPhi/(1-s*s) - (1/(2*e))*math.Log((1-s)/(1+s)))
}
