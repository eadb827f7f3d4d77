package projection

import "math"

// Aspect of a stereographic projection, chosen from its origin latitude.
type Aspect int

const (
	AspectOblique Aspect = iota
	AspectEquatorial
	AspectNorthPolar
	AspectSouthPolar
)

func (a Aspect) String() string {
	switch a {
	case AspectEquatorial:
		return "equatorial"
	case AspectNorthPolar:
		return "north polar"
	case AspectSouthPolar:
		return "south polar"
	default:
		return "oblique"
	}
}

// Stereographic is the ellipsoidal stereographic projection (Snyder ch. 21)
// in polar, equatorial or oblique aspect.
type Stereographic struct {
	ellipsoid Ellipsoid
	lat0      float64
	lon0      float64
	latSec    float64 // latitude of true scale, polar aspects only
	aspect    Aspect

	e float64

	// polar: rho = k * t
	k float64

	// oblique and equatorial, via conformal latitude
	chi1    float64
	sinChi1 float64
	cosChi1 float64
	akm1    float64 // 2 a k0 m1
}

// NewStereographic constructs a stereographic projection centred on
// (lat0, lon0). For the polar aspects (lat0 = ±90) latSec is the latitude of
// true scale; latSec equal to lat0 gives scale 1 at the pole. latSec is
// ignored for the other aspects.
func NewStereographic(e Ellipsoid, lat0, lon0, latSec float64) (*Stereographic, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := checkLatitude("lat_0", lat0); err != nil {
		return nil, err
	}
	if err := checkLongitude("lon_0", lon0); err != nil {
		return nil, err
	}
	if err := checkLatitude("lat_sec", latSec); err != nil {
		return nil, err
	}

	p := &Stereographic{ellipsoid: e, lat0: lat0, lon0: lon0, latSec: latSec}
	p.e = e.eccentricity()
	a := e.Major

	switch {
	case math.Abs(lat0-90) < 1e-10:
		p.aspect = AspectNorthPolar
	case math.Abs(lat0+90) < 1e-10:
		p.aspect = AspectSouthPolar
	case math.Abs(lat0) < 1e-10:
		p.aspect = AspectEquatorial
	default:
		p.aspect = AspectOblique
	}

	switch p.aspect {
	case AspectNorthPolar, AspectSouthPolar:
		phiC := toRad(latSec)
		if p.aspect == AspectSouthPolar {
			phiC = -phiC
		}
		if phiC <= 0 {
			return nil, &ParameterError{Name: "lat_sec", Value: latSec,
				Reason: "latitude of true scale must lie in the hemisphere of the pole"}
		}
		if math.Abs(phiC-math.Pi/2) < 1e-10 {
			ep, em := 1+p.e, 1-p.e
			p.k = 2 * a / math.Sqrt(math.Pow(ep, ep)*math.Pow(em, em))
		} else {
			p.k = a * msfn(p.e, phiC) / tsfn(p.e, phiC)
		}
	default:
		phi1 := toRad(lat0)
		p.chi1 = conformalLatitude(p.e, phi1)
		p.sinChi1, p.cosChi1 = math.Sincos(p.chi1)
		p.akm1 = 2 * a * msfn(p.e, phi1)
	}
	return p, nil
}

// conformalLatitude is χ of Snyder (3-1).
func conformalLatitude(e, phi float64) float64 {
	s := e * math.Sin(phi)
	return 2*math.Atan(math.Tan(math.Pi/4+phi/2)*math.Pow((1-s)/(1+s), e/2)) - math.Pi/2
}

// geodeticLatitude inverts conformalLatitude by fixed-point iteration.
func geodeticLatitude(e, chi float64) float64 {
	phi := chi
	for i := 0; i < maxIterations; i++ {
		s := e * math.Sin(phi)
		next := 2*math.Atan(math.Tan(math.Pi/4+chi/2)*math.Pow((1+s)/(1-s), e/2)) - math.Pi/2
		delta := next - phi
		phi = next
		if math.Abs(delta) < tolerance {
			break
		}
	}
	return phi
}

func (p *Stereographic) Project(lon, lat float64) (float64, float64) {
	lon, lat = nudgeInput(lon, lat)
	dlon := wrapRadians(toRad(lon - p.lon0))
	phi := toRad(lat)

	switch p.aspect {
	case AspectNorthPolar:
		rho := p.k * tsfn(p.e, phi)
		return rho * math.Sin(dlon), -rho * math.Cos(dlon)
	case AspectSouthPolar:
		rho := p.k * tsfn(p.e, -phi)
		return rho * math.Sin(dlon), rho * math.Cos(dlon)
	}

	chi := conformalLatitude(p.e, phi)
	sinChi, cosChi := math.Sincos(chi)
	sinL, cosL := math.Sincos(dlon)
	denom := p.cosChi1 * (1 + p.sinChi1*sinChi + p.cosChi1*cosChi*cosL)
	if denom < 1e-12 {
		// antipode of the centre
		denom = 1e-12
	}
	a := p.akm1 / denom
	return a * cosChi * sinL, a * (p.cosChi1*sinChi - p.sinChi1*cosChi*cosL)
}

func (p *Stereographic) Unproject(x, y float64) (float64, float64) {
	rho := math.Hypot(x, y)

	switch p.aspect {
	case AspectNorthPolar:
		if rho == 0 {
			return clampOutput(p.lon0, 90)
		}
		lat := toDeg(phi2(p.e, rho/p.k))
		lon := p.lon0 + toDeg(math.Atan2(x, -y))
		return clampOutput(lon, lat)
	case AspectSouthPolar:
		if rho == 0 {
			return clampOutput(p.lon0, -90)
		}
		lat := -toDeg(phi2(p.e, rho/p.k))
		lon := p.lon0 + toDeg(math.Atan2(x, y))
		return clampOutput(lon, lat)
	}

	if rho == 0 {
		return clampOutput(p.lon0, p.lat0)
	}
	ce := 2 * math.Atan2(rho*p.cosChi1, p.akm1)
	sinCe, cosCe := math.Sincos(ce)
	sinChi := cosCe*p.sinChi1 + y*sinCe*p.cosChi1/rho
	chi := math.Asin(math.Max(-1, math.Min(1, sinChi)))
	lat := toDeg(geodeticLatitude(p.e, chi))
	lon := p.lon0 + toDeg(math.Atan2(x*sinCe, rho*p.cosChi1*cosCe-y*p.sinChi1*sinCe))
	return clampOutput(lon, lat)
}

func (p *Stereographic) Name() string         { return "stereographic" }
func (p *Stereographic) Ellipsoid() Ellipsoid { return p.ellipsoid }

// Aspect reports which case the projection was built for.
func (p *Stereographic) Aspect() Aspect { return p.aspect }

func (p *Stereographic) ParameterNames() []string {
	return []string{"lat_0", "lon_0", "lat_sec", "major_semiaxis", "minor_semiaxis"}
}

func (p *Stereographic) Parameters() []float64 {
	return []float64{p.lat0, p.lon0, p.latSec, p.ellipsoid.Major, p.ellipsoid.Minor}
}
