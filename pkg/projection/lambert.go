package projection

import "math"

// Lambert is the Lambert conformal conic projection with one (tangent) or
// two (secant) standard parallels. A negative cone constant selects the
// southern-hemisphere cone.
type Lambert struct {
	ellipsoid  Ellipsoid
	lat1, lat2 float64
	lat0, lon0 float64

	e    float64 // eccentricity
	n    float64 // cone constant
	f    float64 // a * F
	rho0 float64
}

// NewLambert constructs a Lambert conformal conic projection.
//
// lat1 and lat2 are the standard parallels (equal for a tangent cone),
// lat0 the latitude of the projection origin and lon0 the central meridian.
func NewLambert(e Ellipsoid, lat1, lat2, lat0, lon0 float64) (*Lambert, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	for _, c := range []struct {
		name string
		v    float64
	}{{"lat_1", lat1}, {"lat_2", lat2}, {"lat_0", lat0}} {
		if err := checkLatitude(c.name, c.v); err != nil {
			return nil, err
		}
	}
	if err := checkLongitude("lon_0", lon0); err != nil {
		return nil, err
	}
	if math.Abs(lat1) >= 90 || math.Abs(lat2) >= 90 {
		return nil, &ParameterError{Name: "lat_1", Value: lat1, Reason: "standard parallels cannot be poles"}
	}
	if math.Abs(lat1+lat2) < 1e-10 {
		return nil, &ParameterError{Name: "lat_2", Value: lat2, Reason: "standard parallels symmetric about the equator"}
	}
	if math.Abs(lat0) >= 90 {
		return nil, &ParameterError{Name: "lat_0", Value: lat0, Reason: "origin cannot be a pole"}
	}

	p := &Lambert{ellipsoid: e, lat1: lat1, lat2: lat2, lat0: lat0, lon0: lon0}
	p.e = e.eccentricity()

	phi1, phi2 := toRad(lat1), toRad(lat2)
	m1, t1 := msfn(p.e, phi1), tsfn(p.e, phi1)
	if math.Abs(lat1-lat2) < 1e-10 {
		p.n = math.Sin(phi1)
	} else {
		m2, t2 := msfn(p.e, phi2), tsfn(p.e, phi2)
		p.n = math.Log(m1/m2) / math.Log(t1/t2)
	}
	if math.Abs(p.n) < 1e-12 {
		return nil, &ParameterError{Name: "lat_1", Value: lat1, Reason: "cone constant is zero"}
	}
	p.f = e.Major * m1 / (p.n * math.Pow(t1, p.n))
	p.rho0 = p.f * math.Pow(tsfn(p.e, toRad(lat0)), p.n)
	return p, nil
}

func (p *Lambert) Project(lon, lat float64) (float64, float64) {
	lon, lat = nudgeInput(lon, lat)
	// the pole opposite the cone apex maps to infinity
	if p.n > 0 && lat < -90+1e-6 {
		lat = -90 + 1e-6
	} else if p.n < 0 && lat > 90-1e-6 {
		lat = 90 - 1e-6
	}
	rho := p.f * math.Pow(tsfn(p.e, toRad(lat)), p.n)
	theta := p.n * wrapRadians(toRad(lon-p.lon0))
	return rho * math.Sin(theta), p.rho0 - rho*math.Cos(theta)
}

func (p *Lambert) Unproject(x, y float64) (float64, float64) {
	dy := p.rho0 - y
	rho := math.Hypot(x, dy)
	sign := 1.0
	if p.n < 0 {
		rho, x, dy, sign = -rho, -x, -dy, -1
	}
	if rho == 0 {
		return clampOutput(p.lon0, sign*90)
	}
	theta := math.Atan2(x, dy)
	t := math.Pow(rho/p.f, 1/p.n)
	lat := toDeg(phi2(p.e, t))
	lon := p.lon0 + toDeg(theta/p.n)
	return clampOutput(lon, lat)
}

func (p *Lambert) Name() string         { return "lcc" }
func (p *Lambert) Ellipsoid() Ellipsoid { return p.ellipsoid }

// ConeConstant returns n; negative for a southern cone.
func (p *Lambert) ConeConstant() float64 { return p.n }

func (p *Lambert) ParameterNames() []string {
	return []string{"lat_1", "lat_2", "lat_0", "lon_0", "major_semiaxis", "minor_semiaxis"}
}

func (p *Lambert) Parameters() []float64 {
	return []float64{p.lat1, p.lat2, p.lat0, p.lon0, p.ellipsoid.Major, p.ellipsoid.Minor}
}
