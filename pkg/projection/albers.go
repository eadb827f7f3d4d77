package projection

import "math"

// Albers is the Albers equal-area conic projection (Snyder ch. 14).
type Albers struct {
	ellipsoid  Ellipsoid
	lat1, lat2 float64
	lat0, lon0 float64

	e    float64
	n    float64
	c    float64
	rho0 float64
	qp   float64 // q at the pole
}

// NewAlbers constructs an Albers equal-area conic projection with standard
// parallels lat1 and lat2 (equal for a tangent cone), origin latitude lat0
// and central meridian lon0.
func NewAlbers(e Ellipsoid, lat1, lat2, lat0, lon0 float64) (*Albers, error) {
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
	if math.Abs(lat1+lat2) < 1e-10 {
		return nil, &ParameterError{Name: "lat_2", Value: lat2, Reason: "standard parallels symmetric about the equator"}
	}

	p := &Albers{ellipsoid: e, lat1: lat1, lat2: lat2, lat0: lat0, lon0: lon0}
	p.e = e.eccentricity()

	phi1, phi2 := toRad(lat1), toRad(lat2)
	m1, q1 := msfn(p.e, phi1), qsfn(p.e, phi1)
	if math.Abs(lat1-lat2) < 1e-10 {
		p.n = math.Sin(phi1)
	} else {
		m2, q2 := msfn(p.e, phi2), qsfn(p.e, phi2)
		p.n = (m1*m1 - m2*m2) / (q2 - q1)
	}
	if math.Abs(p.n) < 1e-12 {
		return nil, &ParameterError{Name: "lat_1", Value: lat1, Reason: "cone constant is zero"}
	}
	p.c = m1*m1 + p.n*q1
	p.rho0 = p.rho(qsfn(p.e, toRad(lat0)))
	p.qp = qsfn(p.e, math.Pi/2)
	return p, nil
}

func (p *Albers) rho(q float64) float64 {
	return p.ellipsoid.Major * math.Sqrt(math.Max(0, p.c-p.n*q)) / p.n
}

func (p *Albers) Project(lon, lat float64) (float64, float64) {
	lon, lat = nudgeInput(lon, lat)
	rho := p.rho(qsfn(p.e, toRad(lat)))
	theta := p.n * wrapRadians(toRad(lon-p.lon0))
	return rho * math.Sin(theta), p.rho0 - rho*math.Cos(theta)
}

func (p *Albers) Unproject(x, y float64) (float64, float64) {
	dy := p.rho0 - y
	rho := math.Hypot(x, dy)
	if p.n < 0 {
		rho, x, dy = -rho, -x, -dy
	}
	theta := math.Atan2(x, dy)
	r := rho * p.n / p.ellipsoid.Major
	q := (p.c - r*r) / p.n
	lat := toDeg(p.latitude(q))
	lon := p.lon0 + toDeg(theta/p.n)
	return clampOutput(lon, lat)
}

// latitude inverts qsfn with Newton iteration (Snyder 3-16).
func (p *Albers) latitude(q float64) float64 {
	if math.Abs(1-math.Abs(q)/p.qp) < 1e-10 || math.Abs(q) > p.qp {
		return math.Copysign(math.Pi/2, q)
	}
	phi := math.Asin(q / 2)
	if p.e < 1e-10 {
		return phi
	}
	e2 := p.e * p.e
	for i := 0; i < maxIterations; i++ {
		sinPhi := math.Sin(phi)
		s := p.e * sinPhi
		one := 1 - s*s
		delta := one * one / (2 * math.Cos(phi)) *
			(q/(1-e2) - sinPhi/one + math.Log((1-s)/(1+s))/(2*p.e))
		phi += delta
		if math.Abs(delta) < tolerance {
			break
		}
	}
	return phi
}

func (p *Albers) Name() string         { return "albers" }
func (p *Albers) Ellipsoid() Ellipsoid { return p.ellipsoid }

func (p *Albers) ParameterNames() []string {
	return []string{"lat_1", "lat_2", "lat_0", "lon_0", "major_semiaxis", "minor_semiaxis"}
}

func (p *Albers) Parameters() []float64 {
	return []float64{p.lat1, p.lat2, p.lat0, p.lon0, p.ellipsoid.Major, p.ellipsoid.Minor}
}
