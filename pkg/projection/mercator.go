package projection

import "math"

// Mercator is the ellipsoidal normal-aspect Mercator projection.
type Mercator struct {
	ellipsoid Ellipsoid
	lon0      float64
	e         float64
}

// NewMercator constructs a Mercator projection with central meridian lon0.
func NewMercator(e Ellipsoid, lon0 float64) (*Mercator, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := checkLongitude("lon_0", lon0); err != nil {
		return nil, err
	}
	return &Mercator{ellipsoid: e, lon0: lon0, e: e.eccentricity()}, nil
}

func (p *Mercator) Project(lon, lat float64) (float64, float64) {
	lon, lat = nudgeInput(lon, lat)
	a := p.ellipsoid.Major
	x := a * wrapRadians(toRad(lon-p.lon0))
	y := -a * math.Log(tsfn(p.e, toRad(lat)))
	return x, y
}

func (p *Mercator) Unproject(x, y float64) (float64, float64) {
	a := p.ellipsoid.Major
	lat := toDeg(phi2(p.e, math.Exp(-y/a)))
	lon := p.lon0 + toDeg(x/a)
	return clampOutput(lon, lat)
}

func (p *Mercator) Name() string         { return "mercator" }
func (p *Mercator) Ellipsoid() Ellipsoid { return p.ellipsoid }

func (p *Mercator) ParameterNames() []string {
	return []string{"lon_0", "major_semiaxis", "minor_semiaxis"}
}

func (p *Mercator) Parameters() []float64 {
	return []float64{p.lon0, p.ellipsoid.Major, p.ellipsoid.Minor}
}
