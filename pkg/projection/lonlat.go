package projection

// LonLat is the identity projection: projected x, y are longitude and
// latitude in degrees.
type LonLat struct {
	ellipsoid Ellipsoid
}

// NewLonLat returns the identity projection on the given ellipsoid.
func NewLonLat(e Ellipsoid) (*LonLat, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &LonLat{ellipsoid: e}, nil
}

func (p *LonLat) Project(lon, lat float64) (float64, float64) {
	return clampOutput(lon, lat)
}

func (p *LonLat) Unproject(x, y float64) (float64, float64) {
	return clampOutput(x, y)
}

func (p *LonLat) Name() string         { return "lonlat" }
func (p *LonLat) Ellipsoid() Ellipsoid { return p.ellipsoid }

func (p *LonLat) ParameterNames() []string {
	return []string{"major_semiaxis", "minor_semiaxis"}
}

func (p *LonLat) Parameters() []float64 {
	return []float64{p.ellipsoid.Major, p.ellipsoid.Minor}
}
