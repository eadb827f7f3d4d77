// Package grid describes regular projected grids: horizontal cell layout,
// map projection and vertical level scheme.
//
// Parameters follow the IOAPI conventions used by air-quality models
// (GDTYP, P_ALP/P_BET/P_GAM, XCENT/YCENT, XORIG/YORIG, XCELL/YCELL, VGTYP,
// VGTOP, VGLVLS). New validates a Parameters value and returns a Grid that
// computes cell geometry on demand.
//
// Example:
//
//	g, err := grid.New(grid.Parameters{
//	    Columns: 459, Rows: 299, Layers: 1,
//	    Type:      grid.Lambert,
//	    Ellipsoid: projection.Sphere(6370000),
//	    Alpha: 33, Beta: 45, Gamma: -97,
//	    XCenter: -97, YCenter: 40,
//	    XOrigin: -2556000, YOrigin: -1728000,
//	    XCell: 12000, YCell: 12000,
//	    VerticalType: grid.VerticalSigmaP, VerticalTop: 10000,
//	    Levels: []float64{1, 0.995},
//	})
package grid

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/beetlebugorg/geodataset/pkg/projection"
)

// ProjectionType is the IOAPI GDTYP code of a grid.
type ProjectionType int

const (
	LonLat             ProjectionType = 1
	Lambert            ProjectionType = 2
	Stereographic      ProjectionType = 4
	PolarStereographic ProjectionType = 6
	Mercator           ProjectionType = 7
	Albers             ProjectionType = 9
)

func (t ProjectionType) String() string {
	switch t {
	case LonLat:
		return "lonlat"
	case Lambert:
		return "lambert"
	case Stereographic:
		return "stereographic"
	case PolarStereographic:
		return "polar-stereographic"
	case Mercator:
		return "mercator"
	case Albers:
		return "albers"
	default:
		return fmt.Sprintf("gdtyp(%d)", int(t))
	}
}

// ParseProjectionType parses a projection name such as "lambert" or
// "polar-stereographic".
func ParseProjectionType(s string) (ProjectionType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range []ProjectionType{LonLat, Lambert, Stereographic, PolarStereographic, Mercator, Albers} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, &ValidationError{"gdtyp", fmt.Sprintf("unknown projection %q", s)}
}

// DefaultSphere is the spherical earth used by CMAQ-family models.
var DefaultSphere = projection.Sphere(6370000)

// Parameters is a value-semantic grid description. Use Clone for a deep
// copy and Equal for comparison.
type Parameters struct {
	Columns int
	Rows    int
	Layers  int

	Type      ProjectionType
	Ellipsoid projection.Ellipsoid

	// Projection constants (IOAPI P_ALP, P_BET, P_GAM). Their meaning
	// depends on Type:
	//   Lambert, Albers:    first and second standard parallel, central meridian
	//   Stereographic:      tangent point latitude and longitude, unused
	//   PolarStereographic: pole (+1 north, -1 south), true-scale latitude, central meridian
	//   Mercator:           unused, unused, central meridian
	Alpha float64
	Beta  float64
	Gamma float64

	// XCenter, YCenter is the lon-lat whose projected coordinates are (0, 0)
	// for XOrigin, YOrigin.
	XCenter float64
	YCenter float64

	// Lower-left corner of the grid and cell size, in projected units
	// (metres, or degrees for LonLat grids).
	XOrigin float64
	YOrigin float64
	XCell   float64
	YCell   float64

	VerticalType VerticalType
	VerticalTop  float64
	Levels       []float64 // Layers+1 level values
}

// Clone returns a deep copy of p.
func (p Parameters) Clone() Parameters {
	p.Levels = slices.Clone(p.Levels)
	return p
}

// Equal reports whether p and o describe the same grid.
func (p Parameters) Equal(o Parameters) bool {
	return p.Columns == o.Columns && p.Rows == o.Rows && p.Layers == o.Layers &&
		p.Type == o.Type && p.Ellipsoid == o.Ellipsoid &&
		p.Alpha == o.Alpha && p.Beta == o.Beta && p.Gamma == o.Gamma &&
		p.XCenter == o.XCenter && p.YCenter == o.YCenter &&
		p.XOrigin == o.XOrigin && p.YOrigin == o.YOrigin &&
		p.XCell == o.XCell && p.YCell == o.YCell &&
		p.VerticalType == o.VerticalType && p.VerticalTop == o.VerticalTop &&
		slices.Equal(p.Levels, o.Levels)
}

// ValidationError reports an invalid grid parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid grid %s: %s", e.Field, e.Reason)
}

// Grid is a validated regular grid.
type Grid struct {
	params Parameters
	proj   projection.Projection

	// projected coordinates of (XCenter, YCenter)
	x0, y0 float64

	vertical verticalProfile
}

// New validates p and builds its projection and vertical profile.
func New(p Parameters) (*Grid, error) {
	if p.Ellipsoid == (projection.Ellipsoid{}) {
		p.Ellipsoid = DefaultSphere
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	proj, err := p.projection()
	if err != nil {
		return nil, fmt.Errorf("grid projection: %w", err)
	}

	g := &Grid{params: p.Clone(), proj: proj}
	if !p.originCentered() {
		g.x0, g.y0 = proj.Project(p.XCenter, p.YCenter)
	}
	g.vertical = newVerticalProfile(p.VerticalType, p.VerticalTop, p.Levels)
	return g, nil
}

// MustNew is like New but panics on error. It is intended for tests and
// package-level grid definitions.
func MustNew(p Parameters) *Grid {
	g, err := New(p)
	if err != nil {
		panic(err)
	}
	return g
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (p Parameters) validate() error {
	switch {
	case p.Columns <= 0:
		return &ValidationError{"columns", fmt.Sprintf("%d must be positive", p.Columns)}
	case p.Rows <= 0:
		return &ValidationError{"rows", fmt.Sprintf("%d must be positive", p.Rows)}
	case p.Layers <= 0:
		return &ValidationError{"layers", fmt.Sprintf("%d must be positive", p.Layers)}
	case !(p.XCell > 0) || !finite(p.XCell):
		return &ValidationError{"xcell", fmt.Sprintf("%g must be positive", p.XCell)}
	case !(p.YCell > 0) || !finite(p.YCell):
		return &ValidationError{"ycell", fmt.Sprintf("%g must be positive", p.YCell)}
	case !finite(p.XOrigin) || !finite(p.YOrigin):
		return &ValidationError{"origin", "must be finite"}
	}

	if p.Type == LonLat {
		west, south := p.XOrigin, p.YOrigin
		east := west + float64(p.Columns)*p.XCell
		north := south + float64(p.Rows)*p.YCell
		if west < -180 || east > 540 || east-west > 360 {
			return &ValidationError{"xorig", fmt.Sprintf("longitude extent [%g, %g] invalid", west, east)}
		}
		if south < -90 || north > 90 {
			return &ValidationError{"yorig", fmt.Sprintf("latitude extent [%g, %g] invalid", south, north)}
		}
	}

	if len(p.Levels) != p.Layers+1 {
		return &ValidationError{"vglvls", fmt.Sprintf("got %d levels, want layers+1 = %d", len(p.Levels), p.Layers+1)}
	}
	return p.VerticalType.validateLevels(p.VerticalTop, p.Levels)
}

// originCentered reports whether (XCenter, YCenter) is the projection
// origin, whose projected coordinates are (0, 0) by definition.
func (p Parameters) originCentered() bool {
	switch p.Type {
	case Lambert, Albers:
		return p.XCenter == p.Gamma
	case Mercator:
		return p.XCenter == p.Gamma && p.YCenter == 0
	case Stereographic:
		return p.XCenter == p.Beta && p.YCenter == p.Alpha
	case PolarStereographic:
		return p.YCenter == 90*p.Alpha
	default:
		return true
	}
}

// projection maps the IOAPI constants onto a concrete projection.
func (p Parameters) projection() (projection.Projection, error) {
	e := p.Ellipsoid
	switch p.Type {
	case LonLat:
		return projection.NewLonLat(e)
	case Lambert:
		return projection.NewLambert(e, p.Alpha, p.Beta, p.YCenter, p.Gamma)
	case Albers:
		return projection.NewAlbers(e, p.Alpha, p.Beta, p.YCenter, p.Gamma)
	case Stereographic:
		return projection.NewStereographic(e, p.Alpha, p.Beta, p.Alpha)
	case PolarStereographic:
		if p.Alpha != 1 && p.Alpha != -1 {
			return nil, &ValidationError{"p_alp", fmt.Sprintf("%g must be +1 or -1 for polar stereographic", p.Alpha)}
		}
		return projection.NewStereographic(e, 90*p.Alpha, p.Gamma, p.Beta)
	case Mercator:
		return projection.NewMercator(e, p.Gamma)
	default:
		return nil, &ValidationError{"gdtyp", fmt.Sprintf("unsupported projection type %d", int(p.Type))}
	}
}

// Parameters returns a copy of the grid description.
func (g *Grid) Parameters() Parameters { return g.params.Clone() }

// Projection returns the grid's map projection.
func (g *Grid) Projection() projection.Projection { return g.proj }

func (g *Grid) Columns() int { return g.params.Columns }
func (g *Grid) Rows() int    { return g.params.Rows }
func (g *Grid) Layers() int  { return g.params.Layers }

// Cells returns the number of cells in one layer.
func (g *Grid) Cells() int { return g.params.Columns * g.params.Rows }

// Equal reports whether two grids share the same parameters.
func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	return g.params.Equal(o.params)
}

// Corner returns the lon-lat of grid corner (i, j), 0 <= i <= Columns,
// 0 <= j <= Rows. Corner (0, 0) is the lower-left corner of the grid.
func (g *Grid) Corner(i, j int) (lon, lat float64) {
	return g.at(float64(i), float64(j))
}

// CellCenter returns the lon-lat of the centre of cell (col, row).
func (g *Grid) CellCenter(col, row int) (lon, lat float64) {
	return g.at(float64(col)+0.5, float64(row)+0.5)
}

// at unprojects fractional grid coordinates.
func (g *Grid) at(fi, fj float64) (float64, float64) {
	p := &g.params
	x := g.x0 + p.XOrigin + fi*p.XCell
	y := g.y0 + p.YOrigin + fj*p.YCell
	return g.proj.Unproject(x, y)
}

// CellOf returns the cell containing (lon, lat), or ok == false when the
// point lies outside the grid.
func (g *Grid) CellOf(lon, lat float64) (col, row int, ok bool) {
	p := &g.params
	x, y := g.proj.Project(lon, lat)
	if p.Type == LonLat && x < p.XOrigin {
		x += 360
	}
	fi := (x - g.x0 - p.XOrigin) / p.XCell
	fj := (y - g.y0 - p.YOrigin) / p.YCell
	if !(fi >= 0 && fj >= 0) {
		return 0, 0, false
	}
	col, row = int(fi), int(fj)
	if col >= p.Columns || row >= p.Rows {
		return 0, 0, false
	}
	return col, row, true
}

// Extent returns the lon-lat bounding box of the grid perimeter.
func (g *Grid) Extent() (west, east, south, north float64) {
	west, south = math.Inf(1), math.Inf(1)
	east, north = math.Inf(-1), math.Inf(-1)
	visit := func(i, j int) {
		lon, lat := g.Corner(i, j)
		west, east = math.Min(west, lon), math.Max(east, lon)
		south, north = math.Min(south, lat), math.Max(north, lat)
	}
	cols, rows := g.params.Columns, g.params.Rows
	for i := 0; i <= cols; i++ {
		visit(i, 0)
		visit(i, rows)
	}
	for j := 1; j < rows; j++ {
		visit(0, j)
		visit(cols, j)
	}
	return west, east, south, north
}
