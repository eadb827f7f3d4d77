package grid

import (
	"fmt"
	"math"
	"strings"

	"github.com/beetlebugorg/geodataset/internal/xdr"
	"github.com/beetlebugorg/geodataset/pkg/projection"
)

// WriteHeader writes the projection and grid lines of a native file header:
//
//	# lcc projection: lat_1 lat_2 lat_0 lon_0 major_semiaxis minor_semiaxis
//	33 45 40 -97 6370000 6370000
//	# Grid: ncols nrows xorig yorig xcell ycell vgtyp vgtop vglvls[3]:
//	268 259 -420000 -1716000 12000 12000 2 10000 1 0.995 0.99
//
// The origin is written relative to the projection origin, so a grid whose
// XCenter/YCenter differ from the projection centre is written with an
// equivalent shifted origin.
func (g *Grid) WriteHeader(w *xdr.Writer) error {
	p := &g.params
	if err := w.WriteLine("# %s projection: %s", g.proj.Name(), strings.Join(g.proj.ParameterNames(), " ")); err != nil {
		return err
	}
	if err := w.WriteFloatLine(g.proj.Parameters()...); err != nil {
		return err
	}
	if err := w.WriteLine("# Grid: ncols nrows xorig yorig xcell ycell vgtyp vgtop vglvls[%d]:", len(p.Levels)); err != nil {
		return err
	}
	values := []float64{
		float64(p.Columns), float64(p.Rows),
		g.x0 + p.XOrigin, g.y0 + p.YOrigin,
		p.XCell, p.YCell,
		float64(p.VerticalType), p.VerticalTop,
	}
	values = append(values, p.Levels...)
	return w.WriteFloatLine(values...)
}

// ReadHeader reads the projection and grid lines written by WriteHeader.
// layers is the layer count from the enclosing dataset header.
func ReadHeader(r *xdr.Reader, layers int) (*Grid, error) {
	text, err := r.ExpectComment("")
	if err != nil {
		return nil, err
	}
	name, _, ok := strings.Cut(text, " projection:")
	if !ok {
		return nil, &xdr.HeaderError{Line: r.Line(), Expected: "# <name> projection: ...", Got: text}
	}
	names := strings.Fields(text[len(name)+len(" projection:"):])
	values, err := r.ReadFloatLine(len(names), -math.MaxFloat64, math.MaxFloat64)
	if err != nil {
		return nil, err
	}
	proj, err := projection.New(name, values)
	if err != nil {
		return nil, fmt.Errorf("grid header: %w", err)
	}

	if _, err := r.ExpectComment("Grid:"); err != nil {
		return nil, err
	}
	gv, err := r.ReadFloatLine(8+layers+1, -math.MaxFloat64, math.MaxFloat64)
	if err != nil {
		return nil, err
	}
	if gv[0] != math.Trunc(gv[0]) || gv[1] != math.Trunc(gv[1]) || gv[6] != math.Trunc(gv[6]) {
		return nil, &xdr.HeaderError{Line: r.Line(), Expected: "integer ncols nrows vgtyp", Got: fmt.Sprint(gv[:8])}
	}

	p := ParametersFor(proj)
	p.Columns, p.Rows, p.Layers = int(gv[0]), int(gv[1]), layers
	p.XOrigin, p.YOrigin = gv[2], gv[3]
	p.XCell, p.YCell = gv[4], gv[5]
	p.VerticalType, p.VerticalTop = VerticalType(gv[6]), gv[7]
	p.Levels = append([]float64(nil), gv[8:]...)
	return New(p)
}

// ParametersFor returns grid Parameters whose projection constants
// reproduce proj, with XCenter/YCenter at the projection origin. The
// horizontal layout and vertical fields are left zero.
func ParametersFor(proj projection.Projection) Parameters {
	v := proj.Parameters()
	p := Parameters{Ellipsoid: proj.Ellipsoid()}
	switch pr := proj.(type) {
	case *projection.LonLat:
		p.Type = LonLat
	case *projection.Lambert:
		p.Type = Lambert
		p.Alpha, p.Beta, p.YCenter, p.Gamma = v[0], v[1], v[2], v[3]
		p.XCenter = p.Gamma
	case *projection.Albers:
		p.Type = Albers
		p.Alpha, p.Beta, p.YCenter, p.Gamma = v[0], v[1], v[2], v[3]
		p.XCenter = p.Gamma
	case *projection.Stereographic:
		lat0, lon0, latSec := v[0], v[1], v[2]
		switch pr.Aspect() {
		case projection.AspectNorthPolar, projection.AspectSouthPolar:
			p.Type = PolarStereographic
			p.Alpha, p.Beta, p.Gamma = math.Copysign(1, lat0), latSec, lon0
		default:
			p.Type = Stereographic
			p.Alpha, p.Beta = lat0, lon0
		}
		p.XCenter, p.YCenter = lon0, lat0
	case *projection.Mercator:
		p.Type = Mercator
		p.Gamma = v[0]
		p.XCenter = p.Gamma
	}
	return p
}
