package dataset

import (
	"fmt"
	"math"
	"sort"

	"github.com/beetlebugorg/geodataset/internal/xdr"
)

// checkFinite rejects NaN and infinite values.
func checkFinite(name string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ArgumentError{Name: name, Reason: fmt.Sprintf("value %d is %g", i, v)}
		}
	}
	return nil
}

// checkAxis rejects values outside an axis range.
func checkAxis(a xdr.Axis, values []float64) error {
	for i, v := range values {
		if !(v >= a.Min && v <= a.Max) {
			return &ArgumentError{Name: a.Name, Reason: fmt.Sprintf("value %d = %g not in [%g, %g]", i, v, a.Min, a.Max)}
		}
	}
	return nil
}

// offsetsOf converts per-group counts into prefix offsets and checks that
// they add up to total.
func offsetsOf(name string, counts []int64, total int) ([]int, error) {
	offsets := make([]int, len(counts)+1)
	for i, c := range counts {
		if c < 0 {
			return nil, &ArgumentError{Name: name, Reason: fmt.Sprintf("count %d is negative", i)}
		}
		offsets[i+1] = offsets[i] + int(c)
	}
	if offsets[len(counts)] != total {
		return nil, &ArgumentError{Name: name, Reason: fmt.Sprintf("counts sum to %d, want %d", offsets[len(counts)], total)}
	}
	return offsets, nil
}

// groupOf returns the group holding item i given prefix offsets.
func groupOf(offsets []int, i int) int {
	return sort.SearchInts(offsets, i+1) - 1
}

// pointCells is the coordinate store shared by the point-cell kinds.
type pointCells struct {
	lon, lat, elev []float64 // elev is nil when not stored
	index          *cellIndex
}

func (p *pointCells) cellCount() int { return len(p.lon) }

func (p *pointCells) vertices(cell int, dst []Point) ([]Point, error) {
	lon, lat, z, _ := p.center(cell)
	return append(dst, Point{Longitude: lon, Latitude: lat, Elevation: z}), nil
}

func (p *pointCells) center(cell int) (lon, lat, elevation float64, hasElevation bool) {
	if p.elev != nil {
		return p.lon[cell], p.lat[cell], p.elev[cell], true
	}
	return p.lon[cell], p.lat[cell], 0, false
}

func (p *pointCells) bounds() Bounds { return boundsOf(p.lon, p.lat) }

func (p *pointCells) nearest(q ProbeQuery, tol float64, keep func(cell int) bool) (int, bool) {
	if p.index == nil {
		p.index = newCellIndex(len(p.lon), func(c int) Bounds {
			return Bounds{West: p.lon[c], East: p.lon[c], South: p.lat[c], North: p.lat[c]}
		})
	}
	return nearestPoint(p.index, p.lon, p.lat, p.elev, q, tol, keep)
}

func (p *pointCells) clone() pointCells {
	c := pointCells{
		lon: append([]float64(nil), p.lon...),
		lat: append([]float64(nil), p.lat...),
	}
	if p.elev != nil {
		c.elev = append([]float64(nil), p.elev...)
	}
	return c
}

func (p *pointCells) validate() error {
	if len(p.lat) != len(p.lon) || (p.elev != nil && len(p.elev) != len(p.lon)) {
		return &ArgumentError{Name: "coordinates", Reason: "longitude, latitude and elevation lengths differ"}
	}
	if err := checkAxis(xdr.Longitude, p.lon); err != nil {
		return err
	}
	if err := checkAxis(xdr.Latitude, p.lat); err != nil {
		return err
	}
	if p.elev != nil {
		return checkAxis(xdr.Elevation, p.elev)
	}
	return nil
}

// axes returns the stored axes and their ranges over cells [lo, hi).
func (p *pointCells) axes(lo, hi int) ([][]float64, []xdr.Axis) {
	values := [][]float64{p.lon[lo:hi], p.lat[lo:hi]}
	axes := []xdr.Axis{xdr.Longitude, xdr.Latitude}
	if p.elev != nil {
		values = append(values, p.elev[lo:hi])
		axes = append(axes, xdr.Elevation)
	}
	return values, axes
}

// viewsOf returns coordinate views over cells [lo, hi).
func (p *pointCells) viewsOf(g *SubsetGroup, lo, hi int) {
	g.Longitudes = p.lon[lo:hi:hi]
	g.Latitudes = p.lat[lo:hi:hi]
	if p.elev != nil {
		g.Elevations = p.elev[lo:hi:hi]
	}
}

// encodeData writes variables sel.vars of a [variable][cell] dataset over
// cell ranges, in the given width.
func (d *Dataset) encodeData(w *xdr.Writer, t xdr.Type, sel selection, ranges [][2]int) error {
	n := d.v.cellCount()
	limit := math.MaxFloat64
	if t == xdr.Float32 {
		limit = xdr.FloatRange
	}
	for _, v := range sel.vars {
		for _, r := range ranges {
			if err := w.WriteFloats(t, d.data[v*n+r[0]:v*n+r[1]], -limit, limit); err != nil {
				return fmt.Errorf("%s: %w", d.variables[v].Name, err)
			}
		}
	}
	return nil
}
