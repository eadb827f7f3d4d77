package dataset

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/dhconnelly/rtreego"
)

// CellVertices appends the vertices of cell to dst[:0] and returns the
// result. Quadrilaterals are ordered lower-left, lower-right, upper-right,
// upper-left; hexahedra list the bottom face then the top face in the same
// order. Point cells have one vertex.
func (d *Dataset) CellVertices(cell int, dst []Point) ([]Point, error) {
	if cell < 0 || cell >= d.v.cellCount() {
		return dst[:0], &ArgumentError{Name: "cell", Reason: fmt.Sprintf("%d outside [0, %d)", cell, d.v.cellCount())}
	}
	return d.v.vertices(cell, dst[:0])
}

// Contains reports whether (lon, lat) lies in cell. Point cells contain
// locations within Options.ProbeTolerance degrees.
func (d *Dataset) Contains(cell int, lon, lat float64) (bool, error) {
	if g, ok := d.v.(*gridVariant); ok {
		if cell < 0 || cell >= g.cellCount() {
			return false, &ArgumentError{Name: "cell", Reason: fmt.Sprintf("%d outside [0, %d)", cell, g.cellCount())}
		}
		return g.contains(cell, lon, lat), nil
	}
	vs, err := d.CellVertices(cell, nil)
	if err != nil {
		return false, err
	}
	if len(vs) == 1 {
		return planarDistance(vs[0].Longitude, vs[0].Latitude, lon, lat) <= d.opts.ProbeTolerance, nil
	}
	return quadContains(vs, lon, lat), nil
}

// quadContains tests a lon-lat point against the footprint of the first four
// vertices. Points on an edge count as inside.
func quadContains(vs []Point, lon, lat float64) bool {
	ring := make([]geom.Point, 0, 5)
	for _, v := range vs[:4] {
		ring = append(ring, geom.Point{X: v.Longitude, Y: v.Latitude})
	}
	ring = append(ring, ring[0])
	return geom.Point{X: lon, Y: lat}.Within(geom.Polygon{ring}) != geom.Outside
}

// planarDistance is the lon-lat distance in degrees with longitude scaled
// by the cosine of the mean latitude.
func planarDistance(lon1, lat1, lon2, lat2 float64) float64 {
	dx := (lon2 - lon1) * math.Cos((lat1+lat2)*math.Pi/360)
	dy := lat2 - lat1
	return math.Hypot(dx, dy)
}

// cellEntry is one cell in a cellIndex.
type cellEntry struct {
	cell int
	rect rtreego.Rect
}

func (e cellEntry) Bounds() rtreego.Rect { return e.rect }

// cellIndex is an R-tree over the bounding boxes of stored cells.
type cellIndex struct {
	tree *rtreego.Rtree
}

func newCellIndex(n int, box func(cell int) Bounds) *cellIndex {
	objs := make([]rtreego.Spatial, n)
	for i := range objs {
		objs[i] = cellEntry{cell: i, rect: box(i).rect()}
	}
	return &cellIndex{tree: rtreego.NewTree(2, 25, 50, objs...)}
}

// search returns cells whose boxes intersect b and for which keep (if not
// nil) returns true.
func (ix *cellIndex) search(b Bounds, keep func(cell int) bool) []int {
	var filters []rtreego.Filter
	if keep != nil {
		filters = append(filters, func(_ []rtreego.Spatial, obj rtreego.Spatial) (bool, bool) {
			return !keep(obj.(cellEntry).cell), false
		})
	}
	found := ix.tree.SearchIntersect(b.rect(), filters...)
	cells := make([]int, len(found))
	for i, s := range found {
		cells[i] = s.(cellEntry).cell
	}
	return cells
}

// nearestPoint picks, among point cells near q and accepted by keep, the
// one closest to q: horizontally, or vertically when q has an elevation and
// the cells store elevations. Ties go to the lowest cell index.
func nearestPoint(ix *cellIndex, lons, lats, elevs []float64, q ProbeQuery, tol float64, keep func(cell int) bool) (int, bool) {
	box := Bounds{West: q.Longitude - tol, East: q.Longitude + tol, South: q.Latitude - tol, North: q.Latitude + tol}
	useZ := q.HasElevation && elevs != nil
	best, bestH, bestZ := -1, math.Inf(1), math.Inf(1)
	for _, c := range ix.search(box, keep) {
		h := planarDistance(lons[c], lats[c], q.Longitude, q.Latitude)
		if h > tol {
			continue
		}
		z := 0.0
		if useZ {
			z = math.Abs(elevs[c] - q.Elevation)
		}
		better := false
		switch {
		case useZ && z != bestZ:
			better = z < bestZ
		case h != bestH:
			better = h < bestH
		default:
			better = best < 0 || c < best
		}
		if better {
			best, bestH, bestZ = c, h, z
		}
	}
	return best, best >= 0
}
