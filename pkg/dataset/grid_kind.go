package dataset

import (
	"fmt"
	"strconv"

	"github.com/beetlebugorg/geodataset/internal/xdr"
	"github.com/beetlebugorg/geodataset/pkg/grid"
)

// gridVariant computes cell geometry from grid parameters. Cell indices run
// [layer][row][column].
type gridVariant struct {
	g       *grid.Grid
	workers int
	corners *grid.CornerTable // built on first use
}

// NewGrid returns an in-memory Grid dataset. data is laid out
// [timestep][variable][layer][row][column].
func NewGrid(m Metadata, g *grid.Grid, data []float64, opts Options) (*Dataset, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	if g == nil {
		return nil, &ArgumentError{Name: "grid", Reason: "nil"}
	}
	v := &gridVariant{g: g}
	cells := v.cellCount()
	if want := m.Timesteps * len(m.Variables) * cells; len(data) != want {
		return nil, &ArgumentError{Name: "data", Reason: fmt.Sprintf("got %d values, want %d", len(data), want)}
	}
	if err := checkFinite("data", data); err != nil {
		return nil, err
	}
	d := newDataset(m, v, opts)
	v.workers = d.opts.Workers
	d.stepCells = cells
	d.win = window{first: 0, count: m.Timesteps, data: append([]float64(nil), data...)}
	return d, nil
}

func (v *gridVariant) kind() Kind { return KindGrid }

func (v *gridVariant) cellType() CellType {
	if v.g.Layers() == 1 {
		return CellQuadrilateral
	}
	return CellHexahedron
}

func (v *gridVariant) storage() CoordinateStorage { return StorageComputed }

func (v *gridVariant) cellCount() int { return v.g.Layers() * v.g.Cells() }

func (v *gridVariant) split(cell int) (col, row, layer int) {
	cols, rows := v.g.Columns(), v.g.Rows()
	return cell % cols, cell / cols % rows, cell / (cols * rows)
}

func (v *gridVariant) cellIndex(col, row, layer int) int {
	return (layer*v.g.Rows()+row)*v.g.Columns() + col
}

func (v *gridVariant) table() *grid.CornerTable {
	if v.corners == nil {
		v.corners = v.g.Corners(v.workers)
	}
	return v.corners
}

func (v *gridVariant) vertices(cell int, dst []Point) ([]Point, error) {
	_, _, layer := v.split(cell)
	var bottom, top float64
	if v.g.ThicknessKnown() {
		bottom, _ = v.g.LevelElevation(layer)
		top, _ = v.g.LevelElevation(layer + 1)
	} else if v.g.Layers() > 1 {
		return dst, unsupported(KindGrid, "hexahedron vertices without layer thickness")
	}

	n := len(dst)
	dst = v.footprint(cell, dst)
	for i := n; i < n+4; i++ {
		dst[i].Elevation = bottom
	}
	if v.g.Layers() > 1 {
		for i := n; i < n+4; i++ {
			p := dst[i]
			p.Elevation = top
			dst = append(dst, p)
		}
	}
	return dst, nil
}

// footprint appends the four lon-lat corners of cell's column.
func (v *gridVariant) footprint(cell int, dst []Point) []Point {
	col, row, _ := v.split(cell)
	t := v.table()
	for _, c := range [4][2]int{{col, row}, {col + 1, row}, {col + 1, row + 1}, {col, row + 1}} {
		lon, lat := t.At(c[0], c[1])
		dst = append(dst, Point{Longitude: lon, Latitude: lat})
	}
	return dst
}

func (v *gridVariant) center(cell int) (lon, lat, elevation float64, hasElevation bool) {
	col, row, layer := v.split(cell)
	lon, lat = v.g.CellCenter(col, row)
	z, err := v.g.LayerCenterElevation(layer)
	return lon, lat, z, err == nil
}

func (v *gridVariant) bounds() Bounds {
	west, east, south, north := v.g.Extent()
	return Bounds{West: west, East: east, South: south, North: north}
}

func (v *gridVariant) eachCell(_ int, fn func(cell int)) {
	for c := range v.cellCount() {
		fn(c)
	}
}

func (v *gridVariant) contains(cell int, lon, lat float64) bool {
	col, row, _ := v.split(cell)
	c, r, ok := v.g.CellOf(lon, lat)
	return ok && c == col && r == row
}

func (v *gridVariant) locate(_ *Dataset, q ProbeQuery, _ int) (int, string, bool, error) {
	col, row, ok := v.g.CellOf(q.Longitude, q.Latitude)
	if !ok {
		return -1, "", false, nil
	}
	layer := 0
	switch {
	case q.Layer >= 0:
		if q.Layer >= v.g.Layers() {
			return -1, "", false, &ArgumentError{Name: "layer", Reason: fmt.Sprintf("%d outside [0, %d)", q.Layer, v.g.Layers())}
		}
		layer = q.Layer
	case q.HasElevation && v.g.Layers() > 1:
		k, err := v.g.LayerOfElevation(q.Elevation)
		if err != nil {
			return -1, "", false, unsupported(KindGrid, "probe by elevation without layer thickness")
		}
		layer = k
	}
	return v.cellIndex(col, row, layer), "", true, nil
}

func (v *gridVariant) subset(d *Dataset, first, count, variable int) []SubsetGroup {
	return []SubsetGroup{{
		FirstTimestep: first,
		Values:        d.stepViews(first, count, variable),
	}}
}

func (v *gridVariant) dimensions(d *Dataset, sel selection) (string, []string) {
	return "timesteps layers timestep_size",
		[]string{strconv.Itoa(sel.count), strconv.Itoa(v.g.Layers()), d.step.String()}
}

func (v *gridVariant) encode(w *xdr.Writer, d *Dataset, sel selection) error {
	if err := v.g.WriteHeader(w); err != nil {
		return err
	}
	if err := w.WriteLine("# IEEE-754 32-bit reals data[timesteps][variables][layers][rows][columns]:"); err != nil {
		return err
	}
	return d.encodeSteps(w, sel)
}

func (v *gridVariant) clone() variant {
	return &gridVariant{g: v.g, workers: v.workers}
}

// encodeSteps writes the selected 32-bit data of a fixed-cell dataset,
// paging as needed.
func (d *Dataset) encodeSteps(w *xdr.Writer, sel selection) error {
	for t := sel.first; t < sel.first+sel.count; t++ {
		if err := d.ensureResident(t, 1); err != nil {
			return err
		}
		for _, v := range sel.vars {
			if err := w.WriteFloats(xdr.Float32, d.stepViews(t, 1, v)[0], -xdr.FloatRange, xdr.FloatRange); err != nil {
				return fmt.Errorf("%s timestep %d: %w", d.variables[v].Name, t, err)
			}
		}
	}
	return nil
}
