package dataset

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/beetlebugorg/geodataset/internal/xdr"
)

// pointVariant holds points grouped by timestep. Points of timestep t are
// cells [offsets[t], offsets[t+1]).
type pointVariant struct {
	counts  []int64
	offsets []int
	pointCells
}

// NewPoints returns an in-memory Point dataset. counts holds the number of
// points of each timestep; elevations may be nil. data is laid out
// [variable][point].
func NewPoints(m Metadata, counts []int64, lons, lats, elevations, data []float64, opts Options) (*Dataset, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	v, err := newPointVariant(m.Timesteps, slices.Clone(counts), pointCells{
		lon:  slices.Clone(lons),
		lat:  slices.Clone(lats),
		elev: slices.Clone(elevations),
	})
	if err != nil {
		return nil, err
	}
	return withPointData(m, v, data, opts)
}

func newPointVariant(timesteps int, counts []int64, cells pointCells) (*pointVariant, error) {
	if len(counts) != timesteps {
		return nil, &ArgumentError{Name: "counts", Reason: fmt.Sprintf("%d counts for %d timesteps", len(counts), timesteps)}
	}
	if err := cells.validate(); err != nil {
		return nil, err
	}
	offsets, err := offsetsOf("counts", counts, len(cells.lon))
	if err != nil {
		return nil, err
	}
	return &pointVariant{counts: counts, offsets: offsets, pointCells: cells}, nil
}

// withPointData attaches [variable][cell] data to a per-point variant.
func withPointData(m Metadata, v variant, data []float64, opts Options) (*Dataset, error) {
	if want := len(m.Variables) * v.cellCount(); len(data) != want {
		return nil, &ArgumentError{Name: "data", Reason: fmt.Sprintf("got %d values, want %d", len(data), want)}
	}
	if err := checkFinite("data", data); err != nil {
		return nil, err
	}
	d := newDataset(m, v, opts)
	d.data = slices.Clone(data)
	return d, nil
}

func (v *pointVariant) kind() Kind                 { return KindPoint }
func (v *pointVariant) cellType() CellType         { return CellPoint }
func (v *pointVariant) storage() CoordinateStorage { return StoragePerPoint }

func (v *pointVariant) eachCell(t int, fn func(cell int)) {
	for c := v.offsets[t]; c < v.offsets[t+1]; c++ {
		fn(c)
	}
}

func (v *pointVariant) locate(d *Dataset, q ProbeQuery, t int) (int, string, bool, error) {
	lo, hi := v.offsets[t], v.offsets[t+1]
	cell, ok := v.nearest(q, d.opts.ProbeTolerance, func(c int) bool { return c >= lo && c < hi })
	return cell, "", ok, nil
}

func (v *pointVariant) subset(d *Dataset, first, count, variable int) []SubsetGroup {
	lo, hi := v.offsets[first], v.offsets[first+count]
	n := v.cellCount()
	g := SubsetGroup{
		FirstTimestep: first,
		Values:        [][]float64{d.data[variable*n+lo : variable*n+hi : variable*n+hi]},
	}
	v.viewsOf(&g, lo, hi)
	return []SubsetGroup{g}
}

func (v *pointVariant) dimensions(d *Dataset, sel selection) (string, []string) {
	elevations := 0
	if v.elev != nil {
		elevations = 1
	}
	points := v.offsets[sel.first+sel.count] - v.offsets[sel.first]
	return "timesteps points timestep_size elevations",
		[]string{strconv.Itoa(sel.count), strconv.Itoa(points), d.step.String(), strconv.Itoa(elevations)}
}

func (v *pointVariant) encode(w *xdr.Writer, d *Dataset, sel selection) error {
	coords := "# IEEE-754 64-bit reals longitudes[points] latitudes[points] and"
	if v.elev != nil {
		coords = "# IEEE-754 64-bit reals longitudes[points] latitudes[points] elevations[points] and"
	}
	for _, l := range []string{"# MSB 64-bit integers counts[timesteps] and", coords, "# IEEE-754 64-bit reals data[variables][points]:"} {
		if err := w.WriteLine("%s", l); err != nil {
			return err
		}
	}
	lo, hi := v.offsets[sel.first], v.offsets[sel.first+sel.count]
	if err := w.WriteInts(xdr.Int64, v.counts[sel.first:sel.first+sel.count], 0, math.MaxInt64); err != nil {
		return fmt.Errorf("counts: %w", err)
	}
	values, axes := v.axes(lo, hi)
	if err := w.WriteAxes(xdr.Float64, values, axes...); err != nil {
		return err
	}
	return d.encodeData(w, xdr.Float64, sel, [][2]int{{lo, hi}})
}

func (v *pointVariant) clone() variant {
	return &pointVariant{counts: slices.Clone(v.counts), offsets: slices.Clone(v.offsets), pointCells: v.pointCells.clone()}
}

// readPoint decodes the Point header tail and payload.
func (dc *decoder) readPoint(m Metadata) (*Dataset, bool, error) {
	points := dc.dims["points"]
	withElevation := dc.dims["elevations"] != 0
	for _, prefix := range []string{"MSB 64-bit integers counts", "IEEE-754 64-bit reals longitudes", "IEEE-754 64-bit reals data"} {
		if _, err := dc.r.ExpectComment(prefix); err != nil {
			return nil, false, dc.fail("point header", err)
		}
	}
	counts, err := dc.r.ReadInts(xdr.Int64, m.Timesteps, 0, int64(points))
	if err != nil {
		return nil, false, dc.fail("point counts", err)
	}
	axes := []xdr.Axis{xdr.Longitude, xdr.Latitude}
	if withElevation {
		axes = append(axes, xdr.Elevation)
	}
	coords, err := dc.r.ReadAxes(xdr.Float64, points, axes...)
	if err != nil {
		return nil, false, dc.fail("point coordinates", err)
	}
	cells := pointCells{lon: coords[0], lat: coords[1]}
	if withElevation {
		cells.elev = coords[2]
	}
	v, err := newPointVariant(m.Timesteps, counts, cells)
	if err != nil {
		return nil, false, dc.fail("points", err)
	}
	data, err := dc.r.ReadFloats(xdr.Float64, len(m.Variables)*points, -math.MaxFloat64, math.MaxFloat64)
	if err != nil {
		return nil, false, dc.fail("point data", err)
	}
	d := newDataset(m, v, dc.opts)
	d.data = data
	return d, false, nil
}
