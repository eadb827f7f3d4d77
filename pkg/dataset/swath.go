package dataset

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/beetlebugorg/geodataset/internal/xdr"
)

// swathVariant holds satellite footprints: quadrilaterals with stored
// corners, grouped by timestep like Point.
type swathVariant struct {
	counts  []int64
	offsets []int

	// corners laid out [point][4] in lower-left, lower-right, upper-right,
	// upper-left order
	cornerLon []float64
	cornerLat []float64

	// footprint centres, the mean of each cell's corners
	lon, lat []float64

	index *cellIndex
}

// NewSwath returns an in-memory Swath dataset. cornerLons and cornerLats hold
// four corners per point; data is laid out [variable][point].
func NewSwath(m Metadata, counts []int64, cornerLons, cornerLats, data []float64, opts Options) (*Dataset, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	v, err := newSwathVariant(m.Timesteps, slices.Clone(counts), slices.Clone(cornerLons), slices.Clone(cornerLats))
	if err != nil {
		return nil, err
	}
	for i, x := range data {
		if math.Abs(x) > xdr.FloatRange {
			return nil, &ArgumentError{Name: "data", Reason: fmt.Sprintf("value %d = %g exceeds 32-bit range", i, x)}
		}
	}
	return withPointData(m, v, data, opts)
}

func newSwathVariant(timesteps int, counts []int64, cornerLon, cornerLat []float64) (*swathVariant, error) {
	if len(counts) != timesteps {
		return nil, &ArgumentError{Name: "counts", Reason: fmt.Sprintf("%d counts for %d timesteps", len(counts), timesteps)}
	}
	if len(cornerLon)%4 != 0 || len(cornerLat) != len(cornerLon) {
		return nil, &ArgumentError{Name: "corners", Reason: "need four longitude and latitude corners per point"}
	}
	if err := checkAxis(xdr.Longitude, cornerLon); err != nil {
		return nil, err
	}
	if err := checkAxis(xdr.Latitude, cornerLat); err != nil {
		return nil, err
	}
	points := len(cornerLon) / 4
	offsets, err := offsetsOf("counts", counts, points)
	if err != nil {
		return nil, err
	}
	v := &swathVariant{
		counts:    counts,
		offsets:   offsets,
		cornerLon: cornerLon,
		cornerLat: cornerLat,
		lon:       make([]float64, points),
		lat:       make([]float64, points),
	}
	for i := range points {
		for k := range 4 {
			v.lon[i] += cornerLon[i*4+k] / 4
			v.lat[i] += cornerLat[i*4+k] / 4
		}
	}
	return v, nil
}

func (v *swathVariant) kind() Kind                 { return KindSwath }
func (v *swathVariant) cellType() CellType         { return CellQuadrilateral }
func (v *swathVariant) storage() CoordinateStorage { return StoragePerPoint }
func (v *swathVariant) cellCount() int             { return len(v.lon) }

func (v *swathVariant) vertices(cell int, dst []Point) ([]Point, error) {
	for k := range 4 {
		dst = append(dst, Point{Longitude: v.cornerLon[cell*4+k], Latitude: v.cornerLat[cell*4+k]})
	}
	return dst, nil
}

func (v *swathVariant) center(cell int) (lon, lat, elevation float64, hasElevation bool) {
	return v.lon[cell], v.lat[cell], 0, false
}

func (v *swathVariant) bounds() Bounds { return boundsOf(v.cornerLon, v.cornerLat) }

func (v *swathVariant) footprint(cell int) Bounds {
	lo, hi := cell*4, cell*4+4
	return boundsOf(v.cornerLon[lo:hi], v.cornerLat[lo:hi])
}

func (v *swathVariant) eachCell(t int, fn func(cell int)) {
	for c := v.offsets[t]; c < v.offsets[t+1]; c++ {
		fn(c)
	}
}

// locate returns the lowest-indexed footprint of timestep t containing the
// query location.
func (v *swathVariant) locate(_ *Dataset, q ProbeQuery, t int) (int, string, bool, error) {
	if v.index == nil {
		v.index = newCellIndex(len(v.lon), v.footprint)
	}
	lo, hi := v.offsets[t], v.offsets[t+1]
	at := Bounds{West: q.Longitude, East: q.Longitude, South: q.Latitude, North: q.Latitude}
	candidates := v.index.search(at, func(c int) bool { return c >= lo && c < hi })
	slices.Sort(candidates)

	var quad []Point
	for _, c := range candidates {
		quad, _ = v.vertices(c, quad[:0])
		if quadContains(quad, q.Longitude, q.Latitude) {
			return c, "", true, nil
		}
	}
	return -1, "", false, nil
}

func (v *swathVariant) subset(d *Dataset, first, count, variable int) []SubsetGroup {
	lo, hi := v.offsets[first], v.offsets[first+count]
	n := v.cellCount()
	return []SubsetGroup{{
		FirstTimestep: first,
		Values:        [][]float64{d.data[variable*n+lo : variable*n+hi : variable*n+hi]},
		Longitudes:    v.lon[lo:hi:hi],
		Latitudes:     v.lat[lo:hi:hi],
	}}
}

func (v *swathVariant) dimensions(d *Dataset, sel selection) (string, []string) {
	points := v.offsets[sel.first+sel.count] - v.offsets[sel.first]
	return "timesteps points timestep_size",
		[]string{strconv.Itoa(sel.count), strconv.Itoa(points), d.step.String()}
}

func (v *swathVariant) encode(w *xdr.Writer, d *Dataset, sel selection) error {
	lines := []string{
		"# MSB 64-bit integers counts[timesteps] and",
		"# IEEE-754 64-bit reals corner_longitudes[points][4] corner_latitudes[points][4] and",
		"# IEEE-754 32-bit reals data[variables][points]:",
	}
	for _, l := range lines {
		if err := w.WriteLine("%s", l); err != nil {
			return err
		}
	}
	lo, hi := v.offsets[sel.first], v.offsets[sel.first+sel.count]
	if err := w.WriteInts(xdr.Int64, v.counts[sel.first:sel.first+sel.count], 0, math.MaxInt64); err != nil {
		return fmt.Errorf("counts: %w", err)
	}
	corners := [][]float64{v.cornerLon[lo*4 : hi*4], v.cornerLat[lo*4 : hi*4]}
	if err := w.WriteAxes(xdr.Float64, corners, xdr.Longitude, xdr.Latitude); err != nil {
		return err
	}
	return d.encodeData(w, xdr.Float32, sel, [][2]int{{lo, hi}})
}

func (v *swathVariant) clone() variant {
	c, _ := newSwathVariant(len(v.counts), slices.Clone(v.counts), slices.Clone(v.cornerLon), slices.Clone(v.cornerLat))
	return c
}

// readSwath decodes the Swath header tail and payload.
func (dc *decoder) readSwath(m Metadata) (*Dataset, bool, error) {
	points := dc.dims["points"]
	for _, prefix := range []string{"MSB 64-bit integers counts", "IEEE-754 64-bit reals corner_longitudes", "IEEE-754 32-bit reals data"} {
		if _, err := dc.r.ExpectComment(prefix); err != nil {
			return nil, false, dc.fail("swath header", err)
		}
	}
	counts, err := dc.r.ReadInts(xdr.Int64, m.Timesteps, 0, int64(points))
	if err != nil {
		return nil, false, dc.fail("swath counts", err)
	}
	corners, err := dc.r.ReadAxes(xdr.Float64, points*4, xdr.Longitude, xdr.Latitude)
	if err != nil {
		return nil, false, dc.fail("swath corners", err)
	}
	v, err := newSwathVariant(m.Timesteps, counts, corners[0], corners[1])
	if err != nil {
		return nil, false, dc.fail("swath", err)
	}
	data, err := dc.r.ReadFloats(xdr.Float32, len(m.Variables)*points, -xdr.FloatRange, xdr.FloatRange)
	if err != nil {
		return nil, false, dc.fail("swath data", err)
	}
	d := newDataset(m, v, dc.opts)
	d.data = data
	return d, false, nil
}
