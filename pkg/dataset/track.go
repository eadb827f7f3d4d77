package dataset

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/beetlebugorg/geodataset/internal/xdr"
)

// Range of packed yyyymmddhhmmss timestamps accepted on disk.
const (
	minPackedTime = 19000101000000
	maxPackedTime = 99991231235959
)

// trackVariant holds Aircraft flights or Profile soundings: groups of points,
// each with its own timestamp. Points of track k are cells
// [offsets[k], offsets[k+1]) in nondecreasing time order.
type trackVariant struct {
	k       Kind
	notes   []string
	counts  []int64
	offsets []int
	times   []Timestamp

	// steps holds the unbounded timestep index of every point; only
	// [0, timesteps) are in the dataset's range.
	steps []int

	pointCells
}

// NewTracks returns an in-memory Aircraft or Profile dataset. counts holds
// the number of points of each track; times, lons, lats and elevations hold
// one entry per point. data is laid out [variable][point].
func NewTracks(kind Kind, m Metadata, notes []string, counts []int64, times []Timestamp, lons, lats, elevations, data []float64, opts Options) (*Dataset, error) {
	if kind != KindAircraft && kind != KindProfile {
		return nil, &ArgumentError{Name: "kind", Reason: fmt.Sprintf("%s is not a track kind", kind)}
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	v, err := newTrackVariant(kind, m, slices.Clone(notes), slices.Clone(counts), slices.Clone(times), pointCells{
		lon:  slices.Clone(lons),
		lat:  slices.Clone(lats),
		elev: slices.Clone(elevations),
	})
	if err != nil {
		return nil, err
	}
	return withPointData(m, v, data, opts)
}

func newTrackVariant(kind Kind, m Metadata, notes []string, counts []int64, times []Timestamp, cells pointCells) (*trackVariant, error) {
	if len(notes) != len(counts) || len(counts) == 0 {
		return nil, &ArgumentError{Name: "tracks", Reason: fmt.Sprintf("%d notes for %d tracks", len(notes), len(counts))}
	}
	for i, n := range notes {
		if len(n) > noteWidth || strings.ContainsAny(n, "\x00\n") {
			return nil, &ArgumentError{Name: "notes", Reason: fmt.Sprintf("note %d must be one line of at most %d bytes", i, noteWidth)}
		}
	}
	if cells.elev == nil {
		return nil, &ArgumentError{Name: "elevations", Reason: "track points require elevations"}
	}
	if err := cells.validate(); err != nil {
		return nil, err
	}
	if len(times) != len(cells.lon) {
		return nil, &ArgumentError{Name: "times", Reason: fmt.Sprintf("%d timestamps for %d points", len(times), len(cells.lon))}
	}
	offsets, err := offsetsOf("counts", counts, len(cells.lon))
	if err != nil {
		return nil, err
	}

	v := &trackVariant{k: kind, notes: notes, counts: counts, offsets: offsets, times: times, pointCells: cells}
	probe := &Dataset{start: m.Start, step: m.TimestepSize, timesteps: m.Timesteps}
	v.steps = make([]int, len(times))
	for k := range counts {
		for c := offsets[k]; c < offsets[k+1]; c++ {
			if times[c].IsZero() {
				return nil, &ArgumentError{Name: "times", Reason: fmt.Sprintf("point %d has no timestamp", c)}
			}
			if c > offsets[k] && times[c].Before(times[c-1]) {
				return nil, &ArgumentError{Name: "times", Reason: fmt.Sprintf("track %d is not in time order at point %d", k, c)}
			}
			v.steps[c] = probe.index(times[c])
		}
	}
	return v, nil
}

func (v *trackVariant) kind() Kind                 { return v.k }
func (v *trackVariant) cellType() CellType         { return CellPoint }
func (v *trackVariant) storage() CoordinateStorage { return StorageGroup }

// span returns the points of track k in timesteps [first, first+count).
func (v *trackVariant) span(k, first, count int) (lo, hi int) {
	a, b := v.offsets[k], v.offsets[k+1]
	steps := v.steps[a:b]
	lo = a + sort.SearchInts(steps, first)
	hi = a + sort.SearchInts(steps, first+count)
	return lo, hi
}

func (v *trackVariant) eachCell(t int, fn func(cell int)) {
	for k := range v.counts {
		lo, hi := v.span(k, t, 1)
		for c := lo; c < hi; c++ {
			fn(c)
		}
	}
}

func (v *trackVariant) locate(d *Dataset, q ProbeQuery, t int) (int, string, bool, error) {
	cell, ok := v.nearest(q, d.opts.ProbeTolerance, func(c int) bool { return v.steps[c] == t })
	if !ok {
		return -1, "", false, nil
	}
	return cell, v.notes[groupOf(v.offsets, cell)], true, nil
}

func (v *trackVariant) subset(d *Dataset, first, count, variable int) []SubsetGroup {
	n := v.cellCount()
	var groups []SubsetGroup
	for k := range v.counts {
		lo, hi := v.span(k, first, count)
		if lo == hi {
			continue
		}
		g := SubsetGroup{
			Note:          v.notes[k],
			FirstTimestep: first,
			Values:        [][]float64{d.data[variable*n+lo : variable*n+hi : variable*n+hi]},
			Times:         v.times[lo:hi:hi],
		}
		v.viewsOf(&g, lo, hi)
		groups = append(groups, g)
	}
	return groups
}

// segments returns the tracks and point ranges inside a selection.
func (v *trackVariant) segments(sel selection) (tracks []int, ranges [][2]int) {
	for k := range v.counts {
		lo, hi := v.span(k, sel.first, sel.count)
		if lo < hi {
			tracks = append(tracks, k)
			ranges = append(ranges, [2]int{lo, hi})
		}
	}
	return tracks, ranges
}

func (v *trackVariant) dimensions(d *Dataset, sel selection) (string, []string) {
	tracks, ranges := v.segments(sel)
	points := 0
	for _, r := range ranges {
		points += r[1] - r[0]
	}
	return "timesteps tracks points timestep_size",
		[]string{strconv.Itoa(sel.count), strconv.Itoa(len(tracks)), strconv.Itoa(points), d.step.String()}
}

func (v *trackVariant) encode(w *xdr.Writer, d *Dataset, sel selection) error {
	lines := []string{
		"# char notes[tracks][80] and",
		"# MSB 64-bit integers counts[tracks] and",
		"# MSB 64-bit integers timestamps[points] and",
		"# IEEE-754 64-bit reals longitudes[points] latitudes[points] elevations[points] and",
		"# IEEE-754 64-bit reals data[variables][points]:",
	}
	for _, l := range lines {
		if err := w.WriteLine("%s", l); err != nil {
			return err
		}
	}

	tracks, ranges := v.segments(sel)
	notes := make([]string, len(tracks))
	counts := make([]int64, len(tracks))
	var stamps []int64
	var lon, lat, elev []float64
	for i, k := range tracks {
		lo, hi := ranges[i][0], ranges[i][1]
		notes[i] = v.notes[k]
		counts[i] = int64(hi - lo)
		for c := lo; c < hi; c++ {
			stamps = append(stamps, v.times[c].YYYYMMDDHHMMSS())
		}
		lon = append(lon, v.lon[lo:hi]...)
		lat = append(lat, v.lat[lo:hi]...)
		elev = append(elev, v.elev[lo:hi]...)
	}

	if err := w.WriteStrings(notes, noteWidth); err != nil {
		return fmt.Errorf("notes: %w", err)
	}
	if err := w.WriteInts(xdr.Int64, counts, 0, math.MaxInt64); err != nil {
		return fmt.Errorf("counts: %w", err)
	}
	if err := w.WriteInts(xdr.Int64, stamps, minPackedTime, maxPackedTime); err != nil {
		return fmt.Errorf("timestamps: %w", err)
	}
	if err := w.WriteAxes(xdr.Float64, [][]float64{lon, lat, elev}, xdr.Longitude, xdr.Latitude, xdr.Elevation); err != nil {
		return err
	}
	return d.encodeData(w, xdr.Float64, sel, ranges)
}

func (v *trackVariant) clone() variant {
	return &trackVariant{
		k:          v.k,
		notes:      slices.Clone(v.notes),
		counts:     slices.Clone(v.counts),
		offsets:    slices.Clone(v.offsets),
		times:      slices.Clone(v.times),
		steps:      slices.Clone(v.steps),
		pointCells: v.pointCells.clone(),
	}
}

// readTracks decodes the Aircraft or Profile header tail and payload.
func (dc *decoder) readTracks(kind Kind, m Metadata) (*Dataset, bool, error) {
	tracks, points := dc.dims["tracks"], dc.dims["points"]
	prefixes := []string{
		"char notes",
		"MSB 64-bit integers counts",
		"MSB 64-bit integers timestamps",
		"IEEE-754 64-bit reals longitudes",
		"IEEE-754 64-bit reals data",
	}
	for _, prefix := range prefixes {
		if _, err := dc.r.ExpectComment(prefix); err != nil {
			return nil, false, dc.fail("track header", err)
		}
	}
	notes, err := dc.r.ReadStrings(tracks, noteWidth)
	if err != nil {
		return nil, false, dc.fail("track notes", err)
	}
	counts, err := dc.r.ReadInts(xdr.Int64, tracks, 0, int64(points))
	if err != nil {
		return nil, false, dc.fail("track counts", err)
	}
	packed, err := dc.r.ReadInts(xdr.Int64, points, minPackedTime, maxPackedTime)
	if err != nil {
		return nil, false, dc.fail("track timestamps", err)
	}
	times := make([]Timestamp, points)
	for i, p := range packed {
		if times[i], err = FromYYYYMMDDHHMMSS(p); err != nil {
			return nil, false, dc.fail(fmt.Sprintf("track timestamp %d", i), err)
		}
	}
	coords, err := dc.r.ReadAxes(xdr.Float64, points, xdr.Longitude, xdr.Latitude, xdr.Elevation)
	if err != nil {
		return nil, false, dc.fail("track coordinates", err)
	}
	v, err := newTrackVariant(kind, m, notes, counts, times, pointCells{lon: coords[0], lat: coords[1], elev: coords[2]})
	if err != nil {
		return nil, false, dc.fail("tracks", err)
	}
	data, err := dc.r.ReadFloats(xdr.Float64, len(m.Variables)*points, -math.MaxFloat64, math.MaxFloat64)
	if err != nil {
		return nil, false, dc.fail("track data", err)
	}
	d := newDataset(m, v, dc.opts)
	d.data = data
	return d, false, nil
}
