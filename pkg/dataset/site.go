package dataset

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/beetlebugorg/geodataset/internal/xdr"
)

// siteVariant holds stationary measurement sites.
type siteVariant struct {
	ids []int64
	pointCells
}

// NewSite returns an in-memory Site dataset. data is laid out
// [timestep][variable][site].
func NewSite(m Metadata, ids []int64, lons, lats, data []float64, opts Options) (*Dataset, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	v := &siteVariant{ids: slices.Clone(ids), pointCells: pointCells{lon: slices.Clone(lons), lat: slices.Clone(lats)}}
	if err := v.validate(); err != nil {
		return nil, err
	}
	if want := m.Timesteps * len(m.Variables) * len(ids); len(data) != want {
		return nil, &ArgumentError{Name: "data", Reason: fmt.Sprintf("got %d values, want %d", len(data), want)}
	}
	if err := checkFinite("data", data); err != nil {
		return nil, err
	}
	d := newDataset(m, v, opts)
	d.stepCells = len(ids)
	d.win = window{first: 0, count: m.Timesteps, data: slices.Clone(data)}
	return d, nil
}

func (v *siteVariant) validate() error {
	if len(v.ids) == 0 {
		return &ArgumentError{Name: "sites", Reason: "at least one site is required"}
	}
	if len(v.lon) != len(v.ids) {
		return &ArgumentError{Name: "sites", Reason: fmt.Sprintf("%d ids but %d coordinates", len(v.ids), len(v.lon))}
	}
	for i, id := range v.ids {
		if id < math.MinInt32 || id > math.MaxInt32 {
			return &ArgumentError{Name: "sites", Reason: fmt.Sprintf("id %d = %d does not fit 32 bits", i, id)}
		}
	}
	return v.pointCells.validate()
}

// SiteIDs returns the site identifiers of a Site dataset, or nil.
func (d *Dataset) SiteIDs() []int64 {
	if v, ok := d.v.(*siteVariant); ok {
		return slices.Clone(v.ids)
	}
	return nil
}

func (v *siteVariant) kind() Kind                 { return KindSite }
func (v *siteVariant) cellType() CellType         { return CellPoint }
func (v *siteVariant) storage() CoordinateStorage { return StorageStationary }

func (v *siteVariant) eachCell(_ int, fn func(cell int)) {
	for c := range v.ids {
		fn(c)
	}
}

func (v *siteVariant) locate(d *Dataset, q ProbeQuery, _ int) (int, string, bool, error) {
	cell, ok := v.nearest(q, d.opts.ProbeTolerance, nil)
	return cell, "", ok, nil
}

func (v *siteVariant) subset(d *Dataset, first, count, variable int) []SubsetGroup {
	g := SubsetGroup{FirstTimestep: first, Values: d.stepViews(first, count, variable)}
	v.viewsOf(&g, 0, len(v.ids))
	return []SubsetGroup{g}
}

func (v *siteVariant) dimensions(d *Dataset, sel selection) (string, []string) {
	return "timesteps sites timestep_size",
		[]string{strconv.Itoa(sel.count), strconv.Itoa(len(v.ids)), d.step.String()}
}

func (v *siteVariant) encode(w *xdr.Writer, d *Dataset, sel selection) error {
	lines := []string{
		"# MSB 32-bit integers ids[sites] and",
		"# IEEE-754 64-bit reals longitudes[sites] latitudes[sites] and",
		"# IEEE-754 32-bit reals data[timesteps][variables][sites]:",
	}
	for _, l := range lines {
		if err := w.WriteLine("%s", l); err != nil {
			return err
		}
	}
	if err := w.WriteInts(xdr.Int32, v.ids, math.MinInt32, math.MaxInt32); err != nil {
		return fmt.Errorf("ids: %w", err)
	}
	if err := w.WriteAxes(xdr.Float64, [][]float64{v.lon, v.lat}, xdr.Longitude, xdr.Latitude); err != nil {
		return err
	}
	return d.encodeSteps(w, sel)
}

func (v *siteVariant) clone() variant {
	return &siteVariant{ids: slices.Clone(v.ids), pointCells: v.pointCells.clone()}
}

// readSite decodes the Site header tail and coordinates.
func (dc *decoder) readSite(m Metadata) (*Dataset, bool, error) {
	sites := dc.dims["sites"]
	for _, prefix := range []string{"MSB 32-bit integers ids", "IEEE-754 64-bit reals longitudes", "IEEE-754 32-bit reals data"} {
		if _, err := dc.r.ExpectComment(prefix); err != nil {
			return nil, false, dc.fail("site header", err)
		}
	}
	ids, err := dc.r.ReadInts(xdr.Int32, sites, math.MinInt32, math.MaxInt32)
	if err != nil {
		return nil, false, dc.fail("site ids", err)
	}
	axes, err := dc.r.ReadAxes(xdr.Float64, sites, xdr.Longitude, xdr.Latitude)
	if err != nil {
		return nil, false, dc.fail("site coordinates", err)
	}
	v := &siteVariant{ids: ids, pointCells: pointCells{lon: axes[0], lat: axes[1]}}
	if err := v.validate(); err != nil {
		return nil, false, dc.fail("sites", err)
	}
	d := newDataset(m, v, dc.opts)
	keep, err := dc.attachFixed(d, sites)
	return d, keep, err
}
