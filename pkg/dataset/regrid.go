package dataset

import (
	"fmt"
	"math"
	"strings"

	"github.com/beetlebugorg/geodataset/pkg/grid"
)

// RegridMethod selects how source values falling in one target cell are
// combined.
type RegridMethod int

const (
	// RegridNearest keeps the value of the source cell nearest the target
	// cell centre.
	RegridNearest RegridMethod = iota + 1
	// RegridMean averages all source values in the target cell.
	RegridMean
	// RegridWeighted averages with inverse squared distance weights.
	RegridWeighted
)

var regridNames = map[RegridMethod]string{
	RegridNearest:  "nearest",
	RegridMean:     "mean",
	RegridWeighted: "weighted",
}

func (m RegridMethod) String() string {
	if s, ok := regridNames[m]; ok {
		return s
	}
	if m == 0 {
		return "none"
	}
	return fmt.Sprintf("RegridMethod(%d)", int(m))
}

// ParseRegridMethod parses "nearest", "mean" or "weighted".
func ParseRegridMethod(s string) (RegridMethod, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range regridNames {
		if name == s {
			return m, nil
		}
	}
	return 0, &ArgumentError{Name: "regrid method", Reason: fmt.Sprintf("unknown method %q", s)}
}

// minWeightDistance bounds inverse distance weights for coincident cells.
const minWeightDistance = 1e-9

// accumulator combines source values for one target cell and variable.
type accumulator struct {
	sum, weight float64
	nearest     float64 // distance of the current nearest value
}

// Regrid aggregates every timestep and variable onto g and returns a new,
// fully resident Grid dataset. Source cells are placed by their centres;
// with a layered target they are placed by elevation when they have one and
// in layer 0 otherwise. Target cells receiving no value hold MissingValue.
func (d *Dataset) Regrid(method RegridMethod, g *grid.Grid) (*Dataset, error) {
	if d.Kind() == KindGrid {
		return nil, unsupported(KindGrid, "regrid")
	}
	if _, ok := regridNames[method]; !ok {
		return nil, &ArgumentError{Name: "regrid method", Reason: method.String()}
	}
	if g == nil {
		return nil, &ArgumentError{Name: "grid", Reason: "nil"}
	}
	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	var centers []float64
	if method != RegridMean {
		centers = make([]float64, 2*g.Cells())
		for row := range g.Rows() {
			for col := range g.Columns() {
				i := row*g.Columns() + col
				centers[2*i], centers[2*i+1] = g.CellCenter(col, row)
			}
		}
	}

	vars := len(d.variables)
	cells := g.Layers() * g.Cells()
	out := make([]float64, d.timesteps*vars*cells)
	acc := make([]accumulator, vars*cells)

	for t := range d.timesteps {
		if err := d.ensureResident(t, 1); err != nil {
			return nil, err
		}
		for i := range acc {
			acc[i] = accumulator{nearest: math.Inf(1)}
		}

		var placeErr error
		d.v.eachCell(t, func(cell int) {
			if placeErr != nil {
				return
			}
			lon, lat, z, hasZ := d.v.center(cell)
			col, row, ok := g.CellOf(lon, lat)
			if !ok {
				return
			}
			layer := 0
			if hasZ && g.Layers() > 1 {
				k, err := g.LayerOfElevation(z)
				if err != nil {
					placeErr = unsupported(d.Kind(), "regrid onto layers without thickness")
					return
				}
				layer = k
			}
			target := (layer*g.Rows()+row)*g.Columns() + col
			dist := 0.0
			if centers != nil {
				i := row*g.Columns() + col
				dist = planarDistance(lon, lat, centers[2*i], centers[2*i+1])
			}
			for v := range vars {
				x := d.value(v, t, cell)
				if x == MissingValue {
					continue
				}
				a := &acc[v*cells+target]
				switch method {
				case RegridNearest:
					if dist < a.nearest {
						a.nearest, a.sum, a.weight = dist, x, 1
					}
				case RegridMean:
					a.sum += x
					a.weight++
				case RegridWeighted:
					w := 1 / math.Max(dist*dist, minWeightDistance)
					a.sum += w * x
					a.weight += w
				}
			}
		})
		if placeErr != nil {
			return nil, placeErr
		}

		step := out[t*vars*cells : (t+1)*vars*cells]
		for i, a := range acc {
			if a.weight == 0 {
				step[i] = MissingValue
				continue
			}
			step[i] = a.sum / a.weight
		}
	}

	r := newDataset(d.Metadata(), &gridVariant{g: g, workers: d.opts.Workers}, d.opts)
	r.stepCells = cells
	r.win = window{first: 0, count: d.timesteps, data: out}
	r.method = method
	d.log.Debug("regridded dataset",
		"name", d.name,
		"method", method,
		"columns", g.Columns(),
		"rows", g.Rows(),
		"layers", g.Layers())
	return r, nil
}

// Sample returns a dataset with the cells and timesteps of d holding the
// values of other's variables probed at each of d's points. Points of
// Aircraft and Profile datasets are probed at their own timestamps, other
// points at the start of their timestep. Points where other has no value
// hold MissingValue.
func (d *Dataset) Sample(other *Dataset) (*Dataset, error) {
	switch d.Kind() {
	case KindSite, KindPoint, KindAircraft, KindProfile:
	default:
		return nil, unsupported(d.Kind(), "sample")
	}
	if other == nil {
		return nil, &ArgumentError{Name: "other", Reason: "nil"}
	}

	m := d.Metadata()
	m.Name = other.name
	m.Description = strings.TrimSpace(fmt.Sprintf("%s sampled at %s", other.description, d.name))
	m.Variables = other.Variables()
	vars := len(m.Variables)
	n := d.v.cellCount()

	r := newDataset(m, d.v.clone(), d.opts)
	fixed := d.stepCells > 0
	if fixed {
		r.stepCells = n
		r.win = window{first: 0, count: d.timesteps, data: make([]float64, d.timesteps*vars*n)}
		for i := range r.win.data {
			r.win.data[i] = MissingValue
		}
	} else {
		r.data = make([]float64, vars*n)
		for i := range r.data {
			r.data[i] = MissingValue
		}
	}

	track, _ := d.v.(*trackVariant)
	var sampleErr error
	for t := range d.timesteps {
		start := d.TimestepStart(t)
		d.v.eachCell(t, func(cell int) {
			if sampleErr != nil {
				return
			}
			lon, lat, z, hasZ := d.v.center(cell)
			q := ProbeQuery{Time: start, Longitude: lon, Latitude: lat, Elevation: z, HasElevation: hasZ, Layer: -1}
			if track != nil {
				q.Time = track.times[cell]
			}
			for v := range vars {
				q.Variable = v
				res, err := other.Probe(q)
				if err != nil {
					sampleErr = fmt.Errorf("sample %s at cell %d: %w", other.name, cell, err)
					return
				}
				if fixed {
					r.win.data[(t*vars+v)*n+cell] = res.Value
				} else {
					r.data[v*n+cell] = res.Value
				}
			}
		})
		if sampleErr != nil {
			return nil, sampleErr
		}
	}
	return r, nil
}
