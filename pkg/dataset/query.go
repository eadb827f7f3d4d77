package dataset

import "fmt"

// ProbeQuery selects one value by time and location.
type ProbeQuery struct {
	Time      Timestamp
	Longitude float64
	Latitude  float64

	// Elevation in metres, used only when HasElevation is set.
	Elevation    float64
	HasElevation bool

	// Layer of a Grid dataset, or -1 to choose by elevation (layer 0 when
	// no elevation is given).
	Layer int

	Variable int
}

// NewProbeQuery returns a query for variable 0 at any layer.
func NewProbeQuery(t Timestamp, lon, lat float64) ProbeQuery {
	return ProbeQuery{Time: t, Longitude: lon, Latitude: lat, Layer: -1}
}

// ProbeResult is the outcome of a probe. A probe that matches no cell is not
// an error: Found is false and Value is MissingValue.
type ProbeResult struct {
	Value    float64
	Found    bool
	Cell     int
	Timestep int
	Note     string
}

// SubsetGroup is one logical group of a subset: the whole dataset for
// non-group kinds, one track for Aircraft and Profile. Slices are views into
// the dataset's buffers and are only valid until the next call that may
// page.
type SubsetGroup struct {
	Note          string
	FirstTimestep int

	// Values holds one slice per timestep for Grid and Site, or a single
	// slice over the matching points for the other kinds.
	Values [][]float64

	// Coordinates of the cells in Values. Nil when computed (Grid) or not
	// stored (Elevations of 2-D kinds).
	Longitudes []float64
	Latitudes  []float64
	Elevations []float64

	// Times holds the per-point timestamps of Aircraft and Profile groups.
	Times []Timestamp
}

func notFound(t int) ProbeResult {
	return ProbeResult{Value: MissingValue, Cell: -1, Timestep: t}
}

// Probe returns the value of q.Variable at q.Time and the location of q.
// The timestep is the one containing q.Time; the cell is found by
// containment for cell kinds and by nearest point within
// Options.ProbeTolerance for point kinds.
func (d *Dataset) Probe(q ProbeQuery) (ProbeResult, error) {
	d.note = ""
	if err := d.checkOpen(); err != nil {
		return notFound(-1), err
	}
	if err := d.checkVariable(q.Variable); err != nil {
		return notFound(-1), err
	}
	if q.Time.IsZero() {
		return notFound(-1), &ArgumentError{Name: "time", Reason: "zero timestamp"}
	}
	t := d.TimestepOf(q.Time)
	if t < 0 {
		return notFound(t), nil
	}
	cell, note, ok, err := d.v.locate(d, q, t)
	if err != nil || !ok {
		return notFound(t), err
	}
	if err := d.ensureResident(t, 1); err != nil {
		return notFound(t), err
	}
	d.note = note
	return ProbeResult{
		Value:    d.value(q.Variable, t, cell),
		Found:    true,
		Cell:     cell,
		Timestep: t,
		Note:     note,
	}, nil
}

// MaxTimeseriesSteps bounds the number of probes in one Timeseries call.
const MaxTimeseriesSteps = 1 << 20

// TimeseriesTimes returns the instants Timeseries probes for [begin, end]:
// every hour for hourly datasets, otherwise the start of every overlapping
// timestep.
func (d *Dataset) TimeseriesTimes(begin, end Timestamp) ([]Timestamp, error) {
	if end.Before(begin) {
		return nil, &ArgumentError{Name: "time range", Reason: fmt.Sprintf("end %s before begin %s", end, begin)}
	}
	if d.step != Hours {
		first, count, err := d.TimestepsInRange(begin, end)
		if err != nil {
			return nil, err
		}
		times := make([]Timestamp, count)
		for i := range times {
			times[i] = d.TimestepStart(first + i)
		}
		return times, nil
	}

	hours := begin.hoursUntil(end)
	if hours >= MaxTimeseriesSteps {
		return nil, &ArgumentError{Name: "time range",
			Reason: fmt.Sprintf("%d hours from %s to %s exceeds %d", hours+1, begin, end, MaxTimeseriesSteps)}
	}
	times := make([]Timestamp, hours+1)
	for i := range times {
		times[i] = begin.addHours(int64(i))
	}
	return times, nil
}

// Timeseries probes q at every hour of [begin, end]. Datasets with daily,
// monthly or yearly timesteps are probed once per timestep instead. Entries
// without a match hold MissingValue.
func (d *Dataset) Timeseries(begin, end Timestamp, q ProbeQuery) ([]float64, error) {
	times, err := d.TimeseriesTimes(begin, end)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(times))
	for i, t := range times {
		q.Time = t
		r, err := d.Probe(q)
		if err != nil {
			return nil, fmt.Errorf("timeseries at %s: %w", t, err)
		}
		out[i] = r.Value
	}
	return out, nil
}

// Subset returns views of one variable over the timesteps overlapping
// [begin, end]. An empty range yields no groups and no error.
func (d *Dataset) Subset(begin, end Timestamp, variable int) ([]SubsetGroup, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if err := d.checkVariable(variable); err != nil {
		return nil, err
	}
	first, count, err := d.TimestepsInRange(begin, end)
	if err != nil || count == 0 {
		return nil, err
	}
	if err := d.ensureResident(first, count); err != nil {
		return nil, err
	}
	return d.v.subset(d, first, count, variable), nil
}

// stepViews returns one slice per timestep of a resident fixed-cell window.
func (d *Dataset) stepViews(first, count, variable int) [][]float64 {
	views := make([][]float64, count)
	vars := len(d.variables)
	for i := range views {
		off := ((first+i-d.win.first)*vars + variable) * d.stepCells
		views[i] = d.win.data[off : off+d.stepCells : off+d.stepCells]
	}
	return views
}
