package dataset

import "math"

// extremum caches the range of one variable.
type extremum struct {
	ok       bool
	min, max float64
}

func (e *extremum) add(v float64) {
	if v == MissingValue {
		return
	}
	e.min = math.Min(e.min, v)
	e.max = math.Max(e.max, v)
}

// MinMax returns the smallest and largest non-missing values of a variable
// over all timesteps. Results are cached. Paged datasets stream their
// payload without disturbing the resident window. A variable with no data
// reports MissingValue for both.
func (d *Dataset) MinMax(variable int) (lo, hi float64, err error) {
	if err := d.checkVariable(variable); err != nil {
		return 0, 0, err
	}
	e := &d.extrema[variable]
	if e.ok {
		return e.min, e.max, nil
	}

	acc := extremum{min: math.Inf(1), max: math.Inf(-1)}
	switch {
	case d.stepCells == 0:
		n := d.v.cellCount()
		for _, v := range d.data[variable*n : (variable+1)*n] {
			acc.add(v)
		}
	case d.page == nil:
		d.scanWindow(&acc, d.win, variable)
	default:
		if err := d.checkOpen(); err != nil {
			return 0, 0, err
		}
		step := d.opts.PageTimesteps
		for first := 0; first < d.timesteps; first += step {
			n := min(step, d.timesteps-first)
			values, err := d.page.read(first, n, d.opts.Workers)
			if err != nil {
				return 0, 0, &FormatError{Path: d.path, Reason: "scan extrema", Err: err}
			}
			d.scanWindow(&acc, window{first: first, count: n, data: values}, variable)
		}
	}

	if math.IsInf(acc.min, 1) {
		acc.min, acc.max = MissingValue, MissingValue
	}
	acc.ok = true
	*e = acc
	return acc.min, acc.max, nil
}

func (d *Dataset) scanWindow(acc *extremum, w window, variable int) {
	vars := len(d.variables)
	for t := 0; t < w.count; t++ {
		off := (t*vars + variable) * d.stepCells
		for _, v := range w.data[off : off+d.stepCells] {
			acc.add(v)
		}
	}
}
