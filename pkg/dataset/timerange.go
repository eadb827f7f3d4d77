package dataset

import "fmt"

// TimestepStart returns the start of timestep i. Indices outside
// [0, Timesteps) extrapolate with the same calendar step.
func (d *Dataset) TimestepStart(i int) Timestamp {
	return d.step.after(d.start, i)
}

// index returns the timestep index i with
// TimestepStart(i) <= t < TimestepStart(i+1), clamped to [-1, Timesteps]:
// -1 for instants before the first timestep and Timesteps for instants at
// or after the end of the last one.
func (d *Dataset) index(t Timestamp) int {
	if t.Before(d.start) {
		return -1
	}
	if !t.Before(d.TimestepStart(d.timesteps)) {
		return d.timesteps
	}
	i := min(max(d.step.estimate(d.start, t), 0), d.timesteps-1)
	for d.TimestepStart(i).After(t) {
		i--
	}
	for !d.TimestepStart(i + 1).After(t) {
		i++
	}
	return i
}

// TimestepOf returns the timestep containing t, or -1 when t falls before
// the first timestep or at or after the end of the last one.
func (d *Dataset) TimestepOf(t Timestamp) int {
	i := d.index(t)
	if i < 0 || i >= d.timesteps {
		return -1
	}
	return i
}

// TimestepsInRange returns the timesteps overlapping [begin, end]. A
// timestep starting exactly at end is included; the first timestep starting
// strictly after end is not. count is zero when nothing overlaps.
func (d *Dataset) TimestepsInRange(begin, end Timestamp) (first, count int, err error) {
	if end.Before(begin) {
		return 0, 0, &ArgumentError{Name: "time range", Reason: fmt.Sprintf("end %s before begin %s", end, begin)}
	}
	first = max(d.index(begin), 0)
	last := min(d.index(end), d.timesteps-1)
	if last < first {
		return 0, 0, nil
	}
	return first, last - first + 1, nil
}

// rangeOrAll resolves an optional time range. Zero timestamps select the
// whole dataset.
func (d *Dataset) rangeOrAll(begin, end Timestamp) (first, count int, err error) {
	if begin.IsZero() {
		begin = d.start
	}
	if end.IsZero() {
		end = d.End()
	}
	return d.TimestepsInRange(begin, end)
}
