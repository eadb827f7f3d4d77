package dataset

import (
	"fmt"
	"io"
	"os"

	"github.com/beetlebugorg/geodataset/internal/xdr"
)

// window is the resident run of timesteps of a Grid or Site dataset.
type window struct {
	first int
	count int
	data  []float64 // [count][variables][cells]
}

func (w window) covers(first, count int) bool {
	return first >= w.first && first+count <= w.first+w.count
}

// pager reads timestep windows of 32-bit data from an open file.
type pager struct {
	f         *os.File
	offset    int64 // payload offset of timestep 0
	stepBytes int64
	stepVals  int // values per timestep
}

func newPager(f *os.File, offset int64, stepVals int) *pager {
	return &pager{
		f:         f,
		offset:    offset,
		stepBytes: int64(stepVals) * int64(xdr.Float32.Size()),
		stepVals:  stepVals,
	}
}

// read decodes timesteps [first, first+count). The result is independent of
// any previously returned slice.
func (p *pager) read(first, count, workers int) ([]float64, error) {
	sr := io.NewSectionReader(p.f, p.offset+int64(first)*p.stepBytes, int64(count)*p.stepBytes)
	r := xdr.NewReader(sr)
	r.SetWorkers(workers)
	return r.ReadFloats(xdr.Float32, count*p.stepVals, -xdr.FloatRange, xdr.FloatRange)
}

func (p *pager) close() error {
	return p.f.Close()
}

// IsPaged reports whether d holds only a window of its timesteps.
func (d *Dataset) IsPaged() bool { return d.page != nil }

// ResidentWindow returns the resident timesteps [first, first+count). Kinds
// that are always fully resident report every timestep.
func (d *Dataset) ResidentWindow() (first, count int) {
	if d.stepCells == 0 {
		return 0, d.timesteps
	}
	return d.win.first, d.win.count
}

// ensureResident makes timesteps [first, first+count) resident. It is a
// no-op when they already are. Otherwise the window is replaced by a fresh
// read of at least Options.PageTimesteps timesteps starting at first; on
// failure the previous window is kept.
func (d *Dataset) ensureResident(first, count int) error {
	if count <= 0 || d.stepCells == 0 || d.win.covers(first, count) {
		return nil
	}
	if first < 0 || first+count > d.timesteps {
		return &ArgumentError{Name: "timesteps", Reason: fmt.Sprintf("[%d, %d) outside [0, %d)", first, first+count, d.timesteps)}
	}
	if d.page == nil {
		return fmt.Errorf("dataset %s: timesteps [%d, %d) are not resident and the dataset has no source", d.name, first, first+count)
	}
	if err := d.checkOpen(); err != nil {
		return err
	}

	n := min(max(count, d.opts.PageTimesteps), d.timesteps-first)
	values, err := d.page.read(first, n, d.opts.Workers)
	if err != nil {
		return &FormatError{Path: d.path, Reason: fmt.Sprintf("page timesteps [%d, %d)", first, first+n), Err: err}
	}
	d.win = window{first: first, count: n, data: values}
	d.log.Debug("paged window",
		"path", d.path,
		"first", first,
		"count", n,
		"bytes", int64(n)*d.page.stepBytes)
	return nil
}
