package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/beetlebugorg/geodataset/internal/xdr"
	"github.com/beetlebugorg/geodataset/pkg/grid"
)

// Format is an output file format.
type Format int

const (
	FormatXDR Format = iota + 1
	FormatASCII
	FormatCOARDS
	FormatIOAPI
	FormatShapefile
	FormatKML
	FormatOriginal
)

var formats = []struct {
	f    Format
	name string
	ext  string
}{
	{FormatXDR, "xdr", ".xdr"},
	{FormatASCII, "ascii", ".txt"},
	{FormatCOARDS, "coards", ".nc"},
	{FormatIOAPI, "ioapi", ".ncf"},
	{FormatShapefile, "shapefile", ".shp"},
	{FormatKML, "kml", ".kml"},
	{FormatOriginal, "original", ""},
}

func (f Format) String() string {
	for _, e := range formats {
		if e.f == f {
			return e.name
		}
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Extension returns the file extension of f, including the dot. The
// original format keeps the source extension.
func (f Format) Extension() string {
	for _, e := range formats {
		if e.f == f {
			return e.ext
		}
	}
	return ""
}

// ParseFormat parses a format name such as "coards" or "shapefile".
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, e := range formats {
		if e.name == s {
			return e.f, nil
		}
	}
	return 0, &ArgumentError{Name: "format", Reason: fmt.Sprintf("unknown format %q", s)}
}

// WriteOptions selects what Write produces.
type WriteOptions struct {
	// Format of the output. Zero selects FormatXDR.
	Format Format

	// Variables to write, by index. Nil writes all of them.
	Variables []int

	// Time range to write. Zero timestamps select the whole dataset.
	Begin, End Timestamp

	// Regrid, when non-zero, writes the dataset regridded onto Grid.
	Regrid RegridMethod
	Grid   *grid.Grid
}

// selection is a resolved subset of variables and timesteps.
type selection struct {
	vars  []int
	first int
	count int
}

func (d *Dataset) all() selection {
	vars := make([]int, len(d.variables))
	for i := range vars {
		vars[i] = i
	}
	return selection{vars: vars, first: 0, count: d.timesteps}
}

func (d *Dataset) selectionFor(opts WriteOptions) (selection, error) {
	sel := d.all()
	if opts.Variables != nil {
		if len(opts.Variables) == 0 {
			return sel, &ArgumentError{Name: "variables", Reason: "empty selection"}
		}
		for _, v := range opts.Variables {
			if err := d.checkVariable(v); err != nil {
				return sel, err
			}
		}
		sel.vars = slices.Clone(opts.Variables)
	}
	first, count, err := d.rangeOrAll(opts.Begin, opts.End)
	if err != nil {
		return sel, err
	}
	if count == 0 {
		return sel, &ArgumentError{Name: "time range", Reason: "no timesteps overlap " + opts.Begin.String() + " to " + opts.End.String()}
	}
	sel.first, sel.count = first, count
	return sel, nil
}

func (s selection) whole(d *Dataset) bool {
	return s.first == 0 && s.count == d.timesteps && slices.Equal(s.vars, d.all().vars)
}

// fileName returns the output file name for a selection:
//
//	[<method>_]<name>_<var1-var2>_<YYYYMMDDHH>_<YYYYMMDDHH>.<ext>
//
// where the timestamps are the starts of the first and last selected
// timesteps.
func (d *Dataset) fileName(sel selection, f Format) string {
	names := make([]string, len(sel.vars))
	for i, v := range sel.vars {
		names[i] = d.variables[v].Name
	}
	var b strings.Builder
	if d.method != 0 {
		b.WriteString(d.method.String())
		b.WriteByte('_')
	}
	fmt.Fprintf(&b, "%s_%s_%s_%s",
		d.name,
		strings.Join(names, "-"),
		d.TimestepStart(sel.first).hourKey(),
		d.TimestepStart(sel.first+sel.count-1).hourKey())
	ext := f.Extension()
	if f == FormatOriginal {
		ext = filepath.Ext(d.path)
	}
	return b.String() + ext
}

// nameFromFile recovers the dataset name and regrid method from the base
// name of a file written by Write. The variable and time suffix is removed
// only when it matches m; a base that does not follow the pattern is the
// name unchanged.
func nameFromFile(base string, kind Kind, m Metadata) (string, RegridMethod) {
	names := make([]string, len(m.Variables))
	for i, v := range m.Variables {
		names[i] = v.Name
	}
	last := m.TimestepSize.after(m.Start, m.Timesteps-1)
	suffix := "_" + strings.Join(names, "-") + "_" + m.Start.hourKey() + "_" + last.hourKey()
	name, ok := strings.CutSuffix(base, suffix)
	if !ok || name == "" {
		return base, 0
	}
	if kind == KindGrid {
		for method, prefix := range regridNames {
			if rest, ok := strings.CutPrefix(name, prefix+"_"); ok && rest != "" {
				return rest, method
			}
		}
	}
	return name, 0
}

// Write writes the selected variables and timesteps of d to a new file in
// dir and returns its path. When opts.Regrid is set the dataset is first
// regridded onto opts.Grid. On failure no partial output is left behind.
func (d *Dataset) Write(dir string, opts WriteOptions) (string, error) {
	if err := d.checkOpen(); err != nil {
		return "", err
	}
	if opts.Format == 0 {
		opts.Format = FormatXDR
	}
	if opts.Format.Extension() == "" && opts.Format != FormatOriginal {
		return "", &ArgumentError{Name: "format", Reason: opts.Format.String()}
	}

	if opts.Regrid != 0 {
		if opts.Format == FormatOriginal {
			return "", &ArgumentError{Name: "format", Reason: "original output cannot be regridded"}
		}
		if opts.Grid == nil {
			return "", &ArgumentError{Name: "grid", Reason: "regrid requested without a target grid"}
		}
		r, err := d.Regrid(opts.Regrid, opts.Grid)
		if err != nil {
			return "", err
		}
		opts.Regrid, opts.Grid = 0, nil
		return r.Write(dir, opts)
	}

	sel, err := d.selectionFor(opts)
	if err != nil {
		return "", err
	}

	var write func(path string, sel selection) error
	switch opts.Format {
	case FormatXDR:
		write = d.writeXDR
	case FormatASCII:
		write = d.writeASCII
	case FormatCOARDS:
		write = d.writeCOARDS
	case FormatIOAPI:
		if d.Kind() != KindGrid {
			return "", unsupported(d.Kind(), "IOAPI output without regridding")
		}
		write = d.writeIOAPI
	case FormatShapefile:
		write = d.writeShapefile
	case FormatKML:
		write = d.writeKML
	case FormatOriginal:
		if d.path == "" {
			return "", &ArgumentError{Name: "format", Reason: "in-memory datasets have no original file"}
		}
		if !sel.whole(d) {
			return "", &ArgumentError{Name: "format", Reason: "original output cannot select variables or timesteps"}
		}
		write = d.copyOriginal
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("write dataset: %w", err)
	}
	path, err := d.writeAtomic(dir, d.fileName(sel, opts.Format), func(tmp string) error {
		return write(tmp, sel)
	})
	if err != nil {
		return "", err
	}
	d.log.Debug("wrote dataset", "path", path, "format", opts.Format, "timesteps", sel.count, "variables", len(sel.vars))
	return path, nil
}

// writeAtomic runs write against name inside a scratch directory in dir and
// renames everything it produced, sidecar files included, into dir only when
// it succeeds. An existing output with the same name survives a failure.
func (d *Dataset) writeAtomic(dir, name string, write func(path string) error) (string, error) {
	scratch, err := os.MkdirTemp(dir, ".geodataset-")
	if err != nil {
		return "", fmt.Errorf("write dataset: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			d.log.Warn("remove scratch directory", "path", scratch, "error", err)
		}
	}()

	if err := write(filepath.Join(scratch, name)); err != nil {
		d.log.Debug("discarded partial output", "name", name, "error", err)
		return "", fmt.Errorf("write %s: %w", name, err)
	}

	entries, err := os.ReadDir(scratch)
	if err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	// The main file moves last so that it never appears without its sidecars.
	for _, e := range entries {
		if e.Name() == name {
			continue
		}
		if err := os.Rename(filepath.Join(scratch, e.Name()), filepath.Join(dir, e.Name())); err != nil {
			return "", fmt.Errorf("write %s: %w", name, err)
		}
	}
	path := filepath.Join(dir, name)
	if err := os.Rename(filepath.Join(scratch, name), path); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// createWith creates path and runs fn over a buffered writer.
func createWith(path string, fn func(w *bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(f, 256*1024)
	if err := fn(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeXDR writes the native format.
func (d *Dataset) writeXDR(path string, sel selection) error {
	return createWith(path, func(bw *bufio.Writer) error {
		w := xdr.NewWriter(bw)
		w.SetWorkers(d.opts.Workers)

		names := make([]string, len(sel.vars))
		units := make([]string, len(sel.vars))
		for i, v := range sel.vars {
			names[i] = d.variables[v].Name
			units[i] = d.variables[v].Units
		}
		comment, dims := d.v.dimensions(d, sel)
		header := []func() error{
			func() error { return w.WriteLine("%s 1.0", d.Kind()) },
			func() error { return w.WriteLine("%s", d.description) },
			func() error { return w.WriteLine("%s", d.TimestepStart(sel.first)) },
			func() error { return w.WriteLine("# %s:", comment) },
			func() error { return w.WriteFields(dims...) },
			func() error { return w.WriteLine("# Variable names:") },
			func() error { return w.WriteFields(names...) },
			func() error { return w.WriteLine("# Variable units:") },
			func() error { return w.WriteFields(units...) },
		}
		for _, fn := range header {
			if err := fn(); err != nil {
				return err
			}
		}
		if err := d.v.encode(w, d, sel); err != nil {
			return err
		}
		return w.Flush()
	})
}

// copyOriginal copies the source file byte for byte.
func (d *Dataset) copyOriginal(path string, _ selection) error {
	src, err := os.Open(d.path)
	if err != nil {
		return err
	}
	defer src.Close()
	return createWith(path, func(w *bufio.Writer) error {
		_, err := io.Copy(w, src)
		return err
	})
}

// cellTime returns the timestamp reported for cell in timestep t: the
// point's own time for tracks, the timestep start otherwise.
func (d *Dataset) cellTime(t, cell int) Timestamp {
	if tv, ok := d.v.(*trackVariant); ok {
		return tv.times[cell]
	}
	return d.TimestepStart(t)
}

// cellNote returns the group note of cell, or "".
func (d *Dataset) cellNote(cell int) string {
	if tv, ok := d.v.(*trackVariant); ok {
		return tv.notes[groupOf(tv.offsets, cell)]
	}
	return ""
}

// vertexCenter returns the centre of cell as the average of its vertices,
// falling back to the computed centre when vertices are unavailable.
func (d *Dataset) vertexCenter(cell int, buf []Point) (Point, []Point) {
	vs, err := d.v.vertices(cell, buf[:0])
	if err != nil || len(vs) == 0 {
		lon, lat, z, _ := d.v.center(cell)
		return Point{Longitude: lon, Latitude: lat, Elevation: z}, vs
	}
	var c Point
	for _, v := range vs {
		c.Longitude += v.Longitude
		c.Latitude += v.Latitude
		c.Elevation += v.Elevation
	}
	n := float64(len(vs))
	c.Longitude /= n
	c.Latitude /= n
	c.Elevation /= n
	return c, vs
}

// footprint returns the lon-lat outline of a cell with an area: its stored
// corners, or for grids the corners of its column.
func (d *Dataset) footprint(cell int, buf []Point) ([]Point, error) {
	if g, ok := d.v.(*gridVariant); ok {
		return g.footprint(cell, buf[:0]), nil
	}
	return d.v.vertices(cell, buf[:0])
}

// eachSelected calls fn for every cell of every selected timestep, making
// each timestep resident first.
func (d *Dataset) eachSelected(sel selection, fn func(t, cell int) error) error {
	for t := sel.first; t < sel.first+sel.count; t++ {
		if err := d.ensureResident(t, 1); err != nil {
			return err
		}
		var err error
		d.v.eachCell(t, func(cell int) {
			if err == nil {
				err = fn(t, cell)
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}
