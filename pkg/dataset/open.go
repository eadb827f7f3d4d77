package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beetlebugorg/geodataset/internal/xdr"
	"github.com/beetlebugorg/geodataset/pkg/grid"
)

// Loader opens native dataset files.
//
// A native file starts with an ASCII header naming the kind and version
// ("Grid 1.0"), a description line, the start timestamp, a dimensions line,
// and the variable names and units. A kind-specific header tail follows,
// then the big-endian payload.
type Loader interface {
	// Load opens a dataset with default options.
	Load(path string) (*Dataset, error)

	// LoadWithOptions opens a dataset with custom options.
	LoadWithOptions(path string, opts Options) (*Dataset, error)

	// SupportedKinds returns the header keywords this loader accepts.
	SupportedKinds() []string
}

// defaultLoader implements the Loader interface
type defaultLoader struct{}

// NewLoader creates a native format loader.
func NewLoader() Loader {
	return &defaultLoader{}
}

// Open opens a native dataset file with default options.
func Open(path string) (*Dataset, error) {
	return OpenWithOptions(path, DefaultOptions())
}

// OpenWithOptions opens a native dataset file. Grid and Site payloads larger
// than opts.MaxResidentBytes stay on disk and are paged; the file then stays
// open until Close.
func OpenWithOptions(path string, opts Options) (*Dataset, error) {
	return NewLoader().LoadWithOptions(path, opts)
}

func (l *defaultLoader) Load(path string) (*Dataset, error) {
	return l.LoadWithOptions(path, DefaultOptions())
}

func (l *defaultLoader) SupportedKinds() []string {
	return []string{"Grid", "Site", "Point", "Swath", "Aircraft", "Profile"}
}

func (l *defaultLoader) LoadWithOptions(path string, opts Options) (*Dataset, error) {
	opts = opts.withDefaults()
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	r := xdr.NewReader(f)
	r.SetWorkers(opts.Workers)
	r.SetLimit(info.Size())
	dc := &decoder{r: r, f: f, path: path, opts: opts}
	d, keep, err := dc.decode()
	if err != nil || !keep {
		f.Close()
	}
	if err != nil {
		return nil, err
	}
	d.path = path
	d.method = dc.method
	opts.Logger.Debug("opened dataset",
		"path", path,
		"kind", d.Kind(),
		"timesteps", d.timesteps,
		"variables", len(d.variables),
		"paged", d.page != nil)
	return d, nil
}

// decoder holds the state of one header parse.
type decoder struct {
	r    *xdr.Reader
	f    *os.File
	path string
	opts Options

	// dims holds the integer dimensions named in the header.
	dims map[string]int

	// method is the regrid method recovered from the file name.
	method RegridMethod
}

// fail wraps a decoding failure as a FormatError.
func (dc *decoder) fail(reason string, err error) error {
	return &FormatError{Path: dc.path, Reason: reason, Err: err}
}

// dimensionNames lists the dimensions line of each kind.
var dimensionNames = map[Kind][]string{
	KindGrid:     {"timesteps", "layers", "timestep_size"},
	KindSite:     {"timesteps", "sites", "timestep_size"},
	KindPoint:    {"timesteps", "points", "timestep_size", "elevations"},
	KindSwath:    {"timesteps", "points", "timestep_size"},
	KindAircraft: {"timesteps", "tracks", "points", "timestep_size"},
	KindProfile:  {"timesteps", "tracks", "points", "timestep_size"},
}

// minimum values of the integer dimensions; "elevations" is also bounded
// above by one.
var dimensionMin = map[string]int64{
	"timesteps":  1,
	"layers":     1,
	"sites":      1,
	"points":     0,
	"tracks":     1,
	"elevations": 0,
}

// decode reads the header and payload. keep reports that the file must stay
// open for paging.
func (dc *decoder) decode() (*Dataset, bool, error) {
	words, err := dc.r.ReadWords(2)
	if err != nil {
		return nil, false, dc.fail("kind line", err)
	}
	kind, err := ParseKind(words[0])
	if err != nil {
		return nil, false, dc.fail("kind line", err)
	}
	if words[1] != "1.0" {
		return nil, false, dc.fail("kind line", fmt.Errorf("unsupported version %q", words[1]))
	}

	m, err := dc.readMetadata(kind)
	if err != nil {
		return nil, false, err
	}

	switch kind {
	case KindGrid:
		return dc.readGrid(m)
	case KindSite:
		return dc.readSite(m)
	case KindPoint:
		return dc.readPoint(m)
	case KindSwath:
		return dc.readSwath(m)
	default:
		return dc.readTracks(kind, m)
	}
}

func (dc *decoder) readMetadata(kind Kind) (Metadata, error) {
	var m Metadata

	description, err := dc.r.ReadLine()
	if err != nil {
		return m, dc.fail("description", err)
	}
	m.Description = strings.TrimSpace(description)

	line, err := dc.r.ReadLine()
	if err != nil {
		return m, dc.fail("start timestamp", err)
	}
	if m.Start, err = ParseTimestamp(strings.TrimSpace(line)); err != nil {
		return m, dc.fail("start timestamp", err)
	}

	if err := dc.readDimensions(kind, &m); err != nil {
		return m, err
	}

	if _, err := dc.r.ExpectComment("Variable names:"); err != nil {
		return m, dc.fail("variable names", err)
	}
	names, err := dc.r.ReadWords(-1)
	if err != nil {
		return m, dc.fail("variable names", err)
	}
	if _, err := dc.r.ExpectComment("Variable units:"); err != nil {
		return m, dc.fail("variable units", err)
	}
	units, err := dc.r.ReadWords(len(names))
	if err != nil {
		return m, dc.fail("variable units", err)
	}
	m.Variables = make([]Variable, len(names))
	for i := range names {
		m.Variables[i] = Variable{Name: names[i], Units: units[i]}
	}
	base := strings.TrimSuffix(filepath.Base(dc.path), filepath.Ext(dc.path))
	m.Name, dc.method = nameFromFile(base, kind, m)

	if err := m.validate(); err != nil {
		return m, dc.fail("header", err)
	}
	return m, nil
}

// readDimensions reads the "# timesteps ...:" comment and its values line.
func (dc *decoder) readDimensions(kind Kind, m *Metadata) error {
	text, err := dc.r.ExpectComment("timesteps")
	if err != nil {
		return dc.fail("dimensions", err)
	}
	names := strings.Fields(strings.TrimSuffix(text, ":"))
	want := dimensionNames[kind]
	if strings.Join(names, " ") != strings.Join(want, " ") {
		return dc.fail("dimensions", &xdr.HeaderError{
			Line:     dc.r.Line(),
			Expected: "# " + strings.Join(want, " ") + ":",
			Got:      "# " + text,
		})
	}
	values, err := dc.r.ReadWords(len(names))
	if err != nil {
		return dc.fail("dimensions", err)
	}

	dc.dims = make(map[string]int, len(names))
	for i, name := range names {
		if name == "timestep_size" {
			if m.TimestepSize, err = ParseTimestepSize(values[i]); err != nil {
				return dc.fail("dimensions", err)
			}
			continue
		}
		n, err := strconv.ParseInt(values[i], 10, 32)
		if err != nil || n < dimensionMin[name] || (name == "elevations" && n > 1) {
			return dc.fail("dimensions", &xdr.HeaderError{
				Line:     dc.r.Line(),
				Expected: fmt.Sprintf("%s >= %d", name, dimensionMin[name]),
				Got:      values[i],
			})
		}
		dc.dims[name] = int(n)
	}
	m.Timesteps = dc.dims["timesteps"]
	return nil
}

// readGrid decodes the Grid header tail and payload.
func (dc *decoder) readGrid(m Metadata) (*Dataset, bool, error) {
	g, err := grid.ReadHeader(dc.r, dc.dims["layers"])
	if err != nil {
		return nil, false, dc.fail("grid header", err)
	}
	if _, err := dc.r.ExpectComment("IEEE-754 32-bit reals data"); err != nil {
		return nil, false, dc.fail("grid header", err)
	}
	v := &gridVariant{g: g, workers: dc.opts.Workers}
	d := newDataset(m, v, dc.opts)
	keep, err := dc.attachFixed(d, v.cellCount())
	return d, keep, err
}

// attachFixed loads the 32-bit [timestep][variable][cell] payload of a Grid
// or Site dataset, or sets d up for paging when the payload exceeds
// Options.MaxResidentBytes.
func (dc *decoder) attachFixed(d *Dataset, cells int) (bool, error) {
	d.stepCells = cells
	stepVals := len(d.variables) * cells
	total := int64(d.timesteps) * int64(stepVals) * int64(xdr.Float32.Size())

	if dc.opts.MaxResidentBytes >= 0 && total <= dc.opts.MaxResidentBytes {
		values, err := dc.r.ReadFloats(xdr.Float32, d.timesteps*stepVals, -xdr.FloatRange, xdr.FloatRange)
		if err != nil {
			return false, dc.fail("data", err)
		}
		d.win = window{first: 0, count: d.timesteps, data: values}
		return false, nil
	}

	info, err := dc.f.Stat()
	if err != nil {
		return false, fmt.Errorf("open dataset: %w", err)
	}
	if have := info.Size() - dc.r.Offset(); have < total {
		return false, dc.fail("data", &xdr.Error{
			Op:    "read",
			Type:  xdr.Float32,
			Index: -1,
			Err:   fmt.Errorf("payload has %d of %d bytes: %w", have, total, xdr.ErrShort),
		})
	}
	d.page = newPager(dc.f, dc.r.Offset(), stepVals)
	return true, nil
}
