// Package dataset loads, pages, queries, regrids and writes multi-timestep
// geophysical datasets stored in the native big-endian format.
//
// A Dataset is one of six kinds (Grid, Site, Point, Swath, Aircraft,
// Profile). All kinds share one query contract, implemented once on
// *Dataset and dispatched to a per-kind variant:
//
//	ds, err := dataset.Open("/data/cmaq_o3.xdr")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ds.Close()
//
//	t, _ := dataset.NewTimestamp(2020, 7, 1, 18, 0, 0)
//	q := dataset.NewProbeQuery(t, -96.5, 37.2)
//	r, err := ds.Probe(q)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if r.Found {
//	    fmt.Printf("%s = %g\n", ds.Variables()[0].Name, r.Value)
//	}
//
// Grid and Site payloads larger than Options.MaxResidentBytes are paged: only
// a window of consecutive timesteps is held in memory and every read path
// first makes its timesteps resident. A Dataset is not safe for concurrent
// use; distinct datasets are independent.
package dataset

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/beetlebugorg/geodataset/internal/xdr"
	"github.com/beetlebugorg/geodataset/pkg/grid"
)

// MissingValue marks absent data.
const MissingValue = -9999.0

// noteWidth is the fixed width of a group note in the native format.
const noteWidth = 80

// Kind identifies the concrete dataset layout.
type Kind int

const (
	KindGrid Kind = iota + 1
	KindSite
	KindPoint
	KindSwath
	KindAircraft
	KindProfile
)

var kindNames = map[Kind]string{
	KindGrid:     "Grid",
	KindSite:     "Site",
	KindPoint:    "Point",
	KindSwath:    "Swath",
	KindAircraft: "Aircraft",
	KindProfile:  "Profile",
}

// String returns the header keyword of k.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses a header keyword such as "Grid".
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, &ArgumentError{Name: "kind", Reason: fmt.Sprintf("unknown dataset kind %q", s)}
}

// CellType is the topology of a cell. Its value is the vertex count.
type CellType int

const (
	CellPoint         CellType = 1
	CellQuadrilateral CellType = 4
	CellHexahedron    CellType = 8
)

// Vertices returns the number of vertices of a cell.
func (c CellType) Vertices() int { return int(c) }

func (c CellType) String() string {
	switch c {
	case CellPoint:
		return "point"
	case CellQuadrilateral:
		return "quadrilateral"
	case CellHexahedron:
		return "hexahedron"
	default:
		return fmt.Sprintf("CellType(%d)", int(c))
	}
}

// CoordinateStorage describes where cell coordinates come from.
type CoordinateStorage int

const (
	// StorageStationary cells keep one location for every timestep.
	StorageStationary CoordinateStorage = iota + 1
	// StoragePerPoint cells are stored per point and grouped by timestep.
	StoragePerPoint
	// StorageGroup cells are stored per point and grouped by track.
	StorageGroup
	// StorageComputed cells are computed from grid parameters.
	StorageComputed
)

func (s CoordinateStorage) String() string {
	switch s {
	case StorageStationary:
		return "stationary"
	case StoragePerPoint:
		return "per-point"
	case StorageGroup:
		return "group"
	case StorageComputed:
		return "computed"
	default:
		return fmt.Sprintf("CoordinateStorage(%d)", int(s))
	}
}

// Variable is a named data variable.
type Variable struct {
	Name  string
	Units string
}

// Querier is the query contract shared by every dataset kind.
type Querier interface {
	Probe(q ProbeQuery) (ProbeResult, error)
	Timeseries(begin, end Timestamp, q ProbeQuery) ([]float64, error)
	Subset(begin, end Timestamp, variable int) ([]SubsetGroup, error)
	Regrid(method RegridMethod, g *grid.Grid) (*Dataset, error)
	Sample(other *Dataset) (*Dataset, error)
	Write(dir string, opts WriteOptions) (string, error)
	CellVertices(cell int, dst []Point) ([]Point, error)
	Bounds() Bounds
	Close() error
}

var _ Querier = (*Dataset)(nil)

// variant is the per-kind half of a Dataset. Implementations live in this
// package only.
type variant interface {
	kind() Kind
	cellType() CellType
	storage() CoordinateStorage

	// cellCount is the number of cells addressable by CellVertices.
	cellCount() int
	vertices(cell int, dst []Point) ([]Point, error)
	center(cell int) (lon, lat, elevation float64, hasElevation bool)
	bounds() Bounds

	// eachCell calls fn for every cell holding data in timestep t.
	eachCell(t int, fn func(cell int))

	// locate finds the cell matching q in timestep t.
	locate(d *Dataset, q ProbeQuery, t int) (cell int, note string, ok bool, err error)

	// subset returns views of variable v over resident timesteps
	// [first, first+count).
	subset(d *Dataset, first, count, v int) []SubsetGroup

	// dimensions returns the kind's "# timesteps ...:" header comment and
	// values for a selection.
	dimensions(d *Dataset, sel selection) (comment string, values []string)

	// encode writes the kind-specific header tail and payload.
	encode(w *xdr.Writer, d *Dataset, sel selection) error

	// clone returns a deep copy of the coordinates.
	clone() variant
}

// Dataset is an open dataset. The zero value is not usable; use Open or one
// of the New* constructors.
type Dataset struct {
	name        string
	description string
	start       Timestamp
	timesteps   int
	step        TimestepSize
	variables   []Variable
	method      RegridMethod

	path string
	opts Options
	log  *slog.Logger

	v variant

	// Grid and Site values, laid out [timestep][variable][cell] over the
	// resident window.
	stepCells int
	win       window
	page      *pager

	// Point, Swath, Aircraft and Profile values, laid out [variable][cell].
	data []float64

	extrema []extremum
	note    string
	closed  bool
}

// Metadata holds the header fields shared by every kind.
type Metadata struct {
	Name         string
	Description  string
	Start        Timestamp
	Timesteps    int
	TimestepSize TimestepSize
	Variables    []Variable
}

func (m Metadata) validate() error {
	switch {
	case m.Timesteps <= 0:
		return &ArgumentError{Name: "timesteps", Reason: fmt.Sprintf("%d must be positive", m.Timesteps)}
	case m.Start.IsZero():
		return &ArgumentError{Name: "start", Reason: "zero timestamp"}
	case m.TimestepSize < Hours || m.TimestepSize > Years:
		return &ArgumentError{Name: "timestep_size", Reason: m.TimestepSize.String()}
	case len(m.Variables) == 0:
		return &ArgumentError{Name: "variables", Reason: "at least one variable is required"}
	case strings.ContainsAny(m.Description, "\r\n"):
		return &ArgumentError{Name: "description", Reason: "must be a single line"}
	}
	for _, v := range m.Variables {
		if v.Name == "" || strings.ContainsAny(v.Name, " \t\n") {
			return &ArgumentError{Name: "variables", Reason: fmt.Sprintf("bad variable name %q", v.Name)}
		}
		if strings.ContainsAny(v.Units, " \t\n") {
			return &ArgumentError{Name: "variables", Reason: fmt.Sprintf("bad units %q for %s", v.Units, v.Name)}
		}
	}
	return nil
}

func newDataset(m Metadata, v variant, opts Options) *Dataset {
	opts = opts.withDefaults()
	return &Dataset{
		name:        m.Name,
		description: m.Description,
		start:       m.Start,
		timesteps:   m.Timesteps,
		step:        m.TimestepSize,
		variables:   normalizeUnits(m.Variables),
		opts:        opts,
		log:         opts.Logger,
		v:           v,
		extrema:     make([]extremum, len(m.Variables)),
	}
}

// normalizeUnits copies vars, replacing empty units with "-" so that every
// variable occupies one word of the units header line.
func normalizeUnits(vars []Variable) []Variable {
	out := slices.Clone(vars)
	for i := range out {
		if out[i].Units == "" {
			out[i].Units = "-"
		}
	}
	return out
}

// Metadata returns a copy of the header fields.
func (d *Dataset) Metadata() Metadata {
	return Metadata{
		Name:         d.name,
		Description:  d.description,
		Start:        d.start,
		Timesteps:    d.timesteps,
		TimestepSize: d.step,
		Variables:    slices.Clone(d.variables),
	}
}

// Name returns the dataset name, the source file name without extension
// for opened datasets.
func (d *Dataset) Name() string { return d.name }

// Description returns the free-text source description.
func (d *Dataset) Description() string { return d.description }

// Kind returns the concrete layout.
func (d *Dataset) Kind() Kind { return d.v.kind() }

// Path returns the source file, or "" for in-memory datasets.
func (d *Dataset) Path() string { return d.path }

// Start returns the start of the first timestep.
func (d *Dataset) Start() Timestamp { return d.start }

// End returns the start of the last timestep.
func (d *Dataset) End() Timestamp { return d.TimestepStart(d.timesteps - 1) }

// Timesteps returns the number of timesteps.
func (d *Dataset) Timesteps() int { return d.timesteps }

// TimestepSize returns the calendar unit between timesteps.
func (d *Dataset) TimestepSize() TimestepSize { return d.step }

// Variables returns a copy of the variable list.
func (d *Dataset) Variables() []Variable { return slices.Clone(d.variables) }

// VariableIndex returns the index of the named variable.
func (d *Dataset) VariableIndex(name string) (int, bool) {
	for i, v := range d.variables {
		if v.Name == name {
			return i, true
		}
	}
	return -1, false
}

// CellType returns the cell topology.
func (d *Dataset) CellType() CellType { return d.v.cellType() }

// CoordinateStorage returns where cell coordinates come from.
func (d *Dataset) CoordinateStorage() CoordinateStorage { return d.v.storage() }

// Cells returns the number of cells addressable by CellVertices: every grid
// cell of every layer, every site, or every stored point.
func (d *Dataset) Cells() int { return d.v.cellCount() }

// Bounds returns the lon-lat extent of all cells.
func (d *Dataset) Bounds() Bounds { return d.v.bounds() }

// Grid returns the grid of a Grid dataset, or nil.
func (d *Dataset) Grid() *grid.Grid {
	if g, ok := d.v.(*gridVariant); ok {
		return g.g
	}
	return nil
}

// RegridMethod returns the aggregation that produced d, or zero.
func (d *Dataset) RegridMethod() RegridMethod { return d.method }

// ProbedNote returns the group note recorded by the last Probe, such as a
// flight identifier. It is empty for kinds without groups.
func (d *Dataset) ProbedNote() string { return d.note }

// Close releases the source file handle of a paged dataset. It is safe to
// call more than once.
func (d *Dataset) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.page != nil {
		return d.page.close()
	}
	return nil
}

// String summarises the dataset.
func (d *Dataset) String() string {
	return fmt.Sprintf("%s %s: %d %s timesteps from %s, %d variables, %d %s cells",
		d.v.kind(), d.name, d.timesteps, d.step, d.start, len(d.variables), d.Cells(), d.CellType())
}

// value returns variable v of cell in timestep t. For Grid and Site the
// timestep must be resident; for other kinds t is ignored.
func (d *Dataset) value(v, t, cell int) float64 {
	if d.stepCells > 0 {
		return d.win.data[((t-d.win.first)*len(d.variables)+v)*d.stepCells+cell]
	}
	return d.data[v*d.v.cellCount()+cell]
}

func (d *Dataset) checkVariable(v int) error {
	if v < 0 || v >= len(d.variables) {
		return &ArgumentError{Name: "variable", Reason: fmt.Sprintf("%d outside [0, %d)", v, len(d.variables))}
	}
	return nil
}

func (d *Dataset) checkOpen() error {
	if d.closed && d.page != nil {
		return fmt.Errorf("dataset %s: %w", d.name, os.ErrClosed)
	}
	return nil
}
