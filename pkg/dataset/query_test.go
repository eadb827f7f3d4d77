package dataset

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/beetlebugorg/geodataset/pkg/grid"
)

func TestProbe(t *testing.T) {
	grd := newTestGrid(t, Options{})
	site := newTestSite(t)
	points := newTestPoints(t)
	swath := newTestSwath(t)
	aircraft := newTestAircraft(t)

	query := func(at Timestamp, lon, lat float64, variable int) ProbeQuery {
		q := NewProbeQuery(at, lon, lat)
		q.Variable = variable
		return q
	}

	tests := []struct {
		name  string
		ds    *Dataset
		q     ProbeQuery
		found bool
		value float64
		cell  int
		note  string
	}{
		{"grid cell", grd, query(hours(1).Add(30*time.Minute), -97.5, 31.5, 1), true, gridValue(1, 1, 6), 6, ""},
		{"grid lower-left corner", grd, query(hours(0), -100, 30, 0), true, gridValue(0, 0, 0), 0, ""},
		{"grid outside", grd, query(hours(0), -50, 31, 0), false, MissingValue, -1, ""},
		{"grid before start", grd, query(hours(-1), -97.5, 31.5, 0), false, MissingValue, -1, ""},
		{"grid after end", grd, query(hours(3), -97.5, 31.5, 0), false, MissingValue, -1, ""},
		{"site exact", site, query(hours(1), -98.5, 31.5, 0), true, 5, 1, ""},
		{"site within tolerance", site, query(hours(0), -98.52, 31.5, 0), true, 2, 1, ""},
		{"site beyond tolerance", site, query(hours(0), -98.6, 31.5, 0), false, MissingValue, -1, ""},
		{"point own timestep", points, query(hours(0), -97.5, 30.5, 0), true, 2.5, 1, ""},
		{"point other timestep", points, query(hours(1), -97.5, 30.5, 0), false, MissingValue, -1, ""},
		{"point second timestep", points, query(hours(1), -96.5, 32.5, 0), true, 3.75, 2, ""},
		{"swath inside", swath, query(hours(0), -69.5, 20.5, 0), true, 0.5, 0, ""},
		{"swath on edge", swath, query(hours(0), -69, 20.5, 0), true, 0.5, 0, ""},
		{"swath other timestep", swath, query(hours(1), -69.5, 20.5, 0), false, MissingValue, -1, ""},
		{"swath second footprint", swath, query(hours(1), -67.5, 20.5, 0), true, 0.75, 1, ""},
		{"aircraft first flight", aircraft, query(hours(0), -99.5, 30.5, 0), true, 100, 0, "flight-1"},
		{"aircraft second flight", aircraft, query(hours(0).Add(30*time.Minute), -97.5, 32.5, 0), true, 300, 2, "flight-2"},
		{"aircraft point in later timestep", aircraft, query(hours(0), -98.5, 31.5, 0), false, MissingValue, -1, ""},
		{"aircraft later timestep", aircraft, query(hours(1), -98.5, 31.5, 0), true, 200, 1, "flight-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.ds.Probe(tt.q)
			if err != nil {
				t.Fatalf("Probe() error = %v", err)
			}
			if r.Found != tt.found {
				t.Fatalf("Expected Found %v, got %v", tt.found, r.Found)
			}
			if r.Value != tt.value {
				t.Errorf("Expected value %v, got %v", tt.value, r.Value)
			}
			if r.Cell != tt.cell {
				t.Errorf("Expected cell %d, got %d", tt.cell, r.Cell)
			}
			if r.Note != tt.note || tt.ds.ProbedNote() != tt.note {
				t.Errorf("Expected note %q, got %q (ProbedNote %q)", tt.note, r.Note, tt.ds.ProbedNote())
			}
		})
	}
}

func TestProbeArgumentErrors(t *testing.T) {
	ds := newTestGrid(t, Options{})

	q := NewProbeQuery(hours(0), -97.5, 31.5)
	q.Variable = 2
	if _, err := ds.Probe(q); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for variable, got %v", err)
	}

	q = NewProbeQuery(hours(0), -97.5, 31.5)
	q.Layer = 1
	if _, err := ds.Probe(q); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for layer, got %v", err)
	}

	q = NewProbeQuery(Timestamp{}, -97.5, 31.5)
	if _, err := ds.Probe(q); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for zero time, got %v", err)
	}
}

func TestProbeLayeredGridByElevation(t *testing.T) {
	g := grid.MustNew(lonLatParams(2))
	cells := 2 * g.Cells()
	data := make([]float64, cells)
	for c := range data {
		data[c] = float64(c)
	}
	ds, err := NewGrid(meta("layers", 1, "O3"), g, data, Options{})
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}
	if ds.CellType() != CellHexahedron {
		t.Errorf("Expected hexahedron cells, got %v", ds.CellType())
	}

	q := NewProbeQuery(hours(0), -99.5, 30.5)
	q.Elevation, q.HasElevation = 150, true
	r, err := ds.Probe(q)
	if err != nil || !r.Found {
		t.Fatalf("Probe() = %+v, %v", r, err)
	}
	if r.Cell != 12 {
		t.Errorf("Expected cell 12 in layer 1, got %d", r.Cell)
	}

	q.HasElevation = false
	r, _ = ds.Probe(q)
	if r.Cell != 0 {
		t.Errorf("Expected layer 0 without elevation, got cell %d", r.Cell)
	}
}

func TestTimeseries(t *testing.T) {
	ds := newTestGrid(t, Options{})
	q := NewProbeQuery(Timestamp{}, -97.5, 31.5)

	got, err := ds.Timeseries(hours(0), hours(4), q)
	if err != nil {
		t.Fatalf("Timeseries() error = %v", err)
	}
	want := []float64{gridValue(0, 0, 6), gridValue(1, 0, 6), gridValue(2, 0, 6), MissingValue, MissingValue}
	if len(got) != len(want) {
		t.Fatalf("Expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value[%d]: Expected %v, got %v", i, want[i], got[i])
		}
	}

	if _, err := ds.Timeseries(hours(2), hours(1), q); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for reversed range, got %v", err)
	}
}

func TestTimeseriesDailyProbesEachTimestep(t *testing.T) {
	m := meta("daily", 2, "PM25")
	m.TimestepSize = Days
	ds, err := NewSite(m, []int64{1}, []float64{-90}, []float64{40}, []float64{7, 8}, Options{})
	if err != nil {
		t.Fatalf("NewSite() error = %v", err)
	}
	got, err := ds.Timeseries(start, start.Add(36*time.Hour), NewProbeQuery(Timestamp{}, -90, 40))
	if err != nil {
		t.Fatalf("Timeseries() error = %v", err)
	}
	if len(got) != 2 || got[0] != 7 || got[1] != 8 {
		t.Errorf("Expected [7 8], got %v", got)
	}
}

func TestSubset(t *testing.T) {
	t.Run("grid", func(t *testing.T) {
		ds := newTestGrid(t, Options{})
		groups, err := ds.Subset(hours(1), hours(2), 1)
		if err != nil {
			t.Fatalf("Subset() error = %v", err)
		}
		if len(groups) != 1 || groups[0].FirstTimestep != 1 || len(groups[0].Values) != 2 {
			t.Fatalf("Expected one group of two timesteps from 1, got %+v", groups)
		}
		if got := groups[0].Values[1][5]; got != gridValue(2, 1, 5) {
			t.Errorf("Expected %v, got %v", gridValue(2, 1, 5), got)
		}
		if groups[0].Longitudes != nil {
			t.Error("Expected no stored coordinates for a grid")
		}
	})

	t.Run("points", func(t *testing.T) {
		ds := newTestPoints(t)
		groups, err := ds.Subset(hours(0), hours(0), 0)
		if err != nil {
			t.Fatalf("Subset() error = %v", err)
		}
		g := groups[0]
		if len(g.Values[0]) != 2 || g.Values[0][1] != 2.5 {
			t.Errorf("Expected [1.25 2.5], got %v", g.Values[0])
		}
		if len(g.Elevations) != 2 || g.Elevations[1] != 20 {
			t.Errorf("Expected elevations [10 20], got %v", g.Elevations)
		}
	})

	t.Run("aircraft", func(t *testing.T) {
		ds := newTestAircraft(t)
		groups, err := ds.Subset(hours(0), hours(1), 0)
		if err != nil {
			t.Fatalf("Subset() error = %v", err)
		}
		if len(groups) != 2 {
			t.Fatalf("Expected 2 tracks, got %d", len(groups))
		}
		if groups[0].Note != "flight-1" || len(groups[0].Values[0]) != 2 || len(groups[0].Times) != 2 {
			t.Errorf("Expected flight-1 with 2 points, got %+v", groups[0])
		}
		if groups[1].Note != "flight-2" || groups[1].Values[0][0] != 300 {
			t.Errorf("Expected flight-2 with value 300, got %+v", groups[1])
		}

		groups, _ = ds.Subset(hours(1), hours(1), 0)
		if len(groups) != 1 || groups[0].Values[0][0] != 200 {
			t.Errorf("Expected only the second point of flight-1, got %+v", groups)
		}
	})

	t.Run("empty range", func(t *testing.T) {
		ds := newTestSite(t)
		groups, err := ds.Subset(hours(10), hours(11), 0)
		if err != nil || groups != nil {
			t.Errorf("Expected no groups and no error, got %v, %v", groups, err)
		}
	})
}

func TestMinMax(t *testing.T) {
	ds := newTestGrid(t, Options{})
	lo, hi, err := ds.MinMax(0)
	if err != nil {
		t.Fatalf("MinMax() error = %v", err)
	}
	if lo != 0 || hi != gridValue(2, 0, 11) {
		t.Errorf("Expected (0, %v), got (%v, %v)", gridValue(2, 0, 11), lo, hi)
	}

	site, err := NewSite(meta("gaps", 2, "PM25"), []int64{1, 2, 3}, []float64{0, 1, 2}, []float64{0, 1, 2},
		[]float64{4, MissingValue, 3, 9, 5, 6}, Options{})
	if err != nil {
		t.Fatalf("NewSite() error = %v", err)
	}
	lo, hi, _ = site.MinMax(0)
	if lo != 3 || hi != 9 {
		t.Errorf("Expected (3, 9), got (%v, %v)", lo, hi)
	}

	empty, err := NewPoints(meta("none", 1, "X"), []int64{1}, []float64{0}, []float64{0}, nil, []float64{MissingValue}, Options{})
	if err != nil {
		t.Fatalf("NewPoints() error = %v", err)
	}
	lo, hi, _ = empty.MinMax(0)
	if lo != MissingValue || hi != MissingValue {
		t.Errorf("Expected MissingValue for both, got (%v, %v)", lo, hi)
	}
}

func TestCellVertices(t *testing.T) {
	ds := newTestGrid(t, Options{})
	vs, err := ds.CellVertices(0, nil)
	if err != nil {
		t.Fatalf("CellVertices() error = %v", err)
	}
	want := []Point{{-100, 30, 0}, {-99, 30, 0}, {-99, 31, 0}, {-100, 31, 0}}
	if len(vs) != len(want) {
		t.Fatalf("Expected %d vertices, got %d", len(want), len(vs))
	}
	for i := range want {
		if math.Abs(vs[i].Longitude-want[i].Longitude) > 1e-9 || math.Abs(vs[i].Latitude-want[i].Latitude) > 1e-9 {
			t.Errorf("vertex %d: Expected %+v, got %+v", i, want[i], vs[i])
		}
	}

	if _, err := ds.CellVertices(ds.Cells(), nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for cell out of range, got %v", err)
	}

	in, _ := ds.Contains(6, -97.5, 31.5)
	out, _ := ds.Contains(6, -99.5, 30.5)
	if !in || out {
		t.Errorf("Expected Contains (true, false), got (%v, %v)", in, out)
	}
}

func TestHexahedronCentroidMatchesCellCenter(t *testing.T) {
	g := grid.MustNew(lonLatParams(2))
	ds, err := NewGrid(meta("hex", 1, "O3"), g, make([]float64, 2*g.Cells()), Options{})
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}

	for cell := range ds.Cells() {
		vs, err := ds.CellVertices(cell, nil)
		if err != nil {
			t.Fatalf("CellVertices(%d) error = %v", cell, err)
		}
		if len(vs) != 8 {
			t.Fatalf("Expected 8 vertices, got %d", len(vs))
		}
		var c Point
		for _, v := range vs {
			c.Longitude += v.Longitude / 8
			c.Latitude += v.Latitude / 8
			c.Elevation += v.Elevation / 8
		}
		col, row, layer := cell%4, cell/4%3, cell/12
		lon, lat := g.CellCenter(col, row)
		z, _ := g.LayerCenterElevation(layer)
		if math.Abs(c.Longitude-lon) > 1e-9 || math.Abs(c.Latitude-lat) > 1e-9 || math.Abs(c.Elevation-z) > 1e-9 {
			t.Errorf("cell %d: Expected (%v, %v, %v), got %+v", cell, lon, lat, z, c)
		}
	}
}

func TestHexahedronWithoutThicknessUnsupported(t *testing.T) {
	p := lonLatParams(2)
	p.VerticalType = grid.VerticalPressure
	p.Levels = []float64{100000, 90000, 80000}
	g := grid.MustNew(p)
	ds, err := NewGrid(meta("pressure", 1, "O3"), g, make([]float64, 2*g.Cells()), Options{})
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}
	if _, err := ds.CellVertices(0, nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
}

func TestConstructorValidation(t *testing.T) {
	g := grid.MustNew(lonLatParams(1))

	tests := []struct {
		name string
		fn   func() error
	}{
		{"grid data length", func() error {
			_, err := NewGrid(meta("g", 1, "O3"), g, make([]float64, 5), Options{})
			return err
		}},
		{"grid NaN", func() error {
			data := make([]float64, g.Cells())
			data[3] = math.NaN()
			_, err := NewGrid(meta("g", 1, "O3"), g, data, Options{})
			return err
		}},
		{"no variables", func() error {
			_, err := NewGrid(meta("g", 1), g, nil, Options{})
			return err
		}},
		{"site latitude", func() error {
			_, err := NewSite(meta("s", 1, "O3"), []int64{1}, []float64{0}, []float64{95}, []float64{1}, Options{})
			return err
		}},
		{"site id width", func() error {
			_, err := NewSite(meta("s", 1, "O3"), []int64{1 << 40}, []float64{0}, []float64{0}, []float64{1}, Options{})
			return err
		}},
		{"point counts", func() error {
			_, err := NewPoints(meta("p", 2, "O3"), []int64{1, 1}, []float64{0}, []float64{0}, nil, []float64{1}, Options{})
			return err
		}},
		{"swath corners", func() error {
			_, err := NewSwath(meta("w", 1, "O3"), []int64{1}, []float64{0, 1, 1}, []float64{0, 0, 1}, []float64{1}, Options{})
			return err
		}},
		{"track order", func() error {
			_, err := NewTracks(KindProfile, meta("p", 1, "O3"), []string{"a"}, []int64{2},
				[]Timestamp{start.Add(time.Minute), start}, []float64{0, 0}, []float64{0, 0}, []float64{0, 1}, []float64{1, 2}, Options{})
			return err
		}},
		{"track elevations", func() error {
			_, err := NewTracks(KindProfile, meta("p", 1, "O3"), []string{"a"}, []int64{1},
				[]Timestamp{start}, []float64{0}, []float64{0}, nil, []float64{1}, Options{})
			return err
		}},
		{"track kind", func() error {
			_, err := NewTracks(KindPoint, meta("p", 1, "O3"), []string{"a"}, []int64{1},
				[]Timestamp{start}, []float64{0}, []float64{0}, []float64{0}, []float64{1}, Options{})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestUnitsNormalized(t *testing.T) {
	m := meta("units", 1, "O3")
	m.Variables[0].Units = ""
	ds, err := NewSite(m, []int64{1}, []float64{0}, []float64{0}, []float64{1}, Options{})
	if err != nil {
		t.Fatalf("NewSite() error = %v", err)
	}
	if got := ds.Variables()[0].Units; got != "-" {
		t.Errorf("Expected units %q, got %q", "-", got)
	}
}

func TestQueriesCenturiesFromStart(t *testing.T) {
	ds := newTestGrid(t, Options{})
	far := mustTimestamp(2400, 1, 1, 0, 0, 0)

	r, err := ds.Probe(NewProbeQuery(far, -99.5, 30.5))
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if r.Found || r.Value != MissingValue {
		t.Errorf("Expected no match, got %+v", r)
	}

	got, err := ds.Timeseries(far, far.Add(2*time.Hour), NewProbeQuery(Timestamp{}, -99.5, 30.5))
	if err != nil {
		t.Fatalf("Timeseries() error = %v", err)
	}
	if len(got) != 3 || got[0] != MissingValue || got[2] != MissingValue {
		t.Errorf("Expected 3 missing values, got %v", got)
	}

	groups, err := ds.Subset(far, mustTimestamp(9999, 1, 1, 0, 0, 0), 0)
	if err != nil || len(groups) != 0 {
		t.Errorf("Expected empty subset, got %d groups, error %v", len(groups), err)
	}

	if _, err := ds.Timeseries(start, far, NewProbeQuery(Timestamp{}, -99.5, 30.5)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for %d-year range, got %v", far.Time().Year()-2020, err)
	}
}
