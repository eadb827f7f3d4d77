package grid

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/beetlebugorg/geodataset/internal/xdr"
	"github.com/beetlebugorg/geodataset/pkg/projection"
)

func lambertParams() Parameters {
	return Parameters{
		Columns: 10, Rows: 10, Layers: 1,
		Type:      Lambert,
		Ellipsoid: DefaultSphere,
		Alpha:     29.5, Beta: 45.5, Gamma: -96,
		XCenter: -96, YCenter: 37.5,
		XOrigin: -60000, YOrigin: -60000,
		XCell: 12000, YCell: 12000,
		VerticalType: VerticalSigmaP, VerticalTop: 10000,
		Levels: []float64{1, 0.995},
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Parameters)
		field  string
	}{
		{"zero columns", func(p *Parameters) { p.Columns = 0 }, "columns"},
		{"negative rows", func(p *Parameters) { p.Rows = -1 }, "rows"},
		{"zero layers", func(p *Parameters) { p.Layers = 0 }, "layers"},
		{"zero cell", func(p *Parameters) { p.XCell = 0 }, "xcell"},
		{"nan cell", func(p *Parameters) { p.YCell = math.NaN() }, "ycell"},
		{"level count", func(p *Parameters) { p.Levels = []float64{1} }, "vglvls"},
		{"sigma increasing", func(p *Parameters) { p.Levels = []float64{0.9, 1} }, "vglvls"},
		{"sigma out of range", func(p *Parameters) { p.Levels = []float64{1.2, 0.9} }, "vglvls"},
		{"flat levels", func(p *Parameters) { p.Layers = 2; p.Levels = []float64{1, 0.9, 0.9} }, "vglvls"},
		{"bad top", func(p *Parameters) { p.VerticalTop = 200000 }, "vgtop"},
		{"unknown projection", func(p *Parameters) { p.Type = 5 }, "gdtyp"},
		{"polar without pole", func(p *Parameters) { p.Type = PolarStereographic; p.Alpha = 0.5 }, "p_alp"},
		{"lonlat beyond pole", func(p *Parameters) {
			p.Type = LonLat
			p.XOrigin, p.YOrigin, p.XCell, p.YCell = -100, 85, 1, 1
		}, "yorig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := lambertParams()
			tt.modify(&p)
			_, err := New(p)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("New() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestInvalidProjectionConstants(t *testing.T) {
	p := lambertParams()
	p.Alpha, p.Beta = 30, -30
	_, err := New(p)
	var perr *projection.ParameterError
	if !errors.As(err, &perr) {
		t.Errorf("New() error = %v, want *projection.ParameterError", err)
	}
}

func TestScenarioCornersRoundTrip(t *testing.T) {
	for _, typ := range []ProjectionType{Lambert, Albers} {
		t.Run(typ.String(), func(t *testing.T) {
			p := lambertParams()
			p.Type = typ
			g := MustNew(p)
			proj := g.Projection()

			for _, c := range [][2]int{{0, 0}, {10, 0}, {10, 10}, {0, 10}} {
				lon, lat := g.Corner(c[0], c[1])
				x, y := proj.Project(lon, lat)
				lon2, lat2 := proj.Unproject(x, y)
				if math.Abs(lon-lon2) > 1e-6 || math.Abs(lat-lat2) > 1e-6 {
					t.Errorf("corner %v: (%v, %v) -> (%v, %v)", c, lon, lat, lon2, lat2)
				}
			}

			// centred grid: the middle corner is the projection origin
			lon, lat := g.Corner(5, 5)
			if math.Abs(lon+96) > 1e-9 || math.Abs(lat-37.5) > 1e-9 {
				t.Errorf("Corner(5, 5) = (%v, %v), want (-96, 37.5)", lon, lat)
			}
		})
	}
}

func TestCellOfInvertsCellCenter(t *testing.T) {
	grids := map[string]Parameters{
		"lambert": lambertParams(),
		"lonlat": {
			Columns: 36, Rows: 18, Layers: 1, Type: LonLat,
			XOrigin: -180, YOrigin: -90, XCell: 10, YCell: 10,
			VerticalType: VerticalHeightGround, Levels: []float64{0, 100},
		},
		"polar": {
			Columns: 20, Rows: 20, Layers: 1, Type: PolarStereographic,
			Alpha: 1, Beta: 60, Gamma: -98, XCenter: -98, YCenter: 90,
			XOrigin: -5e6, YOrigin: -5e6, XCell: 5e5, YCell: 5e5,
			VerticalType: VerticalHeightGround, Levels: []float64{0, 100},
		},
	}
	for name, p := range grids {
		t.Run(name, func(t *testing.T) {
			g := MustNew(p)
			for row := 0; row < g.Rows(); row += 3 {
				for col := 0; col < g.Columns(); col += 3 {
					lon, lat := g.CellCenter(col, row)
					c, r, ok := g.CellOf(lon, lat)
					if !ok || c != col || r != row {
						t.Errorf("CellOf(CellCenter(%d, %d)) = (%d, %d, %v)", col, row, c, r, ok)
					}
				}
			}
			if _, _, ok := g.CellOf(g.Projection().Unproject(1e9, 1e9)); ok && name != "lonlat" {
				t.Error("CellOf(far away) reported inside")
			}
		})
	}
}

func TestCornersKernelMatchesCorner(t *testing.T) {
	p := lambertParams()
	p.Columns, p.Rows = 40, 37
	g := MustNew(p)

	table := g.Corners(3)
	if len(table.Longitude) != 41*38 {
		t.Fatalf("corner table size %d, want %d", len(table.Longitude), 41*38)
	}
	for j := 0; j <= 37; j += 5 {
		for i := 0; i <= 40; i += 7 {
			lon, lat := g.Corner(i, j)
			tlon, tlat := table.At(i, j)
			if lon != tlon || lat != tlat {
				t.Errorf("corner (%d, %d): table (%v, %v), direct (%v, %v)", i, j, tlon, tlat, lon, lat)
			}
		}
	}
}

func TestSigmaThickness(t *testing.T) {
	p := lambertParams()
	p.Layers = 3
	p.Levels = []float64{1, 0.995, 0.99, 0.5}
	g := MustNew(p)

	if !g.ThicknessKnown() {
		t.Fatal("ThicknessKnown() = false for sigma-P")
	}
	want := []float64{0, 38.2555, 76.6544, 4811.4313}
	for k, w := range want {
		got, err := g.LevelElevation(k)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-w) > 1e-3 {
			t.Errorf("LevelElevation(%d) = %v, want %v", k, got, w)
		}
	}
	th := g.Thickness()
	if math.Abs(th[2]-(4811.4313-76.6544)) > 1e-3 {
		t.Errorf("Thickness()[2] = %v", th[2])
	}

	layer, err := g.LayerOfElevation(50)
	if err != nil || layer != 1 {
		t.Errorf("LayerOfElevation(50) = %d, %v, want 1", layer, err)
	}
	layer, _ = g.LayerOfElevation(1e5)
	if layer != 2 {
		t.Errorf("LayerOfElevation(1e5) = %d, want top layer 2", layer)
	}
}

func TestHeightThickness(t *testing.T) {
	p := lambertParams()
	p.Layers = 2
	p.VerticalType = VerticalHeightSeaLevel
	p.Levels = []float64{0, 50, 250}
	g := MustNew(p)

	th := g.Thickness()
	if th[0] != 50 || th[1] != 200 {
		t.Errorf("Thickness() = %v, want [50 200]", th)
	}
	mid, err := g.LayerCenterElevation(1)
	if err != nil || mid != 150 {
		t.Errorf("LayerCenterElevation(1) = %v, %v", mid, err)
	}
}

func TestUnsupportedVerticalSchemeReportsUnknown(t *testing.T) {
	for _, vt := range []VerticalType{VerticalSigmaZ, VerticalPressure, VerticalNone} {
		p := lambertParams()
		p.VerticalType = vt
		p.Levels = []float64{1, 0.5}
		if vt == VerticalPressure {
			p.Levels = []float64{100000, 90000}
		}
		g, err := New(p)
		if err != nil {
			t.Fatalf("%v: New() error = %v", vt, err)
		}
		if g.ThicknessKnown() {
			t.Errorf("%v: ThicknessKnown() = true", vt)
		}
		for _, th := range g.Thickness() {
			if th != 0 {
				t.Errorf("%v: thickness %v, want 0", vt, th)
			}
		}
		if _, err := g.LevelElevation(0); !errors.Is(err, ErrThicknessUnknown) {
			t.Errorf("%v: LevelElevation error = %v, want ErrThicknessUnknown", vt, err)
		}
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	cases := map[string]Parameters{
		"lambert": lambertParams(),
		"polar": {
			Columns: 20, Rows: 20, Layers: 1, Type: PolarStereographic, Ellipsoid: projection.WGS84,
			Alpha: 1, Beta: 60, Gamma: -98, XCenter: -98, YCenter: 90,
			XOrigin: -5e6, YOrigin: -5e6, XCell: 5e5, YCell: 5e5,
			VerticalType: VerticalHeightGround, Levels: []float64{0, 100},
		},
		"mercator": {
			Columns: 5, Rows: 4, Layers: 2, Type: Mercator, Ellipsoid: DefaultSphere,
			Gamma: -100, XCenter: -100,
			XOrigin: -1e5, YOrigin: 2e6, XCell: 4e4, YCell: 4e4,
			VerticalType: VerticalHeightSeaLevel, Levels: []float64{0, 10, 30},
		},
		"lonlat": {
			Columns: 360, Rows: 180, Layers: 1, Type: LonLat, Ellipsoid: DefaultSphere,
			XOrigin: -180, YOrigin: -90, XCell: 1, YCell: 1,
			VerticalType: VerticalNone, Levels: []float64{0, 1},
		},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			g := MustNew(p)
			var buf bytes.Buffer
			w := xdr.NewWriter(&buf)
			if err := g.WriteHeader(w); err != nil {
				t.Fatal(err)
			}
			if err := w.Flush(); err != nil {
				t.Fatal(err)
			}

			got, err := ReadHeader(xdr.NewReader(&buf), p.Layers)
			if err != nil {
				t.Fatalf("ReadHeader() error = %v\n%s", err, buf.String())
			}
			if !got.Equal(g) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got.Parameters(), g.Parameters())
			}
		})
	}
}

func TestOffsetCenterWrittenAsEquivalentOrigin(t *testing.T) {
	p := lambertParams()
	p.XCenter = -90 // differs from the central meridian
	g := MustNew(p)

	var buf bytes.Buffer
	w := xdr.NewWriter(&buf)
	if err := g.WriteHeader(w); err != nil {
		t.Fatal(err)
	}
	_ = w.Flush()

	got, err := ReadHeader(xdr.NewReader(&buf), 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range [][2]int{{0, 0}, {10, 10}, {3, 7}} {
		lon1, lat1 := g.Corner(c[0], c[1])
		lon2, lat2 := got.Corner(c[0], c[1])
		if math.Abs(lon1-lon2) > 1e-9 || math.Abs(lat1-lat2) > 1e-9 {
			t.Errorf("corner %v moved: (%v, %v) vs (%v, %v)", c, lon1, lat1, lon2, lat2)
		}
	}
}

func TestParametersValueSemantics(t *testing.T) {
	p := lambertParams()
	q := p.Clone()
	q.Levels[1] = 0.9
	if p.Levels[1] != 0.995 {
		t.Error("Clone shares level storage")
	}
	if p.Equal(q) {
		t.Error("Equal() ignores levels")
	}
	g := MustNew(p)
	gp := g.Parameters()
	gp.Levels[0] = 0.5
	if g.Parameters().Levels[0] != 1 {
		t.Error("Parameters() exposes internal storage")
	}
}

func TestParseNames(t *testing.T) {
	for _, want := range []ProjectionType{LonLat, Lambert, Stereographic, PolarStereographic, Mercator, Albers} {
		got, err := ParseProjectionType(" " + want.String())
		if err != nil || got != want {
			t.Errorf("ParseProjectionType(%q): Expected %v, got %v (%v)", want.String(), want, got, err)
		}
	}
	if _, err := ParseProjectionType("utm"); err == nil {
		t.Error("Expected error for utm")
	}

	got, err := ParseVerticalType("HEIGHT-MSL")
	if err != nil || got != VerticalHeightSeaLevel {
		t.Errorf("Expected %v, got %v (%v)", VerticalHeightSeaLevel, got, err)
	}
	var ve *ValidationError
	if _, err := ParseVerticalType("hybrid"); !errors.As(err, &ve) {
		t.Errorf("Expected *ValidationError, got %v", err)
	}
}
