package dataset

import (
	"testing"
	"time"

	"github.com/beetlebugorg/geodataset/pkg/grid"
)

// start is the first timestep of every fixture.
var start = mustTimestamp(2020, 7, 1, 0, 0, 0)

func mustTimestamp(year, month, day, hour, minute, second int) Timestamp {
	ts, err := NewTimestamp(year, month, day, hour, minute, second)
	if err != nil {
		panic(err)
	}
	return ts
}

func hours(n int) Timestamp { return start.Add(time.Duration(n) * time.Hour) }

func meta(name string, timesteps int, vars ...string) Metadata {
	m := Metadata{
		Name:         name,
		Description:  "test " + name,
		Start:        start,
		Timesteps:    timesteps,
		TimestepSize: Hours,
	}
	for _, v := range vars {
		m.Variables = append(m.Variables, Variable{Name: v, Units: "ppb"})
	}
	return m
}

// lonLatParams is a 4x3 one-degree grid with its lower-left corner at
// (-100, 30).
func lonLatParams(layers int) grid.Parameters {
	levels := make([]float64, layers+1)
	for i := range levels {
		levels[i] = float64(i) * 100
	}
	return grid.Parameters{
		Columns: 4, Rows: 3, Layers: layers,
		Type:    grid.LonLat,
		XOrigin: -100, YOrigin: 30,
		XCell: 1, YCell: 1,
		VerticalType: grid.VerticalHeightSeaLevel,
		Levels:       levels,
	}
}

// gridValue is the fixture value of variable v in timestep t.
func gridValue(t, v, cell int) float64 {
	return float64(t*1000 + v*100 + cell)
}

func newTestGrid(t *testing.T, opts Options) *Dataset {
	t.Helper()
	g := grid.MustNew(lonLatParams(1))
	const timesteps, vars = 3, 2
	data := make([]float64, 0, timesteps*vars*g.Cells())
	for ts := range timesteps {
		for v := range vars {
			for c := range g.Cells() {
				data = append(data, gridValue(ts, v, c))
			}
		}
	}
	ds, err := NewGrid(meta("cmaq", timesteps, "O3", "NO2"), g, data, opts)
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}
	return ds
}

func newTestSite(t *testing.T) *Dataset {
	t.Helper()
	ds, err := NewSite(meta("airnow", 2, "PM25"),
		[]int64{101, 102, 103},
		[]float64{-99.5, -98.5, -90},
		[]float64{30.5, 31.5, 42},
		[]float64{1, 2, 3, 4, 5, 6},
		Options{})
	if err != nil {
		t.Fatalf("NewSite() error = %v", err)
	}
	return ds
}

func newTestPoints(t *testing.T) *Dataset {
	t.Helper()
	ds, err := NewPoints(meta("lidar", 2, "EXT"),
		[]int64{2, 1},
		[]float64{-99.5, -97.5, -96.5},
		[]float64{30.5, 30.5, 32.5},
		[]float64{10, 20, 30},
		[]float64{1.25, 2.5, 3.75},
		Options{})
	if err != nil {
		t.Fatalf("NewPoints() error = %v", err)
	}
	return ds
}

func newTestSwath(t *testing.T) *Dataset {
	t.Helper()
	ds, err := NewSwath(meta("modis", 2, "AOD"),
		[]int64{1, 1},
		[]float64{-70, -69, -69, -70, -68, -67, -67, -68},
		[]float64{20, 20, 21, 21, 20, 20, 21, 21},
		[]float64{0.5, 0.75},
		Options{})
	if err != nil {
		t.Fatalf("NewSwath() error = %v", err)
	}
	return ds
}

func newTestAircraft(t *testing.T) *Dataset {
	t.Helper()
	times := []Timestamp{
		start.Add(10 * time.Minute),
		start.Add(70 * time.Minute),
		start.Add(20 * time.Minute),
	}
	ds, err := NewTracks(KindAircraft, meta("mozaic", 2, "CO"),
		[]string{"flight-1", "flight-2"},
		[]int64{2, 1},
		times,
		[]float64{-99.5, -98.5, -97.5},
		[]float64{30.5, 31.5, 32.5},
		[]float64{50, 150, 250},
		[]float64{100, 200, 300},
		Options{})
	if err != nil {
		t.Fatalf("NewTracks() error = %v", err)
	}
	return ds
}
