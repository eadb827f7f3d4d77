// Package testutil provides dataset fixtures for CLI testing.
package testutil

import (
	"testing"
	"time"

	"github.com/beetlebugorg/geodataset/pkg/dataset"
	"github.com/beetlebugorg/geodataset/pkg/grid"
)

// Library holds the paths of the fixture datasets written by SetupTestLibrary.
type Library struct {
	Dir      string
	Grid     string // cmaq: 4x3 one-degree grid, 3 hours, O3 and NO2
	Site     string // airnow: 3 sites, 2 hours, PM25
	Aircraft string // mozaic: 2 flights, 2 hours, CO
}

// Start is the first timestep of every fixture.
func Start(t testing.TB) dataset.Timestamp {
	t.Helper()
	ts, err := dataset.NewTimestamp(2020, 7, 1, 0, 0, 0)
	if err != nil {
		t.Fatalf("failed to create timestamp: %v", err)
	}
	return ts
}

// GridParameters returns the 4x3 lon-lat grid with its lower-left corner
// at (-100, 30) used by the grid fixture.
func GridParameters() grid.Parameters {
	return grid.Parameters{
		Columns: 4, Rows: 3, Layers: 1,
		Type:    grid.LonLat,
		XOrigin: -100, YOrigin: 30,
		XCell: 1, YCell: 1,
		VerticalType: grid.VerticalHeightSeaLevel,
		Levels:       []float64{0, 100},
	}
}

// GridValue is the fixture value of variable v of the grid in timestep t.
func GridValue(t, v, cell int) float64 {
	return float64(t*1000 + v*100 + cell)
}

// SetupTestLibrary writes native fixture datasets into a temporary directory.
func SetupTestLibrary(t *testing.T) *Library {
	t.Helper()

	dir := t.TempDir()
	start := Start(t)
	meta := func(name string, timesteps int, vars ...string) dataset.Metadata {
		m := dataset.Metadata{
			Name:         name,
			Description:  "fixture " + name,
			Start:        start,
			Timesteps:    timesteps,
			TimestepSize: dataset.Hours,
		}
		for _, v := range vars {
			m.Variables = append(m.Variables, dataset.Variable{Name: v, Units: "ppb"})
		}
		return m
	}
	write := func(ds *dataset.Dataset, err error) string {
		t.Helper()
		if err != nil {
			t.Fatalf("failed to create fixture: %v", err)
		}
		path, err := ds.Write(dir, dataset.WriteOptions{})
		if err != nil {
			t.Fatalf("failed to write %s fixture: %v", ds.Name(), err)
		}
		return path
	}

	g := grid.MustNew(GridParameters())
	data := make([]float64, 0, 3*2*g.Cells())
	for ts := range 3 {
		for v := range 2 {
			for c := range g.Cells() {
				data = append(data, GridValue(ts, v, c))
			}
		}
	}

	lib := &Library{Dir: dir}
	lib.Grid = write(dataset.NewGrid(meta("cmaq", 3, "O3", "NO2"), g, data, dataset.Options{}))
	lib.Site = write(dataset.NewSite(meta("airnow", 2, "PM25"),
		[]int64{101, 102, 103},
		[]float64{-99.5, -98.5, -90},
		[]float64{30.5, 31.5, 42},
		[]float64{1, 2, 3, 4, 5, 6},
		dataset.Options{}))
	lib.Aircraft = write(dataset.NewTracks(dataset.KindAircraft, meta("mozaic", 2, "CO"),
		[]string{"flight-1", "flight-2"},
		[]int64{2, 1},
		[]dataset.Timestamp{start.Add(10 * time.Minute), start.Add(70 * time.Minute), start.Add(20 * time.Minute)},
		[]float64{-99.5, -98.5, -97.5},
		[]float64{30.5, 31.5, 32.5},
		[]float64{50, 150, 250},
		[]float64{100, 200, 300},
		dataset.Options{}))
	return lib
}
