package dataset

import (
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/beetlebugorg/geodataset/pkg/grid"
)

func TestParseRegridMethod(t *testing.T) {
	for _, m := range []RegridMethod{RegridNearest, RegridMean, RegridWeighted} {
		got, err := ParseRegridMethod(" " + m.String())
		if err != nil || got != m {
			t.Errorf("ParseRegridMethod(%q): Expected %v, got %v (%v)", m.String(), m, got, err)
		}
	}
	if _, err := ParseRegridMethod("bilinear"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

// clusterSite has three stations in grid cell 0, one of them missing, and
// one station outside the grid.
func clusterSite(t *testing.T) *Dataset {
	t.Helper()
	ds, err := NewSite(meta("cluster", 1, "PM25"),
		[]int64{1, 2, 3, 4},
		[]float64{-99.8, -99.4, -99.5, -80},
		[]float64{30.5, 30.5, 30.5, 30.5},
		[]float64{2, 4, MissingValue, 50},
		Options{})
	if err != nil {
		t.Fatalf("NewSite() error = %v", err)
	}
	return ds
}

func TestRegridMethods(t *testing.T) {
	g := grid.MustNew(lonLatParams(1))

	tests := []struct {
		method RegridMethod
		want   float64
	}{
		{RegridNearest, 4},
		{RegridMean, 3},
		// weights 1/0.09 and 1/0.01
		{RegridWeighted, 3.8},
	}
	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			r, err := clusterSite(t).Regrid(tt.method, g)
			if err != nil {
				t.Fatalf("Regrid() error = %v", err)
			}
			if r.Kind() != KindGrid || r.RegridMethod() != tt.method {
				t.Errorf("Expected a %v grid, got %v %v", tt.method, r.Kind(), r.RegridMethod())
			}
			res, err := r.Probe(NewProbeQuery(hours(0), -99.5, 30.5))
			if err != nil {
				t.Fatalf("Probe() error = %v", err)
			}
			if math.Abs(res.Value-tt.want) > 1e-6 {
				t.Errorf("Expected %v, got %v", tt.want, res.Value)
			}

			empty, _ := r.Probe(NewProbeQuery(hours(0), -96.5, 32.5))
			if !empty.Found || empty.Value != MissingValue {
				t.Errorf("Expected MissingValue in an empty cell, got %+v", empty)
			}
		})
	}
}

func TestRegridKeepsTimesteps(t *testing.T) {
	r, err := newTestSite(t).Regrid(RegridMean, grid.MustNew(lonLatParams(1)))
	if err != nil {
		t.Fatalf("Regrid() error = %v", err)
	}
	if r.Timesteps() != 2 || r.Name() != "airnow" || !r.Start().Equal(start) {
		t.Errorf("Expected airnow with 2 timesteps, got %s", r)
	}

	tests := []struct {
		at       Timestamp
		lon, lat float64
		want     float64
	}{
		{hours(0), -99.5, 30.5, 1},
		{hours(0), -98.5, 31.5, 2},
		{hours(1), -99.5, 30.5, 4},
		{hours(1), -98.5, 31.5, 5},
	}
	for _, tt := range tests {
		res, err := r.Probe(NewProbeQuery(tt.at, tt.lon, tt.lat))
		if err != nil {
			t.Fatalf("Probe() error = %v", err)
		}
		if res.Value != tt.want {
			t.Errorf("At %s (%v, %v): Expected %v, got %v", tt.at, tt.lon, tt.lat, tt.want, res.Value)
		}
	}
}

func TestRegridTracksIntoLayers(t *testing.T) {
	r, err := newTestAircraft(t).Regrid(RegridMean, grid.MustNew(lonLatParams(2)))
	if err != nil {
		t.Fatalf("Regrid() error = %v", err)
	}

	tests := []struct {
		name     string
		at       Timestamp
		lon, lat float64
		layer    int
		want     float64
	}{
		{"bottom layer", hours(0), -99.5, 30.5, 0, 100},
		{"above the top level", hours(0), -97.5, 32.5, 1, 300},
		{"second timestep", hours(1), -98.5, 31.5, 1, 200},
		{"wrong layer", hours(1), -98.5, 31.5, 0, MissingValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewProbeQuery(tt.at, tt.lon, tt.lat)
			q.Layer = tt.layer
			res, err := r.Probe(q)
			if err != nil {
				t.Fatalf("Probe() error = %v", err)
			}
			if res.Value != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, res.Value)
			}
		})
	}
}

func TestRegridErrors(t *testing.T) {
	g := grid.MustNew(lonLatParams(1))

	if _, err := newTestGrid(t, Options{}).Regrid(RegridMean, g); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported regridding a grid, got %v", err)
	}
	if _, err := newTestSite(t).Regrid(RegridMethod(9), g); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for unknown method, got %v", err)
	}
	if _, err := newTestSite(t).Regrid(RegridMean, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for nil grid, got %v", err)
	}

	p := lonLatParams(2)
	p.VerticalType = grid.VerticalPressure
	p.Levels = []float64{100000, 85000, 70000}
	pressure, err := grid.New(p)
	if err != nil {
		t.Fatalf("grid.New() error = %v", err)
	}
	if _, err := newTestAircraft(t).Regrid(RegridMean, pressure); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported for layers without thickness, got %v", err)
	}
}

func TestSampleGridAtSites(t *testing.T) {
	s, err := newTestSite(t).Sample(newTestGrid(t, Options{}))
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if s.Kind() != KindSite || s.Name() != "cmaq" || len(s.Variables()) != 2 {
		t.Fatalf("Expected a cmaq site dataset with 2 variables, got %s", s)
	}

	tests := []struct {
		name     string
		at       Timestamp
		lon, lat float64
		variable int
		want     float64
	}{
		{"first station", hours(0), -99.5, 30.5, 1, gridValue(0, 1, 0)},
		{"second station", hours(1), -98.5, 31.5, 0, gridValue(1, 0, 5)},
		{"outside the grid", hours(1), -90, 42, 0, MissingValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewProbeQuery(tt.at, tt.lon, tt.lat)
			q.Variable = tt.variable
			res, err := s.Probe(q)
			if err != nil {
				t.Fatalf("Probe() error = %v", err)
			}
			if !res.Found || res.Value != tt.want {
				t.Errorf("Expected %v, got %+v", tt.want, res)
			}
		})
	}
}

func TestSampleGridAlongTracks(t *testing.T) {
	s, err := newTestAircraft(t).Sample(newTestGrid(t, Options{}))
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}

	// Points are sampled at their own times, not their timestep start.
	res, err := s.Probe(NewProbeQuery(hours(1), -98.5, 31.5))
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if res.Value != gridValue(1, 0, 5) || res.Note != "flight-1" {
		t.Errorf("Expected %v on flight-1, got %+v", gridValue(1, 0, 5), res)
	}

	res, _ = s.Probe(NewProbeQuery(hours(0).Add(20*time.Minute), -97.5, 32.5))
	if res.Value != gridValue(0, 0, 10) || res.Note != "flight-2" {
		t.Errorf("Expected %v on flight-2, got %+v", gridValue(0, 0, 10), res)
	}
}

func TestSampleErrors(t *testing.T) {
	grd := newTestGrid(t, Options{})

	for _, ds := range []*Dataset{newTestSwath(t), newTestGrid(t, Options{})} {
		if _, err := ds.Sample(grd); !errors.Is(err, ErrUnsupported) {
			t.Errorf("%s: Expected ErrUnsupported, got %v", ds.Kind(), err)
		}
	}
	if _, err := newTestSite(t).Sample(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}

	path, err := grd.Write(t.TempDir(), WriteOptions{})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	paged, err := OpenWithOptions(path, Options{MaxResidentBytes: -1, PageTimesteps: 1})
	if err != nil {
		t.Fatalf("OpenWithOptions() error = %v", err)
	}
	paged.Close()
	if _, err := newTestSite(t).Sample(paged); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Expected probe errors to propagate, got %v", err)
	}
}
