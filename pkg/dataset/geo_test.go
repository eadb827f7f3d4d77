package dataset

import (
	"errors"
	"testing"
)

func TestNewPoint(t *testing.T) {
	tests := []struct {
		name          string
		lon, lat, elv float64
		valid         bool
	}{
		{"origin", 0, 0, 0, true},
		{"corners", 180, -90, MaxElevation, true},
		{"longitude", 180.5, 0, 0, false},
		{"latitude", 0, 91, 0, false},
		{"below sea floor", 0, 0, -501, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPoint(tt.lon, tt.lat, tt.elv)
			if tt.valid && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	a := Bounds{West: -100, East: -90, South: 30, North: 40}
	b := Bounds{West: -90, East: -80, South: 35, North: 45}
	c := Bounds{West: 0, East: 10, South: 0, North: 10}

	if !a.Contains(-90, 40) {
		t.Error("Expected edges to be contained")
	}
	if a.Contains(-89.9, 35) {
		t.Error("Expected point east of box to be outside")
	}
	if !a.Intersects(b) {
		t.Error("Expected boxes sharing an edge to intersect")
	}
	if a.Intersects(c) {
		t.Error("Expected disjoint boxes not to intersect")
	}

	u := a.Union(b)
	want := Bounds{West: -100, East: -80, South: 30, North: 45}
	if u != want {
		t.Errorf("Expected %+v, got %+v", want, u)
	}

	if emptyBounds().Valid() {
		t.Error("Expected empty bounds to be invalid")
	}
	e := emptyBounds().Extend(Point{Longitude: 5, Latitude: 6})
	if !e.Valid() || e.West != 5 || e.North != 6 {
		t.Errorf("Expected degenerate box at (5, 6), got %+v", e)
	}
}
