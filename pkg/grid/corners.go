package grid

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// CornerTable holds the lon-lat of every grid corner, row-major with
// (Columns+1) corners per row.
type CornerTable struct {
	Columns   int // corners per row, Grid.Columns()+1
	Longitude []float64
	Latitude  []float64
}

// At returns the lon-lat of corner (i, j).
func (t *CornerTable) At(i, j int) (lon, lat float64) {
	k := j*t.Columns + i
	return t.Longitude[k], t.Latitude[k]
}

// Corners computes the lon-lat of all (Rows+1)*(Columns+1) grid corners.
// Rows are unprojected in parallel on up to workers goroutines (GOMAXPROCS
// when workers <= 0). Each task writes only its own rows.
func (g *Grid) Corners(workers int) *CornerTable {
	cols, rows := g.params.Columns+1, g.params.Rows+1
	t := &CornerTable{
		Columns:   cols,
		Longitude: make([]float64, cols*rows),
		Latitude:  make([]float64, cols*rows),
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	const rowsPerTask = 16
	var eg errgroup.Group
	eg.SetLimit(workers)
	for first := 0; first < rows; first += rowsPerTask {
		last := min(first+rowsPerTask, rows)
		eg.Go(func() error {
			for j := first; j < last; j++ {
				for i := 0; i < cols; i++ {
					k := j*cols + i
					t.Longitude[k], t.Latitude[k] = g.Corner(i, j)
				}
			}
			return nil
		})
	}
	_ = eg.Wait()
	return t
}
