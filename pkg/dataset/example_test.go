package dataset_test

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/beetlebugorg/geodataset/pkg/dataset"
)

// newSite builds a two-hour, two-site PM2.5 dataset.
func newSite() *dataset.Dataset {
	start, err := dataset.NewTimestamp(2020, 7, 1, 0, 0, 0)
	if err != nil {
		log.Fatal(err)
	}
	ds, err := dataset.NewSite(dataset.Metadata{
		Name:         "airnow",
		Description:  "hourly PM2.5",
		Start:        start,
		Timesteps:    2,
		TimestepSize: dataset.Hours,
		Variables:    []dataset.Variable{{Name: "PM25", Units: "ug/m3"}},
	},
		[]int64{101, 102},
		[]float64{-99.5, -98.5},
		[]float64{30.5, 31.5},
		[]float64{1, 2, 3, 4},
		dataset.Options{})
	if err != nil {
		log.Fatal(err)
	}
	return ds
}

func Example() {
	dir, err := os.MkdirTemp("", "geodataset")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	// Write a native file
	path, err := newSite().Write(dir, dataset.WriteOptions{})
	if err != nil {
		log.Fatal(err)
	}

	// Open it again
	ds, err := dataset.Open(path)
	if err != nil {
		log.Fatal(err)
	}
	defer ds.Close()

	fmt.Println(filepath.Base(path))
	fmt.Printf("%s %s: %d timesteps, %d cells\n", ds.Kind(), ds.Name(), ds.Timesteps(), ds.Cells())
	// Output:
	// airnow_PM25_2020070100_2020070101.xdr
	// Site airnow: 2 timesteps, 2 cells
}

func ExampleDataset_Probe() {
	ds := newSite()

	q := dataset.NewProbeQuery(ds.Start().Add(time.Hour), -98.5, 31.5)
	r, err := ds.Probe(q)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(r.Found, r.Value, r.Cell)
	// Output: true 4 1
}

func ExampleDataset_Timeseries() {
	ds := newSite()

	values, err := ds.Timeseries(ds.Start(), ds.End(), dataset.NewProbeQuery(ds.Start(), -99.5, 30.5))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(values)
	// Output: [1 3]
}

func ExampleIndex_Query() {
	idx := dataset.BuildIndex([]*dataset.Dataset{newSite()})

	texas := dataset.Bounds{West: -107, East: -93, South: 25, North: 37}
	for _, e := range idx.Query(texas, dataset.QueryOptions{Kinds: []dataset.Kind{dataset.KindSite}, Variable: "PM25"}) {
		fmt.Println(e.Name, e.Kind, e.Timesteps)
	}

	ohio := dataset.Bounds{West: -85, East: -80, South: 38, North: 42}
	fmt.Println(len(idx.Query(ohio, dataset.QueryOptions{})))
	// Output:
	// airnow Site 2
	// 0
}

func ExampleOpen_errors() {
	dir, err := os.MkdirTemp("", "geodataset")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	bad := filepath.Join(dir, "bad.xdr")
	if err := os.WriteFile(bad, []byte("Mesh 1.0\n"), 0o600); err != nil {
		log.Fatal(err)
	}

	_, err = dataset.Open(bad)
	fmt.Println(errors.Is(err, dataset.ErrFormat))

	_, err = dataset.Open(filepath.Join(dir, "missing.xdr"))
	fmt.Println(errors.Is(err, os.ErrNotExist))
	// Output:
	// true
	// true
}
