package dataset

import (
	"fmt"
	"log/slog"
)

// Region selects datasets by area, time and kind for regional loading.
type Region struct {
	// Bounds is the area of interest. Datasets whose extent intersects it
	// are loaded.
	Bounds Bounds

	// Begin and End optionally restrict the time range.
	Begin, End Timestamp

	// Kinds optionally restricts the dataset kinds.
	Kinds []Kind

	// Variable optionally requires a variable by name.
	Variable string

	// Progress is an optional callback for tracking loading progress.
	Progress func(loaded, total int)

	// Logger receives skipped-file warnings. Nil discards them.
	Logger *slog.Logger

	// Dataset options used to open the matching files.
	Dataset Options
}

func (r Region) query() QueryOptions {
	return QueryOptions{Begin: r.Begin, End: r.End, Kinds: r.Kinds, Variable: r.Variable}
}

func (r Region) loadOptions() LoadOptions {
	opts := DefaultLoadOptions()
	opts.Progress = r.Progress
	opts.Logger = r.Logger
	opts.Dataset = r.Dataset
	return opts
}

// LoadRegion discovers the native files under root, indexes them, and opens
// those matching region.
//
// Example:
//
//	sets, err := dataset.LoadRegion("/data", dataset.Region{
//	    Bounds: dataset.Bounds{West: -125, East: -66, South: 24, North: 50},
//	    Kinds:  []dataset.Kind{dataset.KindSite},
//	})
func LoadRegion(root string, region Region) ([]*Dataset, error) {
	idx, err := BuildIndexFromDir(root, region.loadOptions())
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return LoadRegionWithIndex(idx, region)
}

// LoadRegionWithIndex opens the datasets of a pre-built index matching
// region. Files that fail to open are skipped unless all of them fail.
func LoadRegionWithIndex(idx *Index, region Region) ([]*Dataset, error) {
	entries := idx.Query(region.Bounds, region.query())
	if len(entries) == 0 {
		return []*Dataset{}, nil
	}

	paths := make([]string, len(entries))
	for i, e := range entries {
		if e.Path == "" {
			return nil, fmt.Errorf("dataset path not available in index (dataset: %s)", e.Name)
		}
		paths[i] = e.Path
	}

	sets, errs := OpenParallel(paths, region.loadOptions())
	if len(errs) > 0 && len(sets) == 0 {
		return nil, fmt.Errorf("failed to open any datasets (%d errors): %w", len(errs), errs[0])
	}
	return sets, nil
}
