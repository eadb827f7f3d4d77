package dataset

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
)

// LoadOptions controls opening many datasets and error handling.
type LoadOptions struct {
	// Parallel enables concurrent opening with a worker pool.
	Parallel bool

	// Workers is the number of opener goroutines. If 0, defaults to
	// runtime.NumCPU(). Only used when Parallel is true.
	Workers int

	// SkipErrors continues past files that fail to open. Failures are
	// collected and returned. When false, the first error stops loading.
	SkipErrors bool

	// Progress is called after each file is processed with the number of
	// files processed so far and the total.
	Progress func(loaded, total int)

	// Logger receives one warning per failed file. Nil discards them.
	Logger *slog.Logger

	// Dataset options passed to each OpenWithOptions call.
	Dataset Options
}

// DefaultLoadOptions returns load options with sensible defaults.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Parallel:   true,
		Workers:    runtime.NumCPU(),
		SkipErrors: true,
		Dataset:    DefaultOptions(),
	}
}

func (o LoadOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// OpenParallel opens datasets with a worker pool. Results keep the order of
// paths, skipping failures when SkipErrors is set. When SkipErrors is not set
// the first failure is returned alone and any datasets already opened are
// closed.
//
// Example:
//
//	sets, errs := dataset.OpenParallel(paths, dataset.LoadOptions{
//	    Parallel:   true,
//	    Workers:    8,
//	    SkipErrors: true,
//	    Progress: func(loaded, total int) {
//	        fmt.Printf("\rOpening: %d/%d", loaded, total)
//	    },
//	})
//	if len(errs) > 0 {
//	    fmt.Printf("\nSkipped %d files\n", len(errs))
//	}
func OpenParallel(paths []string, opts LoadOptions) ([]*Dataset, []error) {
	if len(paths) == 0 {
		return []*Dataset{}, nil
	}
	if !opts.Parallel {
		return openSerial(paths, opts)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(paths))
	log := opts.logger()

	type openResult struct {
		index int
		ds    *Dataset
		err   error
	}

	jobs := make(chan int, len(paths))
	results := make(chan openResult, len(paths))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				ds, err := OpenWithOptions(paths[index], opts.Dataset)
				results <- openResult{index: index, ds: ds, err: err}
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	opened := make(map[int]*Dataset)
	var errs []error
	var fatal error
	loaded := 0

	for result := range results {
		loaded++
		if opts.Progress != nil {
			opts.Progress(loaded, len(paths))
		}

		if result.err != nil {
			err := fmt.Errorf("%s: %w", paths[result.index], result.err)
			log.Warn("skipping dataset", "path", paths[result.index], "error", result.err)
			if opts.SkipErrors {
				errs = append(errs, err)
			} else if fatal == nil {
				fatal = err
			}
			continue
		}
		opened[result.index] = result.ds
	}

	if fatal != nil {
		for _, ds := range opened {
			ds.Close()
		}
		return nil, []error{fatal}
	}

	sets := make([]*Dataset, 0, len(opened))
	for i := range paths {
		if ds, ok := opened[i]; ok {
			sets = append(sets, ds)
		}
	}
	return sets, errs
}

// openSerial opens datasets one at a time.
func openSerial(paths []string, opts LoadOptions) ([]*Dataset, []error) {
	log := opts.logger()
	sets := make([]*Dataset, 0, len(paths))
	var errs []error

	for i, path := range paths {
		ds, err := OpenWithOptions(path, opts.Dataset)
		if opts.Progress != nil {
			opts.Progress(i+1, len(paths))
		}
		if err != nil {
			err := fmt.Errorf("%s: %w", path, err)
			log.Warn("skipping dataset", "path", path, "error", err)
			if opts.SkipErrors {
				errs = append(errs, err)
				continue
			}
			for _, ds := range sets {
				ds.Close()
			}
			return nil, []error{err}
		}
		sets = append(sets, ds)
	}
	return sets, errs
}
