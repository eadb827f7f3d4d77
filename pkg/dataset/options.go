package dataset

import (
	"log/slog"
	"runtime"
)

// Options configures how a dataset is opened and queried.
type Options struct {
	// MaxResidentBytes is the largest payload loaded in full. Grid and Site
	// payloads above it are paged a window of timesteps at a time. Zero
	// selects DefaultMaxResidentBytes; a negative value pages every Grid
	// and Site dataset.
	MaxResidentBytes int64

	// PageTimesteps is the number of consecutive timesteps held in a paged
	// window. A request spanning more timesteps loads a larger window.
	PageTimesteps int

	// ProbeTolerance is the largest lon-lat distance, in degrees, at which
	// a point cell still matches a probe.
	ProbeTolerance float64

	// Workers limits goroutines used by bulk kernels (codec conversion,
	// corner tables). Zero means runtime.NumCPU().
	Workers int

	// Logger receives paging and writer events. Nil discards them.
	Logger *slog.Logger
}

const (
	DefaultMaxResidentBytes = 512 << 20
	DefaultPageTimesteps    = 4
	DefaultProbeTolerance   = 0.05
)

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxResidentBytes: DefaultMaxResidentBytes,
		PageTimesteps:    DefaultPageTimesteps,
		ProbeTolerance:   DefaultProbeTolerance,
		Workers:          runtime.NumCPU(),
	}
}

// withDefaults fills zero fields.
func (o Options) withDefaults() Options {
	if o.MaxResidentBytes == 0 {
		o.MaxResidentBytes = DefaultMaxResidentBytes
	}
	if o.PageTimesteps <= 0 {
		o.PageTimesteps = DefaultPageTimesteps
	}
	if o.ProbeTolerance <= 0 {
		o.ProbeTolerance = DefaultProbeTolerance
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}
