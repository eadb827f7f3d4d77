package config

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/beetlebugorg/geodataset/pkg/dataset"
	"github.com/beetlebugorg/geodataset/pkg/grid"
	"github.com/beetlebugorg/geodataset/pkg/projection"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PageTimesteps < 0 {
		return fmt.Errorf("page_timesteps must not be negative, got %d", c.PageTimesteps)
	}
	if c.ProbeTolerance < 0 {
		return fmt.Errorf("probe_tolerance must not be negative, got %g", c.ProbeTolerance)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if _, err := c.OutputFormat(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	for _, name := range c.GridNames() {
		if _, err := c.Grid(name); err != nil {
			return err
		}
	}
	return nil
}

// OutputFormat returns the configured write format.
func (c *Config) OutputFormat() (dataset.Format, error) {
	f, err := dataset.ParseFormat(c.Format)
	if err != nil {
		return 0, fmt.Errorf("format: %w", err)
	}
	return f, nil
}

// Level returns the log level. Verbose forces debug.
func (c *Config) Level() (slog.Level, error) {
	if c.Verbose {
		return slog.LevelDebug, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log_level: unknown level %q", c.LogLevel)
	}
	return l, nil
}

// NewLogger returns a text logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// DatasetOptions returns the options for opening datasets.
func (c *Config) DatasetOptions(logger *slog.Logger) dataset.Options {
	return dataset.Options{
		MaxResidentBytes: c.MaxResidentBytes,
		PageTimesteps:    c.PageTimesteps,
		ProbeTolerance:   c.ProbeTolerance,
		Workers:          c.Workers,
		Logger:           logger,
	}
}

// LoadOptions returns the options for opening many datasets at once.
func (c *Config) LoadOptions(logger *slog.Logger) dataset.LoadOptions {
	opts := dataset.DefaultLoadOptions()
	if c.Workers > 0 {
		opts.Workers = c.Workers
	}
	opts.Logger = logger
	opts.Dataset = c.DatasetOptions(logger)
	return opts
}

// GridNames returns the names of the configured grids, sorted.
func (c *Config) GridNames() []string {
	names := make([]string, 0, len(c.Grids))
	for name := range c.Grids {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Grid builds the named regrid target.
func (c *Config) Grid(name string) (*grid.Grid, error) {
	gc, ok := c.Grids[name]
	if !ok {
		return nil, fmt.Errorf("grid %q is not configured (have %s)", name, strings.Join(c.GridNames(), ", "))
	}
	p, err := gc.Parameters()
	if err != nil {
		return nil, fmt.Errorf("grid %s: %w", name, err)
	}
	g, err := grid.New(p)
	if err != nil {
		return nil, fmt.Errorf("grid %s: %w", name, err)
	}
	return g, nil
}

// Parameters converts gc to grid parameters. A single-layer grid without
// levels gets levels [0, 1] and no vertical coordinate.
func (gc GridConfig) Parameters() (grid.Parameters, error) {
	pt, err := grid.ParseProjectionType(gc.Projection)
	if err != nil {
		return grid.Parameters{}, err
	}
	p := grid.Parameters{
		Columns: gc.Columns, Rows: gc.Rows, Layers: gc.Layers,
		Type:  pt,
		Alpha: gc.Alpha, Beta: gc.Beta, Gamma: gc.Gamma,
		XCenter: gc.XCenter, YCenter: gc.YCenter,
		XOrigin: gc.XOrigin, YOrigin: gc.YOrigin,
		XCell: gc.XCell, YCell: gc.YCell,
		VerticalType: grid.VerticalNone,
		VerticalTop:  gc.Top,
		Levels:       slices.Clone(gc.Levels),
	}
	if p.Layers == 0 {
		p.Layers = 1
	}
	if gc.MajorSemiaxis != 0 {
		minor := gc.MinorSemiaxis
		if minor == 0 {
			minor = gc.MajorSemiaxis
		}
		p.Ellipsoid = projection.Ellipsoid{Major: gc.MajorSemiaxis, Minor: minor}
	}
	if gc.Vertical != "" {
		if p.VerticalType, err = grid.ParseVerticalType(gc.Vertical); err != nil {
			return grid.Parameters{}, err
		}
	}
	if len(p.Levels) == 0 && p.Layers == 1 {
		p.Levels = []float64{0, 1}
	}
	return p, nil
}
