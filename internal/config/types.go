// Package config provides configuration management for the geodataset CLI.
//
// Values are layered, lowest to highest precedence: built-in defaults, a
// geodataset.yaml file, GEODATASET_* environment variables, and command
// line flags.
package config

import (
	"github.com/beetlebugorg/geodataset/pkg/dataset"
)

// Config holds all CLI configuration options.
type Config struct {
	MaxResidentBytes int64                 `koanf:"max_resident_bytes"`
	PageTimesteps    int                   `koanf:"page_timesteps"`
	ProbeTolerance   float64               `koanf:"probe_tolerance"`
	Workers          int                   `koanf:"workers"`
	OutputDir        string                `koanf:"output_dir"`
	Format           string                `koanf:"format"`
	LogLevel         string                `koanf:"log_level"`
	Verbose          bool                  `koanf:"verbose"`
	Grids            map[string]GridConfig `koanf:"grids"`
}

// GridConfig is a named regrid target. Field names follow the IOAPI
// global attributes.
type GridConfig struct {
	Projection string  `koanf:"projection"` // lonlat, lambert, albers, mercator, stereographic, polar-stereographic
	Columns    int     `koanf:"ncols"`
	Rows       int     `koanf:"nrows"`
	Layers     int     `koanf:"nlays"`
	Alpha      float64 `koanf:"p_alp"`
	Beta       float64 `koanf:"p_bet"`
	Gamma      float64 `koanf:"p_gam"`
	XCenter    float64 `koanf:"xcent"`
	YCenter    float64 `koanf:"ycent"`
	XOrigin    float64 `koanf:"xorig"`
	YOrigin    float64 `koanf:"yorig"`
	XCell      float64 `koanf:"xcell"`
	YCell      float64 `koanf:"ycell"`

	// Semiaxes in metres. Zero selects the 6370 km sphere.
	MajorSemiaxis float64 `koanf:"major_semiaxis"`
	MinorSemiaxis float64 `koanf:"minor_semiaxis"`

	Vertical string    `koanf:"vgtyp"` // e.g. sigma-p, height-msl; empty for none
	Top      float64   `koanf:"vgtop"`
	Levels   []float64 `koanf:"vglvls"`
}

// Default configuration values.
const (
	DefaultConfigFile = "geodataset.yaml"
	DefaultOutputDir  = "."
	DefaultFormat     = "xdr"
	DefaultLogLevel   = "warn"
	EnvPrefix         = "GEODATASET_"
)

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		MaxResidentBytes: dataset.DefaultMaxResidentBytes,
		PageTimesteps:    dataset.DefaultPageTimesteps,
		ProbeTolerance:   dataset.DefaultProbeTolerance,
		OutputDir:        DefaultOutputDir,
		Format:           DefaultFormat,
		LogLevel:         DefaultLogLevel,
	}
}
