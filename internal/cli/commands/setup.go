// Package commands implements the geodataset subcommands.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/beetlebugorg/geodataset/internal/config"
	"github.com/beetlebugorg/geodataset/pkg/dataset"
)

// CommandContext holds the shared state a command needs.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Out    io.Writer
}

// NewCommandContext returns the loaded configuration and logger for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	return &CommandContext{
		Cfg:    getConfig(),
		Logger: config.GetLogger(cmd.Context()),
		Out:    cmd.OutOrStdout(),
	}
}

// getConfig returns the current configuration, or the defaults when none
// was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// Open opens a dataset file with the configured options.
func (c *CommandContext) Open(path string) (*dataset.Dataset, error) {
	ds, err := dataset.OpenWithOptions(path, c.Cfg.DatasetOptions(c.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return ds, nil
}

// newTable returns a table writer mirroring to w.
func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// parseTime parses an optional timestamp flag.
func parseTime(flag, s string) (dataset.Timestamp, error) {
	if s == "" {
		return dataset.Timestamp{}, nil
	}
	ts, err := dataset.ParseTimestamp(s)
	if err != nil {
		return ts, fmt.Errorf("--%s: %w", flag, err)
	}
	return ts, nil
}

// parseBounds parses "west,east,south,north".
func parseBounds(s string) (dataset.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return dataset.Bounds{}, fmt.Errorf("--bbox: want west,east,south,north, got %q", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return dataset.Bounds{}, fmt.Errorf("--bbox: %w", err)
		}
		v[i] = f
	}
	b := dataset.Bounds{West: v[0], East: v[1], South: v[2], North: v[3]}
	if !b.Valid() {
		return b, fmt.Errorf("--bbox: %q is not a valid lon-lat box", s)
	}
	return b, nil
}

// variableIndexes resolves variable names. An empty list selects all.
func variableIndexes(ds *dataset.Dataset, names []string) ([]int, error) {
	if len(names) == 0 {
		idx := make([]int, len(ds.Variables()))
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	}
	idx := make([]int, len(names))
	for i, name := range names {
		v, ok := ds.VariableIndex(name)
		if !ok {
			return nil, fmt.Errorf("dataset %s has no variable %q", ds.Name(), name)
		}
		idx[i] = v
	}
	return idx, nil
}

// formatValue renders a value, showing missing values as "-".
func formatValue(v float64) string {
	if v == dataset.MissingValue || math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}
