package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/beetlebugorg/geodataset/pkg/dataset"
)

// NewInfoCommand creates the info command.
func NewInfoCommand() *cobra.Command {
	var minmax bool

	cmd := &cobra.Command{
		Use:   "info <file>...",
		Short: "Show dataset metadata",
		Long: `Print the header of one or more native dataset files: kind, time
range, cell count, extent and variables.

Only the header and point coordinates are read unless --minmax is given,
which scans every timestep of every variable.`,
		Example: `  # Show metadata
  geodataset info cmaq_O3_2020070100_2020070123.xdr

  # Include the value range of every variable
  geodataset info --minmax airnow_*.xdr`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			for _, path := range args {
				if err := runInfo(c, path, minmax); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&minmax, "minmax", false, "Compute the minimum and maximum of each variable")
	return cmd
}

func runInfo(c *CommandContext, path string, minmax bool) error {
	ds, err := c.Open(path)
	if err != nil {
		return err
	}
	defer ds.Close()

	b := ds.Bounds()
	t := newTable(c.Out)
	t.SetTitle(path)
	t.AppendRows([]table.Row{
		{"Name", ds.Name()},
		{"Kind", ds.Kind()},
		{"Description", ds.Description()},
		{"Start", ds.Start()},
		{"End", ds.End()},
		{"Timesteps", fmt.Sprintf("%d %s", ds.Timesteps(), ds.TimestepSize())},
		{"Cells", fmt.Sprintf("%d %s", ds.Cells(), ds.CellType())},
		{"Bounds", fmt.Sprintf("%g..%g E, %g..%g N", b.West, b.East, b.South, b.North)},
	})
	if g := ds.Grid(); g != nil {
		p := g.Parameters()
		t.AppendRow(table.Row{"Grid", fmt.Sprintf("%d x %d x %d %s, %s levels", p.Columns, p.Rows, p.Layers, p.Type, p.VerticalType)})
	}
	if m := ds.RegridMethod(); m != 0 {
		t.AppendRow(table.Row{"Regrid", m})
	}
	t.Render()

	vt := newTable(c.Out)
	header := table.Row{"#", "Variable", "Units"}
	if minmax {
		header = append(header, "Min", "Max")
	}
	vt.AppendHeader(header)
	for i, v := range ds.Variables() {
		row := table.Row{i, v.Name, v.Units}
		if minmax {
			lo, hi, err := ds.MinMax(i)
			if err != nil {
				return fmt.Errorf("min/max of %s: %w", v.Name, err)
			}
			row = append(row, formatValue(lo), formatValue(hi))
		}
		vt.AppendRow(row)
	}
	vt.Render()

	c.Logger.Debug("described dataset", "path", path, "kind", ds.Kind(), "cells", ds.Cells())
	return nil
}

// describe is a one-line summary used by commands that write datasets.
func describe(ds *dataset.Dataset) string {
	return fmt.Sprintf("%s %s (%d timesteps, %d cells)", ds.Kind(), ds.Name(), ds.Timesteps(), ds.Cells())
}
