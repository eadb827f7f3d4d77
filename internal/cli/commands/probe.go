package commands

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/beetlebugorg/geodataset/pkg/dataset"
)

// locationFlags are the flags shared by probe and timeseries.
type locationFlags struct {
	lon, lat  float64
	elevation float64
	layer     int
	variables []string
}

func (f *locationFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "Longitude in degrees")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "Latitude in degrees")
	cmd.Flags().Float64Var(&f.elevation, "elevation", 0, "Elevation in metres (selects the grid layer)")
	cmd.Flags().IntVar(&f.layer, "layer", -1, "Grid layer (-1 selects by elevation)")
	cmd.Flags().StringSliceVar(&f.variables, "variable", nil, "Variables to probe (default all)")
	_ = cmd.MarkFlagRequired("lon")
	_ = cmd.MarkFlagRequired("lat")
}

func (f *locationFlags) query(cmd *cobra.Command, at dataset.Timestamp) dataset.ProbeQuery {
	q := dataset.NewProbeQuery(at, f.lon, f.lat)
	q.Layer = f.layer
	if cmd.Flags().Changed("elevation") {
		q.Elevation, q.HasElevation = f.elevation, true
	}
	return q
}

// NewProbeCommand creates the probe command.
func NewProbeCommand() *cobra.Command {
	var (
		loc locationFlags
		at  string
	)

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Read the value at a time and location",
		Long: `Probe a dataset at one instant and location. Grid and swath cells match
by containment, point kinds by the nearest point within the configured
probe tolerance.`,
		Example: `  geodataset probe cmaq.xdr --time 2020-07-01T12:00:00-0000 --lon -97.5 --lat 31.5
  geodataset probe mozaic.xdr --time 2020-07-01T12:30:00Z --lon -98.5 --lat 31.5 --variable CO`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			ts, err := parseTime("time", at)
			if err != nil {
				return err
			}
			return runProbe(c, args[0], loc.query(cmd, ts), loc.variables)
		},
	}

	loc.register(cmd)
	cmd.Flags().StringVar(&at, "time", "", "Timestamp (YYYY-MM-DDTHH:MM:SS-0000)")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func runProbe(c *CommandContext, path string, q dataset.ProbeQuery, names []string) error {
	ds, err := c.Open(path)
	if err != nil {
		return err
	}
	defer ds.Close()

	vars, err := variableIndexes(ds, names)
	if err != nil {
		return err
	}

	t := newTable(c.Out)
	t.AppendHeader(table.Row{"Variable", "Value", "Units", "Cell", "Timestep", "Note"})
	variables := ds.Variables()
	for _, v := range vars {
		q.Variable = v
		r, err := ds.Probe(q)
		if err != nil {
			return fmt.Errorf("probe %s: %w", variables[v].Name, err)
		}
		if !r.Found {
			t.AppendRow(table.Row{variables[v].Name, "-", variables[v].Units, "-", "-", ""})
			continue
		}
		t.AppendRow(table.Row{variables[v].Name, formatValue(r.Value), variables[v].Units, r.Cell, r.Timestep, r.Note})
	}
	t.Render()
	return nil
}

// NewTimeseriesCommand creates the timeseries command.
func NewTimeseriesCommand() *cobra.Command {
	var (
		loc        locationFlags
		begin, end string
	)

	cmd := &cobra.Command{
		Use:   "timeseries <file>",
		Short: "Probe a location over a time range",
		Long: `Probe a location at every hour of [begin, end]. Datasets with daily,
monthly or yearly timesteps are probed once per timestep instead.`,
		Example: `  geodataset timeseries cmaq.xdr --begin 2020-07-01T00:00:00Z --end 2020-07-01T23:00:00Z \
      --lon -97.5 --lat 31.5 --variable O3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			b, err := parseTime("begin", begin)
			if err != nil {
				return err
			}
			e, err := parseTime("end", end)
			if err != nil {
				return err
			}
			return runTimeseries(c, args[0], b, e, loc.query(cmd, b), loc.variables)
		},
	}

	loc.register(cmd)
	cmd.Flags().StringVar(&begin, "begin", "", "First timestamp")
	cmd.Flags().StringVar(&end, "end", "", "Last timestamp")
	_ = cmd.MarkFlagRequired("begin")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func runTimeseries(c *CommandContext, path string, begin, end dataset.Timestamp, q dataset.ProbeQuery, names []string) error {
	ds, err := c.Open(path)
	if err != nil {
		return err
	}
	defer ds.Close()

	vars, err := variableIndexes(ds, names)
	if err != nil {
		return err
	}

	times, err := ds.TimeseriesTimes(begin, end)
	if err != nil {
		return err
	}

	series := make([][]float64, len(vars))
	header := table.Row{"Time"}
	variables := ds.Variables()
	for i, v := range vars {
		q.Variable = v
		series[i], err = ds.Timeseries(begin, end, q)
		if err != nil {
			return fmt.Errorf("timeseries %s: %w", variables[v].Name, err)
		}
		if len(series[i]) != len(times) {
			return errors.New("timeseries length does not match the time axis")
		}
		header = append(header, fmt.Sprintf("%s (%s)", variables[v].Name, variables[v].Units))
	}

	t := newTable(c.Out)
	t.AppendHeader(header)
	for j, at := range times {
		row := table.Row{at}
		for i := range vars {
			row = append(row, formatValue(series[i][j]))
		}
		t.AppendRow(row)
	}
	t.Render()
	return nil
}
