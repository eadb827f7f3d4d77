package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beetlebugorg/geodataset/pkg/dataset"
)

// NewWriteCommand creates the write command.
func NewWriteCommand() *cobra.Command {
	var (
		variables  []string
		begin, end string
		method     string
		gridName   string
	)

	cmd := &cobra.Command{
		Use:   "write <file>",
		Short: "Convert a dataset to another format",
		Long: `Write the selected variables and timesteps of a dataset to the output
directory in the configured format (xdr, ascii, coards, ioapi, shapefile,
kml or original).

With --regrid the dataset is first aggregated onto a grid from the
configuration file.`,
		Example: `  # Convert to COARDS NetCDF
  geodataset write airnow.xdr --format coards

  # Write two hours of PM25 as tab-separated text
  geodataset write airnow.xdr --format ascii --variables PM25 \
      --begin 2020-07-01T00:00:00Z --end 2020-07-01T01:00:00Z

  # Regrid onto a configured grid and write IOAPI
  geodataset write airnow.xdr --format ioapi --regrid mean --grid conus12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			ds, err := c.Open(args[0])
			if err != nil {
				return err
			}
			defer ds.Close()

			opts, err := c.writeOptions(ds, variables, begin, end)
			if err != nil {
				return err
			}
			if method != "" || gridName != "" {
				if method == "" {
					method = dataset.RegridMean.String()
				}
				if opts.Regrid, err = dataset.ParseRegridMethod(method); err != nil {
					return err
				}
				if gridName == "" {
					return errors.New("--regrid requires --grid")
				}
				if opts.Grid, err = c.Cfg.Grid(gridName); err != nil {
					return err
				}
			}
			return c.write(ds, opts)
		},
	}

	cmd.Flags().StringSliceVar(&variables, "variables", nil, "Variables to write (default all)")
	cmd.Flags().StringVar(&begin, "begin", "", "First timestamp (default dataset start)")
	cmd.Flags().StringVar(&end, "end", "", "Last timestamp (default dataset end)")
	cmd.Flags().StringVar(&method, "regrid", "", "Regrid method: nearest, mean or weighted")
	cmd.Flags().StringVar(&gridName, "grid", "", "Configured grid to regrid onto")
	return cmd
}

// NewRegridCommand creates the regrid command.
func NewRegridCommand() *cobra.Command {
	var (
		method   string
		gridName string
	)

	cmd := &cobra.Command{
		Use:   "regrid <file>",
		Short: "Aggregate a point or swath dataset onto a grid",
		Long: `Aggregate every timestep and variable of a non-grid dataset onto a grid
defined in the configuration file and write the result to the output
directory in the configured format.`,
		Example: `  geodataset regrid modis.xdr --grid conus12 --method weighted --format coards`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			m, err := dataset.ParseRegridMethod(method)
			if err != nil {
				return err
			}
			g, err := c.Cfg.Grid(gridName)
			if err != nil {
				return err
			}

			ds, err := c.Open(args[0])
			if err != nil {
				return err
			}
			defer ds.Close()

			r, err := ds.Regrid(m, g)
			if err != nil {
				return fmt.Errorf("regrid %s: %w", ds.Name(), err)
			}
			defer r.Close()
			f, err := c.Cfg.OutputFormat()
			if err != nil {
				return err
			}
			return c.write(r, dataset.WriteOptions{Format: f})
		},
	}

	cmd.Flags().StringVar(&method, "method", dataset.RegridMean.String(), "Regrid method: nearest, mean or weighted")
	cmd.Flags().StringVar(&gridName, "grid", "", "Configured grid to regrid onto")
	_ = cmd.MarkFlagRequired("grid")
	return cmd
}

// NewSampleCommand creates the sample command.
func NewSampleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample <points> <data>",
		Short: "Sample a dataset at the points of another",
		Long: `Probe <data> at every point and timestep of <points> (a site, point,
aircraft or profile dataset) and write the sampled values, which carry
the name and variables of <data>, to the output directory.`,
		Example: `  # CMAQ ozone at the AirNow monitors
  geodataset sample airnow.xdr cmaq.xdr --format ascii`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			points, err := c.Open(args[0])
			if err != nil {
				return err
			}
			defer points.Close()
			data, err := c.Open(args[1])
			if err != nil {
				return err
			}
			defer data.Close()

			s, err := points.Sample(data)
			if err != nil {
				return fmt.Errorf("sample %s at %s: %w", data.Name(), points.Name(), err)
			}
			defer s.Close()
			f, err := c.Cfg.OutputFormat()
			if err != nil {
				return err
			}
			return c.write(s, dataset.WriteOptions{Format: f})
		},
	}
	return cmd
}

// writeOptions builds the write selection from command flags.
func (c *CommandContext) writeOptions(ds *dataset.Dataset, variables []string, begin, end string) (dataset.WriteOptions, error) {
	var opts dataset.WriteOptions
	var err error
	if opts.Format, err = c.Cfg.OutputFormat(); err != nil {
		return opts, err
	}
	if len(variables) > 0 {
		if opts.Variables, err = variableIndexes(ds, variables); err != nil {
			return opts, err
		}
	}
	if opts.Begin, err = parseTime("begin", begin); err != nil {
		return opts, err
	}
	if opts.End, err = parseTime("end", end); err != nil {
		return opts, err
	}
	return opts, nil
}

// write writes ds to the configured output directory and reports the path.
func (c *CommandContext) write(ds *dataset.Dataset, opts dataset.WriteOptions) error {
	path, err := ds.Write(c.Cfg.OutputDir, opts)
	if err != nil {
		return err
	}
	c.Logger.Info("wrote dataset", "source", describe(ds), "path", path)
	fmt.Fprintln(c.Out, path)
	return nil
}
