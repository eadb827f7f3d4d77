package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/beetlebugorg/geodataset/pkg/dataset"
)

// NewSubsetCommand creates the subset command.
func NewSubsetCommand() *cobra.Command {
	var (
		begin, end string
		variable   string
	)

	cmd := &cobra.Command{
		Use:   "subset <file>",
		Short: "Summarize the values of a variable over a time range",
		Long: `Extract one variable over [begin, end] and print one row per group:
per timestep for grid and site datasets, per note (flight, profile or
scan) for the other kinds.`,
		Example: `  geodataset subset mozaic.xdr --variable CO
  geodataset subset cmaq.xdr --variable O3 --begin 2020-07-01T06:00:00Z --end 2020-07-01T12:00:00Z`,
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

			ds, err := c.Open(args[0])
			if err != nil {
				return err
			}
			defer ds.Close()

			vars, err := variableIndexes(ds, []string{variable})
			if err != nil {
				return err
			}
			if b.IsZero() {
				b = ds.Start()
			}
			if e.IsZero() {
				e = ds.End()
			}
			groups, err := ds.Subset(b, e, vars[0])
			if err != nil {
				return fmt.Errorf("subset %s: %w", variable, err)
			}

			t := newTable(c.Out)
			t.AppendHeader(table.Row{"Note", "First Timestep", "Values", "Min", "Max"})
			for _, g := range groups {
				n, lo, hi := 0, 0.0, 0.0
				for _, step := range g.Values {
					for _, v := range step {
						if v == dataset.MissingValue {
							continue
						}
						if n == 0 || v < lo {
							lo = v
						}
						if n == 0 || v > hi {
							hi = v
						}
						n++
					}
				}
				row := table.Row{g.Note, g.FirstTimestep, n, "-", "-"}
				if n > 0 {
					row[3], row[4] = formatValue(lo), formatValue(hi)
				}
				t.AppendRow(row)
			}
			t.Render()
			c.Logger.Debug("subset", "path", args[0], "variable", variable, "groups", len(groups))
			return nil
		},
	}

	cmd.Flags().StringVar(&begin, "begin", "", "First timestamp (default dataset start)")
	cmd.Flags().StringVar(&end, "end", "", "Last timestamp (default dataset end)")
	cmd.Flags().StringVar(&variable, "variable", "", "Variable to extract")
	_ = cmd.MarkFlagRequired("variable")
	return cmd
}
