package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/beetlebugorg/geodataset/pkg/dataset"
)

// NewIndexCommand creates the index command.
func NewIndexCommand() *cobra.Command {
	var (
		bbox       string
		kinds      []string
		variable   string
		begin, end string
	)

	cmd := &cobra.Command{
		Use:   "index <dir>",
		Short: "Find datasets by area, time, kind and variable",
		Long: `Index every native dataset file under a directory and list those
matching the query. Only file headers and point coordinates are read.`,
		Example: `  # Everything under /data
  geodataset index /data

  # Site datasets over Texas holding PM25 on July 1st
  geodataset index /data --bbox -107,-93,25,37 --kind site --variable PM25 \
      --begin 2020-07-01T00:00:00Z --end 2020-07-01T23:00:00Z`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)

			q := dataset.QueryOptions{Variable: variable}
			var err error
			if q.Begin, err = parseTime("begin", begin); err != nil {
				return err
			}
			if q.End, err = parseTime("end", end); err != nil {
				return err
			}
			if q.Kinds, err = parseKinds(kinds); err != nil {
				return err
			}

			idx, err := dataset.BuildIndexFromDir(args[0], c.Cfg.LoadOptions(c.Logger))
			if err != nil {
				return err
			}
			bounds := idx.Bounds()
			if bbox != "" {
				if bounds, err = parseBounds(bbox); err != nil {
					return err
				}
			}
			entries := idx.Query(bounds, q)
			c.Logger.Debug("queried index", "dir", args[0], "indexed", idx.Count(), "matched", len(entries))

			t := newTable(c.Out)
			t.AppendHeader(table.Row{"Path", "Kind", "Name", "Start", "End", "Steps", "Variables"})
			for _, e := range entries {
				t.AppendRow(table.Row{e.Path, e.Kind, e.Name, e.Start, e.End, e.Timesteps, strings.Join(e.Variables, " ")})
			}
			t.Render()
			_, _ = fmt.Fprintf(c.Out, "%d of %d datasets\n", len(entries), idx.Count())
			return nil
		},
	}

	cmd.Flags().StringVar(&bbox, "bbox", "", "Area as west,east,south,north (default all)")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "Dataset kinds to include (grid, site, point, swath, aircraft, profile)")
	cmd.Flags().StringVar(&variable, "variable", "", "Require this variable")
	cmd.Flags().StringVar(&begin, "begin", "", "Earliest timestamp")
	cmd.Flags().StringVar(&end, "end", "", "Latest timestamp")
	return cmd
}

// parseKinds parses kind names case-insensitively.
func parseKinds(names []string) ([]dataset.Kind, error) {
	kinds := make([]dataset.Kind, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		k, err := dataset.ParseKind(strings.ToUpper(name[:1]) + strings.ToLower(name[1:]))
		if err != nil {
			return nil, fmt.Errorf("--kind: %w", err)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
