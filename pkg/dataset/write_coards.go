package dataset

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
)

// attrs builds an ordered attribute map from key, value pairs.
func attrs(kv ...any) (api.AttributeMap, error) {
	keys := make([]string, 0, len(kv)/2)
	vals := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k := kv[i].(string)
		keys = append(keys, k)
		vals[k] = kv[i+1]
	}
	return util.NewOrderedMap(keys, vals)
}

// ncVar is one variable queued for a NetCDF writer.
type ncVar struct {
	name  string
	dims  []string
	value any
	attrs []any
}

// timeUnits is the COARDS time axis unit relative to ref.
func timeUnits(ref Timestamp) string {
	return "hours since " + ref.Time().UTC().Format("2006-01-02 15:04:05.0 -07:00")
}

// writeCOARDS writes a self-describing NetCDF file. Grids are written as
// (time, z, y, x) arrays with 2-D longitude and latitude variables; other
// kinds as one record per cell and timestep along a "points" dimension.
func (d *Dataset) writeCOARDS(path string, sel selection) error {
	var vars []ncVar
	var err error
	if g, ok := d.v.(*gridVariant); ok {
		vars, err = d.coardsGrid(g, sel)
	} else {
		vars, err = d.coardsPoints(sel)
	}
	if err != nil {
		return err
	}

	w, err := cdf.OpenWriter(path)
	if err != nil {
		return err
	}
	global, err := attrs(
		"Conventions", "COARDS",
		"title", d.name,
		"history", d.description,
		"kind", d.Kind().String(),
		"timestep_size", d.step.String(),
		"start", d.TimestepStart(sel.first).String(),
	)
	if err != nil {
		w.Close()
		return err
	}
	if err := w.AddGlobalAttrs(global); err != nil {
		w.Close()
		return err
	}
	for _, v := range vars {
		a, err := attrs(v.attrs...)
		if err != nil {
			w.Close()
			return err
		}
		if err := w.AddVar(v.name, api.Variable{Values: v.value, Dimensions: v.dims, Attributes: a}); err != nil {
			w.Close()
			return fmt.Errorf("variable %s: %w", v.name, err)
		}
	}
	return w.Close()
}

func (d *Dataset) coardsGrid(v *gridVariant, sel selection) ([]ncVar, error) {
	g := v.g
	cols, rows, layers := g.Columns(), g.Rows(), g.Layers()
	ref := d.TimestepStart(sel.first)

	hours := make([]float64, sel.count)
	for i := range hours {
		hours[i] = d.TimestepStart(sel.first + i).HoursSince(ref)
	}
	z := make([]float32, layers)
	zUnits := "level"
	for k := range z {
		z[k] = float32(k + 1)
		if e, err := g.LayerCenterElevation(k); err == nil {
			z[k], zUnits = float32(e), "m"
		}
	}
	lon := make([][]float32, rows)
	lat := make([][]float32, rows)
	for r := range rows {
		lon[r] = make([]float32, cols)
		lat[r] = make([]float32, cols)
		for c := range cols {
			x, y := g.CellCenter(c, r)
			lon[r][c], lat[r][c] = float32(x), float32(y)
		}
	}

	p := g.Parameters()
	out := []ncVar{
		{name: "time", dims: []string{"time"}, value: hours, attrs: []any{"units", timeUnits(ref), "long_name", "time"}},
		{name: "z", dims: []string{"z"}, value: z, attrs: []any{"units", zUnits, "long_name", "layer centre", "positive", "up"}},
		{name: "longitude", dims: []string{"y", "x"}, value: lon, attrs: []any{
			"units", "degrees_east", "long_name", "cell centre longitude",
			"projection", g.Projection().Name(),
			"xorig", []float64{p.XOrigin}, "xcell", []float64{p.XCell},
		}},
		{name: "latitude", dims: []string{"y", "x"}, value: lat, attrs: []any{
			"units", "degrees_north", "long_name", "cell centre latitude",
			"yorig", []float64{p.YOrigin}, "ycell", []float64{p.YCell},
		}},
	}

	for _, vi := range sel.vars {
		data := make([][][][]float32, sel.count)
		for i := range data {
			t := sel.first + i
			if err := d.ensureResident(t, 1); err != nil {
				return nil, err
			}
			step := d.stepViews(t, 1, vi)[0]
			data[i] = make([][][]float32, layers)
			for k := range layers {
				data[i][k] = make([][]float32, rows)
				for r := range rows {
					row := make([]float32, cols)
					off := (k*rows + r) * cols
					for c := range cols {
						row[c] = float32(step[off+c])
					}
					data[i][k][r] = row
				}
			}
		}
		variable := d.variables[vi]
		out = append(out, ncVar{
			name:  variable.Name,
			dims:  []string{"time", "z", "y", "x"},
			value: data,
			attrs: []any{"units", variable.Units, "long_name", variable.Name, "missing_value", []float32{MissingValue}},
		})
	}
	return out, nil
}

func (d *Dataset) coardsPoints(sel selection) ([]ncVar, error) {
	ref := d.TimestepStart(sel.first)
	_, _, _, hasZ := d.centerOf0()
	_, isSite := d.v.(*siteVariant)
	_, isTrack := d.v.(*trackVariant)
	wide := d.Kind() != KindSite && d.Kind() != KindSwath

	var (
		hours, lon, lat, elev []float64
		ids                   []int32
		values                = make([][]float64, len(sel.vars))
		buf                   []Point
	)
	err := d.eachSelected(sel, func(t, cell int) error {
		var c Point
		c, buf = d.vertexCenter(cell, buf)
		hours = append(hours, d.cellTime(t, cell).HoursSince(ref))
		lon = append(lon, c.Longitude)
		lat = append(lat, c.Latitude)
		if hasZ {
			elev = append(elev, c.Elevation)
		}
		switch {
		case isSite:
			ids = append(ids, int32(d.v.(*siteVariant).ids[cell]))
		case isTrack:
			tv := d.v.(*trackVariant)
			ids = append(ids, int32(groupOf(tv.offsets, cell)))
		}
		for i, v := range sel.vars {
			values[i] = append(values[i], d.value(v, t, cell))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(hours) == 0 {
		return nil, &ArgumentError{Name: "time range", Reason: "no points in the selected timesteps"}
	}

	dims := []string{"points"}
	out := []ncVar{
		{name: "time", dims: dims, value: hours, attrs: []any{"units", timeUnits(ref), "long_name", "time"}},
		{name: "longitude", dims: dims, value: lon, attrs: []any{"units", "degrees_east"}},
		{name: "latitude", dims: dims, value: lat, attrs: []any{"units", "degrees_north"}},
	}
	if hasZ {
		out = append(out, ncVar{name: "elevation", dims: dims, value: elev, attrs: []any{"units", "m", "positive", "up"}})
	}
	switch {
	case isSite:
		out = append(out, ncVar{name: "station", dims: dims, value: ids, attrs: []any{"long_name", "station id"}})
	case isTrack:
		out = append(out, ncVar{name: "track", dims: dims, value: ids, attrs: []any{"long_name", "track index"}})
	}
	for i, v := range sel.vars {
		variable := d.variables[v]
		nv := ncVar{name: variable.Name, dims: dims}
		if wide {
			nv.value = values[i]
			nv.attrs = []any{"units", variable.Units, "missing_value", []float64{MissingValue}}
		} else {
			narrow := make([]float32, len(values[i]))
			for j, x := range values[i] {
				narrow[j] = float32(x)
			}
			nv.value = narrow
			nv.attrs = []any{"units", variable.Units, "missing_value", []float32{MissingValue}}
		}
		out = append(out, nv)
	}
	return out, nil
}
