package dataset

import (
	"bufio"
	"strconv"
	"strings"
)

// writeASCII writes a tab-delimited table with one row per cell and
// timestep. Cell centres are the averages of the cell vertices.
func (d *Dataset) writeASCII(path string, sel selection) error {
	_, _, _, hasZ := d.centerOf0()
	site, _ := d.v.(*siteVariant)
	track, _ := d.v.(*trackVariant)

	return createWith(path, func(w *bufio.Writer) error {
		cols := []string{"Timestamp(UTC)", "LONGITUDE(deg)", "LATITUDE(deg)"}
		if hasZ {
			cols = append(cols, "ELEVATION(m)")
		}
		switch {
		case site != nil:
			cols = append(cols, "STATION(-)")
		case track != nil:
			cols = append(cols, "NOTE(-)")
		}
		for _, v := range sel.vars {
			cols = append(cols, d.variables[v].Name+"("+d.variables[v].Units+")")
		}
		if _, err := w.WriteString(strings.Join(cols, "\t") + "\n"); err != nil {
			return err
		}

		var buf []Point
		row := make([]byte, 0, 256)
		return d.eachSelected(sel, func(t, cell int) error {
			var c Point
			c, buf = d.vertexCenter(cell, buf)
			row = row[:0]
			row = append(row, d.cellTime(t, cell).String()...)
			row = appendField(row, c.Longitude)
			row = appendField(row, c.Latitude)
			if hasZ {
				row = appendField(row, c.Elevation)
			}
			switch {
			case site != nil:
				row = append(row, '\t')
				row = strconv.AppendInt(row, site.ids[cell], 10)
			case track != nil:
				row = append(row, '\t')
				row = append(row, d.cellNote(cell)...)
			}
			for _, v := range sel.vars {
				row = appendField(row, d.value(v, t, cell))
			}
			row = append(row, '\n')
			_, err := w.Write(row)
			return err
		})
	})
}

func appendField(row []byte, v float64) []byte {
	row = append(row, '\t')
	return strconv.AppendFloat(row, v, 'g', -1, 64)
}

// centerOf0 returns the centre of the first cell, used to learn whether the
// kind stores elevations.
func (d *Dataset) centerOf0() (lon, lat, elevation float64, hasElevation bool) {
	if d.v.cellCount() == 0 {
		return 0, 0, 0, false
	}
	return d.v.center(0)
}
