package dataset

import (
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
)

// polygonRecord is one shapefile row for a cell with an area.
type polygonRecord struct {
	geom.Polygon
	TIMESTAMP string
	VARIABLE  string
	VALUE     float64
	NOTE      string
}

// pointRecord is one shapefile row for a point cell.
type pointRecord struct {
	geom.Point
	TIMESTAMP string
	VARIABLE  string
	VALUE     float64
	NOTE      string
}

// writeShapefile writes one record per cell, timestep and variable.
// Quadrilateral and hexahedron cells are written as the polygon of their
// lower face; point cells as points.
func (d *Dataset) writeShapefile(path string, sel selection) error {
	polygons := d.CellType() != CellPoint
	var archetype any = pointRecord{}
	if polygons {
		archetype = polygonRecord{}
	}
	e, err := shp.NewEncoder(path, archetype)
	if err != nil {
		return err
	}
	defer e.Close()

	var buf []Point
	return d.eachSelected(sel, func(t, cell int) error {
		stamp := d.cellTime(t, cell).String()
		note := d.cellNote(cell)

		var shape geom.Geom
		if polygons {
			var err error
			if buf, err = d.footprint(cell, buf); err != nil {
				return err
			}
			ring := make([]geom.Point, 0, 5)
			for _, v := range buf[:4] {
				ring = append(ring, geom.Point{X: v.Longitude, Y: v.Latitude})
			}
			ring = append(ring, ring[0])
			shape = geom.Polygon{ring}
		} else {
			lon, lat, _, _ := d.v.center(cell)
			shape = geom.Point{X: lon, Y: lat}
		}

		for _, v := range sel.vars {
			value := d.value(v, t, cell)
			name := d.variables[v].Name
			var rec any
			if polygons {
				rec = polygonRecord{Polygon: shape.(geom.Polygon), TIMESTAMP: stamp, VARIABLE: name, VALUE: value, NOTE: note}
			} else {
				rec = pointRecord{Point: shape.(geom.Point), TIMESTAMP: stamp, VARIABLE: name, VALUE: value, NOTE: note}
			}
			if err := e.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
