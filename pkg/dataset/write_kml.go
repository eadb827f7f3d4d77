package dataset

import (
	"bufio"
	"encoding/xml"
	"strconv"
	"strings"
	"time"
)

const kmlNamespace = "http://www.opengis.net/kml/2.2"

type kmlPlacemark struct {
	XMLName     xml.Name      `xml:"Placemark"`
	Name        string        `xml:"name"`
	TimeStamp   kmlTimeStamp  `xml:"TimeStamp"`
	Description string        `xml:"description"`
	Point       *kmlPoint     `xml:"Point,omitempty"`
	Polygon     *kmlPolygon   `xml:"Polygon,omitempty"`
	Data        []kmlDataItem `xml:"ExtendedData>Data"`
}

type kmlTimeStamp struct {
	When string `xml:"when"`
}

type kmlPoint struct {
	AltitudeMode string `xml:"altitudeMode,omitempty"`
	Coordinates  string `xml:"coordinates"`
}

type kmlPolygon struct {
	Coordinates string `xml:"outerBoundaryIs>LinearRing>coordinates"`
}

type kmlDataItem struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

// writeKML writes a KML document with one folder per variable and one
// placemark per cell and timestep.
func (d *Dataset) writeKML(path string, sel selection) error {
	return createWith(path, func(w *bufio.Writer) error {
		if _, err := w.WriteString(xml.Header); err != nil {
			return err
		}
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")

		kml := xml.StartElement{Name: xml.Name{Local: "kml"}, Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: kmlNamespace}}}
		doc := xml.StartElement{Name: xml.Name{Local: "Document"}}
		if err := enc.EncodeToken(kml); err != nil {
			return err
		}
		if err := enc.EncodeToken(doc); err != nil {
			return err
		}
		if err := enc.EncodeElement(d.name, xml.StartElement{Name: xml.Name{Local: "name"}}); err != nil {
			return err
		}
		if err := enc.EncodeElement(d.description, xml.StartElement{Name: xml.Name{Local: "description"}}); err != nil {
			return err
		}

		for _, v := range sel.vars {
			if err := d.kmlFolder(enc, sel, v); err != nil {
				return err
			}
		}

		if err := enc.EncodeToken(doc.End()); err != nil {
			return err
		}
		if err := enc.EncodeToken(kml.End()); err != nil {
			return err
		}
		return enc.Flush()
	})
}

func (d *Dataset) kmlFolder(enc *xml.Encoder, sel selection, v int) error {
	variable := d.variables[v]
	folder := xml.StartElement{Name: xml.Name{Local: "Folder"}}
	if err := enc.EncodeToken(folder); err != nil {
		return err
	}
	if err := enc.EncodeElement(variable.Name+" ("+variable.Units+")", xml.StartElement{Name: xml.Name{Local: "name"}}); err != nil {
		return err
	}

	var buf []Point
	err := d.eachSelected(sel, func(t, cell int) error {
		value := strconv.FormatFloat(d.value(v, t, cell), 'g', -1, 64)
		pm := kmlPlacemark{
			Name:        variable.Name + " = " + value,
			TimeStamp:   kmlTimeStamp{When: d.cellTime(t, cell).Time().UTC().Format(time.RFC3339)},
			Description: value + " " + variable.Units,
			Data: []kmlDataItem{
				{Name: "cell", Value: strconv.Itoa(cell)},
				{Name: "value", Value: value},
			},
		}
		if note := d.cellNote(cell); note != "" {
			pm.Data = append(pm.Data, kmlDataItem{Name: "note", Value: note})
		}

		if d.CellType() == CellPoint {
			lon, lat, z, hasZ := d.v.center(cell)
			p := &kmlPoint{Coordinates: kmlCoordinate(lon, lat, z)}
			if hasZ {
				p.AltitudeMode = "absolute"
			}
			pm.Point = p
		} else {
			var err error
			if buf, err = d.footprint(cell, buf); err != nil {
				return err
			}
			coords := make([]string, 0, 5)
			for _, p := range buf[:4] {
				coords = append(coords, kmlCoordinate(p.Longitude, p.Latitude, 0))
			}
			coords = append(coords, coords[0])
			pm.Polygon = &kmlPolygon{Coordinates: strings.Join(coords, " ")}
		}
		return enc.Encode(pm)
	})
	if err != nil {
		return err
	}
	return enc.EncodeToken(folder.End())
}

func kmlCoordinate(lon, lat, z float64) string {
	return strconv.FormatFloat(lon, 'f', -1, 64) + "," +
		strconv.FormatFloat(lat, 'f', -1, 64) + "," +
		strconv.FormatFloat(z, 'f', -1, 64)
}
