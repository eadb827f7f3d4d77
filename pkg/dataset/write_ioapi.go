package dataset

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ctessum/cdf"
)

// ioapiStep is the IOAPI TSTEP (HHMMSS) of each timestep size. Months and
// years have no exact IOAPI step and are written as 30 and 365 days.
var ioapiStep = map[TimestepSize]int32{
	Hours:  10000,
	Days:   240000,
	Months: 7200000,
	Years:  87600000,
}

// pad returns s blank padded or truncated to n bytes.
func pad(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

// writeIOAPI writes a Grid dataset as an IOAPI NetCDF file.
func (d *Dataset) writeIOAPI(path string, sel selection) error {
	v := d.v.(*gridVariant)
	g := v.g
	p := g.Parameters()
	cols, rows, layers := g.Columns(), g.Rows(), g.Layers()
	nvars := len(sel.vars)

	h := cdf.NewHeader(
		[]string{"TSTEP", "DATE-TIME", "LAY", "VAR", "ROW", "COL"},
		[]int{0, 2, layers, nvars, rows, cols})

	now := time.Now().UTC()
	cdate, ctime := int32(now.Year()*1000+now.YearDay()), int32(now.Hour()*10000+now.Minute()*100+now.Second())
	sdate, stime := d.TimestepStart(sel.first).IOAPI()

	var varList strings.Builder
	for _, vi := range sel.vars {
		varList.WriteString(pad(d.variables[vi].Name, 16))
	}
	levels := make([]float32, len(p.Levels))
	for i, l := range p.Levels {
		levels[i] = float32(l)
	}

	global := []struct {
		name string
		val  any
	}{
		{"IOAPI_VERSION", pad("geodataset native IOAPI writer", 80)},
		{"EXEC_ID", pad("geodataset", 80)},
		{"FTYPE", []int32{1}},
		{"CDATE", []int32{cdate}},
		{"CTIME", []int32{ctime}},
		{"WDATE", []int32{cdate}},
		{"WTIME", []int32{ctime}},
		{"SDATE", []int32{int32(sdate)}},
		{"STIME", []int32{int32(stime)}},
		{"TSTEP", []int32{ioapiStep[d.step]}},
		{"NTHIK", []int32{1}},
		{"NCOLS", []int32{int32(cols)}},
		{"NROWS", []int32{int32(rows)}},
		{"NLAYS", []int32{int32(layers)}},
		{"NVARS", []int32{int32(nvars)}},
		{"GDTYP", []int32{int32(p.Type)}},
		{"P_ALP", []float64{p.Alpha}},
		{"P_BET", []float64{p.Beta}},
		{"P_GAM", []float64{p.Gamma}},
		{"XCENT", []float64{p.XCenter}},
		{"YCENT", []float64{p.YCenter}},
		{"XORIG", []float64{p.XOrigin}},
		{"YORIG", []float64{p.YOrigin}},
		{"XCELL", []float64{p.XCell}},
		{"YCELL", []float64{p.YCell}},
		{"VGTYP", []int32{int32(p.VerticalType)}},
		{"VGTOP", []float32{float32(p.VerticalTop)}},
		{"VGLVLS", levels},
		{"GDNAM", pad(d.name, 16)},
		{"UPNAM", pad("geodataset", 16)},
		{"VAR-LIST", varList.String()},
		{"FILEDESC", pad(d.description, 80)},
		{"HISTORY", ""},
	}
	for _, a := range global {
		h.AddAttribute("", a.name, a.val)
	}

	h.AddVariable("TFLAG", []string{"TSTEP", "VAR", "DATE-TIME"}, []int32{0})
	h.AddAttribute("TFLAG", "units", "<YYYYDDD,HHMMSS>")
	h.AddAttribute("TFLAG", "long_name", pad("TFLAG", 16))
	h.AddAttribute("TFLAG", "var_desc", pad("Timestep-valid flags:  (1) YYYYDDD or (2) HHMMSS", 80))
	for _, vi := range sel.vars {
		variable := d.variables[vi]
		h.AddVariable(variable.Name, []string{"TSTEP", "LAY", "ROW", "COL"}, []float32{0})
		h.AddAttribute(variable.Name, "long_name", pad(variable.Name, 16))
		h.AddAttribute(variable.Name, "units", pad(variable.Units, 16))
		h.AddAttribute(variable.Name, "var_desc", pad(variable.Name, 80))
	}
	h.Define()

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	f, err := cdf.Create(file, h)
	if err != nil {
		return err
	}

	cells := layers * rows * cols
	buf := make([]float32, cells)
	for i := range sel.count {
		t := sel.first + i
		if err := d.ensureResident(t, 1); err != nil {
			return err
		}
		date, hms := d.TimestepStart(t).IOAPI()
		flags := make([]int32, 0, 2*nvars)
		for range sel.vars {
			flags = append(flags, int32(date), int32(hms))
		}
		if _, err := f.Writer("TFLAG", []int{i, 0, 0}, []int{i + 1, nvars, 2}).Write(flags); err != nil {
			return fmt.Errorf("TFLAG timestep %d: %w", t, err)
		}
		for _, vi := range sel.vars {
			for c, x := range d.stepViews(t, 1, vi)[0] {
				buf[c] = float32(x)
			}
			w := f.Writer(d.variables[vi].Name, []int{i, 0, 0, 0}, []int{i + 1, layers, rows, cols})
			if _, err := w.Write(buf); err != nil {
				return fmt.Errorf("%s timestep %d: %w", d.variables[vi].Name, t, err)
			}
		}
	}
	if err := cdf.UpdateNumRecs(file); err != nil {
		return err
	}
	return file.Close()
}
