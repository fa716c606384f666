/*
Copyright © 2020 the lvisgrid authors.
This file is part of lvisgrid.

lvisgrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

lvisgrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with lvisgrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package lvisgrid

import (
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
)

// Column is one attribute of the gridded output.
type Column struct {
	Name string

	// Int is true for integer valued columns.
	Int bool

	// Suffix is the statistic suffix of an aggregated variable column,
	// such as "_wt_avg". Name is the variable name followed by Suffix.
	Suffix string
}

// Columns returns the output attribute columns for the given variables,
// in the order that Attributes returns their values.
func Columns(vars []Variable) []Column {
	c := []Column{
		{Name: "cell_id", Int: true},
		{Name: "row", Int: true},
		{Name: "col", Int: true},
		{Name: "shot_count", Int: true},
		{Name: "sc_percent"},
		{Name: "coverage"},
	}
	for _, v := range vars {
		if v.Mode == PassThrough {
			c = append(c, Column{Name: v.Name})
			continue
		}
		for _, suffix := range []string{"_avg", "_min", "_max", "_wt_avg"} {
			c = append(c, Column{Name: v.Name + suffix, Suffix: suffix})
		}
	}
	return append(c, Column{Name: "shot_dist"})
}

// Attributes returns the attribute values of a, matching Columns(vars). Null
// values are NaN.
func (a *CellAggregate) Attributes(vars []Variable) []float64 {
	r := []float64{
		float64(a.CellID), float64(a.Row), float64(a.Col), float64(a.ShotCount),
		a.DisplayCoverage() * 100, a.CoverageFraction,
	}
	for _, v := range vars {
		if v.Mode == PassThrough {
			s, ok := a.PassThrough[v.Name]
			if !ok {
				s = nullStats()
			}
			r = append(r, s.Avg)
			continue
		}
		s, ok := a.Stats[v.Name]
		if !ok {
			s = nullStats()
		}
		r = append(r, s.Avg, s.Min, s.Max, s.WtAvg)
	}
	return append(r, a.MeanDistance)
}

// dbfSuffixes are the abbreviated statistic suffixes used for column
// names that do not fit in a DBF header.
var dbfSuffixes = map[string]string{
	"_avg":    "_a",
	"_min":    "_mn",
	"_max":    "_mx",
	"_wt_avg": "_w",
}

// dbfNames shortens column names to the 10 characters allowed in a DBF
// header. Names that are too long keep an abbreviated statistic suffix
// and have their variable name cut to fit in front of it, so that
// "CC_PERCENT_wt_avg" becomes "CC_PERCE_w".
func dbfNames(cols []Column) ([]string, error) {
	const maxLen = 10
	names := make([]string, len(cols))
	seen := make(map[string]string)
	for i, c := range cols {
		n := c.Name
		if len(n) > maxLen {
			suffix := dbfSuffixes[c.Suffix]
			base := strings.TrimSuffix(c.Name, c.Suffix)
			if len(base) > maxLen-len(suffix) {
				base = base[:maxLen-len(suffix)]
			}
			n = base + suffix
		}
		key := strings.ToLower(n)
		if orig, ok := seen[key]; ok {
			return nil, configErrorf("output", "columns %q and %q are both %q when shortened to %d characters",
				orig, c.Name, n, maxLen)
		}
		seen[key] = c.Name
		names[i] = n
	}
	return names, nil
}

func removeShapefile(path string) {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{".shp", ".prj", ".dbf", ".shx"} {
		os.Remove(base + ext)
	}
}

// WriteShapefile writes one point per aggregate, located at the cell
// center, to the shapefile at path. Null values are written as empty
// attributes.
func WriteShapefile(path string, vars []Variable, aggs []CellAggregate) error {
	cols := Columns(vars)
	names, err := dbfNames(cols)
	if err != nil {
		return err
	}
	fields := make([]goshp.Field, len(cols))
	for i, c := range cols {
		if c.Int {
			fields[i] = goshp.NumberField(names[i], 10)
		} else {
			fields[i] = goshp.FloatField(names[i], 24, 8)
		}
	}
	removeShapefile(path)
	e, err := shp.NewEncoderFromFields(path, goshp.POINT, fields...)
	if err != nil {
		return err
	}
	defer e.Close()
	vals := make([]interface{}, len(cols))
	for i := range aggs {
		a := &aggs[i]
		for j, v := range a.Attributes(vars) {
			switch {
			case math.IsNaN(v):
				vals[j] = ""
			case cols[j].Int:
				vals[j] = int(v)
			default:
				vals[j] = v
			}
		}
		if err := e.EncodeFields(a.Center, vals...); err != nil {
			return err
		}
	}
	return nil
}

// WriteCellsShp writes the grid cell polygons to the shapefile at path.
func WriteCellsShp(path string, cells []*GridCell) error {
	removeShapefile(path)
	fields := []goshp.Field{
		goshp.NumberField("cell_id", 10),
		goshp.NumberField("row", 10),
		goshp.NumberField("col", 10),
	}
	e, err := shp.NewEncoderFromFields(path, goshp.POLYGON, fields...)
	if err != nil {
		return err
	}
	defer e.Close()
	for _, c := range cells {
		if err := e.EncodeFields(c.Polygonal, c.ID, c.Row, c.Col); err != nil {
			return err
		}
	}
	return nil
}

// WriteFootprintsShp writes the footprint polygons and the values of
// vars to the shapefile at path.
func WriteFootprintsShp(path string, footprints []*Footprint, vars []string) error {
	cols := []Column{{Name: "shot_id", Int: true}}
	for _, v := range vars {
		cols = append(cols, Column{Name: v})
	}
	names, err := dbfNames(cols)
	if err != nil {
		return err
	}
	fields := []goshp.Field{goshp.NumberField(names[0], 10)}
	for _, n := range names[1:] {
		fields = append(fields, goshp.FloatField(n, 24, 8))
	}
	removeShapefile(path)
	e, err := shp.NewEncoderFromFields(path, goshp.POLYGON, fields...)
	if err != nil {
		return err
	}
	defer e.Close()
	vals := make([]interface{}, len(cols))
	for _, f := range footprints {
		vals[0] = f.ID
		for i, v := range vars {
			if x, ok := f.Value(v); ok {
				vals[i+1] = x
			} else {
				vals[i+1] = ""
			}
		}
		if err := e.EncodeFields(f.Polygonal, vals...); err != nil {
			return err
		}
	}
	return nil
}

// WriteOutput writes aggregates to path in the format implied by its
// extension: .shp, .geojson or .json, or .sqlite or .db.
func WriteOutput(path string, vars []Variable, aggs []CellAggregate) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return WriteShapefile(path, vars, aggs)
	case ".geojson", ".json":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := WriteGeoJSON(f, vars, aggs); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case ".sqlite", ".db":
		return WriteSQLite(path, vars, aggs)
	default:
		return configErrorf("output", "unsupported output file type %q", filepath.Ext(path))
	}
}
