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
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
)

// ReadFootprintShapefile reads footprint polygons and the values of
// vars from the shapefile at path. If the shapefile has a .prj file the
// polygons are transformed to gridSR; otherwise they are assumed to
// already be in gridSR. Empty or unparseable attribute values are null.
func ReadFootprintShapefile(path, gridSR string, vars []string) ([]*Footprint, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("lvisgrid: opening footprint shapefile: %w", err)
	}
	defer d.Close()

	var transform func(geom.Geom) (geom.Geom, error)
	if _, err := os.Stat(strings.TrimSuffix(path, ".shp") + ".prj"); err == nil {
		src, err := d.SR()
		if err != nil {
			return nil, fmt.Errorf("lvisgrid: footprint shapefile spatial reference: %w", err)
		}
		dst, err := ParseSR(gridSR)
		if err != nil {
			return nil, err
		}
		t, err := src.NewTransform(dst)
		if err != nil {
			return nil, fmt.Errorf("lvisgrid: creating footprint transform: %w", err)
		}
		transform = func(g geom.Geom) (geom.Geom, error) { return g.Transform(t) }
	}

	var out []*Footprint
	for {
		g, fields, more := d.DecodeRowFields(vars...)
		if err := d.Error(); err != nil {
			return nil, configErrorf("footprints", "%v", err)
		}
		if !more {
			break
		}
		id := len(out)
		if transform != nil {
			if g, err = transform(g); err != nil {
				return nil, fmt.Errorf("lvisgrid: transforming footprint %d: %w", id, err)
			}
		}
		p, ok := g.(geom.Polygonal)
		if !ok {
			return nil, configErrorf("footprints", "record %d has geometry type %T; it must be polygonal", id, g)
		}
		f := &Footprint{
			Polygonal: p,
			ID:        id,
			Center:    p.Centroid(),
			Values:    make(map[string]float64, len(vars)),
		}
		for _, v := range vars {
			x, err := strconv.ParseFloat(strings.TrimSpace(fields[v]), 64)
			if err != nil {
				x = math.NaN()
			}
			f.Values[v] = x
		}
		out = append(out, f)
	}
	return out, nil
}
