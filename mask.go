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

	"github.com/ctessum/geom"
)

// CoverageMask returns a raster in which every cell touched by the
// bounding box of a footprint is set to 1 and all other cells hold the
// no-data value 0.
//
// If template is not nil, the mask uses the template's resolution and
// spatial reference and its cells are aligned with the template's
// cells. Otherwise cells are aligned with multiples of resolution and
// the mask is in spatial reference sr.
func CoverageMask(footprints []*Footprint, resolution float64, sr string, template *Raster) (*Raster, error) {
	origin := geom.Point{}
	if template != nil {
		resolution = template.Resolution
		sr = template.SR
		origin = geom.Point{X: template.X0, Y: template.Y0}
	}
	if !(resolution > 0) {
		return nil, configErrorf("resolution", "must be positive, got %g", resolution)
	}
	b := geom.NewBounds()
	var n int
	for _, f := range footprints {
		fb := f.Bounds()
		if !finiteBounds(fb) {
			continue
		}
		b.Extend(fb)
		n++
	}
	if n == 0 {
		return nil, configErrorf("footprints", "no footprints with finite bounds")
	}

	// Snap the extent outward onto the lattice.
	x0 := origin.X + math.Floor((b.Min.X-origin.X)/resolution)*resolution
	y0 := origin.Y + math.Ceil((b.Max.Y-origin.Y)/resolution)*resolution
	cols := int(math.Ceil((b.Max.X - x0) / resolution))
	rows := int(math.Ceil((y0 - b.Min.Y) / resolution))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	mask := NewRaster(rows, cols, x0, y0, resolution, 0)
	mask.DataType = Byte
	mask.SR = sr
	for _, f := range footprints {
		fb := f.Bounds()
		if !finiteBounds(fb) {
			continue
		}
		c0 := clampIndex(int(math.Floor((fb.Min.X-x0)/resolution)), cols)
		c1 := clampIndex(int(math.Ceil((fb.Max.X-x0)/resolution))-1, cols)
		r0 := clampIndex(int(math.Floor((y0-fb.Max.Y)/resolution)), rows)
		r1 := clampIndex(int(math.Ceil((y0-fb.Min.Y)/resolution))-1, rows)
		for row := r0; row <= r1; row++ {
			for col := c0; col <= c1; col++ {
				mask.Set(1, row, col)
			}
		}
	}
	return mask, nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func finiteBounds(b *geom.Bounds) bool {
	for _, v := range []float64{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
