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
	"github.com/ctessum/geom"
)

// GridCell is one square cell of the output lattice.
type GridCell struct {
	geom.Polygonal

	// ID is the dense sequential identifier of the cell. Ids are
	// assigned in row-major order starting from the upper-left cell.
	ID int

	Row, Col int
	Center   geom.Point
	Valid    bool
}

// square returns the closed axis-aligned square centered on c with
// half-width h.
func square(c geom.Point, h float64) geom.Polygon {
	return geom.Polygon{{
		{X: c.X - h, Y: c.Y - h}, {X: c.X + h, Y: c.Y - h},
		{X: c.X + h, Y: c.Y + h}, {X: c.X - h, Y: c.Y + h},
		{X: c.X - h, Y: c.Y - h},
	}}
}

// Polygonize converts the valid cells of r into grid cells. Cells equal
// to the raster's no-data sentinel are skipped entirely; the remaining
// cells get sequential ids in row-major order, so the id of a cell
// depends only on the mask and never on the footprints.
func Polygonize(r *Raster) ([]*GridCell, error) {
	if r == nil {
		return nil, configErrorf("raster", "no raster supplied")
	}
	if !(r.Resolution > 0) {
		return nil, configErrorf("resolution", "must be positive, got %g", r.Resolution)
	}
	rows, cols := r.Shape()
	if rows == 0 || cols == 0 {
		return nil, configErrorf("raster", "grid is empty")
	}
	h := r.Resolution / 2
	var cells []*GridCell
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if !r.Valid(r.Values.Get(row, col)) {
				continue
			}
			c := r.CellCenter(row, col)
			cells = append(cells, &GridCell{
				Polygonal: square(c, h),
				ID:        len(cells),
				Row:       row,
				Col:       col,
				Center:    c,
				Valid:     true,
			})
		}
	}
	return cells, nil
}
