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

// Footprint is the ground-projected polygon of one measurement.
type Footprint struct {
	geom.Polygonal

	// ID is the index of the source record.
	ID int

	// Center is the nominal center of the footprint in the grid
	// spatial reference.
	Center geom.Point

	// LonLat is the nominal center in geographic coordinates. It is
	// only carried for reporting.
	LonLat geom.Point

	// Values holds the payload variables. A missing key or a NaN value
	// is a null.
	Values map[string]float64
}

// Value returns the value of variable name and whether it is non-null.
func (f *Footprint) Value(name string) (float64, bool) {
	v, ok := f.Values[name]
	if !ok || math.IsNaN(v) {
		return math.NaN(), false
	}
	return v, true
}

// Circle returns a closed polygon approximating the circle of the given
// radius around c, with quadSegs vertices per quarter circle. The first
// vertex lies due east of c and vertices run counter-clockwise.
func Circle(c geom.Point, radius float64, quadSegs int) geom.Polygon {
	if quadSegs < 1 {
		quadSegs = 1
	}
	n := 4 * quadSegs
	ring := make([]geom.Point, n+1)
	for i := 0; i < n; i++ {
		θ := 2 * math.Pi * float64(i) / float64(n)
		ring[i] = geom.Point{X: c.X + radius*math.Cos(θ), Y: c.Y + radius*math.Sin(θ)}
	}
	ring[n] = ring[0]
	return geom.Polygon{ring}
}
