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
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

var (
	errEmptyGeometry  = errors.New("geometry has no rings")
	errNonFinite      = errors.New("geometry has a non-finite coordinate")
	errTooFewVertices = errors.New("ring has fewer than 3 distinct vertices")
	errZeroArea       = errors.New("geometry has zero area")
)

// Validate checks that p is a usable polygon: every ring has at least
// three distinct finite vertices and does not cross itself, and the
// polygon has a positive area.
func Validate(p geom.Polygonal) error {
	if p == nil {
		return errEmptyGeometry
	}
	polys := p.Polygons()
	if len(polys) == 0 {
		return errEmptyGeometry
	}
	for _, poly := range polys {
		if len(poly) == 0 {
			return errEmptyGeometry
		}
		for i, ring := range poly {
			if err := validateRing(ring); err != nil {
				return fmt.Errorf("ring %d: %w", i, err)
			}
		}
	}
	if a := p.Area(); !(a > 0) || math.IsInf(a, 0) {
		return errZeroArea
	}
	return nil
}

// openRing returns r without a repeated closing vertex.
func openRing(r []geom.Point) []geom.Point {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		return r[:len(r)-1]
	}
	return r
}

func validateRing(ring []geom.Point) error {
	r := openRing(ring)
	distinct := make(map[geom.Point]struct{}, len(r))
	for _, pt := range r {
		if math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) {
			return errNonFinite
		}
		distinct[pt] = struct{}{}
	}
	if len(distinct) < 3 {
		return errTooFewVertices
	}
	n := len(r)
	for i := 0; i < n; i++ {
		a1, a2 := r[i], r[(i+1)%n]
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue // adjacent edges share a vertex
			}
			b1, b2 := r[j], r[(j+1)%n]
			if segmentsIntersect(a1, a2, b1, b2) {
				return fmt.Errorf("ring crosses itself between edges %d and %d", i, j)
			}
		}
	}
	return nil
}

// orient returns the sign of the cross product (b-a)x(c-a).
func orient(a, b, c geom.Point) int {
	v := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func onSegment(a, b, p geom.Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// segmentsIntersect reports whether closed segments p1p2 and q1q2 share
// at least one point.
func segmentsIntersect(p1, p2, q1, q2 geom.Point) bool {
	o1, o2 := orient(p1, p2, q1), orient(p1, p2, q2)
	o3, o4 := orient(q1, q2, p1), orient(q1, q2, p2)
	if o1 == 0 && onSegment(p1, p2, q1) {
		return true
	}
	if o2 == 0 && onSegment(p1, p2, q2) {
		return true
	}
	if o3 == 0 && onSegment(q1, q2, p1) {
		return true
	}
	if o4 == 0 && onSegment(q1, q2, p2) {
		return true
	}
	return o1*o2 < 0 && o3*o4 < 0
}
