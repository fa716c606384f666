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

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// LongLat is the Proj4 definition of geographic coordinates.
const LongLat = "+proj=longlat +datum=WGS84 +no_defs"

// Distance returns the Euclidean distance between a and b. Both points
// must be in the same planar spatial reference.
func Distance(a, b geom.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// WrapLongitude maps a longitude in degrees onto [-180, 180).
func WrapLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// ParseSR parses a spatial reference in Proj4 or WKT format.
func ParseSR(def string) (*proj.SR, error) {
	if def == "" {
		return nil, configErrorf("SR", "no spatial reference specified")
	}
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, configErrorf("SR", "parsing %q: %v", def, err)
	}
	return sr, nil
}

// NewTransform returns a function that converts coordinates from the
// spatial reference src to dst.
func NewTransform(src, dst string) (proj.Transformer, error) {
	srcSR, err := ParseSR(src)
	if err != nil {
		return nil, err
	}
	dstSR, err := ParseSR(dst)
	if err != nil {
		return nil, err
	}
	t, err := srcSR.NewTransform(dstSR)
	if err != nil {
		return nil, fmt.Errorf("lvisgrid: creating transform: %w", err)
	}
	return t, nil
}

// ProjectPoint converts p with t. A nil t, which proj returns when the
// source and destination are the same, leaves p unchanged.
func ProjectPoint(p geom.Point, t proj.Transformer) (geom.Point, error) {
	if t == nil {
		return p, nil
	}
	x, y, err := t(p.X, p.Y)
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Point{X: x, Y: y}, nil
}
