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
	"testing"

	"github.com/ctessum/geom"
)

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		name  string
		p     geom.Polygonal
		valid bool
	}{
		{name: "square", p: rect(0, 0, 1, 1), valid: true},
		{name: "circle", p: Circle(geom.Point{X: 3, Y: 4}, 10, 8), valid: true},
		{name: "open ring", p: geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}}, valid: true},
		{name: "nil", p: nil},
		{name: "empty", p: geom.Polygon{}},
		{name: "empty ring", p: geom.Polygon{{}}},
		{name: "two vertices", p: geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 0}}}},
		{name: "collinear", p: geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 0}}}},
		{name: "bowtie", p: geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: 0}}}},
		{name: "nan", p: rect(0, 0, math.NaN(), 1)},
		{name: "inf", p: rect(0, 0, math.Inf(1), 1)},
	} {
		t.Run(test.name, func(t *testing.T) {
			err := Validate(test.p)
			if test.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !test.valid && err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestCircle(t *testing.T) {
	c := Circle(geom.Point{X: 1, Y: 2}, 3, 4)
	if len(c) != 1 || len(c[0]) != 17 {
		t.Fatalf("circle shape: %d rings", len(c))
	}
	if c[0][0] != c[0][16] {
		t.Error("ring is not closed")
	}
	if c[0][0] != (geom.Point{X: 4, Y: 2}) {
		t.Errorf("first vertex: have %v, want (4, 2)", c[0][0])
	}
	for i, p := range c[0] {
		if different(Distance(p, geom.Point{X: 1, Y: 2}), 3, 1e-12) {
			t.Errorf("vertex %d is not on the circle", i)
		}
	}
}

func TestWrapLongitude(t *testing.T) {
	for _, test := range []struct{ in, want float64 }{
		{0, 0}, {240, -120}, {-120, -120}, {359.5, -0.5}, {180, -180}, {-540, -180},
	} {
		if have := WrapLongitude(test.in); math.Abs(have-test.want) > 1e-12 {
			t.Errorf("WrapLongitude(%g): have %g, want %g", test.in, have, test.want)
		}
	}
}

func TestProjectPointIdentity(t *testing.T) {
	tr, err := NewTransform(LongLat, LongLat)
	if err != nil {
		t.Fatal(err)
	}
	p := geom.Point{X: -97.5, Y: 40.25}
	have, err := ProjectPoint(p, tr)
	if err != nil {
		t.Fatal(err)
	}
	if have != p {
		t.Errorf("have %v, want %v", have, p)
	}
}
