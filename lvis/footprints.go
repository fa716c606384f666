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

package lvis

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/spatialmodel/lvisgrid"
)

// Default footprint settings.
const (
	DefaultShotDiameter     = 20.0
	DefaultQuadrantSegments = 8
	DefaultLonColumn        = "GLON"
	DefaultLatColumn        = "GLAT"
)

// Projector converts LVIS shots into circular footprints in a planar
// grid spatial reference.
type Projector struct {
	// ShotDiameter is the diameter of a laser shot on the ground, in
	// the units of the grid spatial reference.
	ShotDiameter float64

	// QuadrantSegments is the number of polygon vertices per quarter
	// circle.
	QuadrantSegments int

	// LonColumn and LatColumn name the columns holding the shot
	// location in degrees. Longitudes may be in [0, 360).
	LonColumn, LatColumn string

	transform proj.Transformer
}

// NewProjector returns a Projector with default settings that
// transforms geographic coordinates into gridSR.
func NewProjector(gridSR string) (*Projector, error) {
	t, err := lvisgrid.NewTransform(lvisgrid.LongLat, gridSR)
	if err != nil {
		return nil, err
	}
	return &Projector{
		ShotDiameter:     DefaultShotDiameter,
		QuadrantSegments: DefaultQuadrantSegments,
		LonColumn:        DefaultLonColumn,
		LatColumn:        DefaultLatColumn,
		transform:        t,
	}, nil
}

// Footprints returns one footprint per shot in l, carrying the values
// of vars. Footprint ids are row indices.
func (p *Projector) Footprints(l *L2, vars []string) ([]*lvisgrid.Footprint, error) {
	if !(p.ShotDiameter > 0) {
		return nil, &lvisgrid.ConfigurationError{Param: "ShotDiameter",
			Msg: fmt.Sprintf("must be positive, got %g", p.ShotDiameter)}
	}
	lonCol, latCol := l.Column(p.LonColumn), l.Column(p.LatColumn)
	if lonCol < 0 || latCol < 0 || l.Text(lonCol) || l.Text(latCol) {
		return nil, &lvisgrid.ConfigurationError{Param: "columns",
			Msg: fmt.Sprintf("numeric location columns %s and %s are required", p.LonColumn, p.LatColumn)}
	}
	varCols := make([]int, len(vars))
	for i, v := range vars {
		if varCols[i] = l.Column(v); varCols[i] < 0 {
			return nil, &lvisgrid.ConfigurationError{Param: "Variables",
				Msg: fmt.Sprintf("unrecognized variable %q", v)}
		}
		if l.Text(varCols[i]) {
			return nil, &lvisgrid.ConfigurationError{Param: "Variables",
				Msg: fmt.Sprintf("variable %q is not numeric", v)}
		}
	}
	radius := p.ShotDiameter / 2
	out := make([]*lvisgrid.Footprint, len(l.Rows))
	for i, row := range l.Rows {
		ll := geom.Point{X: lvisgrid.WrapLongitude(row[lonCol]), Y: row[latCol]}
		c, err := lvisgrid.ProjectPoint(ll, p.transform)
		if err != nil {
			return nil, fmt.Errorf("lvis: projecting shot %d: %v", i, err)
		}
		f := &lvisgrid.Footprint{
			ID:     i,
			Center: c,
			LonLat: ll,
			Values: make(map[string]float64, len(vars)),
		}
		if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsInf(c.X, 0) || math.IsInf(c.Y, 0) {
			// Left empty so that the join skips and counts it.
			f.Polygonal = geom.Polygon{}
		} else {
			f.Polygonal = lvisgrid.Circle(c, radius, p.QuadrantSegments)
		}
		for j, v := range vars {
			f.Values[v] = row[varCols[j]]
		}
		out[i] = f
	}
	return out, nil
}
