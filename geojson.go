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
	"encoding/json"
	"io"
	"math"

	"github.com/ctessum/geom/encoding/geojson"
)

type geoJSONFeature struct {
	Type       string                 `json:"type"`
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type geoJSONCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

// WriteGeoJSON writes one point feature per aggregate to w as a GeoJSON
// FeatureCollection. Null values are written as JSON null.
func WriteGeoJSON(w io.Writer, vars []Variable, aggs []CellAggregate) error {
	cols := Columns(vars)
	fc := geoJSONCollection{
		Type:     "FeatureCollection",
		Features: make([]geoJSONFeature, len(aggs)),
	}
	for i := range aggs {
		a := &aggs[i]
		g, err := geojson.ToGeoJSON(a.Center)
		if err != nil {
			return err
		}
		props := make(map[string]interface{}, len(cols))
		for j, v := range a.Attributes(vars) {
			switch {
			case math.IsNaN(v):
				props[cols[j].Name] = nil
			case cols[j].Int:
				props[cols[j].Name] = int(v)
			default:
				props[cols[j].Name] = v
			}
		}
		fc.Features[i] = geoJSONFeature{Type: "Feature", Geometry: g, Properties: props}
	}
	e := json.NewEncoder(w)
	return e.Encode(fc)
}
