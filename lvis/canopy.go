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
)

// RHThreshold is the relative height, in meters, separating canopy
// returns from below-canopy returns.
const RHThreshold = 1.37

// CanopyCoverColumn is the name of the column added by AddCanopyCover.
const CanopyCoverColumn = "CC_PERCENT"

// RHPercentiles are the energy percentiles of the RH columns of an LVIS
// L2 file. Column RH<p> holds the height at which p percent of the
// waveform energy has been returned.
var RHPercentiles = []int{10, 15, 20, 25, 30, 35, 40, 45, 50, 55, 60, 65, 70,
	75, 80, 85, 90, 95, 96, 97, 98, 99, 100}

// CanopyCover returns the canopy cover, in percent, of one shot given
// its relative heights ordered as RHPercentiles. It is 100 - p where p is
// the percentile of the first height above threshold, or 0 if no height
// exceeds threshold.
func CanopyCover(rh []float64, threshold float64) float64 {
	for i, h := range rh {
		if i >= len(RHPercentiles) {
			break
		}
		if h > threshold {
			return float64(100 - RHPercentiles[i])
		}
	}
	return 0
}

// AddCanopyCover estimates the canopy cover of every shot in l and
// appends it as column CC_PERCENT.
func AddCanopyCover(l *L2, threshold float64) error {
	idx := make([]int, len(RHPercentiles))
	for i, p := range RHPercentiles {
		name := fmt.Sprintf("RH%d", p)
		if idx[i] = l.Column(name); idx[i] < 0 {
			return fmt.Errorf("lvis: canopy cover: missing column %s", name)
		}
	}
	cc := make([]float64, len(l.Rows))
	rh := make([]float64, len(idx))
	for i, row := range l.Rows {
		for j, c := range idx {
			rh[j] = row[c]
		}
		cc[i] = CanopyCover(rh, threshold)
	}
	return l.AddColumn(CanopyCoverColumn, cc)
}
