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
	"context"
	"math"
	"runtime"
	"sort"

	"github.com/ctessum/geom"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mode specifies how a footprint variable is carried into the grid.
type Mode int

const (
	// Aggregate variables are summarized by their min, max, mean and
	// area-weighted mean.
	Aggregate Mode = iota

	// PassThrough variables are identity fields that are copied to
	// the output as their unweighted mean.
	PassThrough
)

func (m Mode) String() string {
	if m == PassThrough {
		return "pass-through"
	}
	return "aggregate"
}

// Variable is a footprint field to carry into the grid.
type Variable struct {
	Name string
	Mode Mode
}

// Variables returns the aggregated variables followed by the
// pass-through variables.
func Variables(aggregate, passThrough []string) []Variable {
	v := make([]Variable, 0, len(aggregate)+len(passThrough))
	for _, n := range aggregate {
		v = append(v, Variable{Name: n, Mode: Aggregate})
	}
	for _, n := range passThrough {
		v = append(v, Variable{Name: n, Mode: PassThrough})
	}
	return v
}

// Stats summarizes one variable over the footprints touching a cell.
// N is the number of non-null values; when it is zero every statistic
// is null and holds NaN.
type Stats struct {
	N                    int
	Min, Max, Avg, WtAvg float64
}

// Null reports whether every contributing value was null.
func (s Stats) Null() bool { return s.N == 0 }

func nullStats() Stats {
	nan := math.NaN()
	return Stats{Min: nan, Max: nan, Avg: nan, WtAvg: nan}
}

// CellAggregate is the gridded result for one covered cell.
type CellAggregate struct {
	CellID   int
	Row, Col int

	// Center is the output geometry.
	Center geom.Point

	ShotCount int

	// CoveredArea is the sum of the intersection areas.
	CoveredArea float64

	// CoverageFraction is CoveredArea divided by the cell area. It is
	// not clamped; see DisplayCoverage.
	CoverageFraction float64

	// MeanDistance is the mean distance from the footprint centers to
	// the cell center.
	MeanDistance float64

	Stats       map[string]Stats
	PassThrough map[string]Stats
}

// DisplayCoverage returns the coverage fraction clamped to [0, 1].
func (a *CellAggregate) DisplayCoverage() float64 {
	return math.Max(0, math.Min(1, a.CoverageFraction))
}

// Aggregator groups intersection records by cell and computes
// coverage-weighted statistics.
type Aggregator struct {
	Variables []Variable

	// CellArea is the area of one grid cell.
	CellArea float64

	// Fields, if not nil, lists the variable names carried by the
	// footprints. Requested variables missing from Fields are a
	// configuration error.
	Fields []string

	// Workers is the number of groups processed concurrently. If < 1,
	// runtime.GOMAXPROCS(0) is used.
	Workers int
}

func (ag *Aggregator) check() error {
	if !(ag.CellArea > 0) {
		return configErrorf("CellArea", "must be positive, got %g", ag.CellArea)
	}
	seen := make(map[string]bool)
	known := make(map[string]bool)
	for _, f := range ag.Fields {
		known[f] = true
	}
	for _, v := range ag.Variables {
		if v.Name == "" {
			return configErrorf("Variables", "empty variable name")
		}
		if seen[v.Name] {
			return configErrorf("Variables", "variable %q requested more than once", v.Name)
		}
		seen[v.Name] = true
		if ag.Fields != nil && !known[v.Name] {
			return configErrorf("Variables", "unrecognized variable %q", v.Name)
		}
	}
	return nil
}

// Aggregate computes one CellAggregate for each cell referenced by
// records. The result is ordered by cell id and does not depend on the
// order of records.
func (ag *Aggregator) Aggregate(ctx context.Context, records []IntersectionRecord) ([]CellAggregate, error) {
	if err := ag.check(); err != nil {
		return nil, err
	}
	groups := make(map[int][]IntersectionRecord)
	for _, r := range records {
		groups[r.Cell.ID] = append(groups[r.Cell.ID], r)
	}
	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]CellAggregate, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	w := ag.Workers
	if w < 1 {
		w = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(w)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a, err := ag.aggregateCell(groups[id])
			if err != nil {
				return err
			}
			out[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// aggregateCell summarizes the records of a single cell.
func (ag *Aggregator) aggregateCell(recs []IntersectionRecord) (CellAggregate, error) {
	// Reduce in footprint order so that floating point sums are
	// reproducible.
	sort.Slice(recs, func(i, j int) bool { return recs[i].Footprint.ID < recs[j].Footprint.ID })

	cell := recs[0].Cell
	a := CellAggregate{
		CellID:    cell.ID,
		Row:       cell.Row,
		Col:       cell.Col,
		Center:    cell.Center,
		ShotCount: len(recs),
	}
	areas := make([]float64, len(recs))
	dists := make([]float64, len(recs))
	for i, r := range recs {
		areas[i] = r.Area
		dists[i] = Distance(r.Footprint.Center, cell.Center)
	}
	a.CoveredArea = floats.Sum(areas)
	a.CoverageFraction = a.CoveredArea / ag.CellArea
	a.MeanDistance = stat.Mean(dists, nil)

	for _, v := range ag.Variables {
		s, err := summarize(cell.ID, v.Name, recs)
		if err != nil {
			return a, err
		}
		switch v.Mode {
		case PassThrough:
			if a.PassThrough == nil {
				a.PassThrough = make(map[string]Stats)
			}
			a.PassThrough[v.Name] = s
		default:
			if a.Stats == nil {
				a.Stats = make(map[string]Stats)
			}
			a.Stats[v.Name] = s
		}
	}
	return a, nil
}

// summarize computes the statistics of variable name over recs, skipping
// null values.
func summarize(cellID int, name string, recs []IntersectionRecord) (Stats, error) {
	vals := make([]float64, 0, len(recs))
	weights := make([]float64, 0, len(recs))
	for _, r := range recs {
		v, ok := r.Footprint.Value(name)
		if !ok {
			continue
		}
		vals = append(vals, v)
		weights = append(weights, r.Area)
	}
	if len(vals) == 0 {
		return nullStats(), nil
	}
	if floats.Sum(weights) == 0 {
		return Stats{}, &ArithmeticError{CellID: cellID, Variable: name}
	}
	return Stats{
		N:     len(vals),
		Min:   floats.Min(vals),
		Max:   floats.Max(vals),
		Avg:   stat.Mean(vals, nil),
		WtAvg: stat.Mean(vals, weights),
	}, nil
}
