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
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/ctessum/geom"
	"github.com/kr/pretty"
)

func testCell(id int) *GridCell {
	c := geom.Point{X: 5 + 10*float64(id), Y: 5}
	return &GridCell{Polygonal: square(c, 5), ID: id, Col: id, Center: c, Valid: true}
}

func record(c *GridCell, fid int, area float64, vals map[string]float64, center geom.Point) IntersectionRecord {
	return IntersectionRecord{
		Cell:      c,
		Footprint: &Footprint{ID: fid, Center: center, Values: vals},
		Area:      area,
	}
}

func TestAggregate(t *testing.T) {
	c := testCell(0)
	recs := []IntersectionRecord{
		record(c, 1, 1, map[string]float64{"zg": 10, "lfid": 7}, geom.Point{X: 8, Y: 9}),
		record(c, 2, 3, map[string]float64{"zg": 20, "lfid": 7}, geom.Point{X: 5, Y: 5}),
	}
	ag := &Aggregator{
		Variables: Variables([]string{"zg"}, []string{"lfid"}),
		CellArea:  100,
		Fields:    []string{"zg", "lfid", "rh100"},
	}
	aggs, err := ag.Aggregate(context.Background(), recs)
	if err != nil {
		t.Fatal(err)
	}
	if len(aggs) != 1 {
		t.Fatalf("aggregates: have %d, want 1", len(aggs))
	}
	a := aggs[0]
	if a.ShotCount != 2 {
		t.Errorf("shot count: have %d, want 2", a.ShotCount)
	}
	want := Stats{N: 2, Min: 10, Max: 20, Avg: 15, WtAvg: 17.5}
	if diff := pretty.Diff(a.Stats["zg"], want); len(diff) > 0 {
		t.Errorf("zg stats: %v", diff)
	}
	if s := a.PassThrough["lfid"]; s.Avg != 7 || s.N != 2 {
		t.Errorf("pass-through: have %+v", s)
	}
	if _, ok := a.Stats["lfid"]; ok {
		t.Error("pass-through variable should not be aggregated")
	}
	if different(a.CoveredArea, 4, 1e-12) || different(a.CoverageFraction, 0.04, 1e-12) {
		t.Errorf("coverage: have %g, %g; want 4, 0.04", a.CoveredArea, a.CoverageFraction)
	}
	if different(a.MeanDistance, 2.5, 1e-12) {
		t.Errorf("mean distance: have %g, want 2.5", a.MeanDistance)
	}
	if a.Center != c.Center || a.CellID != 0 {
		t.Errorf("cell: have %d %v", a.CellID, a.Center)
	}
}

func TestAggregateConstant(t *testing.T) {
	c := testCell(0)
	var recs []IntersectionRecord
	for i, area := range []float64{0.3, 17, 2.25, 40.1, 1e-3} {
		recs = append(recs, record(c, i, area, map[string]float64{"cc": 42.5}, c.Center))
	}
	aggs, err := (&Aggregator{Variables: Variables([]string{"cc"}, nil), CellArea: 100}).
		Aggregate(context.Background(), recs)
	if err != nil {
		t.Fatal(err)
	}
	s := aggs[0].Stats["cc"]
	if different(s.WtAvg, 42.5, 1e-12) || different(s.Avg, 42.5, 1e-12) {
		t.Errorf("constant variable: have avg %g, weighted %g; want 42.5", s.Avg, s.WtAvg)
	}
}

func TestAggregateNulls(t *testing.T) {
	c := testCell(0)
	recs := []IntersectionRecord{
		record(c, 0, 2, map[string]float64{"zt": math.NaN()}, c.Center),
		record(c, 1, 5, map[string]float64{"zt": 3, "zg": math.NaN()}, c.Center),
		record(c, 2, 1, nil, c.Center),
	}
	aggs, err := (&Aggregator{Variables: Variables([]string{"zt", "zg"}, nil), CellArea: 100}).
		Aggregate(context.Background(), recs)
	if err != nil {
		t.Fatal(err)
	}
	a := aggs[0]
	if a.ShotCount != 3 {
		t.Errorf("shot count: have %d, want 3", a.ShotCount)
	}
	if s := a.Stats["zt"]; s.N != 1 || s.WtAvg != 3 || s.Min != 3 {
		t.Errorf("zt: have %+v", s)
	}
	s := a.Stats["zg"]
	if !s.Null() || !math.IsNaN(s.Avg) || !math.IsNaN(s.WtAvg) || !math.IsNaN(s.Min) || !math.IsNaN(s.Max) {
		t.Errorf("zg should be null: have %+v", s)
	}
}

func TestAggregateZeroWeight(t *testing.T) {
	c := testCell(0)
	recs := []IntersectionRecord{record(c, 0, 0, map[string]float64{"zg": 1}, c.Center)}
	_, err := (&Aggregator{Variables: Variables([]string{"zg"}, nil), CellArea: 100}).
		Aggregate(context.Background(), recs)
	var ae *ArithmeticError
	if !errors.As(err, &ae) {
		t.Fatalf("have error %v, want an ArithmeticError", err)
	}
	if ae.Variable != "zg" || ae.CellID != 0 {
		t.Errorf("error: %+v", ae)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	cells := []*GridCell{testCell(0), testCell(1), testCell(2)}
	var recs []IntersectionRecord
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 60; i++ {
		c := cells[i%3]
		recs = append(recs, record(c, i, rng.Float64()*30+0.1,
			map[string]float64{"zg": rng.Float64() * 1000}, geom.Point{X: rng.Float64() * 30, Y: rng.Float64() * 10}))
	}
	ag := &Aggregator{Variables: Variables([]string{"zg"}, nil), CellArea: 100, Workers: 2}
	a1, err := ag.Aggregate(context.Background(), recs)
	if err != nil {
		t.Fatal(err)
	}
	shuffled := make([]IntersectionRecord, len(recs))
	copy(shuffled, recs)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	a2, err := ag.Aggregate(context.Background(), shuffled)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(a1, a2); len(diff) > 0 {
		t.Errorf("results depend on record order: %v", diff)
	}
	for i, a := range a1 {
		if a.CellID != i {
			t.Errorf("aggregate %d is for cell %d", i, a.CellID)
		}
	}
}

func TestAggregateOverlapCoverage(t *testing.T) {
	c := testCell(0)
	recs := []IntersectionRecord{
		record(c, 0, 100, nil, c.Center),
		record(c, 1, 60, nil, c.Center),
	}
	aggs, err := (&Aggregator{CellArea: 100}).Aggregate(context.Background(), recs)
	if err != nil {
		t.Fatal(err)
	}
	if aggs[0].CoverageFraction != 1.6 {
		t.Errorf("coverage fraction: have %g, want 1.6", aggs[0].CoverageFraction)
	}
	if aggs[0].DisplayCoverage() != 1 {
		t.Errorf("display coverage: have %g, want 1", aggs[0].DisplayCoverage())
	}
}

func TestAggregatorConfig(t *testing.T) {
	c := testCell(0)
	recs := []IntersectionRecord{record(c, 0, 1, map[string]float64{"zg": 1}, c.Center)}
	for _, ag := range []*Aggregator{
		{Variables: Variables([]string{"zg"}, nil), CellArea: 0},
		{Variables: Variables([]string{"zg", "zg"}, nil), CellArea: 1},
		{Variables: Variables([]string{""}, nil), CellArea: 1},
		{Variables: Variables([]string{"rh200"}, nil), CellArea: 1, Fields: []string{"zg", "rh100"}},
	} {
		_, err := ag.Aggregate(context.Background(), recs)
		var ce *ConfigurationError
		if !errors.As(err, &ce) {
			t.Errorf("%+v: have error %v, want a ConfigurationError", ag, err)
		}
	}
}
